package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/taskhub/taskhub/internal/domain/user"
)

func TestUsersRepo_CreateAndLookup(t *testing.T) {
	repo := NewUsersRepo()
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, user.CreateUserRequest{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.com",
		PasswordHash: "hash",
	})

	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if created.ID == "" {
		t.Fatal("expected the repo to assign an id")
	}

	byEmail, err := repo.GetUserByEmail(ctx, "ada@example.com")

	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}

	if byEmail.ID != created.ID {
		t.Fatalf("email lookup returned id %s, want %s", byEmail.ID, created.ID)
	}

	byID, err := repo.GetUserByID(ctx, created.ID)

	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}

	if byID.Email != "ada@example.com" {
		t.Fatalf("id lookup returned email %s", byID.Email)
	}
}

func TestUsersRepo_DuplicateEmail(t *testing.T) {
	repo := NewUsersRepo()
	ctx := context.Background()

	_, err := repo.CreateUser(ctx, user.CreateUserRequest{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.com",
		PasswordHash: "hash",
	})

	if err != nil {
		t.Fatalf("first CreateUser failed: %v", err)
	}

	_, err = repo.CreateUser(ctx, user.CreateUserRequest{
		FirstName:    "Other",
		LastName:     "Person",
		Email:        "ada@example.com",
		PasswordHash: "hash2",
	})

	if !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("got %v, want ErrEmailTaken", err)
	}
}

func TestUsersRepo_NotFound(t *testing.T) {
	repo := NewUsersRepo()
	ctx := context.Background()

	if _, err := repo.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("GetUserByEmail: got %v, want ErrNotFound", err)
	}

	if _, err := repo.GetUserByID(ctx, "missing-id"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("GetUserByID: got %v, want ErrNotFound", err)
	}
}
