package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskhub/taskhub/internal/config"
	"github.com/taskhub/taskhub/internal/domain/user"
	"github.com/taskhub/taskhub/internal/security"
)

// AccountStore is the slice of the persistence adapter the account endpoints
// need; postgres, mongodb and memory all satisfy it.
type AccountStore interface {
	CreateUser(ctx context.Context, req user.CreateUserRequest) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
}

type AccountsHandler struct {
	store AccountStore
}

func NewAccountsHandler(store AccountStore) *AccountsHandler {
	return &AccountsHandler{store: store}
}

type SignUpRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AccountsHandler) SignUp(ctx *gin.Context) {
	var req SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Internal Server Error")
		return
	}

	u, err := h.store.CreateUser(cctx, user.CreateUserRequest{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
	})

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondConflict(ctx, "email_taken", "Email already exists.")
			return
		}

		RespondInternal(ctx, "Internal Server Error")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully!",
		"userId":  u.ID,
	})
}

func (h *AccountsHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for the lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.store.GetUserByEmail(cctx, req.Email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// same response as a bad password: never reveal which one it was
			RespondUnAuthorized(ctx, "invalid_credentials", "Invalid email or password.")
			return
		}

		RespondInternal(ctx, "Internal Server Error")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Invalid email or password.")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Login Succeeded!",
		"user":    foundUser.Summary(),
	})
}
