package http

import (
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/taskhub/taskhub/internal/cache"
	"github.com/taskhub/taskhub/internal/http/handlers"
	"github.com/taskhub/taskhub/internal/http/middlewares"
	"github.com/taskhub/taskhub/internal/observability"
)

const serviceName = "taskhub-api"

// Deps carries the wired persistence adapter plus the optional operational
// pieces. Users and Tasks are interfaces, so any backend (postgres, mongo,
// memory) plugs in without touching handler code.
type Deps struct {
	Users handlers.AccountStore
	// UserIDs is the same backend exposed through the task-side capability.
	UserIDs handlers.UserFinder
	Tasks   handlers.TaskStore

	// Ping reports reachability of the active backend; nil means always ready.
	Ping func() error

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Cache    *cache.Cache
	Limiter  *middlewares.RateLimiter

	AllowedOrigins []string
}

func NewRouter(log *slog.Logger, deps Deps) *gin.Engine {
	cfgEnv := os.Getenv("APP_ENV")

	if cfgEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.MaxBodyBytes(1 << 20))
	r.Use(middlewares.RequireJSON())

	if len(deps.AllowedOrigins) > 0 {
		r.Use(middlewares.CORSMiddleware(deps.AllowedOrigins))
	}

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	// health + metrics

	h := handlers.NewHealthHandler(deps.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// wire up handlers

	accountsHandler := handlers.NewAccountsHandler(deps.Users)

	var tasksHandler *handlers.TasksHandler

	if deps.Cache != nil {
		tasksHandler = handlers.NewTasksHandlerWithCache(deps.Tasks, deps.UserIDs, deps.Cache)
	} else {
		tasksHandler = handlers.NewTasksHandler(deps.Tasks, deps.UserIDs)
	}

	signup := gin.HandlerFunc(accountsHandler.SignUp)
	login := gin.HandlerFunc(accountsHandler.Login)

	// credential endpoints get a rate limit keyed by client address
	if deps.Limiter != nil {
		limit := deps.Limiter.RateLimiterMiddleware(middlewares.KeyByIP)
		r.POST("/signup", limit, signup)
		r.POST("/login", limit, login)
	} else {
		r.POST("/signup", signup)
		r.POST("/login", login)
	}

	r.POST("/tasks", tasksHandler.CreateTask)
	r.GET("/tasks", tasksHandler.ListTasks)
	r.PATCH("/tasks/:id", tasksHandler.UpdateTaskStatus)
	r.DELETE("/tasks/:id", tasksHandler.DeleteTask)

	return r
}
