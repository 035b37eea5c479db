package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/taskr/internal/models"
	"github.com/desertthunder/taskr/internal/policy"
	"github.com/desertthunder/taskr/internal/shared"
	"github.com/desertthunder/taskr/internal/tasks"
)

// HealthHandler answers liveness probes.
type HealthHandler struct{}

func (HealthHandler) Routes() []string { return []string{"GET /health"} }

func (HealthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// protected applies middleware to a single [Handler] while keeping its routes.
type protected struct {
	http.Handler
	routes []string
}

func (p protected) Routes() []string { return p.routes }

// Protect wraps h with middleware that runs after the router's own stack.
func Protect(h Handler, middleware ...Middleware) Handler {
	var wrapped http.Handler = h
	for i := len(middleware) - 1; i >= 0; i-- {
		wrapped = middleware[i](wrapped)
	}
	return protected{Handler: wrapped, routes: h.Routes()}
}

// APIConfig collects the collaborators of the task API.
type APIConfig struct {
	Store     models.TaskStore
	Auth      policy.Authorizer
	Users     UserResolver
	Logger    *log.Logger
	RateLimit float64 // requests per second per client; 0 disables limiting
	Burst     int
	Options   []tasks.Option
}

// NewAPI builds the router serving the task API and health endpoint.
func NewAPI(cfg APIConfig) *BasicRouter {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = shared.WithLogger(logger, "component", "http")

	router := NewBasicRouter()
	router.Use(Recover(logger), Logging(logger))
	if cfg.RateLimit > 0 {
		router.Use(RateLimit(NewLimiter(cfg.RateLimit, cfg.Burst)))
	}

	router.Handler(HealthHandler{})
	router.Handler(Protect(
		NewTaskHandler(cfg.Store, cfg.Auth, logger, cfg.Options...),
		RequireUser(cfg.Users),
	))
	return router
}
