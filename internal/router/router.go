package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-api/internal/handler/prometheus"
	"github.com/jwalitptl/hospital-api/internal/middleware"
	"github.com/jwalitptl/hospital-api/internal/model"
)

const apiVersion = "1.0"

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// PublicHandler also exposes routes that need no token.
type PublicHandler interface {
	Handler
	RegisterPublicRoutes(*gin.RouterGroup)
}

type Handlers struct {
	Appointment Handler
	Doctor      Handler
	Patient     PublicHandler
	Stats       Handler
	Health      Handler
	Metrics     *prometheus.Handler
}

type RouterConfig struct {
	RequestTimeout   time.Duration
	RateLimitEnabled bool
	RateLimit        middleware.RateLimiterConfig
	CORS             middleware.CORSConfig
	Security         middleware.SecurityConfig
	MaxBodyBytes     int64
	MetricsPath      string
	Mode             string
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	config   RouterConfig
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, config RouterConfig) *Router {
	if config.Mode == "" {
		config.Mode = gin.ReleaseMode
	}
	gin.SetMode(config.Mode)
	if config.MetricsPath == "" {
		config.MetricsPath = "/metrics"
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		config:   config,
	}

	// RequestID first so every later middleware logs with the request logger
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
	)
	if handlers.Metrics != nil {
		engine.Use(handlers.Metrics.Middleware())
	}
	engine.Use(
		middleware.SecurityHeaders(config.Security),
		middleware.CORS(config.CORS),
		middleware.BodyLimit(config.MaxBodyBytes),
	)
	if config.RateLimitEnabled {
		engine.Use(middleware.NewRateLimiter(config.RateLimit).RateLimit())
	}
	engine.Use(middleware.ErrorHandler())
	if config.RequestTimeout > 0 {
		engine.Use(middleware.Timeout(config.RequestTimeout))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, middleware.ErrorResponse{
			Status:  "error",
			Code:    "not_found",
			Message: "route not found",
			TraceID: c.GetString(middleware.ContextRequestID),
		})
	})

	return r
}

func (r *Router) Setup() {
	if r.handlers.Metrics != nil {
		r.engine.GET(r.config.MetricsPath, r.handlers.Metrics.Handler())
	}

	api := r.engine.Group("/api/v1", middleware.Version(apiVersion))

	// Health check endpoints
	r.handlers.Health.RegisterRoutes(api)

	// Public routes
	r.handlers.Patient.RegisterPublicRoutes(api)

	// Protected routes
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.setupProtectedRoutes(protected)
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	r.handlers.Appointment.RegisterRoutes(rg)
	r.handlers.Doctor.RegisterRoutes(rg)
	r.handlers.Patient.RegisterRoutes(rg)

	// patients never see aggregate numbers; the service narrows further
	staff := rg.Group("", r.auth.RequireRole(model.RoleAdmin, model.RoleDoctor))
	r.handlers.Stats.RegisterRoutes(staff)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.engine.ServeHTTP(w, req)
}
