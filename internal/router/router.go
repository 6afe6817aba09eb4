package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/eservice-api/internal/handler/health"
	"github.com/jwalitptl/eservice-api/internal/handler/prometheus"
	"github.com/jwalitptl/eservice-api/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type RouterConfig struct {
	Mode          string
	RateLimit     rate.Limit
	RateBurst     int
	RateEnabled   bool
	RateTTL       time.Duration
	CORSConfig    middleware.CORSConfig
	HSTS          bool
	MaxBodySize   int64
	ExposeMetrics bool
}

type Router struct {
	engine  *gin.Engine
	auth    *middleware.AuthMiddleware
	health  *health.Handler
	metrics *prometheus.Handler
	api     []Handler
}

// NewRouter assembles the engine. Every handler in api is mounted under /api
// behind Authenticate and Authorize; health and metrics stay outside the guard.
func NewRouter(
	auth *middleware.AuthMiddleware,
	healthH *health.Handler,
	metricsH *prometheus.Handler,
	config RouterConfig,
	api ...Handler,
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = middleware.DefaultMaxBodySize
	}

	engine := gin.New()
	r := &Router{
		engine:  engine,
		auth:    auth,
		health:  healthH,
		metrics: metricsH,
		api:     api,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.ErrorHandler(),
	)
	if metricsH != nil {
		engine.Use(metricsH.Middleware())
	}
	engine.Use(
		middleware.CORS(config.CORSConfig),
		middleware.SecurityHeaders(config.HSTS),
		middleware.BodyLimit(config.MaxBodySize),
	)
	if config.RateEnabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
			TTL:   config.RateTTL,
		})
		engine.Use(limiter.RateLimit())
	}

	r.setup(config.ExposeMetrics)
	return r
}

func (r *Router) setup(exposeMetrics bool) {
	if r.health != nil {
		r.health.RegisterRoutes(r.engine)
	}
	if exposeMetrics && r.metrics != nil {
		r.engine.GET("/metrics", r.metrics.Handler())
	}

	api := r.engine.Group("/api")
	api.Use(
		r.auth.Authenticate(),
		r.auth.Authorize(),
	)
	for _, h := range r.api {
		h.RegisterRoutes(api)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
