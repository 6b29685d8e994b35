package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// HealthChecker reports readiness of a backing dependency.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Router assembles the HTTP API.
type Router struct {
	userHandler    *UserHandler
	productHandler *ProductHandler
	imageHandler   *ImageHandler
	authMiddleware func(http.Handler) http.Handler
	middlewares    []func(http.Handler) http.Handler
	db             HealthChecker
	logger         zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	UserHandler    *UserHandler
	ProductHandler *ProductHandler
	ImageHandler   *ImageHandler
	AuthMiddleware func(http.Handler) http.Handler

	// Middlewares are applied to every route, before authentication.
	Middlewares []func(http.Handler) http.Handler

	// Database is pinged by the health endpoint when set.
	Database HealthChecker

	Logger zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(config RouterConfig) *Router {
	return &Router{
		userHandler:    config.UserHandler,
		productHandler: config.ProductHandler,
		imageHandler:   config.ImageHandler,
		authMiddleware: config.AuthMiddleware,
		middlewares:    config.Middlewares,
		db:             config.Database,
		logger:         config.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
//
// GET /v2/product/{productId} and POST /v2/user are the only open
// endpoints besides the health probe; everything else sits behind Basic
// auth.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(rt.requestLogger)
	for _, mw := range rt.middlewares {
		r.Use(mw)
	}

	r.Get("/healthz", rt.handleHealth)

	r.Route("/v2", func(r chi.Router) {
		// Open endpoints
		r.Post("/user", rt.userHandler.Create)
		r.Get("/product/{productId}", rt.productHandler.Get)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware)

			r.Get("/user/{userId}", rt.userHandler.Get)
			r.Put("/user/{userId}", rt.userHandler.Update)

			r.Post("/product", rt.productHandler.Create)
			r.Put("/product/{productId}", rt.productHandler.Replace)
			r.Patch("/product/{productId}", rt.productHandler.Patch)
			r.Delete("/product/{productId}", rt.productHandler.Delete)

			r.Post("/product/{productId}/image", rt.imageHandler.Upload)
			r.Get("/product/{productId}/image", rt.imageHandler.List)
			r.Get("/product/{productId}/image/{imageId}", rt.imageHandler.Get)
			r.Delete("/product/{productId}/image/{imageId}", rt.imageHandler.Delete)
		})
	})

	return r
}

// handleHealth handles liveness probes. The probe stays cheap: it pings
// the database when one is wired but always reports 200, since the
// process itself is alive.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	if rt.db != nil {
		if err := rt.db.Ping(r.Context()); err != nil {
			rt.logger.Warn().Err(err).Msg("health check database ping failed")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// requestLogger logs one line per request.
func (rt *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		rt.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request handled")
	})
}
