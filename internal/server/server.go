package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukerupert/casa/internal/auth"
	"github.com/dukerupert/casa/internal/errs"
	"github.com/dukerupert/casa/internal/handler"
	"github.com/dukerupert/casa/internal/middleware"
	ws "github.com/dukerupert/casa/internal/websocket"
)

const (
	authRateLimit  = 10
	authRateWindow = time.Minute
)

// Options are the collaborators the server routes to.
type Options struct {
	Routes   []handler.Route
	DB       handler.Pinger
	Auth     *auth.Service
	Limiter  middleware.Limiter
	Hub      *ws.Hub
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

type Server struct {
	opts    Options
	logger  *slog.Logger
	fail    middleware.ErrorWriter
	metrics *middleware.Metrics
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.Limiter == nil {
		opts.Limiter = middleware.NewRateLimiter()
	}
	logger := opts.Logger.With("component", "http")
	return &Server{
		opts:    opts,
		logger:  logger,
		fail:    handler.ErrorWriter(logger),
		metrics: middleware.NewMetrics(opts.Registry),
	}
}

// Router returns the HTTP handler serving every route.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	for _, rt := range handler.HealthRoutes(s.opts.DB) {
		s.register(mux, rt)
	}
	for _, rt := range s.opts.Routes {
		s.register(mux, rt)
	}

	mux.Handle("GET /metrics", s.metrics.Instrument(
		promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{Registry: s.opts.Registry})))
	if s.opts.Hub != nil {
		mux.Handle("GET /ws", s.metrics.Instrument(
			middleware.RequireAuth(s.opts.Auth, s.fail)(ws.HandleWebSocket(s.opts.Hub, s.opts.Logger.With("component", "websocket")))))
	}
	mux.Handle("/", s.metrics.Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.fail(w, r, errs.New(errs.ENotFound, "route not found"))
	})))

	var h http.Handler = mux
	h = middleware.Recover(s.logger, s.fail)(h)
	h = middleware.RequestLogger(s.logger)(h)
	return h
}

func (s *Server) register(mux *http.ServeMux, rt handler.Route) {
	h := handler.Serve(s.logger, rt.Handle)
	switch rt.Access {
	case handler.Admin:
		h = middleware.RequireAdmin(s.opts.Auth, s.fail)(h)
		h = middleware.RequireAuth(s.opts.Auth, s.fail)(h)
	case handler.Authenticated:
		h = middleware.RequireAuth(s.opts.Auth, s.fail)(h)
	}
	if rt.Limited {
		h = middleware.RateLimit(s.logger, s.opts.Limiter, middleware.RealIP, authRateLimit, authRateWindow, s.fail)(h)
	}
	mux.Handle(rt.Pattern, s.metrics.Instrument(h))
}
