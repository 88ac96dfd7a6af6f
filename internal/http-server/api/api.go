package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"eventreg/internal/config"
	"eventreg/internal/http-server/handlers/activity"
	"eventreg/internal/http-server/handlers/errors"
	"eventreg/internal/http-server/handlers/profile"
	"eventreg/internal/http-server/handlers/record"
	"eventreg/internal/http-server/handlers/registration"
	"eventreg/internal/http-server/middleware/authenticate"
	"eventreg/internal/http-server/middleware/timeout"
	"eventreg/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const requestTimeout = 15 * time.Second

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	listener   net.Listener
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	activity.Core
	registration.Core
	record.Core
	profile.Core
}

// NewRouter builds the route tree; /metrics is served without authentication.
func NewRouter(log *slog.Logger, handler Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.Route("/v1", func(v1 chi.Router) {
		v1.Use(timeout.Timeout(requestTimeout))
		v1.Use(render.SetContentType(render.ContentTypeJSON))
		v1.Use(authenticate.New(log, handler))

		v1.Route("/activities", func(r chi.Router) {
			r.Post("/", activity.Submit(log, handler))
			r.Get("/", activity.List(log, handler))
			r.Get("/{id}", activity.Get(log, handler))
			r.Delete("/{id}", activity.Delete(log, handler))
			r.Post("/{id}/decision", activity.Decide(log, handler))
			r.Post("/{id}/enroll", activity.Enroll(log, handler))
		})
		v1.Route("/registrations", func(r chi.Router) {
			r.Get("/", registration.List(log, handler))
			r.Get("/{id}", registration.Get(log, handler))
			r.Delete("/{id}", registration.Cancel(log, handler))
			r.Post("/{id}/decision", registration.Decide(log, handler))
		})
		v1.Route("/records", func(r chi.Router) {
			r.Post("/", record.Submit(log, handler))
			r.Get("/", record.List(log, handler))
			r.Get("/{id}", record.Get(log, handler))
			r.Get("/{id}/attachment", record.Attachment(log, handler))
			r.Post("/{id}/decision", record.Decide(log, handler))
		})
		v1.Get("/profiles/{id}", profile.Get(log, handler))
	})

	return router
}

// New binds the listen address; Serve blocks until Shutdown.
func New(conf *config.Config, log *slog.Logger, handler Handler) (*Server, error) {
	server := &Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:      NewRouter(log, handler),
		ErrorLog:     httpLog,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIp, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return nil, err
	}
	server.listener = listener
	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server, nil
}

func (s *Server) Serve() error {
	err := s.httpServer.Serve(s.listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
