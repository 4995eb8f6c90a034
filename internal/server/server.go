package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bjarke-xyz/ams-gateway/internal/domain"
	"github.com/bjarke-xyz/ams-gateway/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type server struct {
	logger *slog.Logger

	appRepository domain.ApplicationRepository
	broker        *WsBroker
}

// NewServer creates the AMS endpoint backed by conn. The returned server's
// broker runs until ctx is done.
func NewServer(ctx context.Context, logger *slog.Logger, conn repository.Connection) *server {
	return newServer(ctx, logger, repository.NewPostgresApp(conn))
}

func newServer(ctx context.Context, logger *slog.Logger, appRepository domain.ApplicationRepository) *server {
	broker := NewWsBroker()
	go broker.Listen(ctx, logger)
	return &server{
		logger:        logger,
		appRepository: appRepository,
		broker:        broker,
	}
}

func (s *server) Server(port int) *http.Server {
	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.routes(),
	}
}

func (s *server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Get("/up", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "up!")
	})

	r.Route("/api/ams", func(r chi.Router) {
		r.Post("/", s.handleGraphql)
		r.Get("/ws", s.handleSubscription)
		r.Post("/applications", s.handleRegisterApplication)
		r.Get("/applications/{application-id}", s.handleGetApplication)
	})
	return r
}

func jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
