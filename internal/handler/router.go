package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tellie-app/tellie-backend/internal/config"
	"github.com/tellie-app/tellie-backend/internal/handler/livekit"
	storyHandler "github.com/tellie-app/tellie-backend/internal/handler/story"
	"github.com/tellie-app/tellie-backend/internal/handler/system"
	"github.com/tellie-app/tellie-backend/internal/service/pipeline"
	"github.com/tellie-app/tellie-backend/internal/service/session"
	"github.com/tellie-app/tellie-backend/internal/service/token"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(cfg *config.Config, pipelineSvc *pipeline.Service, sessions *session.Store, tokenSvc *token.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	storyHandler.New(pipelineSvc, sessions, cfg.Media).RegisterRoutes(r)
	system.New(cfg, sessions).RegisterRoutes(r)
	livekit.New(tokenSvc).RegisterRoutes(r)

	// Generated story audio is served straight from disk.
	audioServer := http.StripPrefix("/audio/", http.FileServer(http.Dir(cfg.Media.AudioDir)))
	r.Get("/audio/*", audioServer.ServeHTTP)

	return r
}
