package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tellie-app/tellie-backend/internal/config"
	"github.com/tellie-app/tellie-backend/internal/handler"
	"github.com/tellie-app/tellie-backend/internal/service/ai"
	"github.com/tellie-app/tellie-backend/internal/service/pipeline"
	"github.com/tellie-app/tellie-backend/internal/service/session"
	"github.com/tellie-app/tellie-backend/internal/service/speech"
	"github.com/tellie-app/tellie-backend/internal/service/token"
	"github.com/tellie-app/tellie-backend/internal/service/transcribe"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	sessions := session.NewStore()

	aiService, err := ai.NewService(ctx, sessions, cfg.OpenAI)
	if err != nil {
		log.Fatalf("failed to initialize AI service: %v", err)
	}
	if !aiService.Configured() {
		log.Println("OpenAI credential not configured - story generation will use mock responses")
	}

	transcribeService := transcribe.NewService(cfg.OpenAI)
	if !transcribeService.Configured() {
		log.Println("OpenAI credential not configured - transcription will use mock responses")
	}

	speechService := speech.NewService(cfg.ElevenLabs, cfg.Media.AudioDir)
	if !speechService.Configured() {
		log.Println("ElevenLabs credential not configured - synthesis will use the mock audio URL")
	}

	tokenService := token.NewService(cfg.LiveKit)
	if !tokenService.Configured() {
		log.Println("LiveKit credential pair not configured - tokens are signed with the placeholder pair")
	}

	pipelineService := pipeline.NewService(transcribeService, aiService, speechService, sessions)

	router := handler.NewRouter(cfg, pipelineService, sessions, tokenService)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Tellie backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
