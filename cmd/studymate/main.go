package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/antoniostano/studymate/internal/config"
	"github.com/antoniostano/studymate/internal/feedback"
	"github.com/antoniostano/studymate/internal/goals"
	"github.com/antoniostano/studymate/internal/httpapi"
	"github.com/antoniostano/studymate/internal/observability"
	"github.com/antoniostano/studymate/internal/openai"
	"github.com/antoniostano/studymate/internal/ratelimit"
	"github.com/antoniostano/studymate/internal/store"
	"github.com/antoniostano/studymate/internal/timer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	repo, err := store.NewRepository(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("timer record store init failed: %v", err)
	}
	defer repo.Close()

	goalStore, err := goals.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("study goal store init failed: %v", err)
	}
	defer goalStore.Close()

	if cfg.OpenAIAPIKey == "" {
		log.Printf("OPENAI_API_KEY is not set; feedback requests will fail against the upstream API")
	}
	aiClient := openai.NewHTTPClient(openai.Config{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		Model:          cfg.OpenAIModel,
		Temperature:    cfg.OpenAITemperature,
		RequestTimeout: cfg.OpenAIRequestTimeout,
	})

	limiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, cfg.RateRetryDelay, nil)
	engine := timer.NewEngine(timer.SystemClock())

	feedbackSvc := feedback.NewService(repo, limiter, aiClient, feedback.Config{
		MinStudySeconds: cfg.FeedbackMinStudySeconds,
		MaxRetries:      cfg.OpenAIMaxRetries,
		RetryBaseDelay:  cfg.OpenAIRetryBaseDelay,
	}, metrics)

	api := httpapi.New(cfg, engine, repo, goalStore, feedbackSvc, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
