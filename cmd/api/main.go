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

	"github.com/happypotomus/fitnesstracker/internal/ai"
	"github.com/happypotomus/fitnesstracker/internal/config"
	"github.com/happypotomus/fitnesstracker/internal/db"
	"github.com/happypotomus/fitnesstracker/internal/server"
	"github.com/happypotomus/fitnesstracker/internal/store"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("database ping failed: %v", err)
	}

	st := store.NewPostgres(pool)
	if err := st.Schema(ctx); err != nil {
		log.Fatalf("database schema setup failed: %v", err)
	}

	client := ai.NewOpenAIChatClient(
		ai.StaticCredentials{Key: cfg.OpenAIAPIKey},
		ai.Options{
			BaseURL:        cfg.OpenAIBaseURL,
			Model:          cfg.OpenAIModel,
			MaxTokens:      cfg.AIMaxOutputTokens,
			TimeoutSeconds: cfg.AITimeoutSeconds,
		},
	)

	app := server.New(cfg, st, client)
	httpServer := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("fitnesstracker api listening on http://localhost:%s", cfg.AppPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
