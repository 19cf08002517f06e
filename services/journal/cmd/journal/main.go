package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"wayfarer/internal/ratelimit"
	"wayfarer/internal/util"
	"wayfarer/pkg/ai"
	"wayfarer/pkg/queue"
	"wayfarer/services/journal/internal/app"
	"wayfarer/services/journal/internal/config"
	"wayfarer/services/journal/internal/server"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher := buildDispatcher(ctx, cfg)

	jobQueue, err := queue.NewRedisJobQueue(queue.RedisQueueConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		Stream:   "journal:regenerate",
		Group:    "journal-workers",
	})
	if err != nil {
		log.Fatalf("failed to init job queue: %v", err)
	}

	appCore, err := app.New(app.Config{
		DatabaseURL:    cfg.DatabaseURL,
		MinioEndpoint:  cfg.MinioEndpoint,
		MinioAccessKey: cfg.MinioAccessKey,
		MinioSecretKey: cfg.MinioSecretKey,
		MinioBucket:    cfg.MinioBucket,
		MinioUseSSL:    cfg.MinioUseSSL,
		Dispatcher:     dispatcher,
		Jobs:           jobQueue,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	var limiter *ratelimit.FixedWindowLimiter
	if cfg.RateLimit > 0 {
		limiter, err = ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "journal:ratelimit", cfg.RateLimit, time.Minute)
		if err != nil {
			log.Fatalf("failed to init rate limiter: %v", err)
		}
	}

	httpServer, err := server.New(server.Config{
		App:            appCore,
		Limiter:        limiter,
		AdminToken:     cfg.AdminToken,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	workers := cfg.WorkerCount
	if workers <= 0 {
		workers = 1
	}
	jobQueue.Start(ctx, workers, appCore.HandleRegenerationJob)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("journal server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
	}
}

// buildDispatcher wires whichever provider clients have credentials. Neither
// is required at startup; requesting an unconfigured provider fails per call.
func buildDispatcher(ctx context.Context, cfg config.FileConfig) *ai.Dispatcher {
	var openAI *ai.OpenAIGenerator
	if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
		client, err := ai.NewOpenAIGenerator(cfg.OpenAIAPIKey)
		if err != nil {
			slog.Warn("openai client unavailable", "err", err)
		} else {
			openAI = client
		}
	}

	var vertex *ai.VertexGenerator
	if strings.TrimSpace(cfg.VertexProject) != "" {
		client, err := ai.NewVertexGenerator(ctx, cfg.VertexProject, cfg.VertexLocation)
		if err != nil {
			slog.Warn("vertex client unavailable", "err", err)
		} else {
			vertex = client
		}
	}

	return ai.NewDispatcher(openAI, vertex)
}
