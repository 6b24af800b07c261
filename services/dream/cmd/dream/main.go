package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dreamweaver/internal/util"
	"dreamweaver/pkg/ai"
	"dreamweaver/pkg/asset"
	"dreamweaver/pkg/background"
	"dreamweaver/pkg/journal"
	"dreamweaver/pkg/storage"
	"dreamweaver/pkg/store"
	"dreamweaver/services/dream/internal/app"
	"dreamweaver/services/dream/internal/config"
	"dreamweaver/services/dream/internal/server"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("warning: could not load .env file: %v", err)
	}
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := util.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := store.Open(store.Options{
		Backend:       cfg.StorageBackend,
		SQLitePath:    cfg.SQLitePath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisPrefix:   cfg.RedisKeyPrefix,
		DatabaseURL:   cfg.DatabaseURL,
	})
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.StorageBackend, err)
	}
	defer kv.Close()

	var objects storage.ObjectStore
	if cfg.ObjectStorageEnabled() {
		minioStore, err := storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Fatalf("failed to init object storage: %v", err)
		}
		objects = minioStore
	}

	generator, err := newGenerator(cfg)
	if err != nil {
		log.Fatalf("failed to init story generator: %v", err)
	}
	var narrator app.Narrator
	if cfg.ElevenLabsAPIKey != "" {
		elevenLabs, err := ai.NewElevenLabsNarrator(cfg.ElevenLabsAPIKey, cfg.ElevenLabsBaseURL)
		if err != nil {
			log.Fatalf("failed to init narrator: %v", err)
		}
		narrator = elevenLabs
	} else {
		logger.Info("no ElevenLabs key configured, narration uses local speech synthesis")
	}

	appCore, err := app.New(app.Config{
		Generator: generator,
		Narrator:  narrator,
		Journal:   journal.NewStore(kv, journal.WithLogger(logger)),
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}
	assets := asset.NewStore(kv, asset.Options{
		MaxBytes: cfg.MaxVideoBytes,
		Objects:  objects,
		Logger:   logger,
	})
	trusted, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:                         appCore,
		Assets:                      assets,
		Backgrounds:                 background.NewSelector(assets, background.NoPublicVideos{}, logger),
		AllowedOrigins:              cfg.AllowedOrigins,
		TrustedProxies:              trusted,
		RedisAddr:                   cfg.RedisAddr,
		RedisPassword:               cfg.RedisPassword,
		DreamRateLimitPerMinute:     cfg.DreamRateLimitPerMinute,
		NarrationRateLimitPerMinute: cfg.NarrationRateLimitPerMinute,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("dream server listening", "addr", addr, "storage", cfg.StorageBackend, "story_provider", cfg.StoryProvider)
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

func newGenerator(cfg config.FileConfig) (ai.TextGenerator, error) {
	switch cfg.StoryProvider {
	case config.ProviderOpenAI:
		baseURL := cfg.StoryBaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		model := cfg.StoryModel
		if model == "" {
			model = "gpt-4o-mini"
		}
		return ai.NewOpenAIGenerator(baseURL, cfg.StoryAPIKey, model), nil
	case config.ProviderGemini:
		client, err := ai.NewGeminiClient(cfg.StoryAPIKey, cfg.StoryBaseURL)
		if err != nil {
			return nil, err
		}
		model := cfg.StoryModel
		if model == "" {
			model = "gemini-1.5-flash"
		}
		return ai.NewGeminiGenerator(client, model), nil
	case config.ProviderOllama:
		model := cfg.StoryModel
		if model == "" {
			model = "llama3"
		}
		return ai.NewOllamaGenerator(ai.NewOllamaClient(cfg.StoryBaseURL), model), nil
	default:
		return ai.NewOpenAIGenerator(cfg.StoryBaseURL, cfg.StoryAPIKey, cfg.StoryModel), nil
	}
}
