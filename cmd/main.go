package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"hakawati/server/internal/config"
	"hakawati/server/internal/engine"
	"hakawati/server/internal/generators"
	"hakawati/server/internal/infra"
	"hakawati/server/internal/interfaces"
	"hakawati/server/internal/logging"
	"hakawati/server/internal/models"
	"hakawati/server/internal/storage"
	"hakawati/server/internal/studio"
	"hakawati/server/internal/web"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := storage.Open(cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Storage.Driver, err)
	}
	defer kv.Close()
	logger.Info("document store ready", zap.String("driver", cfg.Storage.Driver))

	docs := storage.NewLocalStore(kv, cfg.Storage.KeyPrefix, logger.Named("store"))
	st := studio.New(docs, models.ProjectConfig{
		Title:       cfg.Defaults.Title,
		Style:       cfg.Defaults.Style,
		Genre:       cfg.Defaults.Genre,
		AspectRatio: cfg.Defaults.AspectRatio,
		SceneCount:  cfg.Defaults.SceneCount,
	}, logger.Named("studio"))
	st.Restore(ctx)

	media := generators.NewMediaStore(cfg.Media.Dir, cfg.Media.URLPrefix, logger.Named("media"))
	if err := media.Initialize(ctx); err != nil {
		return err
	}

	var backend interfaces.ImageBackend
	switch cfg.AI.Image.Provider {
	case "comfyui":
		backend = generators.NewComfyUIBackend(cfg.AI.Image, logger.Named("comfyui"))
	default:
		backend = generators.NewOpenAIImageBackend(cfg.AI.Image, logger.Named("openai-image"))
	}
	images := generators.NewImageService(backend, media, cfg.AI.Image.MaxConcurrency, logger.Named("images"))
	monitor := infra.NewBackendMonitor(cfg.AI.Image.Provider, images, cfg.AI.Image.HealthInterval, logger.Named("monitor"))
	go monitor.Run(ctx)

	if cfg.AI.Text.APIKey == "" {
		logger.Warn("no text API key configured; story generation will fail")
	}
	text := engine.NewOpenAITextGenerator(cfg.AI.Text, logger.Named("text"))

	hub := web.NewEventHub(logger.Named("hub"))
	go hub.Run(ctx)

	storyEngine := engine.NewStoryEngine(st, engine.ContentService{
		TextGenerator:  text,
		ImageGenerator: images,
	}, media, hub, logger.Named("engine"))
	storyEngine.SetDefaultLength(cfg.Defaults.StoryLength)

	batch := generators.NewBatchController(st, storyEngine, hub, logger.Named("batch"))
	defer batch.Close()

	router := web.NewRouter(web.Deps{
		Studio:  st,
		Engine:  storyEngine,
		Batch:   batch,
		Media:   media,
		Hub:     hub,
		Monitor: monitor,
		Catalog: models.DefaultCatalog,
		Logger:  logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	batch.Stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := st.PersistCurrentProject(shutdownCtx); err != nil {
		logger.Warn("final save failed", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}
