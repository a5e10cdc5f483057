package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"floorplan-studio/internal/common/config"
	"floorplan-studio/internal/common/logger"
	"floorplan-studio/internal/common/middleware"
	"floorplan-studio/internal/editor/analysis"
	"floorplan-studio/internal/editor/canvas"
	"floorplan-studio/internal/editor/checkpoint"
	"floorplan-studio/internal/editor/handlers"
	"floorplan-studio/internal/editor/history"
	"floorplan-studio/internal/editor/repository"
	"floorplan-studio/internal/editor/store"
	"floorplan-studio/internal/editor/svgimport"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Floorplan Studio
// ============================================================

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("floorplan studio stopped", "error", err)
		log.Sync()
		os.Exit(1)
	}
	log.Sync()
}

// run поднимает сервис и возвращается после остановки; отложенные Close отрабатывают всегда.
func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ============================================================
	// Storage
	// ============================================================

	backend, err := repository.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store backend %s: %w", cfg.Store.Backend, err)
	}
	defer backend.Close()

	docs := store.New(backend, cfg.Store.Key, log,
		store.WithVersionPolicy(cfg.Editor.MaxVersions, cfg.Editor.AutoSaveInterval()),
	)
	if err := docs.Load(ctx); err != nil {
		return fmt.Errorf("load project state: %w", err)
	}

	// ============================================================
	// Editor
	// ============================================================

	engine := history.NewEngine(cfg.Editor.HistoryDepth)
	grid := canvas.GridSettings{Size: cfg.Editor.GridSize, Snap: cfg.Editor.SnapToGrid}

	editor := handlers.NewEditorHandler(handlers.Deps{
		Store:        docs,
		History:      engine,
		Canvas:       canvas.NewRegistry(docs, engine, grid, log),
		Analyzer:     analysis.NewClient(cfg.Analysis, log),
		Importer:     svgimport.New(log),
		CanvasWidth:  cfg.Editor.CanvasWidth,
		CanvasHeight: cfg.Editor.CanvasHeight,
		Log:          log,
	})

	scheduler := checkpoint.NewScheduler(docs, cfg.Editor.CheckpointSpec, log)
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Stop()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    32 * 1024 * 1024,
		AppName:      "Floorplan Studio",
		ErrorHandler: middleware.ErrorHandler(log),
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS(cfg.CORSOrigins))

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", handlers.LivenessProbe)
	app.Get("/health/ready", editor.ReadinessProbe)
	app.Get("/health/startup", handlers.StartupProbe)

	// ============================================================
	// API Routes
	// ============================================================

	editor.Register(app.Group("/api/v1"))

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting floorplan studio", "addr", addr, "env", cfg.Environment, "store", cfg.Store.Backend)
		errCh <- app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	}
}
