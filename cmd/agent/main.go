package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/7ipolito/goals-vision/internal/analysis"
	"github.com/7ipolito/goals-vision/internal/api"
	"github.com/7ipolito/goals-vision/internal/catalog"
	"github.com/7ipolito/goals-vision/internal/config"
	"github.com/7ipolito/goals-vision/internal/db"
	"github.com/7ipolito/goals-vision/internal/logging"
	"github.com/7ipolito/goals-vision/internal/pipelines"
	"github.com/7ipolito/goals-vision/internal/playback"
	"github.com/7ipolito/goals-vision/internal/ui"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting goals-vision agent",
		"version", config.Version,
		"commit", config.GitCommit,
		"data_dir", logging.SanitizePath(cfg.DataDir()),
		"config_file", cfg.ConfigFile(),
	)

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := catalog.NewRepository(database.Conn())

	deviceID, err := ensureDeviceID(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	apiURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Port())
	fmt.Println()
	fmt.Println("  GOALS VISION AGENT v" + config.Version)
	fmt.Println("  API URL:   " + apiURL)
	fmt.Println("  Live:      " + fmt.Sprintf("ws://127.0.0.1:%d/ws/analyze", cfg.Port()))
	fmt.Println("  Device ID: " + deviceID[:8] + "...")
	fmt.Println()

	catalogSvc := catalog.NewService(repo, logger)
	playbackSvc := playback.NewServer(logger, config.DefaultPlaybackCacheMaxAge*time.Second)

	pipeCfg := pipelines.Config{
		PythonPath:    cfg.PosePython(),
		ModuleName:    cfg.PoseModule(),
		ArtifactsBase: cfg.ArtifactsDir(),
		DoctorTimeout: cfg.DoctorTimeout(),
		PoseTimeout:   cfg.PoseTimeout(),
		PoseFPS:       cfg.PoseFPS(),
		Logger:        logger,
	}

	var analyzer catalog.VideoAnalyzer
	var doctor *pipelines.CachedDoctor

	pr, err := pipelines.NewRunner(pipeCfg)
	if err != nil {
		logger.Warn("pose runner unavailable, video analysis disabled", "error", err)
	} else {
		doctor = pipelines.NewCachedDoctor(pr, logger)
		analyzer = analysis.NewAnalyzer(pr, doctor, logger)

		initCtx, initCancel := context.WithTimeout(context.Background(), pipeCfg.DoctorTimeout)
		if caps, err := doctor.Refresh(initCtx); err != nil {
			logger.Warn("initial doctor probe failed", "error", err)
		} else {
			logger.Info("pipeline capabilities detected",
				"pose", caps.HasPose,
				"video", caps.HasVideo,
				"deps", fmt.Sprintf("%d/%d", caps.Summary.Available, caps.Summary.Total),
			)
		}
		initCancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := catalog.NewRunner(catalogSvc, repo, analyzer, logger)
	go runner.Start(ctx)

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		Version:        config.Version,
		CatalogService: catalogSvc,
		PlaybackServer: playbackSvc,
		Runner:         runner,
		Doctor:         doctor,
		Logger:         logger,
		StartTime:      startTime,
		DeviceID:       deviceID,
		AllowedOrigins: cfg.AllowedOrigins(),
		LiveMaxSession: cfg.LiveMaxSession(),
		LiveMaxMessage: config.DefaultLiveMaxFrameBytes,
	})

	quitCh := make(chan struct{})
	var quitOnce sync.Once
	quit := func() { quitOnce.Do(func() { close(quitCh) }) }

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
			quit()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			quit()
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			CatalogService: catalogSvc,
			Runner:         runner,
			Logger:         logger,
			APIURL:         apiURL,
			OnQuit:         quit,
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.DefaultShutdownTimeoutS*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// ensureDeviceID returns the id persisted in the config table, creating it
// on first run.
func ensureDeviceID(repo catalog.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "device_id")
	if err == nil && existing != "" {
		return existing, nil
	}

	deviceID := catalog.NewID()
	if err := repo.SetConfig(ctx, "device_id", deviceID); err != nil {
		return "", err
	}

	return deviceID, nil
}
