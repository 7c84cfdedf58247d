package main

import (
	"context"
	"errors"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolioSim/config"
	"portfolioSim/internal/adapters/logger"
	"portfolioSim/internal/app"
	"portfolioSim/internal/bootstrap"
	"portfolioSim/internal/scheduler"
	"portfolioSim/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.New(cfg.LogFormat, cfg.LogLevel)
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String(), "format": cfg.LogFormat})

	// 3. Initialize Adapters and Simulation Service
	components, err := bootstrap.Build(ctx, cfg, appLogger, nil)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize simulation service")
		log.Fatalf("FATAL: Failed to initialize simulation service: %v", err)
	}
	defer func() {
		if err := components.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing adapters")
		}
	}()
	service := components.Service
	appLogger.Info(ctx, "Simulation service initialized", map[string]interface{}{
		"marketSource": cfg.MarketSource,
		"stateBackend": cfg.StateBackend,
		"capital":      service.Snapshot().Capital,
	})

	// 4. Start Scheduler (optional)
	var sched *scheduler.Scheduler
	if cfg.SimulationSchedule != "" {
		sched = scheduler.New(appLogger)
		if err := sched.AddJob(cfg.SimulationSchedule, app.CatchUpJob{Service: service, Timeout: 10 * time.Minute}); err != nil {
			appLogger.Error(ctx, err, "FATAL: Failed to schedule simulation")
			log.Fatalf("FATAL: Failed to schedule simulation: %v", err)
		}
		sched.Start()
	}

	// 5. Initialize HTTP Server
	srv, err := server.New(server.Config{
		Port:           cfg.HTTPPort,
		Logger:         appLogger,
		Simulation:     service,
		DefaultCapital: cfg.InitialCapital,
		StaticDir:      cfg.StaticDir,
		DevMode:        cfg.DevMode,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize HTTP server")
		log.Fatalf("FATAL: Failed to initialize HTTP server: %v", err)
	}

	// 6. Serve until interrupted
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		appLogger.Info(context.Background(), "Shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			appLogger.Error(context.Background(), err, "HTTP server exited with error")
		}
	}

	// 7. Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if sched != nil {
		sched.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, err, "HTTP server shutdown failed")
	}
	if err := service.Save(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, err, "Failed to save simulation state on shutdown")
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
