package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"timer-stickers/internal/encoder"
	"timer-stickers/internal/framecache"
	"timer-stickers/internal/generator"
	"timer-stickers/internal/handlers"
	"timer-stickers/internal/history"
	"timer-stickers/internal/logging"
	"timer-stickers/internal/memory"
	"timer-stickers/internal/metrics"
	"timer-stickers/internal/middleware"
	"timer-stickers/internal/render"
	"timer-stickers/internal/startup"
	"timer-stickers/internal/trimmer"
)

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	// GOMEMLIMIT before any heavy allocation
	memory.ConfigureFromEnv()
	metrics.InitializeMetrics()

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	caps := encoder.Probe(context.Background())
	startup.LogEncoderInit(caps)

	var trim generator.Trimmer
	if config.TrimEnabled {
		trim = trimmer.New(config.MasterClipURL, caps, config.FPS)
	}
	startup.LogTrimmerInit(config.TrimEnabled, config.MasterClipURL)

	histStart := time.Now()
	hist, err := history.Open(context.Background(), config.HistoryPath)
	if err != nil {
		logging.Fatal("Failed to open history store: %v", err)
	}
	startup.LogHistoryInit(time.Since(histStart))

	if config.HistoryRetention > 0 {
		removed, err := hist.Prune(context.Background(), config.HistoryRetention)
		if err != nil {
			logging.Warn("History prune failed: %v", err)
		} else if removed > 0 {
			logging.Info("Pruned %d history entries beyond the newest %d", removed, config.HistoryRetention)
		}
	}

	cache := framecache.NewManager()
	orchestrator := generator.New(generator.Config{
		FPS:               config.FPS,
		ChunkThreshold:    config.ChunkThreshold,
		MaxBlobBytes:      config.MaxBlobBytes,
		PreferredStrategy: config.PreferredStrategy,
		TrimEnabled:       config.TrimEnabled,
	}, generator.Deps{
		Cache:    cache,
		Chain:    encoder.NewChain(caps),
		Renderer: render.NewBitmapRenderer(),
		Trimmer:  trim,
		Monitor:  monitor,
		Recorder: hist,
	})

	h := handlers.New(orchestrator, cache, hist, caps, monitor, config.MaxConcurrent)

	router := mux.NewRouter()
	h.Register(router)
	startup.LogHTTPRoutes(router)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Logger(loggingConfig)(router)
	handler = middleware.Compression(middleware.DefaultCompressionConfig())(handler)

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)

		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", h.MetricsHandler())
		metricsSrv = &http.Server{
			Addr:         ":" + config.MetricsPort,
			Handler:      metricsMux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:        ":" + config.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// generation of long durations can exceed any fixed write window
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go handleShutdown(srv, metricsSrv, monitor, hist)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}
}

func handleShutdown(srv, metricsSrv *http.Server, monitor *memory.Monitor, hist *history.Store) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	monitor.Stop()
	startup.LogShutdownStep("Memory monitor stopped")

	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStep("HTTP server stopped")
	}

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStep("Metrics server stopped")
		}
	}

	if err := hist.Close(); err != nil {
		logging.Warn("History store close error: %v", err)
	} else {
		startup.LogShutdownStep("History store closed")
	}

	startup.LogShutdownComplete()
}
