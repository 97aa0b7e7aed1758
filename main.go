package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"watchwise/api"
	"watchwise/config"
	"watchwise/handlers"
	"watchwise/internal/backend"
	"watchwise/services/availability"
	"watchwise/services/dashboard"
	"watchwise/services/scheduler"
	"watchwise/services/streaming"
	"watchwise/services/watchlist"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	configFlag := flag.String("config", "", "path to settings file (.json or .toml)")
	envFile := flag.String("env", ".env", "optional dotenv file")
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("🚀 watchwise starting...")

	if err := config.LoadDotEnv(*envFile); err != nil {
		log.Printf("Warning: could not load %s: %v", *envFile, err)
	}

	// Determine config path (flag, env or default)
	configPath := *configFlag
	if configPath == "" {
		configPath = os.Getenv("WATCHWISE_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}
	if err := config.ApplyEnv(&settings, os.Getenv); err != nil {
		log.Fatalf("invalid environment override: %v", err)
	}
	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}
	if err := config.Validate(settings); err != nil {
		log.Fatalf("invalid settings in %s: %v", cfgManager.Path(), err)
	}

	// Set up file logging with rotation
	var logOutput io.Writer = os.Stdout
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			defer fileWriter.Close()
			logOutput = io.MultiWriter(os.Stdout, fileWriter)
			log.SetOutput(logOutput)
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: parseLevel(settings.Log.Level)})))

	client, err := backend.NewClient(backend.Options{
		BaseURL:       settings.Backend.URL,
		Token:         settings.Backend.Token,
		Timeout:       settings.Backend.Timeout(),
		RetryAttempts: settings.Backend.RetryAttempts,
		RetryDelay:    settings.Backend.RetryDelay(),
	})
	if err != nil {
		log.Fatalf("failed to create backend client: %v", err)
	}
	fmt.Printf("✅ Backend client ready: %s\n", settings.Backend.URL)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	watchlistService := watchlist.NewService(client)
	streamingService := streaming.NewService(client)
	availabilityService := availability.NewService(client, settings.Availability.Region)

	session := dashboard.NewSession(rootCtx, watchlistService, streamingService, availabilityService, dashboard.Options{
		ID:           uuid.NewString(),
		HeadlineSize: settings.Dashboard.HeadlineSize,
	})
	slog.Info("dashboard session created", "session", session.ID(), "region", settings.Availability.Region)

	// Initial load runs in the background so the server answers while it completes.
	go func() {
		if err := session.Start(rootCtx); err != nil {
			slog.Warn("initial dashboard load failed", "session", session.ID(), "err", err)
		}
	}()

	var schedulerService *scheduler.Service
	var tasksHandler *handlers.ScheduledTasksHandler
	if settings.Scheduler.Enabled {
		schedulerService = scheduler.NewService(session, settings.Scheduler.Interval())
		if err := schedulerService.Start(rootCtx); err != nil {
			log.Fatalf("failed to start resync scheduler: %v", err)
		}
		tasksHandler = handlers.NewScheduledTasksHandler(schedulerService)
		fmt.Printf("✅ Resync scheduler started (every %s)\n", settings.Scheduler.Interval())
	}

	r := mux.NewRouter()
	api.Register(r, handlers.NewDashboardHandler(session), tasksHandler)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("🛑 Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if schedulerService != nil {
		log.Println("🧹 Stopping resync scheduler...")
		if err := schedulerService.Stop(shutdownCtx); err != nil {
			log.Printf("Scheduler shutdown error: %v", err)
		}
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("🧹 Closing dashboard session...")
	session.Close()

	log.Println("✅ Shutdown complete")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
