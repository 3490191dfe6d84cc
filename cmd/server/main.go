package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"babylog-sync-server/internal/config"
	"babylog-sync-server/internal/handler"
	"babylog-sync-server/internal/middleware"
	"babylog-sync-server/internal/realtime"
	"babylog-sync-server/internal/scheduler"
	"babylog-sync-server/internal/service"
	"babylog-sync-server/internal/storage"
	"babylog-sync-server/internal/storage/couch"
	"babylog-sync-server/internal/storage/sqlite"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.Logging.Level)

	store, err := buildStore(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open storage (%s mode): %v", cfg.Storage.Mode, err)
	}
	defer store.Close()

	hub := realtime.NewHub(10*time.Second, 60*time.Second, 54*time.Second, logger)
	go hub.Run()

	entryService := service.NewEntryService(store, store, hub)
	syncService := service.NewEntrySyncService(store, cfg.Sync.PullLimit, cfg.Sync.DefaultWindowDays, hub, logger)
	bottleService := service.NewBottleService(store)
	goalService := service.NewGoalService(store)
	calendarService := service.NewCalendarService(store)
	settingsService := service.NewSettingsService(store)
	reminderService := service.NewReminderService(store, scheduler.NewWebhookNotifier(store, logger), logger)

	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	poller := scheduler.New(reminderService, time.Duration(cfg.Scheduler.ReminderPollSeconds)*time.Second, logger)
	go poller.Run(schedulerCtx)

	entryHandler := handler.NewEntryHandler(entryService)
	syncHandler := handler.NewSyncHandler(syncService)
	bottleHandler := handler.NewBottleHandler(bottleService)
	goalHandler := handler.NewGoalHandler(goalService)
	calendarHandler := handler.NewCalendarHandler(calendarService)
	reminderHandler := handler.NewReminderHandler(reminderService)
	settingsHandler := handler.NewSettingsHandler(settingsService)
	wsHandler := handler.NewWebSocketHandler(hub, logger)

	r := mux.NewRouter()
	r.Use(middleware.LoggerMiddleware(logger))
	r.Use(middleware.CORSMiddleware(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/entries", entryHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/entries", entryHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/entries/export", entryHandler.Export).Methods("GET", "OPTIONS")
	api.HandleFunc("/entries/{id}", entryHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/entries/{id}", entryHandler.Update).Methods("PATCH", "OPTIONS")
	api.HandleFunc("/entries/{id}", entryHandler.Delete).Methods("DELETE", "OPTIONS")

	api.HandleFunc("/sync/entries", syncHandler.Sync).Methods("POST", "OPTIONS")

	api.HandleFunc("/bottles", bottleHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/bottles", bottleHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/bottles/{id}", bottleHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/bottles/{id}", bottleHandler.Update).Methods("PATCH", "OPTIONS")
	api.HandleFunc("/bottles/{id}", bottleHandler.Delete).Methods("DELETE", "OPTIONS")

	api.HandleFunc("/goals", goalHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/goals", goalHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/goals/current", goalHandler.Current).Methods("GET", "OPTIONS")
	api.HandleFunc("/goals/{id}", goalHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/goals/{id}", goalHandler.Update).Methods("PATCH", "OPTIONS")
	api.HandleFunc("/goals/{id}", goalHandler.Delete).Methods("DELETE", "OPTIONS")

	api.HandleFunc("/calendar/events", calendarHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/calendar/occurrences", calendarHandler.Occurrences).Methods("GET", "OPTIONS")
	api.HandleFunc("/calendar/events/{id}", calendarHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/calendar/events/{id}", calendarHandler.Update).Methods("PATCH", "OPTIONS")
	api.HandleFunc("/calendar/events/{id}", calendarHandler.Delete).Methods("DELETE", "OPTIONS")

	api.HandleFunc("/reminders", reminderHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/reminders", reminderHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/reminders/{id}", reminderHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/reminders/{id}", reminderHandler.Update).Methods("PATCH", "OPTIONS")

	api.HandleFunc("/settings", settingsHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/settings", settingsHandler.Update).Methods("PATCH", "OPTIONS")

	r.HandleFunc("/ws", wsHandler.HandleConnection)
	r.HandleFunc("/health", healthHandler).Methods("GET")

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Str("storage", string(cfg.Storage.Mode)).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	stopScheduler()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	logger.Info().Msg("server stopped")
}

// buildStore wires the configured backend combination: sqlite only, couch
// only, or the dual decorator mirroring sqlite into couch.
func buildStore(cfg *config.Config, logger zerolog.Logger) (storage.Store, error) {
	var primary storage.Store
	if cfg.Storage.Mode == config.ModeSQLite || cfg.Storage.Mode == config.ModeDual {
		s, err := sqlite.Open(cfg.Storage.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		primary = s
	}

	var secondary storage.Store
	if cfg.Storage.Mode == config.ModeCouch || cfg.Storage.Mode == config.ModeDual {
		couchURL := fmt.Sprintf("http://%s:%s@%s:%s",
			cfg.Couch.User,
			cfg.Couch.Password,
			cfg.Couch.Host,
			cfg.Couch.Port,
		)
		client, err := kivik.New("couch", couchURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to couchdb: %w", err)
		}
		exists, err := client.DBExists(context.Background(), cfg.Couch.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to check database existence: %w", err)
		}
		if !exists {
			if err := client.CreateDB(context.Background(), cfg.Couch.Name); err != nil {
				return nil, fmt.Errorf("failed to create database: %w", err)
			}
		}
		secondary = couch.New(client, cfg.Couch.Name, cfg.Storage.Namespace, logger)
	}

	switch cfg.Storage.Mode {
	case config.ModeSQLite:
		return primary, nil
	case config.ModeCouch:
		return secondary, nil
	default:
		return storage.NewDualStore(primary, secondary, logger), nil
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"babylog-sync-server"}`))
}
