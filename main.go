// File: bookingagent/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookingagent/config"
	"bookingagent/cron"
	"bookingagent/database"
	"bookingagent/handlers"
	"bookingagent/middleware"
	"bookingagent/routes"
	"bookingagent/services/booking"
	"bookingagent/services/calendar"
	"bookingagent/services/dialogue"
	ai "bookingagent/services/intelligence"
	"bookingagent/services/session"
	"bookingagent/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	cfg := config.AppConfig

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Mongo is only opened when a backend needs it.
	if cfg.CalendarBackend == "mongo" || cfg.PreferenceStore == "mongo" {
		database.InitDB()
	}

	// Sessions.
	var store session.Store
	var redisClients []*redis.Client
	switch cfg.SessionStore {
	case "redis":
		client := utils.GetSessionCacheClient()
		redisClients = append(redisClients, client)
		store = session.NewRedisStore(client, cfg.SessionTTL)
	default:
		mem := session.NewMemoryStore(cfg.SessionTTL)
		go sweepSessions(rootCtx, mem, time.Minute)
		store = mem
	}
	sessions := session.NewManager(store, logger)

	// Calendar.
	var cal calendar.Calendar
	switch cfg.CalendarBackend {
	case "mongo":
		mc := calendar.NewMongoCalendar(database.Database())
		if err := mc.EnsureIndexes(rootCtx); err != nil {
			logger.Sugar().Fatalf("main: failed to create calendar indexes: %v", err)
		}
		cal = mc
	default:
		cal = calendar.NewMockCalendar()
	}

	// Preference summaries.
	var prefs booking.PreferenceStore
	switch cfg.PreferenceStore {
	case "mongo":
		prefs = booking.NewMongoPreferenceStore(database.Database())
	default:
		prefs = booking.NewShardedPreferenceStore()
	}

	// Extraction and disambiguation. Without an API key the rules run alone.
	var extractor ai.Extractor = ai.NewRuleExtractor()
	var disambiguator ai.Disambiguator = ai.NewRuleDisambiguator()
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiClient(rootCtx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("main: classifier unavailable, using rules only", zap.Error(err))
		} else {
			defer gemini.Close()
			extractor = ai.NewHybridExtractor(gemini, cfg.ClassifierTimeout, logger)
			disambiguator = ai.NewHybridDisambiguator(gemini, cfg.ClassifierTimeout, logger)
		}
	}

	finalizer := booking.NewFinalizer(cal, prefs, cfg.CommitTimeout, logger)

	var reminderWorker *asynq.Server
	if cfg.RemindersEnabled {
		queue := asynq.NewClient(cron.RedisOpt())
		defer queue.Close()
		finalizer.Reminders = booking.NewAsynqReminderScheduler(queue, cfg.ReminderLead)
		reminderWorker = cron.InitReminderWorker(cron.LogNotifier{Logger: logger}, logger)
	}

	orchestrator := dialogue.NewOrchestrator(extractor, disambiguator, cal, finalizer, logger)
	orchestrator.Preferences = prefs
	orchestrator.CalendarTimeout = cfg.CalendarTimeout
	orchestrator.Location = config.Location()

	utils.StartHealthMonitor(rootCtx, 30*time.Second, redisClients, database.MongoClient)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))

	chatHandler := handlers.NewChatHandler(sessions, orchestrator)
	sessionHandler := handlers.NewSessionHandler(sessions)
	preferenceHandler := handlers.NewPreferenceHandler(prefs)

	handlerBundle := &handlers.HandlerBundle{
		ChatHandler:           chatHandler.HandleChat,
		GetSessionHandler:     sessionHandler.GetSessionHandler,
		DeleteSessionHandler:  sessionHandler.DeleteSessionHandler,
		GetPreferencesHandler: preferenceHandler.GetPreferencesHandler,
		HealthHandler:         handlers.HealthHandler,
	}
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	if reminderWorker != nil {
		reminderWorker.Shutdown()
	}
	if err := database.Close(ctx); err != nil {
		logger.Warn("main: mongo disconnect failed", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}

func sweepSessions(ctx context.Context, mem *session.MemoryStore, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mem.Sweep()
		}
	}
}
