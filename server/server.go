package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"digitalsight/cache"
	"digitalsight/config"
	"digitalsight/core/auth"
	"digitalsight/core/catalog"
	"digitalsight/core/export"
	"digitalsight/core/feed"
	"digitalsight/core/lifecycle"
	"digitalsight/core/notify"
	"digitalsight/logger"
	"digitalsight/repository"
	"digitalsight/storage"
	"digitalsight/store"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	auth.Init(cfg)

	db, err := store.ConnectGorm(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", logger.ErrorField(err))
	}
	docs := store.NewGormStore(db)
	if err := docs.AutoMigrate(); err != nil {
		logger.Fatal("failed to migrate database", logger.ErrorField(err))
	}

	// Redis is optional: without it reads go straight to the database.
	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Warn("redis unavailable, release cache disabled", logger.ErrorField(err))
	} else {
		defer cache.CloseRedis()
	}

	objects, err := storage.NewMinioStore(cfg)
	if err != nil {
		logger.Fatal("failed to connect to object storage", logger.ErrorField(err))
	}

	releaseRepo := repository.NewDocReleaseRepository(docs)
	artistRepo := repository.NewDocArtistRepository(docs)
	labelRepo := repository.NewDocLabelRepository(docs)
	userRepo := repository.NewDocUserRepository(docs)
	noticeRepo := repository.NewDocNoticeRepository(docs)

	notifySvc, err := notify.NewService(cfg, notify.NewSMTPSender(cfg), labelRepo, noticeRepo)
	if err != nil {
		logger.Fatal("failed to initialize notifications", logger.ErrorField(err))
	}
	defer notifySvc.Close()

	hub := feed.NewHub()
	go hub.Run()

	engine := lifecycle.NewEngine(releaseRepo, objects, notifySvc, hub)
	catalogSvc := catalog.NewService(labelRepo, artistRepo)

	apiHandler := NewAPIHandler(engine, catalogSvc, notifySvc, export.NewCSVEncoder(), hub,
		releaseRepo, artistRepo, labelRepo, userRepo, noticeRepo)

	router := mux.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Disposition")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Authentication
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/password-reset", apiHandler.RequestPasswordResetHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/password-reset/confirm", apiHandler.ConfirmPasswordResetHandler).Methods(http.MethodPost)

	// Release lifecycle
	router.HandleFunc("/api/releases", apiHandler.AuthMiddleware(apiHandler.CreateReleaseHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/releases", apiHandler.AuthMiddleware(apiHandler.ListReleasesHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/releases/queue", apiHandler.AuthMiddleware(apiHandler.PendingQueueHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/releases/{id}", apiHandler.AuthMiddleware(apiHandler.GetReleaseHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/releases/{id}", apiHandler.AuthMiddleware(apiHandler.UpdateReleaseHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/releases/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteReleaseHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/releases/{id}/submit", apiHandler.AuthMiddleware(apiHandler.SubmitReleaseHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/releases/{id}/resubmit", apiHandler.AuthMiddleware(apiHandler.ResubmitReleaseHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/releases/{id}/publish", apiHandler.AuthMiddleware(apiHandler.PublishReleaseHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/releases/{id}/return", apiHandler.AuthMiddleware(apiHandler.ReturnReleaseHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/releases/{id}/reject", apiHandler.AuthMiddleware(apiHandler.RejectReleaseHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/releases/{id}/takedown", apiHandler.AuthMiddleware(apiHandler.TakedownReleaseHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/releases/{id}/export", apiHandler.AuthMiddleware(apiHandler.ExportReleaseHandler)).Methods(http.MethodGet)

	// Catalog
	router.HandleFunc("/api/artists", apiHandler.AuthMiddleware(apiHandler.CreateArtistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/artists", apiHandler.AuthMiddleware(apiHandler.ListArtistsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/labels", apiHandler.AuthMiddleware(apiHandler.ListLabelsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/labels", apiHandler.AuthMiddleware(apiHandler.OnboardLabelHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/labels/{id}/sublabels", apiHandler.AuthMiddleware(apiHandler.CreateSubLabelHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/labels/{id}/sublabels", apiHandler.AuthMiddleware(apiHandler.ListSubLabelsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/notices", apiHandler.AuthMiddleware(apiHandler.ListNoticesHandler)).Methods(http.MethodGet)

	// Live status feed for dashboards
	router.HandleFunc("/ws/feed", apiHandler.FeedHandler)

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("server stopped")
}
