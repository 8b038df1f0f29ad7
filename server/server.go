package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"cadenza/catalog"
	"cadenza/config"
	"cadenza/logger"
	"cadenza/session"
)

// NewRouter builds the media server's route table.
func NewRouter(handler *APIHandler) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/api/ping", handler.PingHandler).Methods(http.MethodGet)

	router.HandleFunc("/api/tracks", handler.GetTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}", handler.GetTrackHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists", handler.GetPlaylistsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists/{id}", handler.GetPlaylistHandler).Methods(http.MethodGet)

	router.HandleFunc("/api/auth/session", handler.AuthenticateHandler).Methods(http.MethodPost)

	router.HandleFunc("/api/sessions/{id}", handler.SessionAuth(handler.PingSessionHandler)).Methods(http.MethodHead)
	router.HandleFunc("/api/sessions/{id}", handler.SessionAuth(handler.CloseSessionHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/sessions/{id}/user", handler.SessionAuth(handler.GetUserInfoHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/sessions/{id}/stream", handler.SessionAuth(handler.OpenStreamHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/stream", handler.SessionAuth(handler.CloseStreamHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/sessions/{id}/chunk", handler.SessionAuth(handler.GetChunkHandler)).Methods(http.MethodGet)
	return router
}

// Start initializes and runs the media server until SIGINT/SIGTERM.
func Start(cfg *config.Config) {
	library, err := catalog.Load(cfg.MediaDir, cfg.PlaylistDir, cfg.UsersFile)
	if err != nil {
		logger.Fatal("failed to load catalog", logger.ErrorField(err))
	}

	registry := session.NewRegistry()
	handler := NewAPIHandler(library, registry, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hot reload of the media and playlist directories.
	watcher, err := catalog.NewWatcher(library, cfg.MediaDir, cfg.PlaylistDir)
	if err != nil {
		logger.Warn("catalog watcher unavailable", logger.ErrorField(err))
	} else {
		go watcher.Run(ctx)
	}

	router := NewRouter(handler)

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
		logger.Info("media server starting", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down media server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", logger.ErrorField(err))
	}
	logger.Info("media server stopped")
}
