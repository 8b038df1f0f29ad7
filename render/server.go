package render

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"cadenza/config"
	"cadenza/logger"
)

// Start runs the render daemon until SIGINT/SIGTERM, driving the given
// engine. The controller's session lease, if any, is released on shutdown.
func Start(cfg *config.Config, engine Engine) {
	controller := NewController(engine, cfg.ChunkSize)
	handler := NewHandler(controller)

	router := mux.NewRouter()
	router.HandleFunc("/api/ping", handler.PingHandler).Methods(http.MethodGet)

	router.HandleFunc("/api/render/bind", handler.BindHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/render/unbind", handler.UnbindHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/render/track", handler.LoadTrackHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/render/track", handler.CurrentTrackHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/render/playlist", handler.LoadPlaylistHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/render/status", handler.StatusHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/render/play", handler.PlayHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/render/pause", handler.PauseHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/render/stop", handler.StopHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/render/next", handler.NextHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/render/previous", handler.PreviousHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/render/repeat", handler.SetRepeatHandler).Methods(http.MethodPut)

	server := &http.Server{
		Addr:         cfg.RenderAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("render daemon starting", logger.String("addr", cfg.RenderAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start render daemon", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down render daemon")
	controller.Unbind()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("render daemon forced to shutdown", logger.ErrorField(err))
	}
	logger.Info("render daemon stopped")
}
