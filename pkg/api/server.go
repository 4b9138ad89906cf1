package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// NewRouter builds the REST surface of the dashboard.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", h.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/scans", h.ListScansHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", h.StatsHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/quick-scan", h.QuickScanHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/scan", h.StartScanHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/scan/{scanId}", h.GetScanHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/scan/{scanId}", h.DeleteScanHandler).Methods(http.MethodDelete)
	return r
}

// StartServer runs the API server until SIGINT/SIGTERM, then shuts down
// gracefully.
func StartServer(port int, h *Handler) {
	logrus.Infof("[API] starting server on port %d", port)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      NewRouter(h),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // quick-scan waits on the engine
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("[API] listen failed")
		}
	}()
	logrus.Infof("[API] listening on http://localhost:%d", port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("[API] shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Fatal("[API] forced shutdown")
	}
	logrus.Info("[API] server exited gracefully")
}
