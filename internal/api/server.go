package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moltdash/moltdash/internal/logger"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server wraps the HTTP server hosting the dashboard API and static assets.
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
}

// ServerConfig holds what NewServer needs besides the handler.
type ServerConfig struct {
	Port        int
	DistDir     string
	StickersDir string
}

// NewServer builds the router and the HTTP server around it.
func NewServer(cfg ServerConfig, h *Handler, log *logger.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           newRouter(cfg, h, log),
			ReadHeaderTimeout: readHeaderTimeout,
		},
		logger: log,
	}
}

func newRouter(cfg ServerConfig, h *Handler, log *logger.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware)

	api := router.PathPrefix("/api").Subrouter()

	// Job scheduling.
	api.HandleFunc("/cron/jobs", h.ListJobs).Methods(http.MethodGet)
	api.HandleFunc("/cron/jobs", h.CreateJob).Methods(http.MethodPost)
	api.HandleFunc("/cron/jobs/{id}", h.UpdateJob).Methods(http.MethodPut)
	api.HandleFunc("/cron/jobs/{id}/toggle", h.ToggleJob).Methods(http.MethodPost)
	api.HandleFunc("/cron/jobs/{id}", h.DeleteJob).Methods(http.MethodDelete)
	api.HandleFunc("/cron/runs", h.ListRuns).Methods(http.MethodGet)

	// RSS via the blogwatcher CLI.
	api.HandleFunc("/rss/scan-summary-discord", h.QuickSchedule).Methods(http.MethodPost)
	api.HandleFunc("/rss/blogs", h.ListBlogs).Methods(http.MethodGet)
	api.HandleFunc("/rss/blogs", h.AddBlog).Methods(http.MethodPost)
	api.HandleFunc("/rss/blogs/{name}", h.EditBlog).Methods(http.MethodPut)
	api.HandleFunc("/rss/blogs/{name}", h.RemoveBlog).Methods(http.MethodDelete)
	api.HandleFunc("/rss/articles", h.ListArticles).Methods(http.MethodGet)
	api.HandleFunc("/rss/articles/{id}/read", h.MarkArticleRead).Methods(http.MethodPost)
	api.HandleFunc("/rss/articles/{id}/unread", h.MarkArticleUnread).Methods(http.MethodPost)
	api.HandleFunc("/rss/read-all", h.ReadAll).Methods(http.MethodPost)
	api.HandleFunc("/rss/scan", h.Scan).Methods(http.MethodPost)

	// Dashboard feeds.
	api.HandleFunc("/quests", h.Quests).Methods(http.MethodGet)
	api.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	api.HandleFunc("/karma", h.Karma).Methods(http.MethodGet)
	api.HandleFunc("/diary/dates", h.DiaryDates).Methods(http.MethodGet)
	api.HandleFunc("/diary", h.Diary).Methods(http.MethodGet)
	api.HandleFunc("/stickers", h.Stickers).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	router.PathPrefix("/stickers/").Handler(
		http.StripPrefix("/stickers/", http.FileServer(http.Dir(cfg.StickersDir))))

	router.PathPrefix("/").Handler(spaHandler(cfg.DistDir))

	return router
}

// Start serves until ctx is cancelled, then drains connections.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("http server listening",
			logger.Field{Key: "addr", Value: s.httpServer.Addr})
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// spaHandler serves files from distDir and falls back to index.html for
// unknown paths so client-side routing keeps working.
func spaHandler(distDir string) http.Handler {
	fileServer := http.FileServer(http.Dir(distDir))
	index := filepath.Join(distDir, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(distDir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, index)
	})
}
