// Package api exposes the dashboard's HTTP surface: job scheduling CRUD,
// run history, the blogwatcher adapter, and the read-only dashboard feeds.
// Handlers validate request shape and translate domain errors to status
// codes; business rules live in the packages they delegate to.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/moltdash/moltdash/internal/blogwatch"
	"github.com/moltdash/moltdash/internal/cronjob"
	"github.com/moltdash/moltdash/internal/diary"
	"github.com/moltdash/moltdash/internal/logger"
	"github.com/moltdash/moltdash/internal/memory"
	"github.com/moltdash/moltdash/internal/runlog"
	"github.com/moltdash/moltdash/internal/stickers"
)

// Handler carries the collaborators behind the HTTP surface.
type Handler struct {
	store         *cronjob.Store
	runs          *runlog.Reader
	blogs         *blogwatch.Runner
	diaries       *diary.Reader
	memory        *memory.Reader
	stickers      *stickers.Lister
	defaultTarget string
	logger        *logger.Logger
}

// NewHandler creates a Handler.
func NewHandler(
	store *cronjob.Store,
	runs *runlog.Reader,
	blogs *blogwatch.Runner,
	diaries *diary.Reader,
	mem *memory.Reader,
	stick *stickers.Lister,
	defaultTarget string,
	log *logger.Logger,
) *Handler {
	return &Handler{
		store:         store,
		runs:          runs,
		blogs:         blogs,
		diaries:       diaries,
		memory:        mem,
		stickers:      stick,
		defaultTarget: defaultTarget,
		logger:        log,
	}
}

// ListJobs handles GET /api/cron/jobs.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	data, err := h.store.List()
	if err != nil {
		h.jobError(w, err, "Failed to read cron jobs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version": data.Version,
		"jobs":    data.Jobs,
	})
}

// CreateJob handles POST /api/cron/jobs.
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Job *cronjob.JobInput `json:"job"`
	}
	if err := decodeBody(r, &body); err != nil || body.Job == nil {
		writeError(w, http.StatusBadRequest, "job is required")
		return
	}

	job, err := h.store.Create(*body.Job)
	if err != nil {
		h.jobError(w, err, "Failed to create cron job")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"job": job})
}

// UpdateJob handles PUT /api/cron/jobs/{id}.
func (h *Handler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var body struct {
		Patch *cronjob.JobPatch `json:"patch"`
	}
	if err := decodeBody(r, &body); err != nil || body.Patch == nil {
		writeError(w, http.StatusBadRequest, "patch is required")
		return
	}

	job, err := h.store.Update(id, *body.Patch)
	if err != nil {
		h.jobError(w, err, "Failed to update cron job")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job": job})
}

// ToggleJob handles POST /api/cron/jobs/{id}/toggle. The body is optional;
// without an explicit enabled value the flag is inverted.
func (h *Handler) ToggleJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed toggle body")
		return
	}

	job, err := h.store.Toggle(id, body.Enabled)
	if err != nil {
		h.jobError(w, err, "Failed to toggle cron job")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job": job})
}

// DeleteJob handles DELETE /api/cron/jobs/{id}.
func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.store.Delete(id); err != nil {
		h.jobError(w, err, "Failed to delete cron job")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// ListRuns handles GET /api/cron/runs.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	data, err := h.store.List()
	if err != nil {
		h.jobError(w, err, "Failed to read cron jobs")
		return
	}

	names := make(map[string]string, len(data.Jobs))
	for _, job := range data.Jobs {
		names[job.ID] = job.Name
	}

	runs, err := h.runs.LatestRuns(limit, names)
	if err != nil {
		h.logger.Error("failed to read cron runs", err)
		writeError(w, http.StatusInternalServerError, "Failed to read cron runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// QuickSchedule handles POST /api/rss/scan-summary-discord: one-shot
// scan-and-digest job aimed at a delivery target.
func (h *Handler) QuickSchedule(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Target string `json:"target"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	target := strings.TrimSpace(body.Target)
	if target == "" {
		target = h.defaultTarget
	}
	if target == "" {
		writeError(w, http.StatusBadRequest, "Discord target is required")
		return
	}

	job, err := h.store.Create(cronjob.ComposeScanDigest(target))
	if err != nil {
		h.jobError(w, err, "Failed to queue scan+summary job")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "job": job})
}

// ListBlogs handles GET /api/rss/blogs.
func (h *Handler) ListBlogs(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.blogs.ListBlogs(r.Context())
	if err != nil {
		h.logger.Error("failed to list blogs", err)
		writeError(w, http.StatusInternalServerError, "Failed to list blogs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"blogs": blogs})
}

// AddBlog handles POST /api/rss/blogs.
func (h *Handler) AddBlog(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	if err := decodeBody(r, &body); err != nil || body.Name == "" || body.URL == "" {
		writeError(w, http.StatusBadRequest, "name and url are required")
		return
	}

	if err := h.blogs.AddBlog(r.Context(), body.Name, body.URL); err != nil {
		h.logger.Error("failed to add blog", err)
		writeError(w, http.StatusInternalServerError, "Failed to add blog")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// EditBlog handles PUT /api/rss/blogs/{name}.
func (h *Handler) EditBlog(w http.ResponseWriter, r *http.Request) {
	oldName := mux.Vars(r)["name"]

	var body struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	if err := decodeBody(r, &body); err != nil || body.Name == "" || body.URL == "" {
		writeError(w, http.StatusBadRequest, "name and url are required")
		return
	}

	if err := h.blogs.EditBlog(r.Context(), oldName, body.Name, body.URL); err != nil {
		h.logger.Error("failed to edit blog", err)
		writeError(w, http.StatusInternalServerError, "Failed to edit blog")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// RemoveBlog handles DELETE /api/rss/blogs/{name}.
func (h *Handler) RemoveBlog(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := h.blogs.RemoveBlog(r.Context(), name); err != nil {
		h.logger.Error("failed to remove blog", err)
		writeError(w, http.StatusInternalServerError, "Failed to remove blog")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// ListArticles handles GET /api/rss/articles.
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))

	articles, err := h.blogs.ListArticles(r.Context(), blogwatch.ArticleOptions{
		All:   query.Get("all") == "1" || query.Get("all") == "true",
		Blog:  query.Get("blog"),
		Limit: limit,
	})
	if err != nil {
		h.logger.Error("failed to list articles", err)
		writeError(w, http.StatusInternalServerError, "Failed to list articles")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": articles})
}

// MarkArticleRead handles POST /api/rss/articles/{id}/read.
func (h *Handler) MarkArticleRead(w http.ResponseWriter, r *http.Request) {
	h.markArticle(w, r, h.blogs.MarkRead, "Failed to mark article read")
}

// MarkArticleUnread handles POST /api/rss/articles/{id}/unread.
func (h *Handler) MarkArticleUnread(w http.ResponseWriter, r *http.Request) {
	h.markArticle(w, r, h.blogs.MarkUnread, "Failed to mark article unread")
}

func (h *Handler) markArticle(w http.ResponseWriter, r *http.Request, mark func(ctx context.Context, id int) error, failMsg string) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "article id must be a number")
		return
	}

	if err := mark(r.Context(), id); err != nil {
		h.logger.Error("failed to mark article", err,
			logger.Field{Key: "article_id", Value: id})
		writeError(w, http.StatusInternalServerError, failMsg)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// ReadAll handles POST /api/rss/read-all.
func (h *Handler) ReadAll(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Blog string `json:"blog"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	output, err := h.blogs.ReadAll(r.Context(), body.Blog)
	if err != nil {
		h.logger.Error("failed to mark all read", err)
		writeError(w, http.StatusInternalServerError, "Failed to mark all read")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "output": output})
}

// Scan handles POST /api/rss/scan.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BlogName string `json:"blogName"`
		Workers  int    `json:"workers"`
		Silent   bool   `json:"silent"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	output, command, err := h.blogs.Scan(r.Context(), blogwatch.ScanOptions{
		BlogName: body.BlogName,
		Workers:  body.Workers,
		Silent:   body.Silent,
	})
	if err != nil {
		h.logger.Error("failed to scan blogs", err)
		writeError(w, http.StatusInternalServerError, "Failed to scan blogs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "output": output, "command": command})
}

// Quests handles GET /api/quests.
func (h *Handler) Quests(w http.ResponseWriter, r *http.Request) {
	h.memorySnapshot(w, h.memory.Quests, "Failed to read quests data")
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.memorySnapshot(w, h.memory.Health, "Failed to read health data")
}

func (h *Handler) memorySnapshot(w http.ResponseWriter, read func() (json.RawMessage, error), failMsg string) {
	raw, err := read()
	if err != nil {
		writeError(w, http.StatusInternalServerError, failMsg)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// Karma handles GET /api/karma.
func (h *Handler) Karma(w http.ResponseWriter, r *http.Request) {
	karma, err := h.memory.Karma()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read karma data")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"karma": karma})
}

// DiaryDates handles GET /api/diary/dates.
func (h *Handler) DiaryDates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.diaries.Dates()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read diary dates")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dates": dates})
}

// Diary handles GET /api/diary.
func (h *Handler) Diary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))

	day, err := h.diaries.Read(strings.TrimSpace(query.Get("date")), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read diary entries")
		return
	}
	writeJSON(w, http.StatusOK, day)
}

// Stickers handles GET /api/stickers.
func (h *Handler) Stickers(w http.ResponseWriter, r *http.Request) {
	list, err := h.stickers.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read stickers")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// jobError maps the job store error taxonomy to HTTP status codes.
func (h *Handler) jobError(w http.ResponseWriter, err error, failMsg string) {
	var vErr *cronjob.ValidationError
	if errors.As(err, &vErr) {
		writeError(w, http.StatusBadRequest, vErr.Error())
		return
	}

	var nfErr *cronjob.NotFoundError
	if errors.As(err, &nfErr) {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}

	h.logger.Error("job store operation failed", err)
	writeError(w, http.StatusInternalServerError, failMsg)
}

// decodeBody decodes a JSON request body, tolerating an empty body.
func decodeBody(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == io.EOF {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
