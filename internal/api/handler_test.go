package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moltdash/moltdash/internal/blogwatch"
	"github.com/moltdash/moltdash/internal/cronjob"
	"github.com/moltdash/moltdash/internal/diary"
	"github.com/moltdash/moltdash/internal/logger"
	"github.com/moltdash/moltdash/internal/memory"
	"github.com/moltdash/moltdash/internal/runlog"
	"github.com/moltdash/moltdash/internal/stickers"
)

type testEnv struct {
	router      http.Handler
	store       *cronjob.Store
	cronDir     string
	runsDir     string
	memoryDir   string
	stickersDir string
	diariesDir  string
	distDir     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	root := t.TempDir()
	env := &testEnv{
		cronDir:     filepath.Join(root, "cron"),
		runsDir:     filepath.Join(root, "cron", "runs"),
		memoryDir:   filepath.Join(root, "memory"),
		stickersDir: filepath.Join(root, "stickers"),
		diariesDir:  filepath.Join(root, "memory", "diaries"),
		distDir:     filepath.Join(root, "dist"),
	}
	for _, dir := range []string{env.runsDir, env.memoryDir, env.stickersDir, env.diariesDir, env.distDir} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}

	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stderr"})
	require.NoError(t, err)

	env.store = cronjob.NewStore(env.cronDir, log)
	h := NewHandler(
		env.store,
		runlog.NewReader(env.runsDir, log),
		blogwatch.NewRunner("blogwatcher", root, 0, log),
		diary.NewReader(env.diariesDir, log),
		memory.NewReader(env.memoryDir, log),
		stickers.NewLister(env.stickersDir, log),
		"",
		log,
	)
	env.router = newRouter(ServerConfig{
		Port:        0,
		DistDir:     env.distDir,
		StickersDir: env.stickersDir,
	}, h, log)

	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func everyJobInput(name string) map[string]any {
	return map[string]any{
		"name":     name,
		"schedule": map[string]any{"kind": "every", "everyMs": 60000},
		"payload":  map[string]any{"kind": "agentTurn", "message": "do the thing"},
	}
}

func TestListJobs_Empty(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/cron/jobs", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeMap(t, rec)
	assert.Equal(t, float64(1), body["version"])
	assert.Empty(t, body["jobs"])
}

func TestCreateJob(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/cron/jobs", map[string]any{
		"job": everyJobInput("Minutely"),
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeMap(t, rec)
	job, ok := body["job"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, job["id"])
	assert.Equal(t, "Minutely", job["name"])
	assert.Equal(t, true, job["enabled"])

	list := env.do(t, http.MethodGet, "/api/cron/jobs", nil)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Len(t, decodeMap(t, list)["jobs"], 1)
}

func TestCreateJob_MissingJob(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/cron/jobs", map[string]any{})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "job is required", decodeMap(t, rec)["error"])
}

func TestCreateJob_InvalidSchedule(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/cron/jobs", map[string]any{
		"job": map[string]any{
			"name":     "Broken",
			"schedule": map[string]any{"kind": "cron", "expr": "not a cron expr"},
			"payload":  map[string]any{"kind": "agentTurn", "message": "x"},
		},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateJob(t *testing.T) {
	env := newTestEnv(t)

	created := env.do(t, http.MethodPost, "/api/cron/jobs", map[string]any{
		"job": everyJobInput("Before"),
	})
	require.Equal(t, http.StatusCreated, created.Code)
	id := decodeMap(t, created)["job"].(map[string]any)["id"].(string)

	rec := env.do(t, http.MethodPut, "/api/cron/jobs/"+id, map[string]any{
		"patch": map[string]any{"name": "After"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	job := decodeMap(t, rec)["job"].(map[string]any)
	assert.Equal(t, "After", job["name"])
}

func TestUpdateJob_MissingPatch(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/cron/jobs/some-id", map[string]any{})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "patch is required", decodeMap(t, rec)["error"])
}

func TestUpdateJob_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/cron/jobs/missing", map[string]any{
		"patch": map[string]any{"name": "x"},
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleJob(t *testing.T) {
	env := newTestEnv(t)

	created := env.do(t, http.MethodPost, "/api/cron/jobs", map[string]any{
		"job": everyJobInput("Toggle me"),
	})
	id := decodeMap(t, created)["job"].(map[string]any)["id"].(string)

	rec := env.do(t, http.MethodPost, "/api/cron/jobs/"+id+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeMap(t, rec)["job"].(map[string]any)["enabled"])

	rec = env.do(t, http.MethodPost, "/api/cron/jobs/"+id+"/toggle", map[string]any{
		"enabled": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeMap(t, rec)["job"].(map[string]any)["enabled"])
}

func TestToggleJob_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/cron/jobs/missing/toggle", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteJob(t *testing.T) {
	env := newTestEnv(t)

	created := env.do(t, http.MethodPost, "/api/cron/jobs", map[string]any{
		"job": everyJobInput("Doomed"),
	})
	id := decodeMap(t, created)["job"].(map[string]any)["id"].(string)

	rec := env.do(t, http.MethodDelete, "/api/cron/jobs/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeMap(t, rec)["ok"])

	rec = env.do(t, http.MethodDelete, "/api/cron/jobs/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListRuns(t *testing.T) {
	env := newTestEnv(t)

	created := env.do(t, http.MethodPost, "/api/cron/jobs", map[string]any{
		"job": everyJobInput("Nightly sweep"),
	})
	id := decodeMap(t, created)["job"].(map[string]any)["id"].(string)

	line := fmt.Sprintf(`{"jobId":%q,"runId":"r1","status":"ok","summary":"done","runAtMs":1700000000000,"durationMs":4000}`, id)
	require.NoError(t, os.WriteFile(filepath.Join(env.runsDir, id+".jsonl"), []byte(line+"\n"), 0o644))

	rec := env.do(t, http.MethodGet, "/api/cron/runs", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	runs, ok := decodeMap(t, rec)["runs"].([]any)
	require.True(t, ok)
	require.Len(t, runs, 1)
	run := runs[0].(map[string]any)
	assert.Equal(t, "Nightly sweep", run["jobName"])
	assert.Equal(t, "ok", run["status"])
	assert.Equal(t, float64(1700000004000), run["finishedAtMs"])
}

func TestListRuns_EmptyDir(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/cron/runs", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeMap(t, rec)["runs"])
}

func TestQuickSchedule(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/rss/scan-summary-discord", map[string]any{
		"target": "channel:general",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeMap(t, rec)
	assert.Equal(t, true, body["ok"])
	job := body["job"].(map[string]any)
	assert.Contains(t, job["name"], "channel:general")
	assert.Equal(t, "at", job["schedule"].(map[string]any)["kind"])
}

func TestQuickSchedule_MissingTarget(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/rss/scan-summary-discord", map[string]any{})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Discord target is required", decodeMap(t, rec)["error"])
}

func TestQuests_Passthrough(t *testing.T) {
	env := newTestEnv(t)

	doc := `{"active":[{"id":"q1","title":"Fix the feed"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(env.memoryDir, "quests.json"), []byte(doc), 0o644))

	rec := env.do(t, http.MethodGet, "/api/quests", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, doc, rec.Body.String())
}

func TestQuests_MissingFile(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/quests", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestKarma(t *testing.T) {
	env := newTestEnv(t)

	doc := `{"last_moltbook_karma": 42.5}`
	require.NoError(t, os.WriteFile(filepath.Join(env.memoryDir, "heartbeat-state.json"), []byte(doc), 0o644))

	rec := env.do(t, http.MethodGet, "/api/karma", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 42.5, decodeMap(t, rec)["karma"])
}

func TestDiary(t *testing.T) {
	env := newTestEnv(t)

	content := "# Diary\n\n- **9:15 AM**: woke up early\n- **1:30 PM**: shipped the fix\n"
	require.NoError(t, os.WriteFile(filepath.Join(env.diariesDir, "2026-08-28.md"), []byte(content), 0o644))

	rec := env.do(t, http.MethodGet, "/api/diary", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeMap(t, rec)
	assert.Equal(t, "2026-08-28", body["date"])
	entries := body["entries"].([]any)
	require.Len(t, entries, 2)
	assert.Equal(t, "1:30 PM", entries[0].(map[string]any)["time"])

	dates := env.do(t, http.MethodGet, "/api/diary/dates", nil)
	require.Equal(t, http.StatusOK, dates.Code)
	assert.Equal(t, []any{"2026-08-28"}, decodeMap(t, dates)["dates"])
}

func TestStickers(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, os.WriteFile(filepath.Join(env.stickersDir, "wave.png"), []byte("png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(env.stickersDir, "notes.txt"), []byte("skip"), 0o644))

	rec := env.do(t, http.MethodGet, "/api/stickers", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "/stickers/wave.png", list[0]["url"])

	static := env.do(t, http.MethodGet, "/stickers/wave.png", nil)
	require.Equal(t, http.StatusOK, static.Code)
	assert.Equal(t, "png", static.Body.String())
}

func TestSPAFallback(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, os.WriteFile(filepath.Join(env.distDir, "index.html"), []byte("<html>app</html>"), 0o644))

	rec := env.do(t, http.MethodGet, "/some/client/route", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "app")
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodGet, "/api/cron/jobs", nil)
	rec := env.do(t, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "moltdash_http_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodOptions, "/api/cron/jobs", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestListRuns_LimitClamp(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 60; i++ {
		name := fmt.Sprintf("job-%02d", i)
		line := fmt.Sprintf(`{"jobId":%q,"status":"ok","runAtMs":%d}`, name, 1700000000000+int64(i)*1000)
		require.NoError(t, os.WriteFile(filepath.Join(env.runsDir, name+".jsonl"), []byte(line+"\n"), 0o644))
	}

	rec := env.do(t, http.MethodGet, "/api/cron/runs?limit=1000", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeMap(t, rec)["runs"], 50)
}
