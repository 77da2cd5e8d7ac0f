// Package runlog reconstructs a most-recent-status view of job executions
// from append-only per-job JSONL logs written by the external runner. The
// reader never writes; only the last line of each log is current.
package runlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/moltdash/moltdash/internal/logger"
)

const (
	// DefaultLimit is used when the caller asks for zero or fewer runs.
	DefaultLimit = 20
	// MaxLimit caps how many runs a single call returns.
	MaxLimit = 50

	// UnknownJobName is reported when a log line carries no job id at all.
	UnknownJobName = "Unknown Job"

	logSuffix = ".jsonl"
)

// Run is the reduced latest-status snapshot of one job's most recent
// execution.
type Run struct {
	JobID        string `json:"jobId"`
	JobName      string `json:"jobName"`
	RunID        string `json:"runId"`
	Status       string `json:"status"`
	Summary      string `json:"summary"`
	DurationMs   int64  `json:"durationMs"`
	RunAtMs      int64  `json:"runAtMs"`
	FinishedAtMs int64  `json:"finishedAtMs"`
}

// record is the raw shape of one log line.
type record struct {
	JobID        string `json:"jobId"`
	SessionID    string `json:"sessionId"`
	Status       string `json:"status"`
	Summary      string `json:"summary"`
	DurationMs   int64  `json:"durationMs"`
	RunAtMs      int64  `json:"runAtMs"`
	FinishedAtMs int64  `json:"finishedAtMs"`
}

// ParseError reports an undecodable terminal log line. The offending source
// is skipped; the overall read still succeeds.
type ParseError struct {
	Source string
	Err    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("runlog: undecodable last line in %s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Reader reduces the run-log directory to latest-run snapshots.
type Reader struct {
	dir    string
	logger *logger.Logger
}

// NewReader creates a Reader over a directory of per-job .jsonl logs.
func NewReader(runsDir string, log *logger.Logger) *Reader {
	return &Reader{
		dir:    runsDir,
		logger: log,
	}
}

// LatestRuns reduces each log to its last line and returns the resulting
// runs sorted newest first, truncated to limit (default 20, max 50).
// jobNames maps job ids to display names; unresolvable ids fall back to the
// raw id and then to the unknown-job sentinel. A log whose final line does
// not parse contributes nothing rather than a stale earlier line.
func (r *Reader) LatestRuns(limit int, jobNames map[string]string) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		r.logger.Error("failed to read runs directory", err,
			logger.Field{Key: "dir", Value: r.dir})
		return nil, fmt.Errorf("read runs directory %s: %w", r.dir, err)
	}

	runs := make([]Run, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), logSuffix) {
			continue
		}

		run, ok := r.reduceFile(entry.Name(), jobNames)
		if !ok {
			continue
		}
		runs = append(runs, run)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].RunAtMs > runs[j].RunAtMs
	})
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// reduceFile parses the last line of one log file into a Run.
func (r *Reader) reduceFile(name string, jobNames map[string]string) (Run, bool) {
	path := filepath.Join(r.dir, name)

	info, err := os.Stat(path)
	if err != nil {
		r.logger.Warn("failed to stat run log, skipping",
			logger.Field{Key: "file", Value: path},
			logger.Field{Key: "error", Value: err})
		return Run{}, false
	}

	content, err := os.ReadFile(path)
	if err != nil {
		r.logger.Warn("failed to read run log, skipping",
			logger.Field{Key: "file", Value: path},
			logger.Field{Key: "error", Value: err})
		return Run{}, false
	}

	last := lastLine(content)
	var rec record
	if err := json.Unmarshal([]byte(last), &rec); err != nil {
		perr := &ParseError{Source: name, Err: err}
		r.logger.Warn("corrupt terminal run-log line, skipping source",
			logger.Field{Key: "file", Value: path},
			logger.Field{Key: "error", Value: perr})
		return Run{}, false
	}

	jobID := rec.JobID
	if jobID == "" {
		jobID = strings.TrimSuffix(name, logSuffix)
	}

	// Name resolution intentionally keys off the line's own job id: a line
	// with no id at all resolves to the unknown-job sentinel even though the
	// run keeps the filename-derived id.
	jobName := jobNames[rec.JobID]
	if jobName == "" {
		jobName = rec.JobID
	}
	if jobName == "" {
		jobName = UnknownJobName
	}

	status := rec.Status
	if status == "" {
		status = "unknown"
	}

	runAt := rec.RunAtMs
	if runAt == 0 {
		runAt = info.ModTime().UnixMilli()
	}

	finishedAt := rec.FinishedAtMs
	if finishedAt == 0 {
		finishedAt = runAt + rec.DurationMs
	}

	return Run{
		JobID:        jobID,
		JobName:      jobName,
		RunID:        rec.SessionID,
		Status:       status,
		Summary:      rec.Summary,
		DurationMs:   rec.DurationMs,
		RunAtMs:      runAt,
		FinishedAtMs: finishedAt,
	}, true
}

// lastLine returns the final non-empty line of the file content.
func lastLine(content []byte) string {
	trimmed := strings.TrimRight(string(content), "\r\n \t")
	if idx := strings.LastIndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	return strings.TrimRight(trimmed, "\r")
}
