// Package memory reads whole-document JSON snapshots maintained by the
// agent in its memory directory. All reads are passthrough; this package
// never writes.
package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/moltdash/moltdash/internal/logger"
)

const (
	questsFile = "quests.json"
	healthFile = "heartbeat-state.json"
)

// Reader reads snapshot documents from the memory directory.
type Reader struct {
	dir    string
	logger *logger.Logger
}

// NewReader creates a Reader over the memory directory.
func NewReader(dir string, log *logger.Logger) *Reader {
	return &Reader{
		dir:    dir,
		logger: log,
	}
}

// Quests returns the raw quests document.
func (r *Reader) Quests() (json.RawMessage, error) {
	return r.readDocument(questsFile)
}

// Health returns the raw heartbeat state document.
func (r *Reader) Health() (json.RawMessage, error) {
	return r.readDocument(healthFile)
}

// Karma extracts the karma counter from the heartbeat state, defaulting to
// zero when the field is absent.
func (r *Reader) Karma() (float64, error) {
	raw, err := r.readDocument(healthFile)
	if err != nil {
		return 0, err
	}

	var state struct {
		Karma float64 `json:"last_moltbook_karma"`
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		return 0, fmt.Errorf("parse %s: %w", healthFile, err)
	}
	return state.Karma, nil
}

// readDocument reads and syntax-checks one JSON file.
func (r *Reader) readDocument(name string) (json.RawMessage, error) {
	path := filepath.Join(r.dir, name)

	raw, err := os.ReadFile(path)
	if err != nil {
		r.logger.Error("failed to read memory document", err,
			logger.Field{Key: "file", Value: path})
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	if !json.Valid(raw) {
		err := fmt.Errorf("invalid JSON in %s", name)
		r.logger.Error("corrupt memory document", err,
			logger.Field{Key: "file", Value: path})
		return nil, err
	}
	return json.RawMessage(raw), nil
}
