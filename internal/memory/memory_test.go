package memory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moltdash/moltdash/internal/logger"
)

func newTestReader(t *testing.T) (*Reader, string) {
	t.Helper()

	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stderr"})
	require.NoError(t, err)

	dir := t.TempDir()
	return NewReader(dir, log), dir
}

func TestQuests_Passthrough(t *testing.T) {
	reader, dir := newTestReader(t)
	doc := `{"active":[{"name":"ship the dashboard"}],"done":[]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quests.json"), []byte(doc), 0644))

	raw, err := reader.Quests()

	require.NoError(t, err)
	assert.JSONEq(t, doc, string(raw))
}

func TestQuests_MissingFile(t *testing.T) {
	reader, _ := newTestReader(t)

	_, err := reader.Quests()
	assert.Error(t, err)
}

func TestHealth_CorruptDocument(t *testing.T) {
	reader, dir := newTestReader(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "heartbeat-state.json"), []byte("{oops"), 0644))

	_, err := reader.Health()
	assert.Error(t, err)
}

func TestKarma(t *testing.T) {
	reader, dir := newTestReader(t)
	doc := `{"last_beat":1756400000000,"last_moltbook_karma":42}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "heartbeat-state.json"), []byte(doc), 0644))

	karma, err := reader.Karma()

	require.NoError(t, err)
	assert.Equal(t, float64(42), karma)
}

func TestKarma_DefaultsToZero(t *testing.T) {
	reader, dir := newTestReader(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "heartbeat-state.json"), []byte(`{}`), 0644))

	karma, err := reader.Karma()

	require.NoError(t, err)
	assert.Zero(t, karma)
}
