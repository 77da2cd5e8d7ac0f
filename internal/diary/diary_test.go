package diary

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

func writeDiary(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

const sampleDiary = `# 2026-08-28

Some narrative paragraph that is not an entry.

- **9:15 AM**: reviewed the overnight scan results
- **1:30 PM**: added two new blogs to the watcher
- not an entry, no time marker
- **11:45 PM**: wrote up the day
`

func TestParseEntries(t *testing.T) {
	entries := ParseEntries(sampleDiary)

	require.Len(t, entries, 3)
	assert.Equal(t, "9:15 AM", entries[0].Time)
	assert.Equal(t, "reviewed the overnight scan results", entries[0].Text)
	assert.Equal(t, "1:30 PM", entries[1].Time)
	assert.Equal(t, "11:45 PM", entries[2].Time)
}

func TestParseEntries_Empty(t *testing.T) {
	assert.Empty(t, ParseEntries(""))
	assert.Empty(t, ParseEntries("# Just a header\n\nprose only\n"))
}

func TestDates_SortedNewestFirst(t *testing.T) {
	reader, dir := newTestReader(t)
	writeDiary(t, dir, "2026-08-26.md", "")
	writeDiary(t, dir, "2026-08-28.md", "")
	writeDiary(t, dir, "2026-08-27.md", "")
	writeDiary(t, dir, "notes.md", "")
	writeDiary(t, dir, "2026-08.md", "")

	dates, err := reader.Dates()

	require.NoError(t, err)
	assert.Equal(t, []string{"2026-08-28", "2026-08-27", "2026-08-26"}, dates)
}

func TestRead_DefaultsToLatestDay(t *testing.T) {
	reader, dir := newTestReader(t)
	writeDiary(t, dir, "2026-08-27.md", "- **8:00 AM**: old day\n")
	writeDiary(t, dir, "2026-08-28.md", "- **9:00 AM**: new day\n")

	day, err := reader.Read("", 0)

	require.NoError(t, err)
	assert.Equal(t, "2026-08-28", day.Date)
	require.Len(t, day.Entries, 1)
	assert.Equal(t, "new day", day.Entries[0].Text)
}

func TestRead_UnknownDateFallsBackToLatest(t *testing.T) {
	reader, dir := newTestReader(t)
	writeDiary(t, dir, "2026-08-28.md", "- **9:00 AM**: latest\n")

	day, err := reader.Read("2020-01-01", 0)

	require.NoError(t, err)
	assert.Equal(t, "2026-08-28", day.Date)
}

func TestRead_RequestedDate(t *testing.T) {
	reader, dir := newTestReader(t)
	writeDiary(t, dir, "2026-08-27.md", "- **8:00 AM**: requested day\n")
	writeDiary(t, dir, "2026-08-28.md", "- **9:00 AM**: latest day\n")

	day, err := reader.Read("2026-08-27", 0)

	require.NoError(t, err)
	assert.Equal(t, "2026-08-27", day.Date)
	require.Len(t, day.Entries, 1)
	assert.Equal(t, "requested day", day.Entries[0].Text)
}

func TestRead_EntriesNewestFirstWithLimit(t *testing.T) {
	reader, dir := newTestReader(t)
	writeDiary(t, dir, "2026-08-28.md",
		"- **9:00 AM**: first\n- **1:00 PM**: second\n- **5:00 PM**: third\n")

	day, err := reader.Read("", 2)

	require.NoError(t, err)
	assert.Equal(t, 3, day.TotalEntries)
	require.Len(t, day.Entries, 2)
	// The newest entries survive the limit, newest first.
	assert.Equal(t, "third", day.Entries[0].Text)
	assert.Equal(t, "second", day.Entries[1].Text)
}

func TestRead_NoDiaries(t *testing.T) {
	reader, _ := newTestReader(t)

	day, err := reader.Read("", 0)

	require.NoError(t, err)
	assert.Empty(t, day.File)
	assert.Empty(t, day.Date)
	assert.Empty(t, day.Entries)
}
