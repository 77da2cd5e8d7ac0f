// Package diary reads dated markdown diary files and extracts timestamped
// entries. One file per day, named YYYY-MM-DD.md, entries written as
// bullet lines with a bold time marker:
//
//	- **9:15 AM**: reviewed the overnight scan results
package diary

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/moltdash/moltdash/internal/logger"
)

const (
	maxEntryLimit = 500
)

var (
	fileNameRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\.md$`)
	entryRe    = regexp.MustCompile(`^- \*\*\d{1,2}:\d{2} (AM|PM)\*\*:`)
)

// Entry is one timestamped diary line.
type Entry struct {
	Time string `json:"time"`
	Text string `json:"text"`
}

// Day is the parsed view of one diary file.
type Day struct {
	File         string  `json:"file"`
	Date         string  `json:"date"`
	Entries      []Entry `json:"entries"`
	TotalEntries int     `json:"totalEntries"`
}

// Reader reads diary files from a single directory.
type Reader struct {
	dir    string
	logger *logger.Logger
}

// NewReader creates a Reader over the diaries directory.
func NewReader(dir string, log *logger.Logger) *Reader {
	return &Reader{
		dir:    dir,
		logger: log,
	}
}

// Dates lists available diary dates, newest first.
func (r *Reader) Dates() ([]string, error) {
	files, err := r.listFiles()
	if err != nil {
		return nil, err
	}

	dates := make([]string, 0, len(files))
	for _, file := range files {
		dates = append(dates, strings.TrimSuffix(file, ".md"))
	}
	return dates, nil
}

// Read parses one day's entries, newest entry first. An empty date, or a
// date with no diary file, falls back to the most recent day. limit > 0
// keeps only the newest limit entries (capped at 500); limit <= 0 keeps all.
// When no diary files exist at all, an empty Day is returned with no error.
func (r *Reader) Read(date string, limit int) (Day, error) {
	files, err := r.listFiles()
	if err != nil {
		return Day{}, err
	}
	if len(files) == 0 {
		return Day{Entries: []Entry{}}, nil
	}

	target := files[0]
	if date != "" {
		requested := date + ".md"
		for _, file := range files {
			if file == requested {
				target = requested
				break
			}
		}
	}

	raw, err := os.ReadFile(filepath.Join(r.dir, target))
	if err != nil {
		r.logger.Error("failed to read diary file", err,
			logger.Field{Key: "file", Value: target})
		return Day{}, fmt.Errorf("read diary %s: %w", target, err)
	}

	parsed := ParseEntries(string(raw))
	total := len(parsed)

	if limit > maxEntryLimit {
		limit = maxEntryLimit
	}
	if limit > 0 && len(parsed) > limit {
		parsed = parsed[len(parsed)-limit:]
	}

	// Files are chronological; the view is newest first.
	reversed := make([]Entry, 0, len(parsed))
	for i := len(parsed) - 1; i >= 0; i-- {
		reversed = append(reversed, parsed[i])
	}

	return Day{
		File:         target,
		Date:         strings.TrimSuffix(target, ".md"),
		Entries:      reversed,
		TotalEntries: total,
	}, nil
}

// ParseEntries extracts timestamped entries from diary markdown, in file
// order. Lines without a time marker are ignored.
func ParseEntries(raw string) []Entry {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	entries := []Entry{}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !entryRe.MatchString(trimmed) {
			continue
		}

		clean := strings.TrimPrefix(trimmed, "- ")
		markerEnd := strings.Index(clean, ": ")
		if markerEnd == -1 {
			entries = append(entries, Entry{Time: "N/A", Text: clean})
			continue
		}

		timeMarker := strings.ReplaceAll(clean[:markerEnd], "**", "")
		text := strings.TrimSpace(clean[markerEnd+2:])
		entries = append(entries, Entry{Time: timeMarker, Text: text})
	}
	return entries
}

// listFiles returns diary file names sorted newest first.
func (r *Reader) listFiles() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		r.logger.Error("failed to read diaries directory", err,
			logger.Field{Key: "dir", Value: r.dir})
		return nil, fmt.Errorf("read diaries directory %s: %w", r.dir, err)
	}

	files := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !fileNameRe.MatchString(entry.Name()) {
			continue
		}
		files = append(files, entry.Name())
	}

	// Date-shaped names sort lexicographically; reverse for newest first.
	for i, j := 0, len(files)-1; i < j; i, j = i+1, j-1 {
		files[i], files[j] = files[j], files[i]
	}
	return files, nil
}
