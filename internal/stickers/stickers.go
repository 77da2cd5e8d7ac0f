// Package stickers lists image files from the stickers directory for the
// dashboard gallery. Serving the files themselves is the HTTP layer's job.
package stickers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/moltdash/moltdash/internal/logger"
)

var imageExtensions = map[string]bool{
	".gif":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Sticker is one gallery entry.
type Sticker struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// Lister enumerates stickers in a directory.
type Lister struct {
	dir    string
	logger *logger.Logger
}

// NewLister creates a Lister over the stickers directory.
func NewLister(dir string, log *logger.Logger) *Lister {
	return &Lister{
		dir:    dir,
		logger: log,
	}
}

// Dir returns the stickers directory path.
func (l *Lister) Dir() string {
	return l.dir
}

// List returns all image files as gallery entries, in directory order.
func (l *Lister) List() ([]Sticker, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		l.logger.Error("failed to read stickers directory", err,
			logger.Field{Key: "dir", Value: l.dir})
		return nil, fmt.Errorf("read stickers directory %s: %w", l.dir, err)
	}

	result := []Sticker{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !imageExtensions[ext] {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		result = append(result, Sticker{
			ID:       len(result) + 1,
			Name:     name,
			Filename: entry.Name(),
			URL:      "/stickers/" + entry.Name(),
		})
	}
	return result, nil
}
