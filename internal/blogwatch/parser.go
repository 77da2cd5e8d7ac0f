package blogwatch

import (
	"strconv"
	"strings"

	"github.com/wasilibs/go-re2"
	"golang.org/x/text/unicode/norm"
)

// Blog is one tracked feed as reported by `blogwatcher blogs`.
type Blog struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Feed        string `json:"feed"`
	LastScanned string `json:"lastScanned"`
}

// Article is one entry as reported by `blogwatcher articles`.
type Article struct {
	ID        int    `json:"id"`
	Status    string `json:"status"` // new | read
	Title     string `json:"title"`
	Blog      string `json:"blog"`
	URL       string `json:"url"`
	Published string `json:"published"`
	Mode      string `json:"mode"` // unread | all
}

// Listing format of `blogwatcher blogs`: a name line indented two spaces,
// followed by detail lines indented four.
var (
	blogNameRe    = re2.MustCompile(`^\s{2}(.+?)\s*$`)
	blogURLRe     = re2.MustCompile(`^\s{4}URL:\s*(.+)$`)
	blogFeedRe    = re2.MustCompile(`^\s{4}Feed:\s*(.+)$`)
	blogScannedRe = re2.MustCompile(`^\s{4}Last scanned:\s*(.+)$`)

	articleHeadRe      = re2.MustCompile(`^\s*\[(\d+)\]\s*\[(new|read)\]\s*(.+)$`)
	articleBlogRe      = re2.MustCompile(`^\s*Blog:\s*(.+)$`)
	articleURLRe       = re2.MustCompile(`^\s*URL:\s*(.+)$`)
	articlePublishedRe = re2.MustCompile(`^\s*Published:\s*(.+)$`)
)

// ParseBlogs extracts blog records from `blogwatcher blogs` output.
func ParseBlogs(raw string) []Blog {
	lines := splitLines(raw)
	blogs := []Blog{}
	var current *Blog

	for _, line := range lines {
		// Detail lines also start with two spaces, so the name match is
		// guarded by excluding known detail markers.
		isDetail := strings.Contains(line, "URL:") ||
			strings.Contains(line, "Feed:") ||
			strings.Contains(line, "Last scanned:")

		if m := blogNameRe.FindStringSubmatch(line); m != nil && !isDetail {
			if current != nil {
				blogs = append(blogs, *current)
			}
			current = &Blog{Name: strings.TrimSpace(m[1])}
			continue
		}

		if current == nil {
			continue
		}
		if m := blogURLRe.FindStringSubmatch(line); m != nil {
			current.URL = strings.TrimSpace(m[1])
		}
		if m := blogFeedRe.FindStringSubmatch(line); m != nil {
			current.Feed = strings.TrimSpace(m[1])
		}
		if m := blogScannedRe.FindStringSubmatch(line); m != nil {
			current.LastScanned = strings.TrimSpace(m[1])
		}
	}

	if current != nil {
		blogs = append(blogs, *current)
	}

	filtered := blogs[:0]
	for _, blog := range blogs {
		if blog.Name != "" {
			filtered = append(filtered, blog)
		}
	}
	return filtered
}

// ParseArticles extracts article records from `blogwatcher articles` output.
func ParseArticles(raw string) []Article {
	lines := splitLines(raw)
	articles := []Article{}
	var current *Article
	mode := "unread"

	for _, line := range lines {
		if strings.HasPrefix(line, "All articles") {
			mode = "all"
		}
		if strings.HasPrefix(line, "Unread articles") {
			mode = "unread"
		}

		if m := articleHeadRe.FindStringSubmatch(line); m != nil {
			if current != nil {
				articles = append(articles, *current)
			}
			id, _ := strconv.Atoi(m[1])
			current = &Article{
				ID:     id,
				Status: m[2],
				Title:  strings.TrimSpace(m[3]),
				Mode:   mode,
			}
			continue
		}

		if current == nil {
			continue
		}
		if m := articleBlogRe.FindStringSubmatch(line); m != nil {
			current.Blog = strings.TrimSpace(m[1])
		}
		if m := articleURLRe.FindStringSubmatch(line); m != nil {
			current.URL = strings.TrimSpace(m[1])
		}
		if m := articlePublishedRe.FindStringSubmatch(line); m != nil {
			current.Published = strings.TrimSpace(m[1])
		}
	}

	if current != nil {
		articles = append(articles, *current)
	}
	return articles
}

// splitLines normalizes the untrusted tool output to NFC and splits it into
// lines, tolerating both \n and \r\n endings.
func splitLines(raw string) []string {
	normalized := norm.NFC.String(raw)
	normalized = strings.ReplaceAll(normalized, "\r\n", "\n")
	return strings.Split(normalized, "\n")
}
