// Package blogwatch wraps the external blogwatcher command-line tool behind
// a structured interface. The tool prints human-readable listings; parsing of
// that text is isolated here so output-format drift only touches this
// package.
package blogwatch

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/moltdash/moltdash/internal/logger"
)

const (
	// DefaultBinary is the blogwatcher executable name resolved via PATH.
	DefaultBinary = "blogwatcher"

	// DefaultMaxOutputBytes caps how much tool output is accepted.
	DefaultMaxOutputBytes = 4 * 1024 * 1024

	defaultArticleLimit = 200
	maxArticleLimit     = 1000
)

// Runner invokes the blogwatcher binary and hands raw text to the parsers.
type Runner struct {
	binary    string
	workDir   string
	maxOutput int
	logger    *logger.Logger
}

// NewRunner creates a Runner. Empty binary falls back to DefaultBinary,
// maxOutput <= 0 to DefaultMaxOutputBytes.
func NewRunner(binary, workDir string, maxOutput int, log *logger.Logger) *Runner {
	if binary == "" {
		binary = DefaultBinary
	}
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutputBytes
	}
	return &Runner{
		binary:    binary,
		workDir:   workDir,
		maxOutput: maxOutput,
		logger:    log,
	}
}

// run executes the tool with the given arguments and returns its stdout.
func (r *Runner) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.binary, args...)
	if r.workDir != "" {
		cmd.Dir = r.workDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("running blogwatcher",
		logger.Field{Key: "args", Value: strings.Join(args, " ")})

	if err := cmd.Run(); err != nil {
		r.logger.Error("blogwatcher invocation failed", err,
			logger.Field{Key: "args", Value: strings.Join(args, " ")},
			logger.Field{Key: "stderr", Value: stderr.String()})
		return "", fmt.Errorf("blogwatcher %s: %w", strings.Join(args, " "), err)
	}

	if stdout.Len() > r.maxOutput {
		return "", fmt.Errorf("blogwatcher %s: output exceeds %d bytes", strings.Join(args, " "), r.maxOutput)
	}
	return stdout.String(), nil
}

// ListBlogs returns all tracked blogs.
func (r *Runner) ListBlogs(ctx context.Context) ([]Blog, error) {
	out, err := r.run(ctx, "blogs")
	if err != nil {
		return nil, err
	}
	return ParseBlogs(out), nil
}

// AddBlog starts tracking a blog.
func (r *Runner) AddBlog(ctx context.Context, name, url string) error {
	_, err := r.run(ctx, "add", name, url)
	return err
}

// EditBlog replaces the stored entry for oldName. The tool has no edit verb,
// so this is remove followed by add.
func (r *Runner) EditBlog(ctx context.Context, oldName, name, url string) error {
	if err := r.RemoveBlog(ctx, oldName); err != nil {
		return err
	}
	return r.AddBlog(ctx, name, url)
}

// RemoveBlog stops tracking a blog.
func (r *Runner) RemoveBlog(ctx context.Context, name string) error {
	_, err := r.run(ctx, "remove", name)
	return err
}

// ArticleOptions narrows an article listing.
type ArticleOptions struct {
	All   bool   // include read articles
	Blog  string // restrict to one blog
	Limit int    // 1..1000, default 200
}

// ListArticles returns tracked articles, unread-only by default.
func (r *Runner) ListArticles(ctx context.Context, opts ArticleOptions) ([]Article, error) {
	args := []string{"articles"}
	if opts.All {
		args = append(args, "--all")
	}
	if opts.Blog != "" {
		args = append(args, "--blog", opts.Blog)
	}

	out, err := r.run(ctx, args...)
	if err != nil {
		return nil, err
	}

	articles := ParseArticles(out)

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultArticleLimit
	}
	if limit > maxArticleLimit {
		limit = maxArticleLimit
	}
	if len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, nil
}

// MarkRead marks one article as read.
func (r *Runner) MarkRead(ctx context.Context, id int) error {
	_, err := r.run(ctx, "read", strconv.Itoa(id))
	return err
}

// MarkUnread marks one article as unread.
func (r *Runner) MarkUnread(ctx context.Context, id int) error {
	_, err := r.run(ctx, "unread", strconv.Itoa(id))
	return err
}

// ReadAll marks every article read, optionally only for one blog, and
// returns the tool's raw confirmation output.
func (r *Runner) ReadAll(ctx context.Context, blog string) (string, error) {
	args := []string{"read-all", "--yes"}
	if blog != "" {
		args = append(args, "--blog", blog)
	}
	return r.run(ctx, args...)
}

// ScanOptions narrows a scan invocation.
type ScanOptions struct {
	BlogName string
	Workers  int
	Silent   bool
}

// Scan fetches new articles. It returns the raw output and the command line
// that was run, for display to the caller.
func (r *Runner) Scan(ctx context.Context, opts ScanOptions) (output, command string, err error) {
	args := []string{"scan"}
	if opts.BlogName != "" {
		args = append(args, opts.BlogName)
	}
	if opts.Workers > 0 {
		args = append(args, "--workers", strconv.Itoa(opts.Workers))
	}
	if opts.Silent {
		args = append(args, "--silent")
	}

	out, err := r.run(ctx, args...)
	if err != nil {
		return "", "", err
	}
	return out, "blogwatcher " + strings.Join(args, " "), nil
}
