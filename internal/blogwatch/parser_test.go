package blogwatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBlogsOutput = `Tracked blogs:
  Dan Luu
    URL: https://danluu.com
    Feed: https://danluu.com/atom.xml
    Last scanned: 2026-08-28 09:00
  Julia Evans
    URL: https://jvns.ca
    Feed: https://jvns.ca/atom.xml
    Last scanned: never
`

func TestParseBlogs(t *testing.T) {
	blogs := ParseBlogs(sampleBlogsOutput)

	require.Len(t, blogs, 2)

	assert.Equal(t, "Dan Luu", blogs[0].Name)
	assert.Equal(t, "https://danluu.com", blogs[0].URL)
	assert.Equal(t, "https://danluu.com/atom.xml", blogs[0].Feed)
	assert.Equal(t, "2026-08-28 09:00", blogs[0].LastScanned)

	assert.Equal(t, "Julia Evans", blogs[1].Name)
	assert.Equal(t, "never", blogs[1].LastScanned)
}

func TestParseBlogs_EmptyOutput(t *testing.T) {
	assert.Empty(t, ParseBlogs(""))
	assert.Empty(t, ParseBlogs("No blogs tracked yet.\n"))
}

func TestParseBlogs_MissingDetailLines(t *testing.T) {
	blogs := ParseBlogs("Tracked blogs:\n  Bare Blog\n")

	require.Len(t, blogs, 1)
	assert.Equal(t, "Bare Blog", blogs[0].Name)
	assert.Empty(t, blogs[0].URL)
	assert.Empty(t, blogs[0].Feed)
}

const sampleArticlesOutput = `Unread articles (2):
  [101] [new] Files are hard
    Blog: Dan Luu
    URL: https://danluu.com/file-consistency/
    Published: 2026-08-20
  [102] [new] How DNS works
    Blog: Julia Evans
    URL: https://jvns.ca/dns
    Published: 2026-08-25
All articles (1):
  [95] [read] Old post
    Blog: Dan Luu
    URL: https://danluu.com/old
    Published: 2026-07-01
`

func TestParseArticles(t *testing.T) {
	articles := ParseArticles(sampleArticlesOutput)

	require.Len(t, articles, 3)

	assert.Equal(t, 101, articles[0].ID)
	assert.Equal(t, "new", articles[0].Status)
	assert.Equal(t, "Files are hard", articles[0].Title)
	assert.Equal(t, "Dan Luu", articles[0].Blog)
	assert.Equal(t, "https://danluu.com/file-consistency/", articles[0].URL)
	assert.Equal(t, "2026-08-20", articles[0].Published)
	assert.Equal(t, "unread", articles[0].Mode)

	assert.Equal(t, 102, articles[1].ID)

	// The mode header before the third entry switches it to "all".
	assert.Equal(t, 95, articles[2].ID)
	assert.Equal(t, "read", articles[2].Status)
	assert.Equal(t, "all", articles[2].Mode)
}

func TestParseArticles_EmptyOutput(t *testing.T) {
	assert.Empty(t, ParseArticles(""))
	assert.Empty(t, ParseArticles("Unread articles (0):\n"))
}

func TestParseArticles_CRLFOutput(t *testing.T) {
	raw := "Unread articles (1):\r\n  [7] [new] Windows line endings\r\n    Blog: Somewhere\r\n"

	articles := ParseArticles(raw)

	require.Len(t, articles, 1)
	assert.Equal(t, 7, articles[0].ID)
	assert.Equal(t, "Windows line endings", articles[0].Title)
	assert.Equal(t, "Somewhere", articles[0].Blog)
}

func TestParseArticles_DetailLinesBeforeAnyHeadIgnored(t *testing.T) {
	raw := "    Blog: stray\n  [1] [new] Real entry\n"

	articles := ParseArticles(raw)

	require.Len(t, articles, 1)
	assert.Equal(t, "Real entry", articles[0].Title)
	assert.Empty(t, articles[0].Blog)
}
