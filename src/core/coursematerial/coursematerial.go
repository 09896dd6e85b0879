// Package coursematerial turns lecture slides and transcripts into retrievable
// text nodes.
package coursematerial

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	DefaultWindowSize        = 5
	DefaultTranscriptChunk   = 200
	DefaultTranscriptOverlap = 10
	DefaultTopK              = 10
)

var ErrMissingCourseMaterial = errors.New("course material directory does not exist")

type Kind string

const (
	KindSlides     Kind = "slides"
	KindTranscript Kind = "transcript"
)

// Node is one retrievable piece of course material.
type Node struct {
	ID     string
	Kind   Kind
	Source string
	Text   string
}

// Index stores nodes for later retrieval.
type Index interface {
	Build(ctx context.Context, collection string, nodes []Node) error
}

// Retriever returns the text of the k nodes most related to query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

// PageExtractor returns the text of each page of a document.
type PageExtractor interface {
	ExtractPages(ctx context.Context, filename string, content []byte) ([]string, error)
}

var (
	dateFooterEN = regexp.MustCompile(`\n(January|February|March|April|May|June|July|August|September|October|November|December) \d{1,2}, \d{4}\d{1,3}`)
	dateFooterDE = regexp.MustCompile(`\n\d{1,2}. (Januar|Februar|März|April|Mai|Juni|Juli|August|September|Oktober|November|Dezember) \d{4}\d{1,3}`)
	latexBlock   = regexp.MustCompile(`(?s)<latexit.*?>.*?</latexit>`)
)

// Cleaner strips slide chrome: a header line matching a configurable word,
// date and page-number footers, and embedded LaTeX source.
type Cleaner struct {
	prefix *regexp.Regexp
}

// NewCleaner builds a Cleaner. When headerWord is not empty, the first line
// containing it is removed from each slide.
func NewCleaner(headerWord string) *Cleaner {
	c := &Cleaner{}
	if headerWord != "" {
		c.prefix = regexp.MustCompile(`^[^\n]*` + regexp.QuoteMeta(headerWord) + `[^\n]*\n`)
	}
	return c
}

func (c *Cleaner) Clean(text string) string {
	if c.prefix != nil {
		text = c.prefix.ReplaceAllString(text, "")
	}
	text = dateFooterEN.ReplaceAllString(text, "")
	text = dateFooterDE.ReplaceAllString(text, "")
	return latexBlock.ReplaceAllString(text, "")
}

// SlideWindows concatenates runs of size consecutive slides. Window i starts at
// slide i; there are len(slides)-size windows, so the final slide only appears
// in earlier windows and fewer than size+1 slides yield none.
func SlideWindows(slides []string, size int) []string {
	if size <= 0 || len(slides) <= size {
		return nil
	}

	windows := make([]string, 0, len(slides)-size)
	for i := 0; i < len(slides)-size; i++ {
		windows = append(windows, strings.Join(slides[i:i+size], ""))
	}
	return windows
}

// NewTranscriptSplitter splits transcripts into overlapping chunks measured in
// characters.
func NewTranscriptSplitter(chunkSize, chunkOverlap int) textsplitter.TextSplitter {
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)
}
