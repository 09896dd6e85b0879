package coursematerial

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"examgrader/src/fsutil"
	"examgrader/src/log"
)

// Loader reads the course material of one exam from
// <root>/<exam>_<lang>/{slides,transcripts}.
type Loader struct {
	fs         fsutil.FileStore
	pages      PageExtractor
	cleaner    *Cleaner
	splitter   textsplitter.TextSplitter
	windowSize int
}

type LoaderOption func(*Loader)

func WithPageExtractor(p PageExtractor) LoaderOption {
	return func(l *Loader) {
		l.pages = p
	}
}

func WithCleaner(c *Cleaner) LoaderOption {
	return func(l *Loader) {
		l.cleaner = c
	}
}

func WithSplitter(s textsplitter.TextSplitter) LoaderOption {
	return func(l *Loader) {
		l.splitter = s
	}
}

func WithWindowSize(n int) LoaderOption {
	return func(l *Loader) {
		l.windowSize = n
	}
}

func NewLoader(fs fsutil.FileStore, opts ...LoaderOption) *Loader {
	l := &Loader{
		fs:         fs,
		cleaner:    NewCleaner(""),
		splitter:   NewTranscriptSplitter(DefaultTranscriptChunk, DefaultTranscriptOverlap),
		windowSize: DefaultWindowSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CollectionName names the index built for one exam.
func CollectionName(examName, lang string) string {
	return examName + "_" + lang
}

// Load returns the slide window nodes followed by the transcript chunk nodes.
func (l *Loader) Load(ctx context.Context, root, examName, lang string) ([]Node, error) {
	dir := filepath.Join(root, CollectionName(examName, lang))
	ok, err := l.fs.Exists(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", dir, ErrMissingCourseMaterial)
	}

	slideNodes, err := l.loadSlides(ctx, filepath.Join(dir, "slides"))
	if err != nil {
		return nil, err
	}
	transcriptNodes, err := l.loadTranscripts(ctx, filepath.Join(dir, "transcripts"))
	if err != nil {
		return nil, err
	}

	nodes := append(slideNodes, transcriptNodes...)
	if len(nodes) == 0 {
		log.Info("no course material nodes were created", "dir", dir)
	}
	return nodes, nil
}

func (l *Loader) loadSlides(ctx context.Context, dir string) ([]Node, error) {
	files, err := l.listIfExists(dir)
	if err != nil || len(files) == 0 {
		return nil, err
	}

	var slides []string
	var sources []string
	for _, file := range files {
		pages, err := l.readPages(ctx, file)
		if err != nil {
			return nil, err
		}
		for _, page := range pages {
			slides = append(slides, l.cleaner.Clean(page))
			sources = append(sources, filepath.Base(file))
		}
	}

	windows := SlideWindows(slides, l.windowSize)
	nodes := make([]Node, 0, len(windows))
	for i, w := range windows {
		nodes = append(nodes, Node{
			ID:     fmt.Sprintf("slides/%d", i),
			Kind:   KindSlides,
			Source: sources[i],
			Text:   w,
		})
	}
	log.Debug("loaded slides", "dir", dir, "slides", len(slides), "windows", len(nodes))
	return nodes, nil
}

func (l *Loader) loadTranscripts(ctx context.Context, dir string) ([]Node, error) {
	files, err := l.listIfExists(dir)
	if err != nil || len(files) == 0 {
		return nil, err
	}

	var nodes []Node
	for _, file := range files {
		pages, err := l.readPages(ctx, file)
		if err != nil {
			return nil, err
		}
		chunks, err := l.splitter.SplitText(strings.Join(pages, "\n"))
		if err != nil {
			return nil, fmt.Errorf("failed to split %s: %w", file, err)
		}
		for i, chunk := range chunks {
			nodes = append(nodes, Node{
				ID:     fmt.Sprintf("transcripts/%s/%d", filepath.Base(file), i),
				Kind:   KindTranscript,
				Source: filepath.Base(file),
				Text:   chunk,
			})
		}
	}
	log.Debug("loaded transcripts", "dir", dir, "chunks", len(nodes))
	return nodes, nil
}

func (l *Loader) listIfExists(dir string) ([]string, error) {
	ok, err := l.fs.Exists(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !ok {
		return nil, nil
	}
	files, err := l.fs.ListFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	return files, nil
}

// readPages returns one entry per PDF page, or the whole file for text formats.
func (l *Loader) readPages(ctx context.Context, file string) ([]string, error) {
	content, err := l.fs.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}

	if !strings.EqualFold(filepath.Ext(file), ".pdf") {
		return []string{string(content)}, nil
	}
	if l.pages == nil {
		log.Info("skipping pdf without a page extractor", "file", file)
		return nil, nil
	}
	pages, err := l.pages.ExtractPages(ctx, filepath.Base(file), content)
	if err != nil {
		return nil, fmt.Errorf("failed to extract pages of %s: %w", file, err)
	}
	return pages, nil
}
