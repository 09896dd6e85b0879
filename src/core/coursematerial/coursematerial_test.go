package coursematerial_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"examgrader/src/core/coursematerial"
	"examgrader/src/fsutil"
)

func TestCleaner(t *testing.T) {
	tests := []struct {
		name   string
		header string
		in     string
		want   string
	}{
		{
			name:   "header line",
			header: "Niehues",
			in:     "Prof. Niehues - NLP\nAttention\n",
			want:   "Attention\n",
		},
		{
			name: "header disabled",
			in:   "Prof. Niehues - NLP\nAttention\n",
			want: "Prof. Niehues - NLP\nAttention\n",
		},
		{
			name: "english date footer with page number",
			in:   "Attention\nMarch 3, 202412 more",
			want: "Attention more",
		},
		{
			name: "german date footer with page number",
			in:   "Aufmerksamkeit\n3. März 20247",
			want: "Aufmerksamkeit",
		},
		{
			name: "latex source",
			in:   "x<latexit sha1_base64=\"abc\">AAAB\n7n</latexit>y",
			want: "xy",
		},
		{
			name:   "header only removed at the start",
			header: "Niehues",
			in:     "Intro\nsee Niehues et al.\n",
			want:   "Intro\nsee Niehues et al.\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := coursematerial.NewCleaner(tt.header).Clean(tt.in)
			if got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSlideWindows(t *testing.T) {
	tests := []struct {
		name   string
		slides []string
		size   int
		want   []string
	}{
		{
			name:   "more slides than window",
			slides: []string{"a", "b", "c", "d"},
			size:   2,
			want:   []string{"ab", "bc"},
		},
		{
			name:   "exactly window size",
			slides: []string{"a", "b"},
			size:   2,
			want:   nil,
		},
		{
			name:   "fewer than window",
			slides: []string{"a"},
			size:   5,
			want:   nil,
		},
		{
			name:   "zero window",
			slides: []string{"a", "b"},
			size:   0,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := coursematerial.SlideWindows(tt.slides, tt.size)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("SlideWindows() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTranscriptSplitter(t *testing.T) {
	text := strings.Repeat("the lecture covers gradient descent and backpropagation ", 40)
	chunks, err := coursematerial.NewTranscriptSplitter(200, 10).SplitText(text)
	if err != nil {
		t.Fatalf("SplitText() error = %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("SplitText() returned %d chunks, want several", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 200 {
			t.Errorf("chunk %d has %d characters", i, n)
		}
	}
}

type fakePages struct {
	pages []string
	calls int
}

func (f *fakePages) ExtractPages(_ context.Context, _ string, _ []byte) ([]string, error) {
	f.calls++
	return f.pages, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoaderLoad(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "nlp_ws2324_en")
	writeFile(t, filepath.Join(dir, "slides", "01.txt"), "one ")
	writeFile(t, filepath.Join(dir, "slides", "02.txt"), "two ")
	writeFile(t, filepath.Join(dir, "slides", "03.pdf"), "%PDF")
	writeFile(t, filepath.Join(dir, "transcripts", "lecture1.txt"), "short transcript")

	pages := &fakePages{pages: []string{"three ", "four<latexit>x</latexit> "}}
	loader := coursematerial.NewLoader(fsutil.NewLocalFileStore(),
		coursematerial.WithPageExtractor(pages),
		coursematerial.WithWindowSize(2),
	)

	nodes, err := loader.Load(context.Background(), root, "nlp_ws2324", "en")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if pages.calls != 1 {
		t.Errorf("page extractor called %d times, want 1", pages.calls)
	}

	want := []coursematerial.Node{
		{ID: "slides/0", Kind: coursematerial.KindSlides, Source: "01.txt", Text: "one two "},
		{ID: "slides/1", Kind: coursematerial.KindSlides, Source: "02.txt", Text: "two three "},
		{ID: "transcripts/lecture1.txt/0", Kind: coursematerial.KindTranscript, Source: "lecture1.txt", Text: "short transcript"},
	}
	if diff := cmp.Diff(want, nodes); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoaderMissingDirectory(t *testing.T) {
	loader := coursematerial.NewLoader(fsutil.NewLocalFileStore())
	_, err := loader.Load(context.Background(), t.TempDir(), "nlp_ws2324", "de")
	if !errors.Is(err, coursematerial.ErrMissingCourseMaterial) {
		t.Errorf("Load() error = %v, want ErrMissingCourseMaterial", err)
	}
}

func TestLoaderEmptyDirectory(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "nlp_ws2324_de"), 0o755); err != nil {
		t.Fatal(err)
	}
	nodes, err := coursematerial.NewLoader(fsutil.NewLocalFileStore()).Load(context.Background(), root, "nlp_ws2324", "de")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(nodes) != 0 {
		t.Errorf("Load() returned %d nodes, want 0", len(nodes))
	}
}
