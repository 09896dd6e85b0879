package fsutil_test

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"examgrader/src/fsutil"
)

func TestLocalFileStore(t *testing.T) {
	root := t.TempDir()
	store := fsutil.NewLocalFileStore()

	report := filepath.Join(root, "llm_out", "exam", "exam_en_model.txt")
	if err := store.WriteFile(report, []byte("answers")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	exists, err := store.Exists(report)
	if err != nil || !exists {
		t.Fatalf("Exists(%q) = %v, %v; want true", report, exists, err)
	}
	exists, err = store.Exists(filepath.Join(root, "missing.txt"))
	if err != nil || exists {
		t.Fatalf("Exists(missing) = %v, %v; want false", exists, err)
	}

	data, err := store.ReadFile(report)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "answers" {
		t.Errorf("ReadFile() = %q, want %q", data, "answers")
	}

	dir := filepath.Join(root, "slides")
	if err := store.MakeDirectory(filepath.Join(dir, "nested")); err != nil {
		t.Fatalf("MakeDirectory() error = %v", err)
	}
	for _, name := range []string{"b.txt", "a.txt"} {
		if err := store.WriteFile(filepath.Join(dir, name), []byte(name)); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", name, err)
		}
	}

	files, err := store.ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}
	want := []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("ListFiles() mismatch (-want +got):\n%s", diff)
	}
}

func TestIsWithin(t *testing.T) {
	root := t.TempDir()
	exams := filepath.Join(root, "exams")
	reports := filepath.Join(root, "llm_out")

	tests := []struct {
		name  string
		path  string
		roots []string
		want  bool
	}{
		{name: "file inside root", path: filepath.Join(exams, "algo", "algo_en.json"), roots: []string{exams}, want: true},
		{name: "second root", path: filepath.Join(reports, "algo", "algo_en_gpt4o.txt"), roots: []string{exams, reports}, want: true},
		{name: "dot dot escape", path: filepath.Join(exams, "..", "secret.txt"), roots: []string{exams}},
		{name: "unclean dot dot escape", path: exams + "/algo/../../secret.txt", roots: []string{exams}},
		{name: "sibling with shared prefix", path: exams + "-old/algo_en.json", roots: []string{exams}},
		{name: "absolute path elsewhere", path: "/etc/passwd", roots: []string{exams}},
		{name: "relative path outside", path: "../../etc/passwd", roots: []string{exams}},
		{name: "file named with dots", path: filepath.Join(exams, "..notes.txt"), roots: []string{exams}, want: true},
		{name: "no roots", path: filepath.Join(exams, "algo_en.json")},
		{name: "empty root ignored", path: filepath.Join(exams, "algo_en.json"), roots: []string{""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fsutil.IsWithin(tt.path, tt.roots...); got != tt.want {
				t.Errorf("IsWithin(%q, %q) = %v, want %v", tt.path, tt.roots, got, tt.want)
			}
		})
	}
}
