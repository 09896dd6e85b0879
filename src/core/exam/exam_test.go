package exam_test

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"examgrader/src/core/exam"
	"examgrader/src/fsutil"
)

const examJSON = `{
  "Questions": [
    {
      "Index": 1,
      "Description": "Explain attention.",
      "Points": "see rubric",
      "Figures": ["figures/q1.png"],
      "Subquestions": [
        {"Content": "a) What are queries?", "Figures": ["figures/q1a.png"]},
        {"Content": "b) Why scale by sqrt(d)?"}
      ],
      "MaxScore": 4.5,
      "CorrectAnswer": "Weighted sum of values."
    },
    {
      "Index": "2b",
      "Description": "Name a sorting algorithm.",
      "MaxScore": 1
    }
  ]
}`

func writeExam(t *testing.T, name, lang string) string {
	t.Helper()
	root := t.TempDir()
	path := exam.Path(root, name, lang)
	if err := fsutil.NewLocalFileStore().WriteFile(path, []byte(examJSON)); err != nil {
		t.Fatalf("failed to write exam: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeExam(t, "nlp_march_2023", "en")

	e, err := exam.Load(fsutil.NewLocalFileStore(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if e.Name != "nlp_march_2023" || e.Lang != "en" {
		t.Errorf("Load() name/lang = %s/%s, want nlp_march_2023/en", e.Name, e.Lang)
	}
	if len(e.Questions) != 2 {
		t.Fatalf("Load() questions = %d, want 2", len(e.Questions))
	}

	q1 := e.Questions[0]
	if q1.Index != "1" || q1.MaxScore != 4.5 || q1.CorrectAnswer != "Weighted sum of values." {
		t.Errorf("question 1 = %+v", q1)
	}
	if e.Questions[1].Index != "2b" {
		t.Errorf("question 2 index = %q, want 2b", e.Questions[1].Index)
	}

	if q, ok := e.Find("2b"); !ok || q.Description != "Name a sorting algorithm." {
		t.Errorf("Find(2b) = %+v, %v", q, ok)
	}
	if _, ok := e.Find("3"); ok {
		t.Errorf("Find(3) found a question")
	}
}

func TestQuestionFiguresAndRetrievalText(t *testing.T) {
	e, err := exam.Load(fsutil.NewLocalFileStore(), writeExam(t, "dl4cv", "de"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	q := e.Questions[0]

	wantFigures := []string{"figures/q1.png", "figures/q1a.png"}
	if diff := cmp.Diff(wantFigures, q.AllFigures()); diff != "" {
		t.Errorf("AllFigures() mismatch (-want +got):\n%s", diff)
	}

	wantText := "Explain attention.\na) What are queries?\nb) Why scale by sqrt(d)?"
	if got := q.RetrievalText(); got != wantText {
		t.Errorf("RetrievalText() = %q, want %q", got, wantText)
	}

	if got := e.Questions[1].AllFigures(); len(got) != 0 {
		t.Errorf("AllFigures() = %v, want none", got)
	}
}

func TestQuestionPayload(t *testing.T) {
	e, err := exam.Load(fsutil.NewLocalFileStore(), writeExam(t, "algo", "en"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	q := e.Questions[0]

	got, err := q.Payload(nil)
	if err != nil {
		t.Fatalf("Payload() error = %v", err)
	}
	want := `{"Description":"Explain attention.","Points":"see rubric","Figures":["figures/q1.png"],` +
		`"Subquestions":[{"Content":"a) What are queries?","Figures":["figures/q1a.png"]},{"Content":"b) Why scale by sqrt(d)?"}],` +
		`"MaxScore":4.5}`
	if string(got) != want {
		t.Errorf("Payload() =\n%s\nwant\n%s", got, want)
	}

	got, err = e.Questions[1].Payload([]string{"slide one", "transcript two"})
	if err != nil {
		t.Fatalf("Payload() error = %v", err)
	}
	want = `{"Context":[{"Course_Material":"slide one"},{"Course_Material":"transcript two"}],` +
		`"Description":"Name a sorting algorithm.","MaxScore":1}`
	if string(got) != want {
		t.Errorf("Payload() =\n%s\nwant\n%s", got, want)
	}
}

func TestQuestionPayloadBuiltInCode(t *testing.T) {
	q := exam.Question{Index: "1", Description: "What is 2+2?", CorrectAnswer: "4"}

	got, err := q.Payload(nil)
	if err != nil {
		t.Fatalf("Payload() error = %v", err)
	}
	if want := `{"Description":"What is 2+2?"}`; string(got) != want {
		t.Errorf("Payload() = %s, want %s", got, want)
	}
}

func TestInfoFromPath(t *testing.T) {
	tests := []struct {
		path     string
		wantName string
		wantLang string
		wantErr  error
	}{
		{
			path:     filepath.Join("exams_json", "nlp_march_2023", "nlp_march_2023_en.json"),
			wantName: "nlp_march_2023",
			wantLang: "en",
		},
		{
			path:     filepath.Join("exams_json", "HCI_SS23", "HCI_SS23_de.json"),
			wantName: "HCI_SS23",
			wantLang: "de",
		},
		{
			path:    filepath.Join("exams_json", "TGI2324", "TGI2324_fr.json"),
			wantErr: exam.ErrUnsupportedLanguage,
		},
		{
			path:    "TGI2324_en.json",
			wantErr: exam.ErrInvalidExamPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			name, lang, err := exam.InfoFromPath(tt.path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("InfoFromPath() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("InfoFromPath() error = %v", err)
			}
			if name != tt.wantName || lang != tt.wantLang {
				t.Errorf("InfoFromPath() = %s, %s; want %s, %s", name, lang, tt.wantName, tt.wantLang)
			}
		})
	}
}

func TestQuestionIDRejectsObjects(t *testing.T) {
	var e exam.Exam
	err := json.Unmarshal([]byte(`{"Questions":[{"Index":{"n":1}}]}`), &e)
	if err == nil {
		t.Fatalf("Unmarshal() accepted an object as question index")
	}
}

func TestLoadMissingFile(t *testing.T) {
	path := exam.Path(t.TempDir(), "algo_ws2324", "de")
	if _, err := exam.Load(fsutil.NewLocalFileStore(), path); err == nil {
		t.Fatalf("Load() of a missing file succeeded")
	}
}
