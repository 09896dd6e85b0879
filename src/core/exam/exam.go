// Package exam models the exam JSON files that questions are read from.
package exam

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"examgrader/src/fsutil"
)

var (
	ErrUnsupportedLanguage = errors.New("unsupported exam language")
	ErrInvalidExamPath     = errors.New("invalid exam path")
)

// Languages lists the exam languages prompts exist for.
var Languages = []string{"en", "de"}

// Fields that never reach the model answering the exam.
var hiddenFields = map[string]bool{
	"Index":         true,
	"CorrectAnswer": true,
}

// Exam is one exam in one language.
type Exam struct {
	Name      string     `json:"-"`
	Lang      string     `json:"-"`
	Questions []Question `json:"Questions"`
}

// QuestionID accepts both numeric and string indices.
type QuestionID string

func (id *QuestionID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = QuestionID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("question index must be a string or a number: %w", err)
	}
	*id = QuestionID(n.String())
	return nil
}

func (id QuestionID) String() string {
	return string(id)
}

// Subquestion is an indexed part of a question.
type Subquestion struct {
	Content string   `json:"Content"`
	Figures []string `json:"Figures,omitempty"`
}

// Question holds the fields the pipeline reads. The complete object, including
// fields not modelled here, is kept for Payload.
type Question struct {
	Index         QuestionID    `json:"Index"`
	Description   string        `json:"Description"`
	Subquestions  []Subquestion `json:"Subquestions,omitempty"`
	Figures       []string      `json:"Figures,omitempty"`
	MaxScore      float64       `json:"MaxScore"`
	CorrectAnswer string        `json:"CorrectAnswer,omitempty"`

	fields []field
}

type field struct {
	key   string
	value json.RawMessage
}

func (q *Question) UnmarshalJSON(data []byte) error {
	type plain Question
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	fields, err := decodeOrdered(data)
	if err != nil {
		return err
	}

	*q = Question(p)
	q.fields = fields
	return nil
}

// decodeOrdered keeps the key order of a JSON object.
func decodeOrdered(data []byte) ([]field, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("question must be a JSON object")
	}

	var fields []field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v in question object", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("failed to decode question field %s: %w", key, err)
		}
		fields = append(fields, field{key: key, value: value})
	}

	return fields, nil
}

// AllFigures returns the figure paths of the question followed by those of its
// subquestions.
func (q Question) AllFigures() []string {
	var figures []string
	figures = append(figures, q.Figures...)
	for _, sub := range q.Subquestions {
		figures = append(figures, sub.Figures...)
	}
	return figures
}

// RetrievalText is the query used to look up course material.
func (q Question) RetrievalText() string {
	var b strings.Builder
	b.WriteString(q.Description)
	for _, sub := range q.Subquestions {
		b.WriteString("\n")
		b.WriteString(sub.Content)
	}
	return b.String()
}

// CourseMaterial is one retrieved context entry.
type CourseMaterial struct {
	CourseMaterial string `json:"Course_Material"`
}

// Payload renders the question as sent to the model: the original object in
// its original key order without the index and reference answer, preceded by
// a Context list when course material is given.
func (q Question) Payload(context []string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true

	if len(context) > 0 {
		entries := make([]CourseMaterial, len(context))
		for i, c := range context {
			entries[i] = CourseMaterial{CourseMaterial: c}
		}
		raw, err := json.Marshal(entries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal context: %w", err)
		}
		buf.WriteString(`"Context":`)
		buf.Write(raw)
		first = false
	}

	fields := q.fields
	if fields == nil {
		// Built in code rather than decoded.
		raw, err := json.Marshal(struct {
			Description  string        `json:"Description"`
			Subquestions []Subquestion `json:"Subquestions,omitempty"`
			Figures      []string      `json:"Figures,omitempty"`
		}{q.Description, q.Subquestions, q.Figures})
		if err != nil {
			return nil, err
		}
		if fields, err = decodeOrdered(raw); err != nil {
			return nil, err
		}
	}

	for _, f := range fields {
		if hiddenFields[f.key] {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := json.Compact(&buf, f.value); err != nil {
			return nil, fmt.Errorf("failed to compact field %s: %w", f.key, err)
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Find returns the question with the given index.
func (e *Exam) Find(id string) (*Question, bool) {
	for i := range e.Questions {
		if e.Questions[i].Index.String() == id {
			return &e.Questions[i], true
		}
	}
	return nil, false
}

// InfoFromPath derives exam name and language from a path of the form
// <root>/<exam>/<exam>_<lang>.json.
func InfoFromPath(path string) (name, lang string, err error) {
	dir := filepath.Base(filepath.Dir(path))
	if dir == "." || dir == string(filepath.Separator) {
		return "", "", fmt.Errorf("%w: %s has no exam directory", ErrInvalidExamPath, path)
	}

	stem := strings.TrimSuffix(filepath.Base(path), ".json")
	parts := strings.Split(stem, "_")
	lang = parts[len(parts)-1]
	if err := ValidateLanguage(lang); err != nil {
		return "", "", err
	}

	return dir, lang, nil
}

// ValidateLanguage returns ErrUnsupportedLanguage for languages without prompts.
func ValidateLanguage(lang string) error {
	for _, l := range Languages {
		if l == lang {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
}

// Path returns the canonical location of an exam file below root.
func Path(root, name, lang string) string {
	return filepath.Join(root, name, fmt.Sprintf("%s_%s.json", name, lang))
}

// Load reads an exam file and fills in name and language from its path.
func Load(fs fsutil.FileStore, path string) (*Exam, error) {
	name, lang, err := InfoFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read exam %s: %w", path, err)
	}

	var e Exam
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to parse exam %s: %w", path, err)
	}
	e.Name = name
	e.Lang = lang

	return &e, nil
}
