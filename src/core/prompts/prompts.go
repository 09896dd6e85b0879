// Package prompts assembles the instructions sent to the answering and grading
// models.
package prompts

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"examgrader/src/core/exam"
)

// Shot is a worked grading example included in the grading prompt.
type Shot struct {
	Question      string  `json:"Question"`
	Answer        string  `json:"Answer"`
	CorrectAnswer string  `json:"CorrectAnswer,omitempty"`
	MaxScore      float64 `json:"MaxScore"`
	GoldGrade     float64 `json:"GoldGrade"`
}

// GradingInput is the variable part of a grading prompt.
type GradingInput struct {
	Question      string
	Answer        string
	CorrectAnswer string
	MaxScore      float64
	WithRef       bool
}

func lookup(lang string) (language, error) {
	l, ok := languages[lang]
	if !ok {
		return language{}, fmt.Errorf("no prompt for lang %s: %w", lang, exam.ErrUnsupportedLanguage)
	}
	return l, nil
}

func execute(name, tmpl string, data interface{}) (string, error) {
	t, err := template.New(name).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", name, err)
	}
	return buf.String(), nil
}

// FormatScore renders scores without a trailing ".0" for whole numbers.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SolvePrefix returns the instruction placed before each exam question.
func SolvePrefix(lang string, stackFigures, useCourseMaterial bool) (string, error) {
	l, err := lookup(lang)
	if err != nil {
		return "", err
	}

	var extra strings.Builder
	if stackFigures {
		extra.WriteString(l.stackFigures)
	}
	if useCourseMaterial {
		extra.WriteString(l.courseMaterial)
	}

	return execute("solve", l.solve, struct{ Extra string }{extra.String()})
}

// GradingPrefix returns the instruction placed before each graded answer.
// withRef adds the reference answer to the described input format and to the
// rendered shots.
func GradingPrefix(lang string, shots []Shot, withRef, stackFigures bool) (string, error) {
	l, err := lookup(lang)
	if err != nil {
		return "", err
	}

	data := struct {
		InputList      string
		RefPlaceholder string
		Extra          string
		Shots          string
	}{
		InputList: l.gradingWithoutRef,
	}
	if withRef {
		data.InputList = l.gradingWithRef
		data.RefPlaceholder = l.refPlaceholder
	}
	if stackFigures {
		data.Extra = l.stackFigures
	}

	if len(shots) > 0 {
		var b strings.Builder
		b.WriteString(l.shotIntro)
		for i, shot := range shots {
			input, err := RenderGradingInput(GradingInput{
				Question:      shot.Question,
				Answer:        shot.Answer,
				CorrectAnswer: shot.CorrectAnswer,
				MaxScore:      shot.MaxScore,
				WithRef:       withRef,
			})
			if err != nil {
				return "", fmt.Errorf("failed to render shot %d: %w", i, err)
			}
			rendered, err := execute("shot", shotTmpl, map[string]string{
				"InputWord":  l.inputWord,
				"Input":      input,
				"OutputWord": l.outputWord,
				"GoldGrade":  FormatScore(shot.GoldGrade),
			})
			if err != nil {
				return "", err
			}
			b.WriteString(rendered)
		}
		data.Shots = b.String()
	}

	return execute("grading", gradingTmpl[lang], data)
}

// RenderGradingInput formats question, answer, optional reference and maximum
// score in the bracketed layout the grading prefix describes.
func RenderGradingInput(in GradingInput) (string, error) {
	return execute("grading_input", gradingInputTmpl, map[string]interface{}{
		"Question":      in.Question,
		"Answer":        in.Answer,
		"CorrectAnswer": in.CorrectAnswer,
		"MaxScore":      FormatScore(in.MaxScore),
		"WithRef":       in.WithRef,
	})
}
