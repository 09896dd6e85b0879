// Package answer reads and writes the per-exam answer transcript.
//
// A transcript is a concatenation of blocks, one per question:
//
//	Answer to Question <id>
//	<body>
//
//	(four blank lines)
//	*****...  (90)
//	*****...  (90)
//	(five blank lines)
//
// ExtractAnswer recovers the text between a question's start marker and the next
// end marker.
package answer

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// StartMarkerPrefix is followed by the question identifier.
	StartMarkerPrefix = "Answer to Question "

	// SeparatorWidth is the number of asterisks on each end-marker line.
	SeparatorWidth = 90

	// blockGap separates the answer body from the end marker, and the end
	// marker from the next block.
	blockGap = "\n\n\n\n\n"
)

// EndMarker closes every answer block.
var EndMarker = strings.Repeat("*", SeparatorWidth) + "\n" + strings.Repeat("*", SeparatorWidth)

// ErrNotFound is matched by every extraction failure.
var ErrNotFound = errors.New("answer not found")

// NotFoundError reports which marker was missing for a question.
type NotFoundError struct {
	QuestionID string
	Marker     string // "start" or "end"
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("problem with extracting answer for question %s: %s marker not found", e.QuestionID, e.Marker)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StartMarker returns the marker that opens the block of questionID.
func StartMarker(questionID string) string {
	return StartMarkerPrefix + questionID
}

// ExtractAnswer returns the raw text between the start marker of questionID and
// the first end marker after it. The result is not trimmed.
//
// The first occurrence of the start marker wins, so the marker of question "1"
// also matches the block of question "10" if that block comes first.
func ExtractAnswer(questionID, transcript string) (string, error) {
	startMarker := StartMarker(questionID)

	startIndex := strings.Index(transcript, startMarker)
	if startIndex == -1 {
		return "", &NotFoundError{QuestionID: questionID, Marker: "start"}
	}

	endOffset := strings.Index(transcript[startIndex:], EndMarker)
	if endOffset == -1 {
		return "", &NotFoundError{QuestionID: questionID, Marker: "end"}
	}
	endIndex := startIndex + endOffset

	// The end marker may overlap the start marker only if the identifier itself
	// contains the separator; there is no body in that case.
	bodyStart := startIndex + len(startMarker)
	if endIndex < bodyStart {
		return "", nil
	}

	return transcript[bodyStart:endIndex], nil
}

// Block renders one answer block.
func Block(questionID, body string) string {
	var b strings.Builder
	b.WriteString(StartMarker(questionID))
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(blockGap)
	b.WriteString(EndMarker)
	b.WriteString("\n")
	b.WriteString(blockGap)
	return b.String()
}

// Body returns what ExtractAnswer yields for a block written with the given
// body: the line break after the start marker, the body, and the gap before
// the end marker.
func Body(body string) string {
	return "\n" + body + "\n" + blockGap
}

// Transcript accumulates answer blocks in question order.
type Transcript struct {
	b     strings.Builder
	count int
}

// Append adds the block of one question.
func (t *Transcript) Append(questionID, body string) {
	t.b.WriteString(Block(questionID, body))
	t.count++
}

// Len returns the number of blocks appended so far.
func (t *Transcript) Len() int {
	return t.count
}

func (t *Transcript) String() string {
	return t.b.String()
}
