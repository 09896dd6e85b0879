// Package grade recovers a numeric grade from free-form LLM grading output.
package grade

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Source names the pass that produced a grade.
type Source string

const (
	SourceNone       Source = "none"
	SourceMarker     Source = "marker"      // [grade] <number>
	SourceBareNumber Source = "bare_number" // any number in the output
)

var (
	// Whitespace after the marker includes \v, NEL and Unicode spaces such as
	// NBSP, which \s alone does not match.
	markerRegex = regexp.MustCompile(`\[grade\][\s\x0B\x1C-\x1F\x{85}\p{Z}]*(\p{Nd}+(?:[.,]\p{Nd}+)?)`)
	numberRegex = regexp.MustCompile(`\p{Nd}+(?:[.,]\p{Nd}+)?`)
)

// Result is the outcome of Parse. Found is false when no candidate in either
// pass was a number within [0, max score]; Value is then zero and meaningless.
type Result struct {
	Value  float64
	Found  bool
	Source Source
}

// ParseGrade extracts a grade within [0, maxScore] from output. The second
// return value is false when no grade could be found, which callers treat as
// "needs manual review" rather than as a failure.
func ParseGrade(output string, maxScore float64) (float64, bool) {
	r := Parse(output, maxScore)
	return r.Value, r.Found
}

// Parse runs the two passes in order of trust. The first looks only at numbers
// following a "[grade]" token; the second, used when the first yields nothing
// valid, looks at every number in the output. Within a pass the last valid
// candidate wins, since models tend to restate a provisional number before the
// final one.
//
// A sign is never part of a candidate, so "-5" is read as 5. The fallback pass
// also sees numbers inside the reasoning text.
func Parse(output string, maxScore float64) Result {
	var markerCandidates []string
	for _, m := range markerRegex.FindAllStringSubmatch(output, -1) {
		markerCandidates = append(markerCandidates, m[1])
	}
	if v, ok := lastValid(markerCandidates, maxScore); ok {
		return Result{Value: v, Found: true, Source: SourceMarker}
	}

	if v, ok := lastValid(numberRegex.FindAllString(output, -1), maxScore); ok {
		return Result{Value: v, Found: true, Source: SourceBareNumber}
	}

	return Result{Source: SourceNone}
}

func lastValid(candidates []string, maxScore float64) (float64, bool) {
	for i := len(candidates) - 1; i >= 0; i-- {
		v, err := parseCandidate(candidates[i])
		if err != nil {
			continue
		}
		if v >= 0 && v <= maxScore {
			return v, true
		}
	}
	return 0, false
}

func parseCandidate(s string) (float64, error) {
	s = strings.ReplaceAll(s, ",", ".")
	return strconv.ParseFloat(asciiDigits(s), 64)
}

// asciiDigits maps decimal digits of any script to '0'-'9'.
func asciiDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || !unicode.IsDigit(r) {
			return r
		}
		return '0' + digitValue(r)
	}, s)
}

// digitValue relies on decimal digits being encoded in contiguous runs of
// complete 0-9 sequences, so a digit's value is its offset from the start of
// its run modulo ten.
func digitValue(r rune) rune {
	start := r
	for start > 0 && unicode.IsDigit(start-1) {
		start--
	}
	return (r - start) % 10
}
