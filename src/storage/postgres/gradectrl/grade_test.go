package gradectrl_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"examgrader/src/core/examflow"
	"examgrader/src/core/grade"
	"examgrader/src/storage/postgres/gradectrl"
)

func TestRecords(t *testing.T) {
	results := []examflow.GradeResult{
		{QuestionID: "1", MaxScore: 4, Grade: 2.5, Found: true, Source: grade.SourceMarker, RawOutput: "[grade] 2.5 [/grade]"},
		{QuestionID: "2", MaxScore: 2, Source: grade.SourceNone, NeedsReview: true, RawOutput: "unsure"},
		{QuestionID: "3", MaxScore: 1, Source: grade.SourceNone, NeedsReview: true, Skipped: true},
	}
	info := gradectrl.RunInfo{Exam: "algo", Lang: "en", LLMName: "gpt4o"}

	got := gradectrl.Records("run-1", info, results)

	g := 2.5
	base := gradectrl.GradeRecord{RunID: "run-1", Exam: "algo", Lang: "en", LLMName: "gpt4o"}
	want := []gradectrl.GradeRecord{base, base, base}
	want[0].QuestionID, want[0].MaxScore, want[0].Grade, want[0].Source, want[0].RawOutput = "1", 4, &g, "marker", "[grade] 2.5 [/grade]"
	want[1].QuestionID, want[1].MaxScore, want[1].Source, want[1].NeedsReview, want[1].RawOutput = "2", 2, "none", true, "unsure"
	want[2].QuestionID, want[2].MaxScore, want[2].Source, want[2].NeedsReview, want[2].Skipped = "3", 1, "none", true, true

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Records() mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordsZeroGradeIsKept(t *testing.T) {
	got := gradectrl.Records("r", gradectrl.RunInfo{}, []examflow.GradeResult{
		{QuestionID: "1", MaxScore: 3, Grade: 0, Found: true, Source: grade.SourceMarker},
	})
	if got[0].Grade == nil || *got[0].Grade != 0 {
		t.Errorf("found zero grade stored as %v", got[0].Grade)
	}
}
