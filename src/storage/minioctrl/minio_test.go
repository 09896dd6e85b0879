package minioctrl_test

import (
	"testing"

	"examgrader/src/storage/minioctrl"
)

func TestGetBucketAndObjectFromURL(t *testing.T) {
	tests := []struct {
		url        string
		wantBucket string
		wantObject string
	}{
		{url: "minio://exam-reports/llm_out/algo/algo_en_gpt4.txt", wantBucket: "exam-reports", wantObject: "llm_out/algo/algo_en_gpt4.txt"},
		{url: "exam-reports/x.txt", wantBucket: "exam-reports", wantObject: "x.txt"},
		{url: "minio://exam-reports", wantBucket: "", wantObject: ""},
		{url: "minio:///x.txt", wantBucket: "", wantObject: ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			bucket, object := minioctrl.GetBucketAndObjectFromURL(tt.url)
			if bucket != tt.wantBucket || object != tt.wantObject {
				t.Errorf("GetBucketAndObjectFromURL(%q) = %q, %q; want %q, %q", tt.url, bucket, object, tt.wantBucket, tt.wantObject)
			}
		})
	}
}

func TestReportKey(t *testing.T) {
	got := minioctrl.ReportKey("/data/llm_out_cm", "nlp_ws2324", "de", "gpt4o")
	if want := "llm_out_cm/nlp_ws2324/nlp_ws2324_de_gpt4o.txt"; got != want {
		t.Errorf("ReportKey() = %q, want %q", got, want)
	}
}
