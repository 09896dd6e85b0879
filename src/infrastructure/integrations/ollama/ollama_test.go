package ollama_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ollama/ollama/api"

	"examgrader/src/infrastructure/integrations/ollama"
)

func newServer(t *testing.T, handler http.HandlerFunc) *ollama.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	// The /api suffix used by older configuration is accepted.
	c, err := ollama.NewClient(srv.URL+"/api", srv.Client())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestProviderReasoning(t *testing.T) {
	var got api.GenerateRequest
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"model":"llava","response":"[grade] ","done":false}`)
		fmt.Fprintln(w, `{"model":"llava","response":"3 [/grade]","done":true,"done_reason":"stop"}`)
	})

	p := ollama.NewProvider(client, "llava", nil)
	out, err := p.Reasoning(context.Background(), "grade this", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("Reasoning() error = %v", err)
	}
	if out != "[grade] 3 [/grade]" {
		t.Errorf("Reasoning() = %q", out)
	}
	if got.Model != "llava" || got.Prompt != "grade this" {
		t.Errorf("request = %+v", got)
	}
	if diff := cmp.Diff([]api.ImageData{api.ImageData("png-bytes")}, got.Images); diff != "" {
		t.Errorf("images mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateTruncated(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"model":"m","response":"partial","done":true,"done_reason":"length"}`)
	})

	_, err := client.Generate(context.Background(), "m", "p", nil, nil)
	var truncated *ollama.ErrTruncated
	if !errors.As(err, &truncated) {
		t.Errorf("Generate() error = %v, want ErrTruncated", err)
	}
}

func TestGenerateServerError(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"model not found"}`)
	})

	if _, err := client.Generate(context.Background(), "missing", "p", nil, nil); err == nil {
		t.Errorf("Generate() succeeded against a failing server")
	}
}

func TestEmbedder(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		var req api.EmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "nomic-embed-text" {
			t.Errorf("model = %q", req.Model)
		}
		fmt.Fprint(w, `{"model":"nomic-embed-text","embeddings":[[0.5,0.25],[1,0]]}`)
	})

	got, err := ollama.NewEmbedder(client, "nomic-embed-text").Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if diff := cmp.Diff([][]float32{{0.5, 0.25}, {1, 0}}, got); diff != "" {
		t.Errorf("Embed() mismatch (-want +got):\n%s", diff)
	}

	if _, err := ollama.NewEmbedder(client, "nomic-embed-text").Embed(context.Background(), []string{"only one"}); err == nil {
		t.Errorf("Embed() accepted a count mismatch")
	}
}
