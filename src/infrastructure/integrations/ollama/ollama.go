package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"examgrader/src/log"
)

const (
	DefaultURL = "http://localhost:11434"
)

// ErrTruncated is returned when the model stopped at its output limit.
type ErrTruncated struct {
	Message string
}

func (e *ErrTruncated) Error() string {
	return e.Message
}

// Client wraps the Ollama API client with the calls this module needs.
type Client struct {
	api *api.Client
}

// NewClient creates a client for the server at baseURL, without the /api
// suffix.
func NewClient(baseURL string, c *http.Client) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	u, err := url.Parse(strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/api"))
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
	}
	if c == nil {
		c = http.DefaultClient
	}
	return &Client{api: api.NewClient(u, c)}, nil
}

// Generate streams a completion and returns the concatenated response.
func (c *Client) Generate(ctx context.Context, model, prompt string, images [][]byte, options map[string]interface{}) (string, error) {
	req := &api.GenerateRequest{
		Model:   model,
		Prompt:  prompt,
		Options: options,
	}
	for _, img := range images {
		req.Images = append(req.Images, api.ImageData(img))
	}

	var full strings.Builder
	var doneReason string
	err := c.api.Generate(ctx, req, func(resp api.GenerateResponse) error {
		full.WriteString(resp.Response)
		if resp.Done {
			doneReason = resp.DoneReason
		}
		return nil
	})
	if err != nil {
		log.Error(err, "failed to make request to ollama", "model", model)
		return "", fmt.Errorf("error making request: %w", err)
	}

	if doneReason == "length" {
		return "", &ErrTruncated{Message: "response was truncated by the model"}
	}
	if full.Len() == 0 {
		return "", fmt.Errorf("no response received from Ollama")
	}
	return full.String(), nil
}

// Embed returns one embedding per input text.
func (c *Client) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	resp, err := c.api.Embed(ctx, &api.EmbedRequest{
		Model: model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("error requesting embeddings: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}
