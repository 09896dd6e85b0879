package ollama

import (
	"context"
)

// Provider answers prompts with one Ollama model.
type Provider struct {
	client  *Client
	model   string
	options map[string]interface{}
}

func NewProvider(client *Client, model string, options map[string]interface{}) *Provider {
	if options == nil {
		options = map[string]interface{}{
			"seed":        0,
			"temperature": 0.0,
		}
	}
	return &Provider{
		client:  client,
		model:   model,
		options: options,
	}
}

func (p *Provider) Reasoning(ctx context.Context, prompt string, images ...[]byte) (string, error) {
	return p.client.Generate(ctx, p.model, prompt, images, p.options)
}

// Embedder computes embeddings with one Ollama model.
type Embedder struct {
	client *Client
	model  string
}

func NewEmbedder(client *Client, model string) *Embedder {
	return &Embedder{client: client, model: model}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return e.client.Embed(ctx, e.model, texts)
}
