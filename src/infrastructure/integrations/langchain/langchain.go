// Package langchain adapts hosted chat models to the examflow provider
// interface through langchaingo.
package langchain

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"

	"examgrader/src/log"
)

const (
	ServerOpenAI    = "openai"
	ServerClaude    = "claude"
	ServerHFTextGen = "hf_text_gen"
	ServerOllama    = "ollama"
)

var ErrUnsupportedServer = errors.New("unsupported server type")

type Config struct {
	ServerType  string
	ServerURL   string
	Model       string
	Token       string
	Seed        int
	Temperature float64
}

// Provider sends a prompt and optional PNG images as a single user message.
type Provider struct {
	llm        llms.Model
	multimodal bool
	options    []llms.CallOption
}

func NewProvider(llm llms.Model, multimodal bool, options ...llms.CallOption) *Provider {
	return &Provider{
		llm:        llm,
		multimodal: multimodal,
		options:    options,
	}
}

// New builds the provider for one of the hosted server types. A text
// generation server is reached through its OpenAI compatible endpoint and
// receives no images.
func New(cfg Config) (*Provider, error) {
	callOptions := []llms.CallOption{
		llms.WithSeed(cfg.Seed),
		llms.WithTemperature(cfg.Temperature),
	}

	switch cfg.ServerType {
	case ServerOpenAI:
		opts := []openai.Option{openai.WithModel(cfg.Model)}
		if cfg.ServerURL != "" && cfg.ServerURL != ServerOpenAI {
			opts = append(opts, openai.WithBaseURL(cfg.ServerURL))
		}
		if cfg.Token != "" {
			opts = append(opts, openai.WithToken(cfg.Token))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai client: %w", err)
		}
		return NewProvider(llm, true, callOptions...), nil

	case ServerClaude:
		opts := []anthropic.Option{anthropic.WithModel(cfg.Model)}
		if cfg.Token != "" {
			opts = append(opts, anthropic.WithToken(cfg.Token))
		}
		llm, err := anthropic.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create anthropic client: %w", err)
		}
		// The messages API takes no seed.
		return NewProvider(llm, true, llms.WithTemperature(cfg.Temperature)), nil

	case ServerHFTextGen:
		token := cfg.Token
		if token == "" {
			token = "-"
		}
		llm, err := openai.New(
			openai.WithModel(cfg.Model),
			openai.WithBaseURL(cfg.ServerURL),
			openai.WithToken(token),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create text generation client: %w", err)
		}
		return NewProvider(llm, false, callOptions...), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedServer, cfg.ServerType)
}

func (p *Provider) Reasoning(ctx context.Context, prompt string, images ...[]byte) (string, error) {
	parts := []llms.ContentPart{llms.TextPart(prompt)}
	if p.multimodal {
		for _, img := range images {
			parts = append(parts, llms.BinaryPart("image/png", img))
		}
	} else if len(images) > 0 {
		log.Debug("dropping images for text-only model", "images", len(images))
	}

	resp, err := p.llm.GenerateContent(ctx, []llms.MessageContent{
		{Role: llms.ChatMessageTypeHuman, Parts: parts},
	}, p.options...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return resp.Choices[0].Content, nil
}
