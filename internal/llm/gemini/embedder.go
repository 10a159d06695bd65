// Package gemini implements triage.Embedder on the Gemini embedding API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-embedding-001"

const taskSemanticSimilarity = "SEMANTIC_SIMILARITY"

var tracer = otel.Tracer("github.com/linnemanlabs/screener/internal/llm/gemini")

// Config holds the embedder settings.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	BaseURL string // empty uses the public endpoint
}

// Embedder produces semantic-similarity embeddings.
type Embedder struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// New creates an Embedder. The API key is required.
func New(ctx context.Context, cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Embedder{client: client, model: cfg.Model, timeout: cfg.Timeout}, nil
}

// Embed implements triage.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, span := tracer.Start(ctx, "gemini.Embed")
	defer span.End()
	span.SetAttributes(attribute.String("gen_ai.request.model", e.model))

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("gemini: empty text")
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, err := e.client.Models.EmbedContent(ctx, e.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.EmbedContentConfig{TaskType: taskSemanticSimilarity},
	)
	if err != nil {
		err = fmt.Errorf("gemini: embed: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(res.Embeddings) == 0 || len(res.Embeddings[0].Values) == 0 {
		return nil, errors.New("gemini: no embedding returned")
	}
	span.SetAttributes(attribute.Int("embedding.dimensions", len(res.Embeddings[0].Values)))
	return res.Embeddings[0].Values, nil
}
