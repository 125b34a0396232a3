package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/upb/room-qa/services/providers"
	"google.golang.org/genai"
)

const (
	providerName = "gemini"

	// DefaultGenerationModel is used when no generation model is configured
	DefaultGenerationModel = "gemini-2.5-flash"

	// DefaultEmbeddingModel is used when no embedding model is configured
	DefaultEmbeddingModel = "text-embedding-004"

	// DefaultTaskType matches the task type transcript fragments are embedded with
	DefaultTaskType = "RETRIEVAL_DOCUMENT"
)

// Config holds the settings shared by the Gemini embedder and generator
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a genai client for the Gemini API backend
func NewClient(ctx context.Context, cfg Config) (*genai.Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

// Generator implements providers.GenerationProvider on top of genai
type Generator struct {
	client *genai.Client
	model  string
}

// NewGenerator creates a Gemini generation provider
func NewGenerator(client *genai.Client, model string) *Generator {
	if model == "" {
		model = DefaultGenerationModel
	}
	return &Generator{client: client, model: model}
}

// Name returns the provider name
func (g *Generator) Name() string {
	return providerName
}

// Generate sends the contents to GenerateContent and maps every candidate back
func (g *Generator) Generate(ctx context.Context, req *providers.GenerateRequest) (*providers.GenerateResponse, error) {
	start := time.Now()

	model := g.model
	if req.Model != "" {
		model = req.Model
	}

	var config *genai.GenerateContentConfig
	if req.Temperature != nil || req.MaxOutputTokens > 0 {
		config = &genai.GenerateContentConfig{}
		if req.Temperature != nil {
			config.Temperature = genai.Ptr(float32(*req.Temperature))
		}
		if req.MaxOutputTokens > 0 {
			config.MaxOutputTokens = int32(req.MaxOutputTokens)
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, toGenaiContents(req.Contents), config)
	if err != nil {
		return nil, wrapError("generate content failed", err)
	}

	out := &providers.GenerateResponse{
		Text:     resp.Text(),
		Model:    model,
		Provider: providerName,
		Latency:  time.Since(start),
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		out.Candidates = append(out.Candidates, providers.Candidate{
			Content:      fromGenaiContent(c.Content),
			FinishReason: string(c.FinishReason),
		})
	}
	return out, nil
}

// Embedder implements providers.EmbeddingProvider on top of genai
type Embedder struct {
	client    *genai.Client
	model     string
	taskType  string
	dimension int32
}

// NewEmbedder creates a Gemini embedding provider.
// A zero dimension leaves the model default in place.
func NewEmbedder(client *genai.Client, model, taskType string, dimension int) *Embedder {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	if taskType == "" {
		taskType = DefaultTaskType
	}
	return &Embedder{
		client:    client,
		model:     model,
		taskType:  taskType,
		dimension: int32(dimension),
	}
}

// Name returns the provider name
func (e *Embedder) Name() string {
	return providerName
}

// Model returns the embedding model
func (e *Embedder) Model() string {
	return e.model
}

// Embed returns the embedding of a single text
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	config := &genai.EmbedContentConfig{TaskType: e.taskType}
	if e.dimension > 0 {
		config.OutputDimensionality = genai.Ptr(e.dimension)
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), config)
	if err != nil {
		return nil, wrapError("embed content failed", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, providers.NewProviderError(providerName, "EMPTY_EMBEDDING", "no embeddings generated", 0, false, nil)
	}
	return resp.Embeddings[0].Values, nil
}

func toGenaiContents(contents []providers.Content) []*genai.Content {
	out := make([]*genai.Content, 0, len(contents))
	for _, c := range contents {
		gc := &genai.Content{Role: c.Role}
		for _, p := range c.Parts {
			switch {
			case p.InlineData != nil:
				gc.Parts = append(gc.Parts, &genai.Part{InlineData: &genai.Blob{
					MIMEType: p.InlineData.MIMEType,
					Data:     p.InlineData.Data,
				}})
			default:
				gc.Parts = append(gc.Parts, &genai.Part{Text: p.Text})
			}
		}
		out = append(out, gc)
	}
	return out
}

func fromGenaiContent(c *genai.Content) providers.Content {
	out := providers.Content{Role: c.Role}
	for _, p := range c.Parts {
		if p == nil || p.Thought {
			continue
		}
		out.Parts = append(out.Parts, providers.Part{Text: p.Text})
	}
	return out
}

func wrapError(message string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		retryable := apiErr.Code >= 500 || apiErr.Code == http.StatusTooManyRequests
		return providers.NewProviderError(providerName, apiErr.Status, message, apiErr.Code, retryable, err)
	}
	return providers.NewProviderError(providerName, "REQUEST_FAILED", message, 0, false, err)
}
