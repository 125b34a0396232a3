package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/upb/room-qa/services/providers"
)

const (
	providerName = "openai"

	// DefaultGenerationModel is used when no chat model is configured
	DefaultGenerationModel = "gpt-4o-mini"

	// DefaultEmbeddingModel is used when no embedding model is configured
	DefaultEmbeddingModel = "text-embedding-3-small"
)

// Config holds the settings shared by the OpenAI embedder and generator
type Config struct {
	APIKey     string
	BaseURL    string
	MaxRetries int
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient builds an openai-go client from the config
func NewClient(cfg Config) (openai.Client, error) {
	if cfg.APIKey == "" {
		return openai.Client{}, errors.New("openai API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return openai.NewClient(opts...), nil
}

// Generator implements providers.GenerationProvider with chat completions
type Generator struct {
	client openai.Client
	model  string
}

// NewGenerator creates an OpenAI generation provider
func NewGenerator(client openai.Client, model string) *Generator {
	if model == "" {
		model = DefaultGenerationModel
	}
	return &Generator{client: client, model: model}
}

// Name returns the provider name
func (g *Generator) Name() string {
	return providerName
}

// Generate performs a chat completion and reports the first choice as OutputText
func (g *Generator) Generate(ctx context.Context, req *providers.GenerateRequest) (*providers.GenerateResponse, error) {
	startTime := time.Now()

	model := g.model
	if req.Model != "" {
		model = req.Model
	}

	messages, err := buildMessages(req.Contents)
	if err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: messages,
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxOutputTokens))
	}

	completion, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, wrapError("chat completion failed", err)
	}

	resp := &providers.GenerateResponse{
		Model:    completion.Model,
		Provider: providerName,
		Latency:  time.Since(startTime),
	}
	if resp.Model == "" {
		resp.Model = model
	}
	if len(completion.Choices) > 0 {
		resp.OutputText = completion.Choices[0].Message.Content
	}
	return resp, nil
}

// Embedder implements providers.EmbeddingProvider with the embeddings endpoint
type Embedder struct {
	client     openai.Client
	model      string
	dimensions int64
}

// NewEmbedder creates an OpenAI embedding provider.
// A zero dimension leaves the model default in place.
func NewEmbedder(client openai.Client, model string, dimensions int) *Embedder {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &Embedder{client: client, model: model, dimensions: int64(dimensions)}
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
	params := openai.EmbeddingNewParams{
		Model:          openai.EmbeddingModel(e.model),
		Input:          openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		params.Dimensions = openai.Int(e.dimensions)
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, wrapError("create embedding failed", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, providers.NewProviderError(providerName, "EMPTY_EMBEDDING", "no embeddings generated", 0, false, nil)
	}

	values := resp.Data[0].Embedding
	vector := make([]float32, len(values))
	for i, v := range values {
		vector[i] = float32(v)
	}
	return vector, nil
}

func buildMessages(contents []providers.Content) ([]openai.ChatCompletionMessageParamUnion, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(contents))
	for _, c := range contents {
		var texts []string
		for _, p := range c.Parts {
			if p.InlineData != nil {
				return nil, providers.NewProviderError(providerName, "UNSUPPORTED_CONTENT",
					"inline data is not supported by chat completions", http.StatusBadRequest, false, nil)
			}
			texts = append(texts, p.Text)
		}
		text := strings.Join(texts, "\n")

		switch c.Role {
		case providers.RoleModel, "assistant":
			messages = append(messages, openai.AssistantMessage(text))
		case "system":
			messages = append(messages, openai.SystemMessage(text))
		default:
			messages = append(messages, openai.UserMessage(text))
		}
	}
	return messages, nil
}

func wrapError(message string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		retryable := apiErr.StatusCode >= 500 || apiErr.StatusCode == http.StatusTooManyRequests
		code := apiErr.Code
		if code == "" {
			code = http.StatusText(apiErr.StatusCode)
		}
		return providers.NewProviderError(providerName, code, message, apiErr.StatusCode, retryable, err)
	}
	return providers.NewProviderError(providerName, "HTTP_ERROR", message, 0, true, err)
}
