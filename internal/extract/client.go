// Package extract issues vision extraction requests against an
// OpenAI-compatible chat completions API and returns schema-validated
// OrderExtraction results.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/orderlens/orderlens/internal/render"
	"github.com/orderlens/orderlens/internal/schema"
)

const (
	defaultModel      = "gpt-4o"
	defaultAPIVersion = "2024-08-01-preview"
	defaultMaxTokens  = 3000
	defaultTimeout    = 120 * time.Second
)

// Request is the prompt payload assembled by the prompt builder: system
// instruction, user message, page images in order, and the output schema
// the response must conform to.
type Request struct {
	System     string
	User       string
	Images     []render.PageImage
	SchemaName string
	Schema     map[string]any
}

// Extractor is the extraction client interface. The experiment runner
// depends on this rather than the concrete client so tests can substitute
// a mock.
type Extractor interface {
	// Extract performs exactly one model call and returns a validated result.
	Extract(ctx context.Context, req *Request) (*schema.OrderExtraction, error)

	// Name returns the client identifier (e.g. "openai", "azure").
	Name() string
}

// ClientConfig holds configuration for the extraction client.
type ClientConfig struct {
	APIKey string

	// AzureEndpoint switches the client to Azure OpenAI when set.
	AzureEndpoint string
	APIVersion    string // Azure api-version (default: 2024-08-01-preview)

	Model     string        // default: gpt-4o
	MaxTokens int           // default: 3000
	Timeout   time.Duration // per-call timeout (default: 120s)
	RateLimit int           // requests per minute (0 = no limiting)
	BaseURL   string        // optional override (tests)
}

// Client performs vision extraction calls. It does exactly one request per
// Extract call; retry policy belongs to the caller.
type Client struct {
	client    openai.Client
	model     string
	maxTokens int
	limiter   *RateLimiter
	name      string
}

// NewClient creates an extraction client for OpenAI or Azure OpenAI.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	// The SDK retries by default; disable so failures surface to the
	// orchestrator, which owns retry policy.
	opts := []option.RequestOption{
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	}

	name := "openai"
	switch {
	case cfg.AzureEndpoint != "":
		name = "azure"
		opts = append(opts,
			azure.WithEndpoint(cfg.AzureEndpoint, cfg.APIVersion),
			azure.WithAPIKey(cfg.APIKey),
		)
	default:
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
	}

	var limiter *RateLimiter
	if cfg.RateLimit > 0 {
		limiter = NewRateLimiter(cfg.RateLimit)
	}

	return &Client{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		limiter:   limiter,
		name:      name,
	}
}

// Name returns the client identifier.
func (c *Client) Name() string {
	return c.name
}

// Extract sends the prompt payload and returns the validated extraction.
// Transport failures and non-conformant responses both surface as *Error;
// a partially-valid payload is never returned.
func (c *Client) Extract(ctx context.Context, req *Request) (*schema.OrderExtraction, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &Error{Kind: KindTransport, Err: err}
		}
	}

	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(req.Images)+1)
	parts = append(parts, openai.TextContentPart(req.User))
	for _, img := range req.Images {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL:    img.DataURL(),
			Detail: "high",
		}))
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(parts),
		},
		MaxCompletionTokens: openai.Int(int64(c.maxTokens)),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.SchemaName,
					Strict: openai.Bool(true),
					Schema: req.Schema,
				},
			},
		},
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: err}
	}

	if len(completion.Choices) == 0 {
		return nil, &Error{Kind: KindSchema, Err: errors.New("no choices in response")}
	}

	content := completion.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return nil, &Error{Kind: KindSchema, Raw: content, Err: errors.New("empty response")}
	}

	result, err := ParseResponse(content)
	if err != nil {
		return nil, &Error{Kind: KindSchema, Raw: content, Err: err}
	}
	return result, nil
}

// ParseResponse parses model output into a validated OrderExtraction,
// tolerating a markdown code fence around the JSON body.
func ParseResponse(content string) (*schema.OrderExtraction, error) {
	body := strings.TrimSpace(content)
	if stripped := stripCodeFence(body); stripped != "" {
		body = stripped
	}

	result, err := schema.Parse(json.RawMessage(body))
	if err != nil {
		return nil, fmt.Errorf("response not conformant: %w", err)
	}
	return result, nil
}

// stripCodeFence removes a surrounding ``` fence, returning "" when the
// content is not fenced.
func stripCodeFence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return ""
	}

	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return ""
	}

	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
