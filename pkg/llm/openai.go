package llm

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/graphkeep/chronograph/pkg/nlp"
	"github.com/graphkeep/chronograph/pkg/types"
)

// OpenAIClient implements Client for OpenAI and any OpenAI-compatible service
// (Ollama, LocalAI, vLLM, TGI) reachable through a custom BaseURL.
type OpenAIClient struct {
	base   *BaseOpenAIClient
	client *openai.Client
}

// NewOpenAIClient creates a new OpenAI (or OpenAI-compatible) client. An empty
// BaseURL targets the public OpenAI API; any other value is validated and
// normalized to end in an API path before being handed to go-openai.
func NewOpenAIClient(apiKey string, config Config) (*OpenAIClient, error) {
	clientConfig := openai.DefaultConfig(apiKey)

	if config.BaseURL != "" {
		if err := validateBaseURL(config.BaseURL); err != nil {
			return nil, err
		}
		clientConfig.BaseURL = normalizeBaseURL(config.BaseURL)
	}

	llmConfig := &LLMConfig{
		APIKey: apiKey,
		Model:  config.Model,
	}
	if config.Temperature != nil {
		llmConfig.Temperature = *config.Temperature
	}
	if config.MaxTokens != nil {
		llmConfig.MaxTokens = *config.MaxTokens
	}
	if config.TopP != nil {
		llmConfig.TopP = *config.TopP
	}

	return &OpenAIClient{
		base:   NewBaseOpenAIClient(llmConfig, DefaultReasoning, DefaultVerbosity),
		client: openai.NewClientWithConfig(clientConfig),
	}, nil
}

// validateBaseURL rejects base URLs missing a scheme or using a scheme other
// than http/https, matching the shape of errors surfaced by openai-compatible
// deployments (Ollama, LocalAI, vLLM, TGI) misconfigured with a bare host:port.
func validateBaseURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" {
		return fmt.Errorf("baseURL must include scheme: %q", rawURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("baseURL must use http:// or https:// scheme: %q", rawURL)
	}
	return nil
}

// hasAPIPath reports whether the URL already carries an API version/path
// segment (/v1, /api) so normalizeBaseURL doesn't double it up.
func hasAPIPath(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	trimmed := strings.Trim(parsed.Path, "/")
	return trimmed == "v1" || trimmed == "api" ||
		strings.HasPrefix(trimmed, "v1/") || strings.HasPrefix(trimmed, "api/")
}

func normalizeBaseURL(rawURL string) string {
	if hasAPIPath(rawURL) {
		return rawURL
	}
	return strings.TrimSuffix(rawURL, "/") + "/v1"
}

// Chat sends a chat completion request to OpenAI.
func (c *OpenAIClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	return c.base.GenerateResponseWithRetry(ctx, c.client, messages, nil, 0, ModelSizeMedium)
}

// ChatWithStructuredOutput sends a chat completion request that asks the
// model to conform to the given schema.
func (c *OpenAIClient) ChatWithStructuredOutput(ctx context.Context, messages []types.Message, schema any) (*types.Response, error) {
	return c.base.GenerateResponseWithRetry(ctx, c.client, messages, schema, 0, ModelSizeMedium)
}

// GetCapabilities returns the capabilities this client supports.
func (c *OpenAIClient) GetCapabilities() []nlp.TaskCapability {
	return []nlp.TaskCapability{nlp.TaskTextGeneration}
}

// Close cleans up resources (no-op; go-openai holds no persistent connection).
func (c *OpenAIClient) Close() error {
	return nil
}
