package llm

import (
	"context"

	"github.com/graphkeep/chronograph/pkg/nlp"
	"github.com/graphkeep/chronograph/pkg/types"
)

// Client defines the interface for language model operations. Its method set
// matches nlp.Client so an llm.Client can be passed anywhere an nlp.Client is
// expected (the orchestrator wires a single configured LLM into both the
// extraction pipeline and community summarization).
type Client interface {
	// Chat sends a chat completion request and returns the response.
	Chat(ctx context.Context, messages []types.Message) (*types.Response, error)

	// ChatWithStructuredOutput sends a chat completion request with structured output.
	ChatWithStructuredOutput(ctx context.Context, messages []types.Message, schema any) (*types.Response, error)

	// GetCapabilities returns the list of capabilities supported by this client.
	GetCapabilities() []nlp.TaskCapability

	// Close cleans up any resources.
	Close() error
}

const (
	// RoleSystem represents a system message.
	RoleSystem types.Role = "system"
	// RoleUser represents a user message.
	RoleUser types.Role = "user"
	// RoleAssistant represents an assistant message.
	RoleAssistant types.Role = "assistant"
)

// Config holds legacy configuration for LLM clients (deprecated, use LLMConfig).
// Kept for backward compatibility with OpenAI-compatible service wiring.
type Config struct {
	Model       string   `json:"model"`
	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	TopP        *float32 `json:"top_p,omitempty"`
	TopK        *int     `json:"top_k,omitempty"`
	MinP        *float32 `json:"min_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`
	BaseURL     string   `json:"base_url,omitempty"` // Custom base URL for OpenAI-compatible services
}

// ModelSize represents the size/complexity of the model to use.
type ModelSize string

const (
	// ModelSizeSmall represents a small, fast model for simple tasks.
	ModelSizeSmall ModelSize = "small"
	// ModelSizeMedium represents a medium model for more complex tasks.
	ModelSizeMedium ModelSize = "medium"
)

// Default configuration values.
const (
	DefaultMaxTokens   = 8192
	DefaultTemperature = 1.0
)

// LLMConfig holds configuration for LLM clients.
type LLMConfig struct {
	// APIKey is the authentication key for accessing the LLM API.
	APIKey string `json:"-"`

	// Model is the specific LLM model to use for generating responses.
	Model string `json:"model,omitempty"`

	// BaseURL is the base URL of the LLM API service.
	BaseURL string `json:"base_url,omitempty"`

	// Temperature controls randomness in generation (0.0 to 2.0).
	Temperature float32 `json:"temperature,omitempty"`

	// TopP is the nucleus sampling parameter.
	TopP float32 `json:"top_p,omitempty"`

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int `json:"max_tokens,omitempty"`

	// MaxRetries bounds the number of retry attempts on transient failures.
	MaxRetries int `json:"max_retries,omitempty"`

	// SmallModel is the model to use for simpler prompts.
	SmallModel string `json:"small_model,omitempty"`
}

// NewLLMConfig creates a new LLMConfig with default values.
func NewLLMConfig() *LLMConfig {
	return &LLMConfig{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// WithAPIKey sets the API key.
func (c *LLMConfig) WithAPIKey(apiKey string) *LLMConfig {
	c.APIKey = apiKey
	return c
}

// WithModel sets the model.
func (c *LLMConfig) WithModel(model string) *LLMConfig {
	c.Model = model
	return c
}

// WithBaseURL sets the base URL.
func (c *LLMConfig) WithBaseURL(baseURL string) *LLMConfig {
	c.BaseURL = baseURL
	return c
}

// WithTemperature sets the temperature.
func (c *LLMConfig) WithTemperature(temperature float32) *LLMConfig {
	c.Temperature = temperature
	return c
}

// WithMaxTokens sets the max tokens.
func (c *LLMConfig) WithMaxTokens(maxTokens int) *LLMConfig {
	c.MaxTokens = maxTokens
	return c
}

// WithSmallModel sets the small model.
func (c *LLMConfig) WithSmallModel(smallModel string) *LLMConfig {
	c.SmallModel = smallModel
	return c
}

// NewMessage creates a new message with the specified role and content.
func NewMessage(role types.Role, content string) types.Message {
	return types.Message{Role: role, Content: content}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) types.Message {
	return NewMessage(RoleSystem, content)
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) types.Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) types.Message {
	return NewMessage(RoleAssistant, content)
}
