package crossencoder

// This file implements a generic Jina-compatible reranking API client. It
// works with any service implementing the Jina reranking API specification:
// Jina AI's hosted reranker, vLLM with a cross-encoder model, LocalAI, or
// anything else exposing the same POST /rerank contract (model, query,
// documents, top_k in; results[].index/document/relevance_score out).

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"
)

// RerankerClient implements cross-encoder functionality using Jina-compatible reranking APIs.
type RerankerClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	config     Config
}

// RerankRequest represents the request structure for Jina-compatible rerank APIs
type RerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopK      *int     `json:"top_k,omitempty"`
}

// RerankResponse represents the response structure from Jina-compatible rerank APIs
type RerankResponse struct {
	Results []RankedResult `json:"results"`
	Model   string         `json:"model"`
	Usage   *Usage         `json:"usage,omitempty"`
}

// RankedResult represents a single ranking result
type RankedResult struct {
	Index          int     `json:"index"`
	Document       string  `json:"document"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Usage represents token usage information
type Usage struct {
	TotalTokens  int `json:"total_tokens"`
	PromptTokens int `json:"prompt_tokens"`
}

// RerankerConfig holds configuration for Jina-compatible reranking services
type RerankerConfig struct {
	Config
	BaseURL string `json:"base_url,omitempty"`
	APIKey  string `json:"api_key,omitempty"`
	TopK    *int   `json:"top_k,omitempty"`
}

// NewRerankerClient creates a new client for any Jina-compatible reranking service
func NewRerankerClient(config RerankerConfig) *RerankerClient {
	if config.Model == "" {
		config.Model = "reranker"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8000/v1"
	}

	return &RerankerClient{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		config: config.Config,
	}
}

// NewJinaRerankerClient creates a new client for Jina AI's reranking service
func NewJinaRerankerClient(apiKey string, model string) *RerankerClient {
	config := RerankerConfig{
		Config: Config{
			Model: model,
		},
		BaseURL: "https://api.jina.ai/v1",
		APIKey:  apiKey,
	}
	if model == "" {
		config.Model = "jina-reranker-v1-base-en"
	}
	return NewRerankerClient(config)
}

// NewVLLMRerankerClient creates a new client for vLLM's reranking service
func NewVLLMRerankerClient(baseURL string, model string) *RerankerClient {
	config := RerankerConfig{
		Config: Config{
			Model: model,
		},
		BaseURL: baseURL,
		APIKey:  "",
	}
	if baseURL == "" {
		config.BaseURL = "http://localhost:8000/v1"
	}
	if model == "" {
		config.Model = "BAAI/bge-reranker-large"
	}
	return NewRerankerClient(config)
}

// NewLocalAIRerankerClient creates a new client for LocalAI's reranking service
func NewLocalAIRerankerClient(baseURL string, model string, apiKey string) *RerankerClient {
	config := RerankerConfig{
		Config: Config{
			Model: model,
		},
		BaseURL: baseURL,
		APIKey:  apiKey,
	}
	if baseURL == "" {
		config.BaseURL = "http://localhost:8080/v1"
	}
	if model == "" {
		config.Model = "reranker"
	}
	return NewRerankerClient(config)
}

// Rank ranks the given passages based on their relevance to the query using a Jina-compatible API
func (c *RerankerClient) Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error) {
	if len(passages) == 0 {
		return []RankedPassage{}, nil
	}

	request := RerankRequest{
		Model:     c.config.Model,
		Query:     query,
		Documents: passages,
	}

	requestBytes, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/rerank", bytes.NewBuffer(requestBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	responseBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(responseBytes))
	}

	var rerankResponse RerankResponse
	if err := json.Unmarshal(responseBytes, &rerankResponse); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	results := make([]RankedPassage, len(rerankResponse.Results))
	for i, result := range rerankResponse.Results {
		results[i] = RankedPassage{
			Passage: result.Document,
			Score:   result.RelevanceScore,
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}

// Close cleans up any resources used by the client
func (c *RerankerClient) Close() error {
	return nil
}
