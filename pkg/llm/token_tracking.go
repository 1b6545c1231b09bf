package llm

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/graphkeep/chronograph/pkg/nlp"
	"github.com/graphkeep/chronograph/pkg/types"
)

// TokenTracker records per-call token usage to a SQL database, following the
// same ensure-table/insert shape as pkg/telemetry's SQLHandler.
type TokenTracker struct {
	db        *sql.DB
	tableName string
}

// NewTokenTracker creates a token tracker backed by an existing DB connection
// (typically DuckDB, opened by the caller for local telemetry).
func NewTokenTracker(db *sql.DB) (*TokenTracker, error) {
	t := &TokenTracker{db: db, tableName: "llm_token_usage"}
	if err := t.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure token usage table: %w", err)
	}
	return t, nil
}

func (t *TokenTracker) ensureTable() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			timestamp TIMESTAMP,
			model VARCHAR(255),
			prompt_tokens INT,
			completion_tokens INT,
			total_tokens INT
		)
	`, t.tableName)

	_, err := t.db.Exec(query)
	return err
}

// Record persists a single call's token usage. A nil usage is a no-op.
func (t *TokenTracker) Record(model string, usage *types.TokenUsage) error {
	if usage == nil {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, timestamp, model, prompt_tokens, completion_tokens, total_tokens)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.tableName)

	_, err := t.db.Exec(query,
		uuid.New().String(),
		time.Now().UTC(),
		model,
		usage.PromptTokens,
		usage.CompletionTokens,
		usage.TotalTokens,
	)
	return err
}

// TokenTrackingClient wraps a Client and records token usage for every call
// that returns one, without altering the wrapped response.
type TokenTrackingClient struct {
	client  Client
	tracker *TokenTracker
}

// NewTokenTrackingClient creates a client that transparently records token
// usage through tracker after each successful call.
func NewTokenTrackingClient(client Client, tracker *TokenTracker) *TokenTrackingClient {
	return &TokenTrackingClient{client: client, tracker: tracker}
}

// Chat implements Client, recording token usage on success.
func (t *TokenTrackingClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	resp, err := t.client.Chat(ctx, messages)
	if err == nil && resp != nil {
		t.record(resp)
	}
	return resp, err
}

// ChatWithStructuredOutput implements Client, recording token usage on success.
func (t *TokenTrackingClient) ChatWithStructuredOutput(ctx context.Context, messages []types.Message, schema any) (*types.Response, error) {
	resp, err := t.client.ChatWithStructuredOutput(ctx, messages, schema)
	if err == nil && resp != nil {
		t.record(resp)
	}
	return resp, err
}

// Close implements Client.
func (t *TokenTrackingClient) Close() error {
	return t.client.Close()
}

// GetCapabilities returns the list of capabilities supported by this client.
func (t *TokenTrackingClient) GetCapabilities() []nlp.TaskCapability {
	return t.client.GetCapabilities()
}

func (t *TokenTrackingClient) record(resp *types.Response) {
	if resp.TokensUsed == nil {
		return
	}
	// Tracking failures must never break the underlying LLM call.
	_ = t.tracker.Record(resp.Model, resp.TokensUsed)
}
