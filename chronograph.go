package chronograph

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/graphkeep/chronograph/pkg/community"
	"github.com/graphkeep/chronograph/pkg/driver"
	"github.com/graphkeep/chronograph/pkg/embedder"
	"github.com/graphkeep/chronograph/pkg/factstore"
	"github.com/graphkeep/chronograph/pkg/llm"
	"github.com/graphkeep/chronograph/pkg/modeler"
	"github.com/graphkeep/chronograph/pkg/search"
	"github.com/graphkeep/chronograph/pkg/types"
	"github.com/graphkeep/chronograph/pkg/utils/maintenance"
)

// driverWrapper wraps driver.GraphDriver to implement types.EdgeOperations
type driverWrapper struct {
	driver.GraphDriver
}

// Provider converts driver.GraphProvider to types.GraphProvider
func (w *driverWrapper) Provider() types.GraphProvider {
	switch w.GraphDriver.Provider() {
	case driver.GraphProviderLadybug:
		return types.GraphProviderLadybug
	case driver.GraphProviderNeo4j:
		return types.GraphProviderNeo4j
	case driver.GraphProviderFalkorDB:
		return types.GraphProviderFalkorDB
	case driver.GraphProviderNeptune:
		return types.GraphProviderNeptune
	default:
		return types.GraphProviderLadybug // default fallback
	}
}

// nodeOpsWrapper adapts maintenance.NodeOperations to utils.NodeOperations interface
type nodeOpsWrapper struct {
	*maintenance.NodeOperations
}

// ResolveExtractedNodes wraps maintenance.NodeOperations.ResolveExtractedNodes to match the interface
func (w *nodeOpsWrapper) ResolveExtractedNodes(ctx context.Context, extractedNodes []*types.Node, episode *types.Node, previousEpisodes []*types.Node, entityTypes map[string]interface{}) ([]*types.Node, map[string]string, interface{}, error) {
	nodes, uuidMap, pairs, err := w.NodeOperations.ResolveExtractedNodes(ctx, extractedNodes, episode, previousEpisodes, entityTypes)
	// Return pairs as interface{} to satisfy the interface
	return nodes, uuidMap, pairs, err
}

// Chronograph is the main interface for interacting with temporal knowledge graphs.
// It provides methods for building, querying, and maintaining temporally-aware
// knowledge graphs designed for AI agents.
type Chronograph interface {
	// Add processes and adds new episodes to the knowledge graph.
	// Episodes can be text, conversations, or any temporal data.
	// Options parameter is optional and can be nil for default behavior.
	Add(ctx context.Context, episodes []types.Episode, options *AddEpisodeOptions) (*types.AddBulkEpisodeResults, error)

	// AddEpisode processes and adds a single episode to the knowledge graph.
	AddEpisode(ctx context.Context, episode types.Episode, options *AddEpisodeOptions) (*types.AddEpisodeResults, error)

	// Search performs hybrid search across the knowledge graph combining
	// semantic embeddings, keyword search, and graph traversal.
	Search(ctx context.Context, query string, config *types.SearchConfig) (*types.SearchResults, error)

	// GetNode retrieves a specific node from the knowledge graph.
	GetNode(ctx context.Context, nodeID string) (*types.Node, error)

	// GetEdge retrieves a specific edge from the knowledge graph.
	GetEdge(ctx context.Context, edgeID string) (*types.Edge, error)

	// GetEpisodes retrieves recent episodes from the knowledge graph.
	GetEpisodes(ctx context.Context, groupID string, limit int) ([]*types.Node, error)

	// ClearGraph removes all nodes and edges from the knowledge graph for a specific group.
	ClearGraph(ctx context.Context, groupID string) error

	// CreateIndices creates database indices and constraints for optimal performance.
	CreateIndices(ctx context.Context) error

	// AddTriplet adds a triplet (subject-predicate-object) directly to the knowledge graph.
	AddTriplet(ctx context.Context, sourceNode *types.Node, edge *types.Edge, targetNode *types.Node, createEmbeddings bool) (*types.AddTripletResults, error)

	// RemoveEpisode removes an episode and its associated nodes and edges from the knowledge graph.
	RemoveEpisode(ctx context.Context, episodeUUID string) error

	// GetNodesAndEdgesByEpisode retrieves all nodes and edges associated with a specific episode.
	GetNodesAndEdgesByEpisode(ctx context.Context, episodeUUID string) ([]*types.Node, []*types.Edge, error)

	// Close closes all connections and cleans up resources.
	Close(ctx context.Context) error

	UpdateCommunities(ctx context.Context, episodeUUID string, groupID string) ([]*types.Node, []*types.Edge, error)

	// MergeNodeInto physically merges a duplicate node into its canonical
	// counterpart: edges are rewired or merged, attributes are unioned, and
	// the duplicate is tombstoned rather than deleted.
	MergeNodeInto(ctx context.Context, canonicalUUID, duplicateUUID string) error
}

// Client is the main implementation of the Chronograph interface.
type Client struct {
	driver    driver.GraphDriver
	llm       llm.Client
	embedder  embedder.Client
	searcher  *search.Searcher
	community *community.Builder
	config    *Config
	logger    *slog.Logger

	// Specialized LLM clients for different steps
	languageModels LanguageModels

	// factStore backs the two-phase extract-then-promote ingestion path
	// (ExtractToFacts/PromoteFactsToGraph). Nil unless SetFactStore is called.
	factStore factstore.FactsDB
}

// SetFactStore wires a fact store into the client, enabling ExtractToFacts
// and PromoteFactsToGraph. Optional: AddEpisode never requires one.
func (c *Client) SetFactStore(store factstore.FactsDB) {
	c.factStore = store
}

// LanguageModels holds specialized LLM clients for different steps.
type LanguageModels struct {
	NodeExtraction llm.Client
	NodeReflexion  llm.Client
	NodeResolution llm.Client
	NodeAttribute  llm.Client
	EdgeExtraction llm.Client
	EdgeResolution llm.Client
	Summarization  llm.Client
	TextGeneration llm.Client
}

// Config holds configuration for the Chronograph client.
type Config struct {
	// GroupID is used to isolate data for multi-tenant scenarios
	GroupID string
	// TimeZone for temporal operations
	TimeZone *time.Location
	// Search configuration
	SearchConfig *types.SearchConfig
	// EntityTypes defines the default entity types to use when AddEpisodeOptions.EntityTypes is nil
	EntityTypes map[string]interface{}
	EdgeTypes   map[string]interface{}

	EdgeMap map[string]map[string][]interface{}
	// LanguageModels holds specialized LLM clients for different steps
	LanguageModels LanguageModels

	// DefaultGraphModeler is used by PromoteToGraph when an AddEpisodeOptions
	// doesn't supply its own GraphModeler. Nil falls back to DefaultModeler.
	DefaultGraphModeler modeler.GraphModeler
}

// AddEpisodeOptions holds options for adding a single episode.
// Every field is optional; nil fields fall back to the client's defaults.
type AddEpisodeOptions struct {
	// EntityTypes custom entity type definitions
	EntityTypes map[string]interface{}
	// ExcludedEntityTypes entity types to exclude from extraction
	ExcludedEntityTypes []string
	// PreviousEpisodeUUIDs UUIDs of previous episodes for context
	PreviousEpisodeUUIDs []string
	// EdgeTypes custom edge type definitions
	EdgeTypes map[string]interface{}
	// EdgeTypeMap mapping of entity pairs to edge types
	EdgeTypeMap map[string]map[string][]interface{}
	// OverwriteExisting whether to overwrite an existing episode with the same UUID
	// Default behavior is false (skip if exists)
	OverwriteExisting  bool
	GenerateEmbeddings bool
	MaxCharacters      int

	// Skip options for faster ingestion or debugging
	SkipReflexion      bool
	SkipResolution     bool
	SkipAttributes     bool
	SkipEdgeResolution bool

	// UseYAML toggles between CSV/TSV (default) and YAML for LLM interchange
	UseYAML bool

	// GraphModeler overrides entity/relationship resolution and community
	// detection for this call. Nil falls back to Config.DefaultGraphModeler,
	// then to a DefaultModeler built from the client's own LLM and embedder.
	GraphModeler modeler.GraphModeler
	// ModelerErrorHandling controls what happens when GraphModeler returns an
	// error. Defaults to modeler.FailOnError.
	ModelerErrorHandling modeler.ModelerErrorHandling
}

// NewClient creates a new Chronograph client with the provided configuration.
func NewClient(driver driver.GraphDriver, llmClient llm.Client, embedderClient embedder.Client, config *Config, logger *slog.Logger) (*Client, error) {
	if config == nil {
		config = &Config{
			GroupID:  "default",
			TimeZone: time.UTC,
		}
	}
	if config.SearchConfig == nil {
		config.SearchConfig = NewDefaultSearchConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	searcher := search.NewSearcher(driver, embedderClient, llmClient)
	communityBuilder := community.NewBuilder(driver, llmClient, config.LanguageModels.Summarization, embedderClient)

	return &Client{
		driver:         driver,
		llm:            llmClient,
		embedder:       embedderClient,
		searcher:       searcher,
		community:      communityBuilder,
		config:         config,
		logger:         logger,
		languageModels: config.LanguageModels,
	}, nil
}

// GetDriver returns the underlying graph driver
func (c *Client) GetDriver() driver.GraphDriver {
	return c.driver
}

// GetLLM returns the LLM client
func (c *Client) GetLLM() llm.Client {
	return c.llm
}

// GetEmbedder returns the embedder client
func (c *Client) GetEmbedder() embedder.Client {
	return c.embedder
}

// GetCommunityBuilder returns the community builder
func (c *Client) GetCommunityBuilder() *community.Builder {
	return c.community
}

var (
	// ErrNodeNotFound is returned when a node is not found.
	ErrNodeNotFound = errors.New("node not found")
	// ErrEdgeNotFound is returned when an edge is not found.
	ErrEdgeNotFound = errors.New("edge not found")
	// ErrInvalidEpisode is returned when an episode is invalid.
	ErrInvalidEpisode = errors.New("invalid episode")
)
