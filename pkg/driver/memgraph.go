package driver

import (
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// MemgraphDriver implements the GraphDriver interface for Memgraph databases.
// Memgraph speaks the same Bolt protocol and Cypher dialect as Neo4j, so it
// embeds Neo4jDriver for every query and session operation and only overrides
// what actually differs: the default database name and the reported provider.
type MemgraphDriver struct {
	*Neo4jDriver
}

// NewMemgraphDriver creates a new Memgraph driver instance.
func NewMemgraphDriver(uri, username, password, database string) (*MemgraphDriver, error) {
	client, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create memgraph driver: %w", err)
	}

	if database == "" {
		database = "memgraph"
	}

	return &MemgraphDriver{
		Neo4jDriver: &Neo4jDriver{client: client, database: database},
	}, nil
}

// Provider reports this driver as Memgraph rather than the embedded Neo4jDriver's default.
func (m *MemgraphDriver) Provider() GraphProvider {
	return GraphProviderMemgraph
}
