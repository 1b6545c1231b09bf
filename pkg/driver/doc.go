// Package driver provides graph database driver implementations for chronograph.
//
// This package defines the GraphDriver interface and provides implementations
// for Neo4j, Memgraph and Ladybug.
//
// # Supported Databases
//
// The following graph databases are supported:
//   - Neo4j: Full-featured graph database with native vector search
//   - Memgraph: In-memory graph database for high performance
//   - Ladybug: Embedded graph database (requires CGO)
//
// FalkorDB has query-string helpers in graph_queries.go but no driver
// implementation.
//
// # Usage
//
// Create a driver using the appropriate constructor:
//
//	// Neo4j
//	driver, err := driver.NewNeo4jDriver(uri, username, password, database)
//
//	// Ladybug (embedded)
//	driver, err := driver.NewLadybugDriver(dbPath, maxConcurrentQueries)
//
// # Thread Safety
//
// All driver implementations are safe for concurrent use from multiple goroutines.
// Database connections are managed internally and pooled where appropriate.
//
// # Type Helpers
//
// The package provides safe type conversion helpers in type_helpers.go for
// converting database results to Go types without panicking on type assertion
// failures.
package driver
