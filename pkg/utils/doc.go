// Package utils provides utility functions for the chronograph library.
//
// This package contains helper functions for various operations including:
//   - Date and time utilities (datetime.go)
//   - Data validation functions (validation.go)
//   - Concurrent execution helpers (concurrent.go)
//   - Bulk processing utilities (bulk.go)
//   - General helper functions (helpers.go)
//
// The utilities are designed to support the core ingestion and retrieval
// operations without pulling driver- or LLM-specific concerns into shared code.
package utils
