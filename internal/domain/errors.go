package domain

import "errors"

// Error kinds surfaced by the pipeline. Stages never recover from these;
// callers classify failures with errors.Is and decide retry/abort policy.
var (
	// ErrConnection indicates the SQL source could not be reached.
	ErrConnection = errors.New("data source unreachable")

	// ErrQuery indicates the configured query failed to execute.
	ErrQuery = errors.New("query failed")

	// ErrColumnNotFound indicates a referenced column is absent from the
	// current schema.
	ErrColumnNotFound = errors.New("column not found")

	// ErrFetch indicates the weather mapping could not be retrieved.
	ErrFetch = errors.New("reference table fetch failed")
)
