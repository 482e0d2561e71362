package model

import "errors"

// Error taxonomy. NotFound is recoverable (triggers a fetch or surfaces as
// "no data"); validation and consistency errors are rejected before any
// write happens; fetch errors are isolated per-node by the traversal layer.
var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrSelfCitation    = errors.New("self-citation rejected")
	ErrAlreadyComplete = errors.New("session already complete")
	ErrExternalFetch   = errors.New("external fetch failed")
)
