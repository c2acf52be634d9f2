package core

import "errors"

// Sentinel errors distinguishing which pipeline stage failed. Callers match
// with errors.Is; none of these are retried internally.
var (
	ErrEmbeddingUnavailable  = errors.New("embedding provider unavailable")
	ErrGenerationUnavailable = errors.New("generation provider unavailable")
	ErrStoreUnavailable      = errors.New("chunk store unavailable")
	ErrExtractionFailed      = errors.New("document text extraction failed")
)
