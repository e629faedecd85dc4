package models

import "errors"

// Sentinel errors surfaced across the retrieval and indexing pipeline.
var (
	ErrInvalidQuery          = errors.New("invalid query")
	ErrEmbeddingUnavailable  = errors.New("embedding service unavailable")
	ErrStoreUnavailable      = errors.New("document store unavailable")
	ErrRetrievalFailed       = errors.New("retrieval failed")
	ErrTimeout               = errors.New("request deadline exceeded")
	ErrCacheUnavailable      = errors.New("cache unavailable")
	ErrIndexerPartialFailure = errors.New("indexer partial failure")
	ErrDocumentNotFound      = errors.New("document not found")
)
