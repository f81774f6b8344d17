package domain

import "time"

// IndexKey identifies one persisted index: the same document chunked and
// embedded the same way always maps to the same key.
type IndexKey struct {
	Fingerprint  string
	ChunkSize    int
	ChunkOverlap int
	Model        string
}

// IndexInfo describes a persisted index.
type IndexInfo struct {
	ID           string
	Key          IndexKey
	Dimensions   int
	SegmentCount int
	CreatedAt    time.Time
}
