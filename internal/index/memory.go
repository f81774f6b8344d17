// Package index holds the in-memory vector index built at startup.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/cloo-solutions/pageoracle/internal/domain"
)

// Memory is a brute-force cosine index. It is immutable after Build, so
// concurrent Search calls need no locking.
type Memory struct {
	dimension int
	segments  []domain.Segment
	vectors   [][]float32
	norms     []float32
}

// Build indexes segments with their embeddings. Every segment must appear
// exactly once and all vectors must share one dimension.
func Build(segments []domain.Segment, vectors [][]float32) (*Memory, error) {
	if len(segments) != len(vectors) {
		return nil, domain.Retrieval("failed to build index",
			fmt.Errorf("segments and vectors length mismatch: %d != %d", len(segments), len(vectors)))
	}
	if len(segments) == 0 {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeRetrieval,
			domain.ErrIndexNotBuilt.Message, fmt.Errorf("no segments to index"))
	}

	seen := make(map[int]struct{}, len(segments))
	for _, s := range segments {
		if _, ok := seen[s.Position]; ok {
			return nil, domain.Retrieval("failed to build index",
				fmt.Errorf("duplicate segment position %d", s.Position))
		}
		seen[s.Position] = struct{}{}
	}

	dim := len(vectors[0])
	norms := make([]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dim || dim == 0 {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeRetrieval, domain.ErrDimensionMismatch.Message,
				fmt.Errorf("segment %d has %d dimensions, expected %d", segments[i].Position, len(v), dim))
		}
		norms[i] = norm(v)
	}

	return &Memory{
		dimension: dim,
		segments:  segments,
		vectors:   vectors,
		norms:     norms,
	}, nil
}

// Len returns the number of indexed segments.
func (m *Memory) Len() int {
	return len(m.segments)
}

// Dimension returns the vector size of the index.
func (m *Memory) Dimension() int {
	return m.dimension
}

// Search returns up to k segments ordered by descending cosine similarity.
func (m *Memory) Search(ctx context.Context, query []float32, k int) ([]domain.RetrievedSegment, error) {
	if len(query) != m.dimension {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeRetrieval, domain.ErrDimensionMismatch.Message,
			fmt.Errorf("query has %d dimensions, index has %d", len(query), m.dimension))
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.Retrieval("search cancelled", err)
	}
	if k <= 0 {
		return nil, nil
	}

	qn := norm(query)
	results := make([]domain.RetrievedSegment, len(m.segments))
	for i, v := range m.vectors {
		results[i] = domain.RetrievedSegment{
			Segment: m.segments[i],
			Score:   cosine(query, v, qn, m.norms[i]),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

func norm(v []float32) float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return float32(math.Sqrt(sum))
}

func cosine(a, b []float32, na, nb float32) float32 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot) / (na * nb)
}
