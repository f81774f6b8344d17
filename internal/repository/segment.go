package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/cloo-solutions/pageoracle/internal/domain"
)

// SegmentRepository persists segments and their embeddings in pgvector.
type SegmentRepository struct {
	pool *pgxpool.Pool
	tx   *TxRunner
}

func NewSegmentRepository(pool *pgxpool.Pool) *SegmentRepository {
	return &SegmentRepository{pool: pool, tx: NewTxRunner(pool)}
}

// FindComplete returns the fully written index for key, or ErrIndexNotBuilt.
func (r *SegmentRepository) FindComplete(ctx context.Context, key domain.IndexKey) (*domain.IndexInfo, error) {
	info := domain.IndexInfo{Key: key}
	err := r.pool.QueryRow(ctx,
		`SELECT id, dimensions, segment_count, created_at
		 FROM segment_indexes
		 WHERE fingerprint = $1 AND chunk_size = $2 AND chunk_overlap = $3 AND embedding_model = $4
		   AND complete`,
		key.Fingerprint, key.ChunkSize, key.ChunkOverlap, key.Model,
	).Scan(&info.ID, &info.Dimensions, &info.SegmentCount, &info.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrIndexNotBuilt
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// Replace drops any index stored under key and writes segments with their
// vectors in one transaction. The index is marked complete only on commit.
func (r *SegmentRepository) Replace(ctx context.Context, key domain.IndexKey, segments []domain.Segment, vectors [][]float32) (*domain.IndexInfo, error) {
	if len(segments) != len(vectors) {
		return nil, fmt.Errorf("segments and vectors length mismatch: %d != %d", len(segments), len(vectors))
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("no segments to store")
	}

	info := &domain.IndexInfo{
		ID:           uuid.NewString(),
		Key:          key,
		Dimensions:   len(vectors[0]),
		SegmentCount: len(segments),
		CreatedAt:    time.Now().UTC(),
	}

	err := r.tx.WithTx(ctx, func(db dbtx) error {
		_, err := db.Exec(ctx,
			`DELETE FROM segment_indexes
			 WHERE fingerprint = $1 AND chunk_size = $2 AND chunk_overlap = $3 AND embedding_model = $4`,
			key.Fingerprint, key.ChunkSize, key.ChunkOverlap, key.Model,
		)
		if err != nil {
			return fmt.Errorf("failed to drop previous index: %w", err)
		}

		_, err = db.Exec(ctx,
			`INSERT INTO segment_indexes
				(id, fingerprint, chunk_size, chunk_overlap, embedding_model, dimensions, segment_count, complete, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8)`,
			info.ID, key.Fingerprint, key.ChunkSize, key.ChunkOverlap, key.Model,
			info.Dimensions, info.SegmentCount, info.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}

		if err := insertSegments(ctx, db, info.ID, segments, vectors); err != nil {
			return err
		}

		_, err = db.Exec(ctx, `UPDATE segment_indexes SET complete = TRUE WHERE id = $1`, info.ID)
		if err != nil {
			return fmt.Errorf("failed to mark index complete: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

func insertSegments(ctx context.Context, db dbtx, indexID string, segments []domain.Segment, vectors [][]float32) error {
	batch := &pgx.Batch{}
	for i, s := range segments {
		batch.Queue(
			`INSERT INTO segments (index_id, position, segment_id, page, content, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			indexID, s.Position, s.ID, s.Page, s.Text, pgvector.NewVector(vectors[i]),
		)
	}

	results := db.SendBatch(ctx, batch)
	defer results.Close()

	for i := range segments {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert segment %d: %w", segments[i].Position, err)
		}
	}
	return nil
}

// Search returns the k nearest segments of one index by cosine similarity.
func (r *SegmentRepository) Search(ctx context.Context, indexID string, query []float32, k int) ([]domain.RetrievedSegment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT segment_id, page, position, content, 1 - (embedding <=> $1) AS score
		 FROM segments
		 WHERE index_id = $2
		 ORDER BY embedding <=> $1, position
		 LIMIT $3`,
		pgvector.NewVector(query), indexID, k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.RetrievedSegment
	for rows.Next() {
		var rs domain.RetrievedSegment
		var score float64
		if err := rows.Scan(&rs.Segment.ID, &rs.Segment.Page, &rs.Segment.Position, &rs.Segment.Text, &score); err != nil {
			return nil, err
		}
		rs.Score = float32(score)
		results = append(results, rs)
	}
	return results, rows.Err()
}
