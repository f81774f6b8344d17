package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/pageoracle/internal/domain"
)

// HistoryPostgresRepository appends chat history rows to Postgres.
type HistoryPostgresRepository struct {
	pool *pgxpool.Pool
}

func NewHistoryPostgresRepository(pool *pgxpool.Pool) *HistoryPostgresRepository {
	return &HistoryPostgresRepository{pool: pool}
}

func (r *HistoryPostgresRepository) Insert(ctx context.Context, rec *domain.HistoryRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO chat_history (id, user_query, bot_answer, timestamp, platform)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.ID,
		rec.Question,
		rec.Answer,
		rec.Timestamp,
		rec.Label,
	)
	return err
}

func (r *HistoryPostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *HistoryPostgresRepository) Close(ctx context.Context) error {
	r.pool.Close()
	return nil
}
