package repository

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/pageoracle/internal/domain"
)

// HistoryStore is an append-only sink for history records.
type HistoryStore interface {
	Insert(ctx context.Context, rec *domain.HistoryRecord) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// History store kinds, selected by URI scheme.
const (
	HistoryKindMongo    = "mongodb"
	HistoryKindPostgres = "postgres"
)

// HistoryKind maps a connection URI to a store kind.
func HistoryKind(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodePersistence, domain.ErrUnsupportedStore.Message, err)
	}
	switch u.Scheme {
	case "mongodb", "mongodb+srv":
		return HistoryKindMongo, nil
	case "postgres", "postgresql":
		return HistoryKindPostgres, nil
	default:
		return "", domain.NewDomainErrorWithCause(domain.ErrCodePersistence, domain.ErrUnsupportedStore.Message,
			fmt.Errorf("scheme %q", u.Scheme))
	}
}

// OpenHistoryStore creates the store for uri without contacting it.
func OpenHistoryStore(ctx context.Context, uri, database string) (HistoryStore, error) {
	kind, err := HistoryKind(uri)
	if err != nil {
		return nil, err
	}

	switch kind {
	case HistoryKindMongo:
		repo, err := NewHistoryMongoRepository(ctx, uri, database)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		pool, err := pgxpool.New(ctx, uri)
		if err != nil {
			return nil, fmt.Errorf("failed to create history pool: %w", err)
		}
		return NewHistoryPostgresRepository(pool), nil
	}
}
