package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/cloo-solutions/pageoracle/internal/domain"
)

const (
	// HistoryCollection is the collection the service has always written to.
	HistoryCollection = "chat_history"

	serverSelectionTimeout = 5 * time.Second
)

type historyDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserQuery string             `bson:"user_query"`
	BotAnswer string             `bson:"bot_answer"`
	Timestamp time.Time          `bson:"timestamp"`
	Platform  string             `bson:"platform"`
}

// HistoryMongoRepository appends chat history documents to MongoDB.
type HistoryMongoRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewHistoryMongoRepository creates a client for uri. The driver connects
// lazily, so an unreachable server only surfaces on Ping or Insert.
func NewHistoryMongoRepository(ctx context.Context, uri, database string) (*HistoryMongoRepository, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(serverSelectionTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	return &HistoryMongoRepository{
		client:     client,
		collection: client.Database(database).Collection(HistoryCollection),
	}, nil
}

func (r *HistoryMongoRepository) Insert(ctx context.Context, rec *domain.HistoryRecord) error {
	_, err := r.collection.InsertOne(ctx, historyDocument{
		UserQuery: rec.Question,
		BotAnswer: rec.Answer,
		Timestamp: rec.Timestamp,
		Platform:  rec.Label,
	})
	return err
}

func (r *HistoryMongoRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

func (r *HistoryMongoRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
