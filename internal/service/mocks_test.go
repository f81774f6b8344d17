package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/cloo-solutions/pageoracle/internal/domain"
)

// MockDocumentLoader is a mock implementation of DocumentLoader
type MockDocumentLoader struct {
	mock.Mock
}

func (m *MockDocumentLoader) Load(ctx context.Context, uri string) (*domain.Document, error) {
	args := m.Called(ctx, uri)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

// MockEmbedder is a mock implementation of Embedder
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func (m *MockEmbedder) Model() string {
	return "mock-embed"
}

// MockGenerator is a mock implementation of Generator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockIndex is a mock implementation of Index
type MockIndex struct {
	mock.Mock
}

func (m *MockIndex) Search(ctx context.Context, query []float32, k int) ([]domain.RetrievedSegment, error) {
	args := m.Called(ctx, query, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RetrievedSegment), args.Error(1)
}

func (m *MockIndex) Len() int {
	return 0
}

// MockSegmentRepository is a mock implementation of SegmentRepository
type MockSegmentRepository struct {
	mock.Mock
}

func (m *MockSegmentRepository) FindComplete(ctx context.Context, key domain.IndexKey) (*domain.IndexInfo, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IndexInfo), args.Error(1)
}

func (m *MockSegmentRepository) Replace(ctx context.Context, key domain.IndexKey, segments []domain.Segment, vectors [][]float32) (*domain.IndexInfo, error) {
	args := m.Called(ctx, key, segments, vectors)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IndexInfo), args.Error(1)
}

func (m *MockSegmentRepository) Search(ctx context.Context, indexID string, query []float32, k int) ([]domain.RetrievedSegment, error) {
	args := m.Called(ctx, indexID, query, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RetrievedSegment), args.Error(1)
}

// MockHistoryStore is a mock implementation of HistoryStore
type MockHistoryStore struct {
	mock.Mock
}

func (m *MockHistoryStore) Insert(ctx context.Context, rec *domain.HistoryRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockHistoryStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockHistoryStore) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockHistoryRecorder is a mock implementation of HistoryRecorder
type MockHistoryRecorder struct {
	mock.Mock
}

func (m *MockHistoryRecorder) Record(ctx context.Context, rec *domain.HistoryRecord) {
	m.Called(ctx, rec)
}

// MockUUIDGenerator is a mock implementation of UUIDGenerator
type MockUUIDGenerator struct {
	mock.Mock
}

func (m *MockUUIDGenerator) NewString() string {
	args := m.Called()
	return args.String(0)
}

// MockEngineBuilder is a mock implementation of EngineBuilder
type MockEngineBuilder struct {
	mock.Mock
}

func (m *MockEngineBuilder) Build(ctx context.Context) (*Engine, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Engine), args.Error(1)
}
