package service

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cloo-solutions/pageoracle/internal/domain"
	"github.com/cloo-solutions/pageoracle/internal/telemetry"
)

const (
	// PingTimeout bounds the startup reachability check of the history store.
	PingTimeout = 5 * time.Second
	// WriteTimeout bounds a single history write.
	WriteTimeout = 5 * time.Second
)

// History logger states reported by Status.
const (
	HistoryAvailable   = "available"
	HistoryUnavailable = "unavailable"
	HistoryDisabled    = "disabled"
)

// HistoryStore is an append-only sink for history records.
type HistoryStore interface {
	Insert(ctx context.Context, rec *domain.HistoryRecord) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// HistoryRecorder accepts finished question/answer pairs.
type HistoryRecorder interface {
	Record(ctx context.Context, rec *domain.HistoryRecord)
}

// UUIDGenerator generates unique identifiers
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// HistoryLogger writes history records on a best-effort basis. Whether the
// store is reachable is decided once by Ping; Record never fails the caller.
type HistoryLogger struct {
	store     HistoryStore
	disabled  bool
	available atomic.Bool
}

// NewHistoryLogger creates a logger for store. A nil store means the
// configured store could not be opened: the logger reports unavailable.
func NewHistoryLogger(store HistoryStore) *HistoryLogger {
	return &HistoryLogger{store: store}
}

// NewDisabledHistoryLogger creates a logger for deployments without a history store.
func NewDisabledHistoryLogger() *HistoryLogger {
	return &HistoryLogger{disabled: true}
}

// Ping checks the store once and records the result. It returns the new availability.
func (l *HistoryLogger) Ping(ctx context.Context) bool {
	if l.disabled || l.store == nil {
		l.available.Store(false)
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()

	if err := l.store.Ping(ctx); err != nil {
		log.Printf("history: store unreachable, logging disabled: %v", err)
		telemetry.CaptureMessage(ctx, "history store unreachable")
		l.available.Store(false)
		return false
	}

	log.Println("history: store reachable")
	l.available.Store(true)
	return true
}

// Status reports available, unavailable or disabled.
func (l *HistoryLogger) Status() string {
	switch {
	case l.disabled:
		return HistoryDisabled
	case l.available.Load():
		return HistoryAvailable
	default:
		return HistoryUnavailable
	}
}

// Record appends rec when the store is available. Failures are logged and dropped.
func (l *HistoryLogger) Record(ctx context.Context, rec *domain.HistoryRecord) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("history: recovered from panic while recording: %v", r)
		}
	}()

	if !l.available.Load() {
		if !l.disabled {
			telemetry.AddBreadcrumb(ctx, "history", "skipped write: store unavailable")
		}
		return
	}

	if err := domain.ValidateHistoryRecord(rec); err != nil {
		log.Printf("history: dropping record: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), WriteTimeout)
	defer cancel()

	if err := l.store.Insert(ctx, rec); err != nil {
		err = domain.Persistence("failed to write history record", err)
		log.Printf("history: %v", err)
	}
}

// Close releases the store connection.
func (l *HistoryLogger) Close(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	return l.store.Close(ctx)
}
