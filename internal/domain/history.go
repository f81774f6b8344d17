package domain

import (
	"fmt"
	"time"
)

// HistoryRecord is one logged question/answer pair. Records are append-only.
type HistoryRecord struct {
	ID        string
	Question  string
	Answer    string
	Timestamp time.Time
	Label     string
}

// NewHistoryRecord creates a HistoryRecord stamped in UTC.
func NewHistoryRecord(id, question, answer, label string, at time.Time) *HistoryRecord {
	return &HistoryRecord{
		ID:        id,
		Question:  question,
		Answer:    answer,
		Timestamp: at.UTC(),
		Label:     label,
	}
}

// ValidateHistoryRecord validates a HistoryRecord instance
func ValidateHistoryRecord(r *HistoryRecord) error {
	if r == nil {
		return fmt.Errorf("history record cannot be nil")
	}

	if r.ID == "" {
		return fmt.Errorf("history record ID is required")
	}

	if r.Question == "" {
		return fmt.Errorf("history record Question is required")
	}

	if r.Timestamp.IsZero() {
		return fmt.Errorf("history record Timestamp is required")
	}

	return nil
}
