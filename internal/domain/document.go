package domain

import (
	"fmt"
	"strings"
)

// Page is the text of a single PDF page. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// Document is a loaded source PDF. It is read once and never mutated.
type Document struct {
	URI         string
	Fingerprint string
	Pages       []Page
}

// Segment is a bounded span of document text used as a retrieval unit.
type Segment struct {
	ID       string
	Page     int
	Position int
	Text     string
}

// RetrievedSegment is a segment returned by an index lookup with its similarity score.
type RetrievedSegment struct {
	Segment Segment
	Score   float32
}

// Answer is the generated text plus the pages the context was drawn from.
type Answer struct {
	Text    string
	Sources []int
}

// SegmentID derives a stable identifier from the document fingerprint and the
// segment's sequence position.
func SegmentID(fingerprint string, position int) string {
	prefix := fingerprint
	if len(prefix) > 12 {
		prefix = prefix[:12]
	}
	return fmt.Sprintf("%s-%d", prefix, position)
}

// JoinContext concatenates segment texts in retrieval order, separated by a blank line.
func JoinContext(segments []RetrievedSegment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		parts = append(parts, s.Segment.Text)
	}
	return strings.Join(parts, "\n\n")
}

// SourcePages returns the distinct page numbers of segments in retrieval order.
func SourcePages(segments []RetrievedSegment) []int {
	seen := make(map[int]struct{}, len(segments))
	pages := make([]int, 0, len(segments))
	for _, s := range segments {
		if _, ok := seen[s.Segment.Page]; ok {
			continue
		}
		seen[s.Segment.Page] = struct{}{}
		pages = append(pages, s.Segment.Page)
	}
	return pages
}

// ValidateDocument checks that a document carries at least one page of text.
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}
	if d.URI == "" {
		return fmt.Errorf("document URI is required")
	}
	for _, p := range d.Pages {
		if strings.TrimSpace(p.Text) != "" {
			return nil
		}
	}
	return ErrDocumentEmpty
}
