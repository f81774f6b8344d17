package service

import (
	"strings"
	"unicode"

	"github.com/cloo-solutions/pageoracle/internal/domain"
)

// ChunkConfig controls how page text is split into segments.
type ChunkConfig struct {
	MaxChars  int
	MinChars  int
	Overlap   int
	MaxChunks int
}

// DefaultChunkConfig matches the splitter the service has always shipped with.
func DefaultChunkConfig() ChunkConfig {
	return NewChunkConfig(1200, 50)
}

// NewChunkConfig builds a config for the given segment size and overlap.
// Cuts prefer whitespace in the last two thirds of a window.
func NewChunkConfig(size, overlap int) ChunkConfig {
	return ChunkConfig{
		MaxChars: size,
		MinChars: size / 3,
		Overlap:  overlap,
	}
}

// ChunkDocument splits every page into segments. Segments never cross a page
// boundary, positions run across the whole document, and the output depends
// only on the document and cfg.
func ChunkDocument(doc *domain.Document, cfg ChunkConfig) []domain.Segment {
	segments := make([]domain.Segment, 0, len(doc.Pages)*2)
	for _, page := range doc.Pages {
		for _, text := range chunkText(page.Text, cfg) {
			position := len(segments)
			segments = append(segments, domain.Segment{
				ID:       domain.SegmentID(doc.Fingerprint, position),
				Page:     page.Number,
				Position: position,
				Text:     text,
			})
		}
	}
	return segments
}

func chunkText(text string, cfg ChunkConfig) []string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}
	if cfg.MaxChars <= 0 {
		cfg = DefaultChunkConfig()
	}
	runes := []rune(clean)
	if len(runes) <= cfg.MaxChars {
		return []string{clean}
	}

	chunks := make([]string, 0, 8)
	start := 0
	for start < len(runes) {
		if cfg.MaxChunks > 0 && len(chunks) >= cfg.MaxChunks {
			break
		}

		end := start + cfg.MaxChars
		if end > len(runes) {
			end = len(runes)
		}

		if end < len(runes) {
			cut := end
			minCut := start + cfg.MinChars
			if minCut > end {
				minCut = start
			}
			for i := end; i > minCut; i-- {
				if unicode.IsSpace(runes[i-1]) {
					cut = i
					break
				}
			}
			end = cut
		}

		if end <= start {
			break
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(runes) {
			break
		}

		nextStart := end
		if cfg.Overlap > 0 && end-start > cfg.Overlap {
			nextStart = end - cfg.Overlap
			// Start the overlap on a word boundary, unless the overlap is one
			// unbroken token; then keep it as a plain character overlap.
			snapped := nextStart
			for snapped < end && !unicode.IsSpace(runes[snapped-1]) {
				snapped++
			}
			if snapped < end {
				nextStart = snapped
			}
		}
		start = nextStart
	}

	return chunks
}
