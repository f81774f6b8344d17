// Package document loads the source PDF and extracts its text page by page.
package document

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/cloo-solutions/pageoracle/internal/domain"
	"github.com/cloo-solutions/pageoracle/internal/storage"
)

// ObjectGetter fetches raw object bytes from remote storage.
type ObjectGetter interface {
	GetObject(ctx context.Context, loc storage.Location) ([]byte, error)
}

// Loader reads PDFs from the local filesystem or, when configured, from S3.
type Loader struct {
	objects ObjectGetter
}

// NewLoader creates a Loader. objects may be nil, in which case s3:// URIs fail.
func NewLoader(objects ObjectGetter) *Loader {
	return &Loader{objects: objects}
}

// Load reads and parses the PDF at uri.
func (l *Loader) Load(ctx context.Context, uri string) (*domain.Document, error) {
	data, err := l.read(ctx, uri)
	if err != nil {
		return nil, err
	}
	return Parse(uri, data)
}

func (l *Loader) read(ctx context.Context, uri string) ([]byte, error) {
	if storage.IsURI(uri) {
		if l.objects == nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIngestion,
				"object storage is not configured", fmt.Errorf("cannot load %s", uri))
		}
		loc, err := storage.ParseURI(uri)
		if err != nil {
			return nil, domain.Ingestion("invalid document URI", err)
		}
		data, err := l.objects.GetObject(ctx, loc)
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIngestion, domain.ErrDocumentNotFound.Message, err)
		}
		if err != nil {
			return nil, domain.Ingestion("failed to download document", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(uri)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIngestion, domain.ErrDocumentNotFound.Message, err)
	}
	if err != nil {
		return nil, domain.Ingestion("failed to read document", err)
	}
	return data, nil
}

// Parse extracts page text from raw PDF bytes. Pages without text are skipped
// but keep their original numbering.
func Parse(uri string, data []byte) (doc *domain.Document, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = domain.NewDomainErrorWithCause(domain.ErrCodeIngestion,
				domain.ErrDocumentCorrupt.Message, fmt.Errorf("%s: %v", uri, r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIngestion, domain.ErrDocumentCorrupt.Message, err)
	}

	pages := make([]domain.Page, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIngestion,
				domain.ErrDocumentCorrupt.Message, fmt.Errorf("page %d: %w", i, err))
		}
		text = SanitizeText(text)
		if text == "" {
			continue
		}
		pages = append(pages, domain.Page{Number: i, Text: text})
	}

	doc = &domain.Document{
		URI:         uri,
		Fingerprint: Fingerprint(data),
		Pages:       pages,
	}
	if err := domain.ValidateDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Fingerprint is the hex SHA-256 of the raw document bytes.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SanitizeText removes NUL bytes and control characters that some PDF
// extractors emit and Postgres text columns reject.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\x00", "")

	r := make([]rune, 0, len(s))
	for _, ch := range s {
		if ch == '\n' || ch == '\r' || ch == '\t' {
			r = append(r, ch)
			continue
		}
		if ch < 0x20 || ch == 0x7f {
			continue
		}
		r = append(r, ch)
	}
	return strings.TrimSpace(string(r))
}
