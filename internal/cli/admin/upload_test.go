package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/pageoracle/internal/storage"
	"github.com/cloo-solutions/pageoracle/internal/testutil"
)

type MockObjectPublisher struct {
	mock.Mock
}

func (m *MockObjectPublisher) EnsureBucket(ctx context.Context, bucket string) error {
	args := m.Called(ctx, bucket)
	return args.Error(0)
}

func (m *MockObjectPublisher) PutObject(ctx context.Context, loc storage.Location, data []byte, contentType string) error {
	args := m.Called(ctx, loc, data, contentType)
	return args.Error(0)
}

func (m *MockObjectPublisher) HeadObject(ctx context.Context, loc storage.Location) (*storage.ObjectMetadata, error) {
	args := m.Called(ctx, loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.ObjectMetadata), args.Error(1)
}

func writePDF(t *testing.T, pages []string) (string, []byte) {
	t.Helper()
	data := testutil.BuildPDF(pages)
	path := filepath.Join(t.TempDir(), "book.pdf")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path, data
}

func TestUploadDocument(t *testing.T) {
	path, data := writePDF(t, []string{"Leaders eat last.", "Trust grows in the Circle of Safety."})
	loc := storage.Location{Bucket: "docs", Key: "books/leaders.pdf"}

	objects := new(MockObjectPublisher)
	objects.On("EnsureBucket", mock.Anything, "docs").Return(nil)
	objects.On("PutObject", mock.Anything, loc, data, "application/pdf").Return(nil)
	objects.On("HeadObject", mock.Anything, loc).Return(&storage.ObjectMetadata{
		ContentLength: int64(len(data)),
		ContentType:   "application/pdf",
		ETag:          `"abc"`,
	}, nil)

	var out bytes.Buffer
	err := uploadDocument(context.Background(), &out, objects, path, loc, false)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Uploaded s3://docs/books/leaders.pdf (2 pages")
	objects.AssertExpectations(t)
}

func TestUploadDocument_JSONOutput(t *testing.T) {
	path, data := writePDF(t, []string{"Leaders eat last."})
	loc := storage.Location{Bucket: "docs", Key: "leaders.pdf"}

	objects := new(MockObjectPublisher)
	objects.On("EnsureBucket", mock.Anything, "docs").Return(nil)
	objects.On("PutObject", mock.Anything, loc, data, "application/pdf").Return(nil)
	objects.On("HeadObject", mock.Anything, loc).Return(&storage.ObjectMetadata{ContentLength: int64(len(data))}, nil)

	var out bytes.Buffer
	require.NoError(t, uploadDocument(context.Background(), &out, objects, path, loc, true))

	var result UploadResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, "s3://docs/leaders.pdf", result.URI)
	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, int64(len(data)), result.Size)
	assert.NotEmpty(t, result.Fingerprint)
}

func TestUploadDocument_RejectsInvalidPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))

	objects := new(MockObjectPublisher)

	err := uploadDocument(context.Background(), &bytes.Buffer{}, objects, path, storage.Location{Bucket: "docs", Key: "x.pdf"}, false)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a usable PDF")
	objects.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadDocument_MissingFile(t *testing.T) {
	err := uploadDocument(context.Background(), &bytes.Buffer{}, new(MockObjectPublisher),
		filepath.Join(t.TempDir(), "missing.pdf"), storage.Location{Bucket: "docs", Key: "x.pdf"}, false)

	assert.Error(t, err)
}

func TestUploadDocument_SizeMismatch(t *testing.T) {
	path, data := writePDF(t, []string{"Leaders eat last."})
	loc := storage.Location{Bucket: "docs", Key: "leaders.pdf"}

	objects := new(MockObjectPublisher)
	objects.On("EnsureBucket", mock.Anything, "docs").Return(nil)
	objects.On("PutObject", mock.Anything, loc, data, "application/pdf").Return(nil)
	objects.On("HeadObject", mock.Anything, loc).Return(&storage.ObjectMetadata{ContentLength: 3}, nil)

	err := uploadDocument(context.Background(), &bytes.Buffer{}, objects, path, loc, false)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected")
}

func TestUploadDocument_BucketFailure(t *testing.T) {
	path, _ := writePDF(t, []string{"Leaders eat last."})
	loc := storage.Location{Bucket: "docs", Key: "leaders.pdf"}

	objects := new(MockObjectPublisher)
	objects.On("EnsureBucket", mock.Anything, "docs").Return(errors.New("access denied"))

	err := uploadDocument(context.Background(), &bytes.Buffer{}, objects, path, loc, false)

	assert.ErrorContains(t, err, "access denied")
	objects.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
