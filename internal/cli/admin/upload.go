package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cloo-solutions/pageoracle/internal/config"
	"github.com/cloo-solutions/pageoracle/internal/document"
	"github.com/cloo-solutions/pageoracle/internal/storage"
	"github.com/spf13/cobra"
)

// objectPublisher is the part of storage.S3Client the upload command needs.
type objectPublisher interface {
	EnsureBucket(ctx context.Context, bucket string) error
	PutObject(ctx context.Context, loc storage.Location, data []byte, contentType string) error
	HeadObject(ctx context.Context, loc storage.Location) (*storage.ObjectMetadata, error)
}

// UploadResult describes a published document.
type UploadResult struct {
	URI         string `json:"uri"`
	Fingerprint string `json:"fingerprint"`
	Pages       int    `json:"pages"`
	Size        int64  `json:"size"`
	ETag        string `json:"etag,omitempty"`
}

// UploadCmd returns the upload command
func UploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.pdf> [s3://bucket/key]",
		Short: "Publish the source PDF to object storage",
		Long: `Check that a local PDF has extractable text, then upload it to S3-compatible
storage. The destination defaults to ORACLE_PDF_PATH when that is an s3:// URI.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runUpload,
	}
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasS3() {
		return fmt.Errorf("upload requires ORACLE_S3_ENDPOINT, ORACLE_S3_ACCESS_KEY_ID and ORACLE_S3_SECRET_ACCESS_KEY")
	}

	dest := cfg.PDFPath
	if len(args) == 2 {
		dest = args[1]
	}
	loc, err := storage.ParseURI(dest)
	if err != nil {
		return fmt.Errorf("destination must be an s3:// URI: %w", err)
	}

	ctx := context.Background()
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return err
	}

	outputJSON, _ := cmd.Flags().GetBool("output")
	return uploadDocument(ctx, cmd.OutOrStdout(), client, args[0], loc, outputJSON)
}

func uploadDocument(ctx context.Context, w io.Writer, objects objectPublisher, path string, loc storage.Location, outputJSON bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	// Refuse files the server would fail to index at startup.
	doc, err := document.Parse(path, data)
	if err != nil {
		return fmt.Errorf("%s is not a usable PDF: %w", path, err)
	}

	if err := objects.EnsureBucket(ctx, loc.Bucket); err != nil {
		return err
	}
	if err := objects.PutObject(ctx, loc, data, "application/pdf"); err != nil {
		return err
	}
	meta, err := objects.HeadObject(ctx, loc)
	if err != nil {
		return fmt.Errorf("uploaded object could not be verified: %w", err)
	}
	if meta.ContentLength != int64(len(data)) {
		return fmt.Errorf("uploaded object has %d bytes, expected %d", meta.ContentLength, len(data))
	}

	result := UploadResult{
		URI:         loc.String(),
		Fingerprint: doc.Fingerprint,
		Pages:       len(doc.Pages),
		Size:        meta.ContentLength,
		ETag:        meta.ETag,
	}

	if outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(w, string(output))
		return nil
	}

	fmt.Fprintf(w, "Uploaded %s (%d pages, %d bytes)\n", result.URI, result.Pages, result.Size)
	fmt.Fprintf(w, "  fingerprint: %s\n", result.Fingerprint)
	return nil
}
