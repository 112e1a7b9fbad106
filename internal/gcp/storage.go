package gcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// Archive mirrors merged contract PDFs into a GCS bucket for retention.
type Archive struct {
	bucket     *storage.BucketHandle
	bucketName string
}

func NewArchive(client *storage.Client, bucket string) *Archive {
	return &Archive{bucket: client.Bucket(bucket), bucketName: bucket}
}

// Archive writes the PDF only if the object does not already exist. A
// precondition failure means an earlier run archived it; that is not a
// failure in an idempotent workflow.
func (a *Archive) Archive(ctx context.Context, name string, pdf []byte) error {
	writer := a.bucket.Object(name).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = "application/pdf"

	if _, err := writer.Write(pdf); err != nil {
		_ = writer.Close()
		if alreadyExists(err) {
			slog.Info("Merged PDF already archived.", "object", name, "bucket", a.bucketName)
			return nil
		}
		return fmt.Errorf("failed to write gs://%s/%s: %w", a.bucketName, name, err)
	}
	if err := writer.Close(); err != nil {
		if alreadyExists(err) {
			slog.Info("Merged PDF already archived.", "object", name, "bucket", a.bucketName)
			return nil
		}
		return fmt.Errorf("failed to finalize gs://%s/%s: %w", a.bucketName, name, err)
	}
	return nil
}

func alreadyExists(err error) bool {
	gerr, ok := err.(*googleapi.Error)
	return ok && gerr.Code == http.StatusPreconditionFailed
}
