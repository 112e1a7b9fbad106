package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"
	"google.golang.org/api/slides/v1"
)

// Client constructors for the Google APIs this system depends on. All of
// them authenticate with Application Default Credentials.

func NewSheetsService(ctx context.Context) (*sheets.Service, error) {
	svc, err := sheets.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}
	return svc, nil
}

func NewDriveService(ctx context.Context) (*drive.Service, error) {
	svc, err := drive.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}
	return svc, nil
}

func NewSlidesService(ctx context.Context) (*slides.Service, error) {
	svc, err := slides.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Slides service: %w", err)
	}
	return svc, nil
}

func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return client, nil
}
