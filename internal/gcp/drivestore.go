package gcp

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/pawhaven/transport-contracts/internal/models"
)

// DriveStore persists contract PDFs into the individual and merged Drive
// folders and fetches individual PDFs back for merging.
type DriveStore struct {
	drive              *drive.Service
	individualFolderID string
	mergedFolderID     string
}

func NewDriveStore(driveSvc *drive.Service, individualFolderID, mergedFolderID string) *DriveStore {
	return &DriveStore{
		drive:              driveSvc,
		individualFolderID: individualFolderID,
		mergedFolderID:     mergedFolderID,
	}
}

func (s *DriveStore) SaveIndividual(ctx context.Context, name string, pdf []byte) (models.StoredFile, error) {
	return s.save(ctx, s.individualFolderID, name, pdf)
}

func (s *DriveStore) SaveMerged(ctx context.Context, name string, pdf []byte) (models.StoredFile, error) {
	return s.save(ctx, s.mergedFolderID, name, pdf)
}

func (s *DriveStore) save(ctx context.Context, folderID, name string, pdf []byte) (models.StoredFile, error) {
	f, err := s.drive.Files.Create(&drive.File{
		Name:     name,
		Parents:  []string{folderID},
		MimeType: pdfMimeType,
	}).Media(bytes.NewReader(pdf), googleapi.ContentType(pdfMimeType)).
		Fields("id, name, webViewLink").
		Context(ctx).Do()
	if err != nil {
		return models.StoredFile{}, fmt.Errorf("failed to create %s in folder %s: %w", name, folderID, err)
	}
	return models.StoredFile{ID: f.Id, Name: f.Name, URL: f.WebViewLink}, nil
}

// ReadIndividual downloads the raw bytes of a stored individual PDF.
func (s *DriveStore) ReadIndividual(ctx context.Context, id string) ([]byte, error) {
	resp, err := s.drive.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", id, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", id, err)
	}
	return data, nil
}
