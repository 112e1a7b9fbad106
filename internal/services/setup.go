package services

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"

	"github.com/pawhaven/transport-contracts/internal/config"
	"github.com/pawhaven/transport-contracts/internal/gcp"
	"github.com/pawhaven/transport-contracts/internal/merger"
)

// NewFromConfig builds the production service with Google-backed
// collaborators. The optional archive and run-history pieces are wired only
// when their config values are present.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*ContractService, error) {
	if cfg.Sheet.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheet.spreadsheet_id must be set")
	}
	if cfg.Template.SlidesID == "" {
		return nil, fmt.Errorf("template.slides_id must be set")
	}
	if cfg.Drive.TempFolderID == "" || cfg.Drive.IndividualFolderID == "" || cfg.Drive.MergedFolderID == "" {
		return nil, fmt.Errorf("all three drive folder IDs must be set")
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}

	sheetsSvc, err := gcp.NewSheetsService(ctx)
	if err != nil {
		return nil, err
	}
	driveSvc, err := gcp.NewDriveService(ctx)
	if err != nil {
		return nil, err
	}
	slidesSvc, err := gcp.NewSlidesService(ctx)
	if err != nil {
		return nil, err
	}

	source := gcp.NewSpreadsheetSource(sheetsSvc, cfg.Sheet.SpreadsheetID, cfg.Sheet.GID)
	renderer := gcp.NewSlidesTemplate(driveSvc, slidesSvc, cfg.Template.SlidesID, cfg.Drive.TempFolderID)
	store := gcp.NewDriveStore(driveSvc, cfg.Drive.IndividualFolderID, cfg.Drive.MergedFolderID)

	var archiver Archiver
	if cfg.Archive.Bucket != "" {
		storageClient, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		archiver = gcp.NewArchive(storageClient, cfg.Archive.Bucket)
	}

	var recorder *RunRecorder
	if cfg.RunHistory.ProjectID != "" {
		fsClient, err := gcp.NewFirestoreClient(ctx, cfg.RunHistory.ProjectID)
		if err != nil {
			return nil, err
		}
		recorder = NewRunRecorder(fsClient, cfg.RunHistory.Collection)
	}

	query := NewAppointmentQuery(source, loc, nil)
	runner := NewJobRunner(
		renderer,
		store,
		merger.ValidatePDF,
		time.Duration(cfg.Settle.SubstitutionMs)*time.Millisecond,
		time.Duration(cfg.Settle.ExportMs)*time.Millisecond,
		loc,
		nil,
	)
	coordinator := NewMergeCoordinator(cfg.Merge.URL, nil, store, archiver,
		time.Duration(cfg.Settle.PreMergeMs)*time.Millisecond)

	return NewContractService(query, runner, coordinator, recorder, loc, nil, cfg.MainHubLink), nil
}
