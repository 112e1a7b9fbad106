package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pawhaven/transport-contracts/internal/models"
)

// ContractService exposes the two public operations: listing qualifying
// appointments and generating the contract PDFs for a day. It never writes
// back to the schedule.
type ContractService struct {
	query       *AppointmentQuery
	runner      *JobRunner
	merger      *MergeCoordinator
	recorder    *RunRecorder
	loc         *time.Location
	now         func() time.Time
	mainHubLink string
}

func NewContractService(query *AppointmentQuery, runner *JobRunner, merger *MergeCoordinator, recorder *RunRecorder, loc *time.Location, now func() time.Time, mainHubLink string) *ContractService {
	if now == nil {
		now = time.Now
	}
	return &ContractService{
		query:       query,
		runner:      runner,
		merger:      merger,
		recorder:    recorder,
		loc:         loc,
		now:         now,
		mainHubLink: mainHubLink,
	}
}

// MainHubLink returns the configured hub link for the presentation layer,
// empty when unset.
func (s *ContractService) MainHubLink() string { return s.mainHubLink }

// ListAppointments is read-only and idempotent. Unlike CreateContracts it
// may return an error; there is no partial result to preserve.
func (s *ContractService) ListAppointments(ctx context.Context, sel Selection) ([]models.AppointmentView, error) {
	records, err := s.query.Query(ctx, sel)
	if err != nil {
		return nil, err
	}
	views := make([]models.AppointmentView, 0, len(records))
	for _, r := range records {
		views = append(views, r.View())
	}
	return views, nil
}

// CreateContracts generates, stores, and merges contract PDFs for sel. It
// always returns a structured result and never an error: stage failures are
// folded into the BatchResult with ok=false alongside whatever individual
// PDFs were already produced.
func (s *ContractService) CreateContracts(ctx context.Context, sel Selection) *models.BatchResult {
	runID := uuid.NewString()
	label := s.selectionLabel(sel)
	logCtx := slog.With("runId", runID, "selection", label)

	result := s.createContracts(ctx, logCtx, sel, label)
	s.record(ctx, runID, label, result)
	return result
}

func (s *ContractService) createContracts(ctx context.Context, logCtx *slog.Logger, sel Selection, label string) *models.BatchResult {
	appts, err := s.query.Query(ctx, sel)
	if err != nil {
		logCtx.Error("Appointment query failed.", "error", err)
		return failedBatch(label, err, nil)
	}
	if len(appts) == 0 {
		return &models.BatchResult{
			OK:          false,
			Message:     fmt.Sprintf("No transport appointments for %s.", label),
			Individuals: []models.StoredFile{},
		}
	}

	individuals, jobErrs := s.runner.Run(ctx, appts)
	logCtx.Info("Created individual PDFs.", "succeeded", len(individuals), "failed", len(jobErrs))
	if len(individuals) == 0 {
		return failedBatch(label, errors.Join(jobErrs...), individuals)
	}

	outputName := fmt.Sprintf("Transportation_Contracts_%s.pdf", s.outputStamp(sel))
	merged, err := s.merger.Merge(ctx, individuals, outputName)
	if err != nil {
		logCtx.Error("Merge step failed.", "error", err)
		return failedBatch(label, err, individuals)
	}

	logCtx.Info("Contract run complete.", "count", len(individuals), "merged", merged.Name)
	return &models.BatchResult{
		OK:          true,
		Count:       len(individuals),
		Individuals: individuals,
		Merged:      merged,
	}
}

func failedBatch(label string, err error, individuals []models.StoredFile) *models.BatchResult {
	if individuals == nil {
		individuals = []models.StoredFile{}
	}
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return &models.BatchResult{
		OK:          false,
		Count:       len(individuals),
		Message:     fmt.Sprintf("Error creating contracts for %s.", label),
		Error:       detail,
		Individuals: individuals,
	}
}

func (s *ContractService) record(ctx context.Context, runID, label string, result *models.BatchResult) {
	status := "FAILED"
	if result.OK {
		status = "SUCCEEDED"
	}
	mergedURL := ""
	if result.Merged != nil {
		mergedURL = result.Merged.URL
	}
	s.recorder.Record(ctx, models.RunRecord{
		RunID:        runID,
		TargetDate:   label,
		Status:       status,
		Count:        result.Count,
		MergedURL:    mergedURL,
		ErrorDetails: result.Error,
		CreatedAt:    s.now(),
	})
}

func (s *ContractService) selectionLabel(sel Selection) string {
	if sel.Date == "" {
		return "today or tomorrow"
	}
	return sel.Date
}

// outputStamp names the merged file by day: the explicit selection date, or
// today for the default window.
func (s *ContractService) outputStamp(sel Selection) string {
	if sel.Date != "" {
		if t, ok := parseCellDate(sel.Date, s.loc); ok {
			return dayKey(t, s.loc)
		}
		return strings.ReplaceAll(sel.Date, "-", "")
	}
	return dayKey(s.now(), s.loc)
}
