package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pawhaven/transport-contracts/internal/models"
)

// Placeholder tokens replaced document-wide in the contract template.
const (
	tokenDate         = "{{Date}}"
	tokenName         = "{{Name}}"
	tokenAddress      = "{{Address}}"
	tokenAddress2     = "{{Address2}}"
	tokenPhone        = "{{Phone}}"
	tokenEmail        = "{{Email}}"
	tokenPetName      = "{{PetName}}"
	tokenSpeciesBreed = "{{Species_Breed}}"
	tokenAgeSexColor  = "{{AgeSexColor}}"
	tokenApptType     = "{{ApptType}}"
)

// placeholderMap binds every declared token to its field value. Empty
// fields substitute the empty string, wiping the token from the document.
func placeholderMap(a models.AppointmentRecord) map[string]string {
	return map[string]string{
		tokenDate:         a.Date,
		tokenName:         a.Name,
		tokenAddress:      a.Address1,
		tokenAddress2:     a.Address2,
		tokenPhone:        a.Phone,
		tokenEmail:        a.Email,
		tokenPetName:      a.PetName,
		tokenSpeciesBreed: a.SpeciesBreed,
		tokenAgeSexColor:  a.AgeSexColor,
		tokenApptType:     a.ApptType,
	}
}

// TemplateRenderer drives the templated contract document: cloning,
// document-wide text substitution, PDF export, and discarding of temporary
// clones.
type TemplateRenderer interface {
	Clone(ctx context.Context, name string) (string, error)
	ReplaceText(ctx context.Context, docID string, replacements map[string]string) error
	ExportPDF(ctx context.Context, docID string) ([]byte, error)
	Discard(ctx context.Context, docID string) error
}

// ContractStore persists generated PDFs into the individual and merged
// output locations and retrieves individual PDFs for merging.
type ContractStore interface {
	SaveIndividual(ctx context.Context, name string, pdf []byte) (models.StoredFile, error)
	SaveMerged(ctx context.Context, name string, pdf []byte) (models.StoredFile, error)
	ReadIndividual(ctx context.Context, id string) ([]byte, error)
}

// PDFValidator checks exported bytes before they are stored.
type PDFValidator func(pdf []byte) error

// JobRunner turns qualifying appointments into stored individual PDFs.
type JobRunner struct {
	renderer           TemplateRenderer
	store              ContractStore
	validate           PDFValidator
	substitutionSettle time.Duration
	exportSettle       time.Duration
	loc                *time.Location
	now                func() time.Time
}

func NewJobRunner(renderer TemplateRenderer, store ContractStore, validate PDFValidator, substitutionSettle, exportSettle time.Duration, loc *time.Location, now func() time.Time) *JobRunner {
	if now == nil {
		now = time.Now
	}
	return &JobRunner{
		renderer:           renderer,
		store:              store,
		validate:           validate,
		substitutionSettle: substitutionSettle,
		exportSettle:       exportSettle,
		loc:                loc,
		now:                now,
	}
}

// Run processes appointments in source order. A failing job is logged with
// the appointment's display name and skipped so the rest of the batch still
// generates. Every temporary clone is discarded afterwards no matter how
// its job ended; a discard failure is logged, never re-raised.
func (r *JobRunner) Run(ctx context.Context, appointments []models.AppointmentRecord) ([]models.StoredFile, []error) {
	var results []models.StoredFile
	var jobErrs []error
	var clones []string
	defer func() {
		for _, id := range clones {
			if err := r.renderer.Discard(ctx, id); err != nil {
				slog.Warn("Failed to discard temporary clone.", "cloneId", id, "error", err)
			}
		}
	}()

	for _, appt := range appointments {
		stored, cloneID, err := r.runOne(ctx, appt)
		if cloneID != "" {
			clones = append(clones, cloneID)
		}
		if err != nil {
			slog.Error("Contract generation failed for appointment.", "name", appt.Name, "row", appt.RowIndex, "error", err)
			jobErrs = append(jobErrs, fmt.Errorf("%s: %w", appt.Name, err))
			continue
		}
		results = append(results, stored)
	}
	return results, jobErrs
}

// runOne drives clone → substitute → export → store for one appointment.
// The clone ID is returned even on failure so the caller can clean it up.
func (r *JobRunner) runOne(ctx context.Context, a models.AppointmentRecord) (models.StoredFile, string, error) {
	cloneName := r.cloneName(a.Name)
	cloneID, err := r.renderer.Clone(ctx, cloneName)
	if err != nil {
		return models.StoredFile{}, "", fmt.Errorf("clone template: %w", err)
	}
	if err := r.renderer.ReplaceText(ctx, cloneID, placeholderMap(a)); err != nil {
		return models.StoredFile{}, cloneID, fmt.Errorf("substitute placeholders: %w", err)
	}
	// Let the substitution commit before the export reads the document.
	settleWait(ctx, r.substitutionSettle)
	settleWait(ctx, r.exportSettle)
	pdf, err := r.renderer.ExportPDF(ctx, cloneID)
	if err != nil {
		return models.StoredFile{}, cloneID, fmt.Errorf("export PDF: %w", err)
	}
	if err := r.checkPDF(pdf); err != nil {
		return models.StoredFile{}, cloneID, fmt.Errorf("exported PDF failed validation: %w", err)
	}
	stored, err := r.store.SaveIndividual(ctx, cloneName+".pdf", pdf)
	if err != nil {
		return models.StoredFile{}, cloneID, fmt.Errorf("store individual PDF: %w", err)
	}
	return stored, cloneID, nil
}

func (r *JobRunner) checkPDF(pdf []byte) error {
	if r.validate != nil {
		return r.validate(pdf)
	}
	if len(pdf) == 0 {
		return fmt.Errorf("empty PDF")
	}
	return nil
}

// cloneName builds a sanitized, collision-resistant temporary name from the
// appointment's display name, a timestamp, and a short random suffix.
func (r *JobRunner) cloneName(name string) string {
	stamp := r.now().In(r.loc).Format("20060102_150405")
	return fmt.Sprintf("TransportContract_%s_%s_%s", sanitizeName(name), stamp, uuid.NewString()[:8])
}

// settleWait waits out a settle delay, returning early only when the
// context ends.
func settleWait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
