package gcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/slides/v1"
)

const pdfMimeType = "application/pdf"

// SlidesTemplate implements the contract template collaborator on top of a
// Google Slides deck: Drive copies it into the temp folder, Slides rewrites
// the placeholder tokens, Drive exports the result as PDF.
type SlidesTemplate struct {
	drive        *drive.Service
	slides       *slides.Service
	templateID   string
	tempFolderID string
}

func NewSlidesTemplate(driveSvc *drive.Service, slidesSvc *slides.Service, templateID, tempFolderID string) *SlidesTemplate {
	return &SlidesTemplate{
		drive:        driveSvc,
		slides:       slidesSvc,
		templateID:   templateID,
		tempFolderID: tempFolderID,
	}
}

// Clone copies the template into the temporary folder under the given name
// and returns the clone's file ID.
func (t *SlidesTemplate) Clone(ctx context.Context, name string) (string, error) {
	f, err := t.drive.Files.Copy(t.templateID, &drive.File{
		Name:    name,
		Parents: []string{t.tempFolderID},
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to copy template %s: %w", t.templateID, err)
	}
	return f.Id, nil
}

// ReplaceText rewrites each token document-wide with its value, one request
// per token so a rejected token cannot abort the remaining substitutions. A
// partially substituted document beats an aborted run; per-token failures
// are logged and swallowed.
func (t *SlidesTemplate) ReplaceText(ctx context.Context, docID string, replacements map[string]string) error {
	for token, value := range replacements {
		req := &slides.BatchUpdatePresentationRequest{
			Requests: []*slides.Request{{
				ReplaceAllText: &slides.ReplaceAllTextRequest{
					ContainsText: &slides.SubstringMatchCriteria{Text: token, MatchCase: true},
					ReplaceText:  value,
				},
			}},
		}
		if _, err := t.slides.Presentations.BatchUpdate(docID, req).Context(ctx).Do(); err != nil {
			slog.Warn("Placeholder substitution failed for token.", "token", token, "presentationId", docID, "error", err)
		}
	}
	return nil
}

// ExportPDF renders the clone to PDF bytes via Drive export.
func (t *SlidesTemplate) ExportPDF(ctx context.Context, docID string) ([]byte, error) {
	resp, err := t.drive.Files.Export(docID, pdfMimeType).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to export %s as PDF: %w", docID, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF export of %s: %w", docID, err)
	}
	return data, nil
}

// Discard trashes a temporary clone.
func (t *SlidesTemplate) Discard(ctx context.Context, docID string) error {
	if _, err := t.drive.Files.Update(docID, &drive.File{Trashed: true}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to trash clone %s: %w", docID, err)
	}
	return nil
}
