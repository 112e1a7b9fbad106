package gcp

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/sheets/v4"

	"github.com/pawhaven/transport-contracts/internal/models"
)

// SpreadsheetSource reads the schedule grid from one sheet tab, addressed
// by spreadsheet ID and GID the way the scheduling team shares links. It is
// strictly read-only.
type SpreadsheetSource struct {
	svc           *sheets.Service
	spreadsheetID string
	gid           int64
}

func NewSpreadsheetSource(svc *sheets.Service, spreadsheetID string, gid int64) *SpreadsheetSource {
	return &SpreadsheetSource{svc: svc, spreadsheetID: spreadsheetID, gid: gid}
}

// Rows loads the full data range of the tab once. A missing spreadsheet or
// an unknown GID maps to models.ErrSourceNotFound.
func (s *SpreadsheetSource) Rows(ctx context.Context) ([][]any, error) {
	meta, err := s.svc.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets(properties(sheetId,title))").
		Context(ctx).Do()
	if err != nil {
		if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: spreadsheet %s", models.ErrSourceNotFound, s.spreadsheetID)
		}
		return nil, fmt.Errorf("failed to load spreadsheet metadata: %w", err)
	}

	title := ""
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.SheetId == s.gid {
			title = sh.Properties.Title
			break
		}
	}
	if title == "" {
		return nil, fmt.Errorf("%w: no sheet with GID %d in %s", models.ErrSourceNotFound, s.gid, s.spreadsheetID)
	}

	vr, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, fmt.Sprintf("'%s'", title)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", title, err)
	}
	return vr.Values, nil
}
