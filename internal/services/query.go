package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pawhaven/transport-contracts/internal/models"
)

// SheetSource reads the full schedule grid, header row included. Row 0
// names the columns. Implementations must be read-only and report a missing
// spreadsheet or tab with models.ErrSourceNotFound.
type SheetSource interface {
	Rows(ctx context.Context) ([][]any, error)
}

// AppointmentQuery filters the schedule down to qualifying appointments. It
// is safe to call repeatedly; the only side effect is a diagnostic log line.
type AppointmentQuery struct {
	source SheetSource
	loc    *time.Location
	now    func() time.Time
}

func NewAppointmentQuery(source SheetSource, loc *time.Location, now func() time.Time) *AppointmentQuery {
	if now == nil {
		now = time.Now
	}
	return &AppointmentQuery{source: source, loc: loc, now: now}
}

// Query returns the qualifying appointments for sel in source row order. A
// row qualifies only when all three gates hold at once: status is exactly
// "Scheduled", the transport flag is "yes" in any case, and the date parses
// and falls on a selected day. Fewer than two rows (header plus one data
// row) yields an empty result, not an error.
func (q *AppointmentQuery) Query(ctx context.Context, sel Selection) ([]models.AppointmentRecord, error) {
	filter, err := newDateFilter(sel, q.now(), q.loc)
	if err != nil {
		return nil, err
	}
	values, err := q.source.Rows(ctx)
	if err != nil {
		return nil, err
	}
	if len(values) < 2 {
		slog.Info("Schedule has no data rows.", "selection", filter.label)
		return nil, nil
	}
	idx, err := newColumnIndex(values[0])
	if err != nil {
		return nil, err
	}

	var out []models.AppointmentRecord
	for i, row := range values[1:] {
		status := idx.cell(row, colApptStatus)
		transport := idx.cell(row, colTransport)
		raw, ok := parseCellDate(idx.raw(row, colDate), q.loc)
		if status != "Scheduled" || !strings.EqualFold(transport, "yes") || !ok || !filter.matches(raw, q.loc) {
			continue
		}
		// Row numbering matches the sheet: header is row 1.
		out = append(out, normalizeRow(idx, row, i+2, raw, q.loc))
	}
	slog.Info("Queried transport appointments.", "selection", filter.label, "count", len(out))
	return out, nil
}
