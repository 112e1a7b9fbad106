package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pawhaven/transport-contracts/internal/models"
)

// Required column headers, exactly as they appear in row 0 of the schedule.
const (
	colDate       = "Date"
	colApptStatus = "Appointment Status"
	colTransport  = "Transportation Needed"
	colFirst      = "First Name"
	colLast       = "Last Name"
	colAddress    = "Address"
	colCity       = "City"
	colState      = "State"
	colZip        = "Zip Code"
	colPhone      = "Phone Number"
	colEmail      = "Email"
	colPetName    = "Pet Name"
	colSpecies    = "Species"
	colBreedOne   = "Breed One"
	colBreedTwo   = "Breed Two"
	colAge        = "Age"
	colSex        = "Sex"
	colColor      = "Color"
	colApptType   = "Appointment Type"
)

var requiredColumns = []string{
	colDate, colApptStatus, colTransport, colFirst, colLast, colAddress,
	colCity, colState, colZip, colPhone, colEmail, colPetName, colSpecies,
	colBreedOne, colBreedTwo, colAge, colSex, colColor, colApptType,
}

// columnIndex maps header names to cell positions. It is validated once per
// query; a missing required column fails the query up front instead of
// silently reading empty strings.
type columnIndex map[string]int

func newColumnIndex(header []any) (columnIndex, error) {
	idx := make(columnIndex, len(header))
	for i, h := range header {
		idx[cellString(h)] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("schedule header is missing required columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

// cell returns the trimmed string value of the named column, or the empty
// string when the row is shorter than the header.
func (idx columnIndex) cell(row []any, column string) string {
	return cellString(idx.raw(row, column))
}

// raw returns the untyped cell value for columns whose type matters, such
// as the date column.
func (idx columnIndex) raw(row []any, column string) any {
	i, ok := idx[column]
	if !ok || i >= len(row) {
		return nil
	}
	return row[i]
}

// cellString trims and stringifies a raw cell; nil is the empty string.
func cellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(c)
	default:
		return strings.TrimSpace(fmt.Sprint(c))
	}
}

var slashDate = regexp.MustCompile(`^(\d{1,2})[/\-](\d{1,2})[/\-](\d{4})$`)

// sheetDateEpoch is day zero of the spreadsheet serial date system.
var sheetDateEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// fallbackDateLayouts are tried, in order, for textual dates that are not
// MM/DD/YYYY.
var fallbackDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"January 2, 2006",
	"Jan 2, 2006",
}

// parseCellDate interprets a raw date cell: a native time value, a
// spreadsheet serial number, MM/DD/YYYY with '/' or '-' separators, or any
// of the generic fallback layouts. The boolean is false when nothing
// parses, which gates the row out downstream.
func parseCellDate(v any, loc *time.Location) (time.Time, bool) {
	switch c := v.(type) {
	case time.Time:
		if c.IsZero() {
			return time.Time{}, false
		}
		return c, true
	case float64:
		if c <= 0 {
			return time.Time{}, false
		}
		// Serial day counts carry no zone; rebuild the calendar day in the
		// canonical zone so the day key cannot shift.
		d := sheetDateEpoch.AddDate(0, 0, int(c))
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc), true
	}

	s := cellString(v)
	if s == "" {
		return time.Time{}, false
	}
	if m := slashDate.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return time.Time{}, false
		}
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc), true
	}
	for _, layout := range fallbackDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// joinNonEmpty joins the non-empty parts with sep, so optional sub-fields
// never leave leading, trailing, or doubled separators.
func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_.\- ]+`)

// maxStoredNameLen satisfies the storage naming constraints.
const maxStoredNameLen = 80

// sanitizeName makes a string safe for storage object names: any run of
// characters outside [A-Za-z0-9_.- ] collapses to a single '_', and the
// result is capped at 80 characters.
func sanitizeName(s string) string {
	s = unsafeNameChars.ReplaceAllString(strings.TrimSpace(s), "_")
	if len(s) > maxStoredNameLen {
		s = s[:maxStoredNameLen]
	}
	return s
}

// displayDateLayout matches the long date shown on the contract.
const displayDateLayout = "January 2, 2006"

// normalizeRow shapes one data row into a typed record. Gating (status,
// transport flag, date validity, date match) is the query's job; by the time
// a row reaches here it has already qualified.
func normalizeRow(idx columnIndex, row []any, rowIndex int, raw time.Time, loc *time.Location) models.AppointmentRecord {
	breeds := joinNonEmpty(" / ", idx.cell(row, colBreedOne), idx.cell(row, colBreedTwo))
	return models.AppointmentRecord{
		RowIndex:     rowIndex,
		RawDate:      raw,
		Date:         raw.In(loc).Format(displayDateLayout),
		Name:         joinNonEmpty(" ", idx.cell(row, colFirst), idx.cell(row, colLast)),
		Address1:     idx.cell(row, colAddress),
		Address2:     joinNonEmpty(", ", idx.cell(row, colCity), idx.cell(row, colState), idx.cell(row, colZip)),
		Phone:        idx.cell(row, colPhone),
		Email:        idx.cell(row, colEmail),
		PetName:      idx.cell(row, colPetName),
		ApptType:     idx.cell(row, colApptType),
		SpeciesBreed: joinNonEmpty(" • ", idx.cell(row, colSpecies), breeds),
		AgeSexColor:  joinNonEmpty(" • ", idx.cell(row, colAge), idx.cell(row, colSex), idx.cell(row, colColor)),
	}
}
