package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pawhaven/transport-contracts/internal/models"
)

func testLoc(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

func fixedNow(loc *time.Location) func() time.Time {
	return func() time.Time {
		return time.Date(2025, time.March, 4, 10, 30, 0, 0, loc)
	}
}

func testHeader() []any {
	return []any{
		"Date", "Appointment Status", "Transportation Needed", "First Name",
		"Last Name", "Address", "City", "State", "Zip Code", "Phone Number",
		"Email", "Pet Name", "Species", "Breed One", "Breed Two", "Age",
		"Sex", "Color", "Appointment Type",
	}
}

// rowFromMap builds a data row aligned with testHeader; unnamed cells are
// empty strings.
func rowFromMap(fields map[string]any) []any {
	header := testHeader()
	row := make([]any, len(header))
	for i := range row {
		row[i] = ""
	}
	for key, value := range fields {
		for i, h := range header {
			if h == key {
				row[i] = value
			}
		}
	}
	return row
}

// scheduledRow is a fully qualifying row for the given date and name.
func scheduledRow(date any, first, last string) map[string]any {
	return map[string]any{
		"Date":                  date,
		"Appointment Status":    "Scheduled",
		"Transportation Needed": "yes",
		"First Name":            first,
		"Last Name":             last,
		"Address":               "12 Oak St",
		"City":                  "Albany",
		"State":                 "NY",
		"Zip Code":              "12207",
		"Phone Number":          "555-0100",
		"Email":                 "owner@example.com",
		"Pet Name":              "Biscuit",
		"Species":               "Dog",
		"Breed One":             "Beagle",
		"Age":                   "4",
		"Sex":                   "M",
		"Color":                 "Tricolor",
		"Appointment Type":      "Surgery",
	}
}

type fakeSource struct {
	rows  [][]any
	err   error
	calls int
}

func (f *fakeSource) Rows(ctx context.Context) ([][]any, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

type fakeRenderer struct {
	cloneCalls   int
	failCloneOn  int // 1-based clone call to fail; 0 means never
	cloneNames   []string
	replacements map[string]map[string]string
	replaceErr   error
	exportCalls  int
	failExportOn int // 1-based export call to fail; 0 means never
	pdf          []byte
	discarded    []string
	discardErr   error
}

func (r *fakeRenderer) Clone(ctx context.Context, name string) (string, error) {
	r.cloneCalls++
	if r.failCloneOn == r.cloneCalls {
		return "", errors.New("clone failed")
	}
	r.cloneNames = append(r.cloneNames, name)
	return fmt.Sprintf("clone-%d", r.cloneCalls), nil
}

func (r *fakeRenderer) ReplaceText(ctx context.Context, docID string, replacements map[string]string) error {
	if r.replacements == nil {
		r.replacements = make(map[string]map[string]string)
	}
	r.replacements[docID] = replacements
	return r.replaceErr
}

func (r *fakeRenderer) ExportPDF(ctx context.Context, docID string) ([]byte, error) {
	r.exportCalls++
	if r.failExportOn == r.exportCalls {
		return nil, errors.New("export failed")
	}
	if r.pdf != nil {
		return r.pdf, nil
	}
	return []byte("%PDF-1.4 " + docID), nil
}

func (r *fakeRenderer) Discard(ctx context.Context, docID string) error {
	r.discarded = append(r.discarded, docID)
	return r.discardErr
}

type fakeStore struct {
	nextID     int
	saved      map[string][]byte // individual name → bytes
	contents   map[string][]byte // file ID → bytes
	mergedName string
	mergedData []byte
	saveErr    error
	readErr    error
	readDelay  map[string]time.Duration
}

func (s *fakeStore) SaveIndividual(ctx context.Context, name string, pdf []byte) (models.StoredFile, error) {
	if s.saveErr != nil {
		return models.StoredFile{}, s.saveErr
	}
	s.nextID++
	id := fmt.Sprintf("file-%d", s.nextID)
	if s.saved == nil {
		s.saved = make(map[string][]byte)
	}
	if s.contents == nil {
		s.contents = make(map[string][]byte)
	}
	s.saved[name] = pdf
	s.contents[id] = pdf
	return models.StoredFile{ID: id, Name: name, URL: "https://drive.example/" + id}, nil
}

func (s *fakeStore) SaveMerged(ctx context.Context, name string, pdf []byte) (models.StoredFile, error) {
	s.mergedName = name
	s.mergedData = pdf
	return models.StoredFile{ID: "merged-1", Name: name, URL: "https://drive.example/merged-1"}, nil
}

func (s *fakeStore) ReadIndividual(ctx context.Context, id string) ([]byte, error) {
	if d, ok := s.readDelay[id]; ok {
		time.Sleep(d)
	}
	if s.readErr != nil {
		return nil, s.readErr
	}
	data, ok := s.contents[id]
	if !ok {
		return nil, fmt.Errorf("no such file %s", id)
	}
	return data, nil
}

type fakeArchiver struct {
	names []string
	data  [][]byte
	err   error
}

func (a *fakeArchiver) Archive(ctx context.Context, name string, pdf []byte) error {
	a.names = append(a.names, name)
	a.data = append(a.data, pdf)
	return a.err
}
