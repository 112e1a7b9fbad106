package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pawhaven/transport-contracts/internal/models"
)

// ErrInvalidMergeResponse reports a 2xx merge reply whose body was not the
// JSON the service contract promises.
var ErrInvalidMergeResponse = errors.New("invalid merge service response")

// MergeServiceError is a non-2xx reply from the merge endpoint.
type MergeServiceError struct {
	StatusCode int
	// Body is truncated to mergeBodyLogLimit for diagnostics.
	Body string
}

func (e *MergeServiceError) Error() string {
	return fmt.Sprintf("merge service returned %d: %s", e.StatusCode, e.Body)
}

// Archiver optionally mirrors the merged PDF to long-term storage.
type Archiver interface {
	Archive(ctx context.Context, name string, pdf []byte) error
}

const (
	// mergeFetchLimit bounds the concurrent downloads when building the
	// merge payload.
	mergeFetchLimit = 4
	// mergeBodyLogLimit caps how much of an error body travels in logs.
	mergeBodyLogLimit = 300
)

// MergeCoordinator combines the individual PDFs through the remote merge
// service and persists the result.
type MergeCoordinator struct {
	url      string
	client   *http.Client
	store    ContractStore
	archiver Archiver // nil when no archive bucket is configured
	settle   time.Duration
}

func NewMergeCoordinator(url string, client *http.Client, store ContractStore, archiver Archiver, settle time.Duration) *MergeCoordinator {
	if client == nil {
		client = http.DefaultClient
	}
	return &MergeCoordinator{url: url, client: client, store: store, archiver: archiver, settle: settle}
}

// Merge sends every stored individual PDF to the merge endpoint in one
// synchronous request and stores the combined document under outputName.
// When the service answers with a reference URL instead of bytes, the
// result carries that URL and no local ID.
func (m *MergeCoordinator) Merge(ctx context.Context, individuals []models.StoredFile, outputName string) (*models.MergeResult, error) {
	// Let the just-uploaded individual PDFs settle before reading them back.
	settleWait(ctx, m.settle)
	payload, err := m.buildPayload(ctx, individuals, outputName)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode merge request: %w", err)
	}

	slog.Info("Merging individual PDFs.", "count", len(individuals), "url", m.url)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build merge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call merge service: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read merge response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &MergeServiceError{StatusCode: resp.StatusCode, Body: truncate(string(raw), mergeBodyLogLimit)}
	}

	var mr models.MergeResponse
	if err := json.Unmarshal(raw, &mr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMergeResponse, err)
	}
	switch {
	case mr.ContentBase64 != "":
		pdf, err := base64.StdEncoding.DecodeString(mr.ContentBase64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad base64 content: %v", ErrInvalidMergeResponse, err)
		}
		name := mr.FileName
		if name == "" {
			name = outputName
		}
		stored, err := m.store.SaveMerged(ctx, name, pdf)
		if err != nil {
			return nil, fmt.Errorf("store merged PDF: %w", err)
		}
		m.archive(ctx, stored.Name, pdf)
		return &models.MergeResult{ID: stored.ID, Name: stored.Name, URL: stored.URL}, nil
	case mr.FileURL != "":
		return &models.MergeResult{Name: outputName, URL: mr.FileURL}, nil
	default:
		return nil, fmt.Errorf("%w: neither inline content nor a file URL", ErrInvalidMergeResponse)
	}
}

// buildPayload fetches each individual PDF and base64-encodes it. Downloads
// run on a bounded group; results are index-addressed so payload order
// always equals source order.
func (m *MergeCoordinator) buildPayload(ctx context.Context, individuals []models.StoredFile, outputName string) (*models.MergeRequest, error) {
	files := make([]models.MergeFile, len(individuals))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(mergeFetchLimit)
	for i, f := range individuals {
		eg.Go(func() error {
			data, err := m.store.ReadIndividual(gctx, f.ID)
			if err != nil {
				return fmt.Errorf("read %s: %w", f.Name, err)
			}
			name := f.Name
			if name == "" {
				name = f.ID + ".pdf"
			}
			files[i] = models.MergeFile{Name: name, ContentBase64: base64.StdEncoding.EncodeToString(data)}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("collect merge payload: %w", err)
	}
	return &models.MergeRequest{OutputName: outputName, Files: files}, nil
}

func (m *MergeCoordinator) archive(ctx context.Context, name string, pdf []byte) {
	if m.archiver == nil {
		return
	}
	if err := m.archiver.Archive(ctx, name, pdf); err != nil {
		slog.Warn("Failed to archive merged PDF.", "name", name, "error", err)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
