package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawhaven/transport-contracts/internal/models"
)

// seededStore returns a store already holding n individual PDFs and the
// StoredFile handles pointing at them.
func seededStore(n int) (*fakeStore, []models.StoredFile) {
	store := &fakeStore{contents: make(map[string][]byte)}
	var files []models.StoredFile
	for i := 0; i < n; i++ {
		id := "file-" + string(rune('a'+i))
		store.contents[id] = []byte("%PDF " + id)
		files = append(files, models.StoredFile{ID: id, Name: "Contract_" + string(rune('A'+i)) + ".pdf", URL: "https://drive.example/" + id})
	}
	return store, files
}

func TestMergeInlineContent(t *testing.T) {
	store, files := seededStore(2)
	merged := []byte("%PDF merged")

	var gotReq models.MergeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(models.MergeResponse{
			ContentBase64: base64.StdEncoding.EncodeToString(merged),
			FileName:      "Transportation_Contracts_20250304.pdf",
		})
	}))
	defer srv.Close()

	m := NewMergeCoordinator(srv.URL, srv.Client(), store, nil, 0)
	result, err := m.Merge(context.Background(), files, "Transportation_Contracts_20250304.pdf")
	require.NoError(t, err)

	assert.Equal(t, "Transportation_Contracts_20250304.pdf", gotReq.OutputName)
	require.Len(t, gotReq.Files, 2)
	assert.Equal(t, "Contract_A.pdf", gotReq.Files[0].Name)
	decoded, derr := base64.StdEncoding.DecodeString(gotReq.Files[0].ContentBase64)
	require.NoError(t, derr)
	assert.Equal(t, []byte("%PDF file-a"), decoded)

	assert.Equal(t, "merged-1", result.ID)
	assert.Equal(t, "Transportation_Contracts_20250304.pdf", result.Name)
	assert.Equal(t, merged, store.mergedData)
}

func TestMergeFileURLOnly(t *testing.T) {
	store, files := seededStore(1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.MergeResponse{FileURL: "https://merge.example/out/abc.pdf"})
	}))
	defer srv.Close()

	m := NewMergeCoordinator(srv.URL, srv.Client(), store, nil, 0)
	result, err := m.Merge(context.Background(), files, "out.pdf")
	require.NoError(t, err)

	assert.Empty(t, result.ID)
	assert.Equal(t, "out.pdf", result.Name)
	assert.Equal(t, "https://merge.example/out/abc.pdf", result.URL)
	// A reference URL means nothing to store locally.
	assert.Nil(t, store.mergedData)
}

func TestMergeServiceFailure(t *testing.T) {
	store, files := seededStore(1)
	longBody := strings.Repeat("x", 1000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(longBody))
	}))
	defer srv.Close()

	m := NewMergeCoordinator(srv.URL, srv.Client(), store, nil, 0)
	_, err := m.Merge(context.Background(), files, "out.pdf")

	var msErr *MergeServiceError
	require.ErrorAs(t, err, &msErr)
	assert.Equal(t, http.StatusInternalServerError, msErr.StatusCode)
	assert.Len(t, msErr.Body, 300)
}

func TestMergeInvalidJSON(t *testing.T) {
	store, files := seededStore(1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	m := NewMergeCoordinator(srv.URL, srv.Client(), store, nil, 0)
	_, err := m.Merge(context.Background(), files, "out.pdf")
	require.ErrorIs(t, err, ErrInvalidMergeResponse)
}

func TestMergeEmptyResponseBody(t *testing.T) {
	store, files := seededStore(1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	m := NewMergeCoordinator(srv.URL, srv.Client(), store, nil, 0)
	_, err := m.Merge(context.Background(), files, "out.pdf")
	require.ErrorIs(t, err, ErrInvalidMergeResponse)
	assert.Contains(t, err.Error(), "neither inline content nor a file URL")
}

// Payload order must track input order even when downloads finish out of
// order.
func TestMergePayloadOrder(t *testing.T) {
	store, files := seededStore(4)
	store.readDelay = map[string]time.Duration{
		files[0].ID: 30 * time.Millisecond,
		files[1].ID: 10 * time.Millisecond,
	}

	var gotReq models.MergeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(models.MergeResponse{FileURL: "https://merge.example/out.pdf"})
	}))
	defer srv.Close()

	m := NewMergeCoordinator(srv.URL, srv.Client(), store, nil, 0)
	_, err := m.Merge(context.Background(), files, "out.pdf")
	require.NoError(t, err)

	require.Len(t, gotReq.Files, 4)
	for i, f := range files {
		assert.Equal(t, f.Name, gotReq.Files[i].Name)
	}
}

func TestMergeReadFailure(t *testing.T) {
	store, files := seededStore(2)
	delete(store.contents, files[1].ID)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("merge endpoint must not be called when the payload cannot be built")
	}))
	defer srv.Close()

	m := NewMergeCoordinator(srv.URL, srv.Client(), store, nil, 0)
	_, err := m.Merge(context.Background(), files, "out.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collect merge payload")
	assert.Contains(t, err.Error(), files[1].Name)
}

// The pre-merge settle must elapse before any individual PDF is read back.
func TestMergeWaitsOutSettle(t *testing.T) {
	store, files := seededStore(1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.MergeResponse{FileURL: "https://merge.example/out.pdf"})
	}))
	defer srv.Close()

	settle := 40 * time.Millisecond
	m := NewMergeCoordinator(srv.URL, srv.Client(), store, nil, settle)

	start := time.Now()
	_, err := m.Merge(context.Background(), files, "out.pdf")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), settle)
}

func TestMergeSettleStopsOnCancel(t *testing.T) {
	store, files := seededStore(1)
	m := NewMergeCoordinator("http://unreachable.invalid/merge", nil, store, nil, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	_, err := m.Merge(ctx, files, "out.pdf")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestMergeArchivesInlineContent(t *testing.T) {
	store, files := seededStore(1)
	arch := &fakeArchiver{}
	merged := []byte("%PDF merged")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.MergeResponse{
			ContentBase64: base64.StdEncoding.EncodeToString(merged),
		})
	}))
	defer srv.Close()

	m := NewMergeCoordinator(srv.URL, srv.Client(), store, arch, 0)
	result, err := m.Merge(context.Background(), files, "out.pdf")
	require.NoError(t, err)

	// No service name means the requested output name sticks.
	assert.Equal(t, "out.pdf", result.Name)
	require.Len(t, arch.names, 1)
	assert.Equal(t, "out.pdf", arch.names[0])
	assert.Equal(t, merged, arch.data[0])
}
