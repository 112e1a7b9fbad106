package services

import (
	"context"
	"log/slog"

	"cloud.google.com/go/firestore"

	"github.com/pawhaven/transport-contracts/internal/models"
)

// RunRecorder keeps a best-effort history of contract runs in Firestore. A
// nil recorder is valid and records nothing.
type RunRecorder struct {
	client     *firestore.Client
	collection string
}

func NewRunRecorder(client *firestore.Client, collection string) *RunRecorder {
	return &RunRecorder{client: client, collection: collection}
}

// Record writes one audit entry. It never fails the run; a write error is
// only logged.
func (r *RunRecorder) Record(ctx context.Context, rec models.RunRecord) {
	if r == nil || r.client == nil {
		return
	}
	if _, _, err := r.client.Collection(r.collection).Add(ctx, rec); err != nil {
		slog.Warn("Failed to record run history.", "runId", rec.RunID, "error", err)
	}
}
