package models

import "time"

// StoredFile identifies a PDF persisted by the storage collaborator. It
// names the artifact, never the data it was generated from.
type StoredFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// MergeResult describes the final merged artifact. ID is empty when the
// merge service returned a reference URL instead of file bytes, in which
// case nothing was stored locally.
type MergeResult struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// BatchResult is the single return value of a full contract run. It is
// constructed once per invocation and handed to the caller; the service
// keeps no reference to it.
type BatchResult struct {
	OK          bool         `json:"ok"`
	Count       int          `json:"count"`
	Message     string       `json:"message,omitempty"`
	Error       string       `json:"error,omitempty"`
	Individuals []StoredFile `json:"individuals"`
	Merged      *MergeResult `json:"merged"`
}

// RunRecord is the Firestore audit entry written after each contract run.
type RunRecord struct {
	RunID        string    `firestore:"runId,omitempty"`
	TargetDate   string    `firestore:"targetDate,omitempty"`
	Status       string    `firestore:"status,omitempty"`
	Count        int       `firestore:"count,omitempty"`
	MergedURL    string    `firestore:"mergedUrl,omitempty"`
	ErrorDetails string    `firestore:"errorDetails,omitempty"`
	CreatedAt    time.Time `firestore:"createdAt,omitempty"`
}
