package models

// These structs define the JSON payloads exchanged with the merge service
// and the thin HTTP presentation layer.

// MergeRequest is the body POSTed to the merge endpoint.
type MergeRequest struct {
	OutputName string      `json:"outputName"`
	Files      []MergeFile `json:"files"`
}

// MergeFile is one PDF in a merge request, content base64-encoded.
type MergeFile struct {
	Name          string `json:"name"`
	ContentBase64 string `json:"contentBase64"`
}

// MergeResponse is the success body returned by the merge endpoint. Either
// ContentBase64 (inline file bytes) or FileURL (a reference) is set.
type MergeResponse struct {
	ContentBase64 string `json:"contentBase64,omitempty"`
	FileName      string `json:"fileName,omitempty"`
	FileURL       string `json:"fileUrl,omitempty"`
}

// CreateContractsRequest is the body accepted by the contract-generation
// endpoint. An empty date means the default today-or-tomorrow selection.
type CreateContractsRequest struct {
	Date string `json:"date"`
}

// InfoResponse carries display values the presentation layer needs.
type InfoResponse struct {
	MainHubLink string `json:"mainHubLink"`
}
