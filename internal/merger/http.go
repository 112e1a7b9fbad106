package merger

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pawhaven/transport-contracts/internal/models"
)

// Handler serves the stateless merge endpoint: POST a JSON body of
// base64-encoded PDFs, get the merged PDF back inline. This is the same
// wire contract the contracts service speaks to its configured merge URL.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /merge", handleMerge)
	return mux
}

func handleMerge(w http.ResponseWriter, r *http.Request) {
	var req models.MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Could not decode merge request body.", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}
	if len(req.Files) == 0 {
		http.Error(w, "Bad Request: no files to merge", http.StatusBadRequest)
		return
	}

	pdfs := make([][]byte, 0, len(req.Files))
	for _, f := range req.Files {
		data, err := base64.StdEncoding.DecodeString(f.ContentBase64)
		if err != nil {
			slog.Warn("Could not decode file content.", "name", f.Name, "error", err)
			http.Error(w, "Bad Request: invalid base64 content for "+f.Name, http.StatusBadRequest)
			return
		}
		pdfs = append(pdfs, data)
	}

	merged, err := Merge(pdfs)
	if err != nil {
		slog.Error("Merge failed.", "fileCount", len(pdfs), "error", err)
		http.Error(w, "Internal Server Error: merge failed", http.StatusInternalServerError)
		return
	}

	name := req.OutputName
	if name == "" {
		name = "merged.pdf"
	}
	slog.Info("Merged PDFs.", "fileCount", len(pdfs), "outputName", name, "bytes", len(merged))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(models.MergeResponse{
		ContentBase64: base64.StdEncoding.EncodeToString(merged),
		FileName:      name,
	}); err != nil {
		slog.Error("Failed to write merge response.", "error", err)
	}
}
