package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/pawhaven/transport-contracts/internal/gcp"
	"github.com/pawhaven/transport-contracts/internal/merger"
)

// pdf-merger is the stateless merge service the contracts server points its
// merge URL at when it is self-hosted instead of using the public fallback.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	addr := ":" + gcp.GetEnv("PORT", "8080")
	slog.Info("pdf-merger listening.", "addr", addr)
	if err := http.ListenAndServe(addr, merger.Handler()); err != nil {
		slog.Error("Server stopped.", "error", err)
		os.Exit(1)
	}
}
