package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/pawhaven/transport-contracts/internal/config"
	"github.com/pawhaven/transport-contracts/internal/gcp"
	"github.com/pawhaven/transport-contracts/internal/models"
	"github.com/pawhaven/transport-contracts/internal/services"
)

var (
	serviceInstance *services.ContractService
	once            sync.Once
	initErr         error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("ListAppointments", handleListAppointments)
	functions.HTTP("CreateContracts", handleCreateContracts)
	functions.HTTP("Info", handleInfo)
	functions.CloudEvent("ScheduledRun", handleScheduledRun)
}

// main is required by the Go Functions Framework.
func main() {}

// instance lazily builds the service once per container, from the optional
// config file named by CONTRACTS_CONFIG plus environment overrides.
func instance() (*services.ContractService, error) {
	once.Do(func() {
		cfg, err := config.Load(gcp.GetEnv("CONTRACTS_CONFIG", ""))
		if err != nil {
			initErr = err
			return
		}
		serviceInstance, initErr = services.NewFromConfig(context.Background(), cfg)
	})
	return serviceInstance, initErr
}

// handleListAppointments serves the read-only appointment listing. The
// optional date query parameter selects an explicit day; absent means the
// default today-or-tomorrow window.
func handleListAppointments(w http.ResponseWriter, r *http.Request) {
	svc, err := instance()
	if err != nil {
		slog.Error("Critical: service initialization failed", "error", err)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	sel := services.Selection{Date: r.URL.Query().Get("date")}
	views, err := svc.ListAppointments(r.Context(), sel)
	switch {
	case errors.Is(err, services.ErrInvalidSelection):
		http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, models.ErrSourceNotFound):
		http.Error(w, "Not Found: "+err.Error(), http.StatusNotFound)
		return
	case err != nil:
		// Error is already logged with context inside the query.
		http.Error(w, "Internal Server Error: query failed", http.StatusInternalServerError)
		return
	}
	if views == nil {
		views = []models.AppointmentView{}
	}
	writeJSON(w, views)
}

// handleCreateContracts triggers a full contract run. The BatchResult is
// the contract: it is returned with HTTP 200 even when ok is false.
func handleCreateContracts(w http.ResponseWriter, r *http.Request) {
	svc, err := instance()
	if err != nil {
		slog.Error("Critical: service initialization failed", "error", err)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.CreateContractsRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Warn("Could not decode request body", "error", err)
			http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
			return
		}
	}

	result := svc.CreateContracts(r.Context(), services.Selection{Date: req.Date})
	writeJSON(w, result)
}

func handleInfo(w http.ResponseWriter, r *http.Request) {
	svc, err := instance()
	if err != nil {
		slog.Error("Critical: service initialization failed", "error", err)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	writeJSON(w, models.InfoResponse{MainHubLink: svc.MainHubLink()})
}

// pubsubPayload is the Pub/Sub CloudEvent envelope for scheduled runs. The
// message data may carry an optional {"date": "YYYY-MM-DD"} override.
type pubsubPayload struct {
	Message struct {
		Data []byte `json:"data"`
	} `json:"message"`
}

// handleScheduledRun generates contracts for the default selection when the
// daily scheduler fires. A failed run is logged, not returned: the batch
// result is the outcome, and retriggering would duplicate side effects.
func handleScheduledRun(ctx context.Context, e cloudevents.Event) error {
	svc, err := instance()
	if err != nil {
		slog.Error("Critical: service initialization failed", "error", err)
		return err
	}

	sel := services.Selection{}
	var payload pubsubPayload
	if err := json.Unmarshal(e.Data(), &payload); err == nil && len(payload.Message.Data) > 0 {
		var req models.CreateContractsRequest
		if err := json.Unmarshal(payload.Message.Data, &req); err == nil {
			sel.Date = req.Date
		}
	}

	result := svc.CreateContracts(ctx, sel)
	if !result.OK {
		slog.Error("Scheduled contract run did not complete.", "message", result.Message, "error", result.Error)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", "error", err)
		http.Error(w, "Internal Server Error: failed to encode response", http.StatusInternalServerError)
	}
}
