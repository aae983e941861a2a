package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/fitbridge/fitbridge/pkg/apperrors"
	"github.com/fitbridge/fitbridge/pkg/garmin"
	"github.com/fitbridge/fitbridge/pkg/logging"
	"github.com/fitbridge/fitbridge/pkg/models"
)

const (
	syncFetchLimit = 10
	getDataLimit   = 20
)

// ConfigStore writes and blanks the sync tool's credential config file.
type ConfigStore interface {
	Write(creds models.Credentials) error
	Clear() error
}

// SyncRunner invokes the external sync tool once.
type SyncRunner interface {
	Run(ctx context.Context) (*garmin.SyncResult, error)
}

// ActivityStore reads activity records from the sync tool's database.
type ActivityStore interface {
	Exists() bool
	ReadActivities(ctx context.Context, limit int) ([]models.Activity, error)
}

// ActivitiesHandler handles the sync-and-fetch and fetch-only endpoints.
type ActivitiesHandler struct {
	configStore ConfigStore
	runner      SyncRunner
	store       ActivityStore
	logger      *zap.Logger

	// syncMu serializes sync requests. The config file and database are
	// shared mutable files; overlapping syncs would race on both, so a
	// second request is rejected instead of queued.
	syncMu sync.Mutex
}

// NewActivitiesHandler creates a new ActivitiesHandler.
func NewActivitiesHandler(configStore ConfigStore, runner SyncRunner, store ActivityStore, logger *zap.Logger) *ActivitiesHandler {
	return &ActivitiesHandler{
		configStore: configStore,
		runner:      runner,
		store:       store,
		logger:      logger,
	}
}

// RegisterRoutes registers the handler's routes on the given mux.
func (h *ActivitiesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /login-and-fetch", h.LoginAndFetch)
	mux.HandleFunc("GET /get-data", h.GetData)
}

type syncFetchResponse struct {
	Success    bool              `json:"success"`
	Activities []models.Activity `json:"activities"`
	Message    string            `json:"message,omitempty"`
}

type getDataResponse struct {
	Activities []models.Activity `json:"activities"`
	Message    string            `json:"message,omitempty"`
}

// LoginAndFetch handles POST /login-and-fetch. It writes the received
// credentials to the sync config file, runs one sync, reads back recent
// activities, and blanks the credentials again before responding no matter
// which branch was taken. Responses never carry credential values or
// internal detail; full detail is logged server-side only.
func (h *ActivitiesHandler) LoginAndFetch(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request. JSON body required.")
		return
	}
	if !creds.IsComplete() {
		ErrorResponse(w, http.StatusBadRequest, "missing_credentials", "Username and password required")
		return
	}

	if !h.syncMu.TryLock() {
		h.logger.Warn("Rejecting concurrent sync request")
		ErrorResponse(w, http.StatusConflict, "sync_in_progress", apperrors.ErrSyncInProgress.Error())
		return
	}
	defer h.syncMu.Unlock()

	if err := h.configStore.Write(creds); err != nil {
		h.logger.Error("Failed to write sync config", zap.String("error", logging.SanitizeError(err)))
		h.clearCredentials()
		ErrorResponse(w, http.StatusInternalServerError, "config_error", "Server error: failed to prepare sync configuration")
		return
	}
	// Credentials are on disk from here on; blank them before any response
	// leaves this handler, whatever happens in between.
	defer h.clearCredentials()

	result, err := h.runner.Run(r.Context())
	if err != nil {
		h.respondSyncError(w, err)
		return
	}
	h.logger.Info("Sync completed",
		zap.Int("exit_code", result.ExitCode),
		zap.String("stdout", logging.SanitizeOutput(result.Stdout)))

	if !h.store.Exists() {
		// The tool can exit zero without producing a database when no
		// data of the requested type was found.
		h.logger.Warn("Database file absent after successful sync")
		WriteJSON(w, http.StatusOK, syncFetchResponse{
			Success:    true,
			Activities: []models.Activity{},
			Message:    "Sync ran, but no database file found or no new data.",
		})
		return
	}

	activities, err := h.store.ReadActivities(r.Context(), syncFetchLimit)
	if err != nil {
		// The sync itself succeeded; degrade to an empty 200 rather than
		// reporting failure for data that may appear on the next read.
		h.logger.Error("Failed to read activities after sync", zap.String("error", logging.SanitizeError(err)))
		WriteJSON(w, http.StatusOK, syncFetchResponse{
			Success:    true,
			Activities: []models.Activity{},
			Message:    "Sync succeeded, but reading data afterwards failed.",
		})
		return
	}

	if err := WriteJSON(w, http.StatusOK, syncFetchResponse{Success: true, Activities: activities}); err != nil {
		h.logger.Error("Failed to write sync response", zap.Error(err))
	}
}

// GetData handles GET /get-data. It reads existing data without syncing.
func (h *ActivitiesHandler) GetData(w http.ResponseWriter, r *http.Request) {
	if !h.store.Exists() {
		WriteJSON(w, http.StatusOK, getDataResponse{
			Activities: []models.Activity{},
			Message:    "No data found. Please login and sync first.",
		})
		return
	}

	activities, err := h.store.ReadActivities(r.Context(), getDataLimit)
	if err != nil {
		h.logger.Error("Failed to read activities", zap.String("error", logging.SanitizeError(err)))
		ErrorResponse(w, http.StatusInternalServerError, "storage_error", "Database error occurred reading data")
		return
	}

	if err := WriteJSON(w, http.StatusOK, getDataResponse{Activities: activities}); err != nil {
		h.logger.Error("Failed to write get-data response", zap.Error(err))
	}
}

// respondSyncError maps a sync failure to a status code and generic body.
// Timeouts get their own status so clients can decide whether to retry.
func (h *ActivitiesHandler) respondSyncError(w http.ResponseWriter, err error) {
	var procErr *garmin.ProcessError
	switch {
	case errors.Is(err, apperrors.ErrSyncTimeout):
		h.logger.Error("Sync timed out", zap.String("error", logging.SanitizeError(err)))
		ErrorResponse(w, http.StatusGatewayTimeout, "sync_timeout", "Data sync timed out. Try again later.")
	case errors.Is(err, apperrors.ErrToolNotFound):
		h.logger.Error("Sync tool not found, check deployment", zap.String("error", logging.SanitizeError(err)))
		ErrorResponse(w, http.StatusInternalServerError, "tool_not_found", "Server configuration error")
	default:
		if errors.As(err, &procErr) {
			h.logger.Error("Sync tool failed",
				zap.Int("exit_code", procErr.ExitCode),
				zap.String("stdout", logging.SanitizeOutput(procErr.Stdout)),
				zap.String("stderr", logging.SanitizeOutput(procErr.Stderr)))
		} else {
			h.logger.Error("Sync failed", zap.String("error", logging.SanitizeError(err)))
		}
		ErrorResponse(w, http.StatusInternalServerError, "sync_failed", "Failed to sync data with Garmin")
	}
}

// clearCredentials blanks the on-disk credentials. A failure here cannot
// change the response already chosen, but it is the one cleanup that must
// never be skipped silently.
func (h *ActivitiesHandler) clearCredentials() {
	if err := h.configStore.Clear(); err != nil {
		h.logger.Error("CRITICAL: failed to clear credentials from sync config",
			zap.String("error", logging.SanitizeError(err)))
	}
}
