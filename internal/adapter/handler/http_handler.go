package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hoangnm/variant-sync/internal/core/domain"
	"github.com/hoangnm/variant-sync/internal/core/service"
)

type syncer interface {
	HandleInventoryUpdate(ctx context.Context, event domain.InventoryUpdateEvent) (*domain.SyncReport, error)
}

type HTTPHandler struct {
	syncService syncer
	logger      *zap.Logger
}

type SyncHTTPResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Attempted int    `json:"attempted"`
	Succeeded int    `json:"succeeded"`
	Deduped   bool   `json:"deduped,omitempty"`
}

func NewHTTPHandler(syncService syncer, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{syncService: syncService, logger: logger}
}

func (h *HTTPHandler) InventoryWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var event domain.InventoryUpdateEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeJSON(w, http.StatusBadRequest, SyncHTTPResponse{
			Success: false,
			Message: "invalid request body",
		})
		return
	}

	report, err := h.syncService.HandleInventoryUpdate(r.Context(), event)
	if err != nil {
		if errors.Is(err, service.ErrInvalidEvent) {
			writeJSON(w, http.StatusBadRequest, SyncHTTPResponse{
				Success: false,
				Message: "missing required fields",
			})
			return
		}

		h.logger.Error("inventory sync failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, SyncHTTPResponse{
			Success: false,
			Message: "error syncing inventory",
		})
		return
	}

	if report.Deduped {
		writeJSON(w, http.StatusOK, SyncHTTPResponse{
			Success: true,
			Message: "recently synchronized, skipped",
			Deduped: true,
		})
		return
	}

	// Partial member failures still answer 200: most siblings updated
	// beats the platform retrying the whole event.
	writeJSON(w, http.StatusOK, SyncHTTPResponse{
		Success:   true,
		Message:   "inventory synced",
		Attempted: report.Attempted,
		Succeeded: report.Succeeded,
	})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
