package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"notifsync/internal/domain"
	"notifsync/internal/observability"
	"notifsync/internal/service"
)

// Webhook receives delivery-provider status callbacks. The payload names the
// status value "event"; providers retry aggressively, so the endpoint is rate
// limited.
type Webhook struct {
	Svc     *service.NotificationService
	Limiter *rate.Limiter
}

type webhookPayload struct {
	ExternalID string `json:"externalId"`
	Event      string `json:"event"`
	Timestamp  string `json:"timestamp,omitempty"`
}

func (wh *Webhook) Register(mux *mux.Router) {
	mux.HandleFunc("/v1/webhooks", wh.handleStatusCallback).Methods(http.MethodPost)
}

func (wh *Webhook) handleStatusCallback(w http.ResponseWriter, r *http.Request) {
	if wh.Limiter != nil && !wh.Limiter.Allow() {
		http.Error(w, ErrRateLimited, http.StatusTooManyRequests)
		return
	}

	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if payload.ExternalID == "" {
		http.Error(w, ErrMissingExternalID, http.StatusBadRequest)
		return
	}

	observability.WebhookEvents.WithLabelValues(payload.Event).Inc()

	res, err := wh.Svc.UpdateStatus(r.Context(), payload.ExternalID, payload.Event, payload.Timestamp, domain.OriginDirect)
	if err != nil {
		var ve *domain.ValidationError
		switch {
		case errors.As(err, &ve):
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": ve.Fields})
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, ErrNotFound, http.StatusNotFound)
		default:
			slog.Error("webhook update failed", "err", err, "external_id", payload.ExternalID, "event", payload.Event)
			http.Error(w, ErrDependency, http.StatusBadGateway)
		}
		return
	}

	writeJSON(w, http.StatusOK, res)
}
