package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"notifsync/internal/domain"
	"notifsync/internal/service"
	"notifsync/internal/util"
)

type API struct {
	Svc   *service.NotificationService
	IDGen func() string
}

func (a *API) Register(mux *mux.Router) {
	mux.HandleFunc("/v1/notifications", a.handleCreate).Methods(http.MethodPost)
	mux.HandleFunc("/v1/notifications", a.handleGetStatus).Methods(http.MethodGet)
}

func (a *API) handleCreate(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req domain.CreateRequest
	if err := dec.Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}

	rec, err := a.Svc.Create(r.Context(), req, a.IDGen(), util.NowUTC())
	if err != nil {
		var ve *domain.ValidationError
		switch {
		case errors.As(err, &ve):
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": ve.Fields})
		case errors.Is(err, domain.ErrDuplicateExternalID):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			slog.Error("create notification failed", "err", err, "external_id", req.ExternalID)
			http.Error(w, ErrDependency, http.StatusBadGateway)
		}
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

func (a *API) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	externalID := r.URL.Query().Get("externalId")
	if externalID == "" {
		http.Error(w, ErrMissingExternalID, http.StatusBadRequest)
		return
	}

	rec, err := a.Svc.GetStatus(r.Context(), externalID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, ErrNotFound, http.StatusNotFound)
			return
		}
		slog.Error("get notification failed", "err", err, "external_id", externalID)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
