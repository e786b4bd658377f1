package httpserver

import (
	"github.com/gorilla/mux"

	"notifsync/internal/observability"
)

type Server struct {
	Mux *mux.Router
}

func New() *Server {
	return &Server{Mux: mux.NewRouter()}
}

// NewRouter assembles the full API surface: notification endpoints, the
// webhook callback, request logging and request metrics.
func NewRouter(api *API, wh *Webhook) *mux.Router {
	s := New()
	api.Register(s.Mux)
	wh.Register(s.Mux)
	s.Mux.Use(Logging)
	s.Mux.Use(Metrics(observability.APIRequests))
	return s.Mux
}
