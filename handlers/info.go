package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/vicradon/ytfetch/services"
)

type InfoHandler struct {
	sessions *services.SessionStore
}

func NewInfoHandler(sessions *services.SessionStore) *InfoHandler {
	return &InfoHandler{sessions: sessions}
}

type infoResponse struct {
	State string               `json:"state"`
	Error string               `json:"error,omitempty"`
	View  *services.ResultView `json:"view,omitempty"`
}

func (h *InfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s := session(w, r, h.sessions)
	snap := s.Fetch(r.Context(), r.URL.Query().Get("url"))
	if snap.Stale {
		http.Error(w, "Superseded by a newer request", http.StatusConflict)
		return
	}

	resp := infoResponse{State: string(snap.State), Error: snap.Error}
	status := http.StatusOK
	switch {
	case snap.Rejected:
		status = http.StatusBadRequest
	case snap.State == services.StateFailed:
		status = http.StatusBadGateway
	default:
		view := services.BuildView(snap.Result)
		resp.View = &view
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
