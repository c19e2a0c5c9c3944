package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/vicradon/ytfetch/models"
	"github.com/vicradon/ytfetch/services"
)

type DownloadHandler struct {
	downloadService *services.DownloadService
}

func NewDownloadHandler(downloadService *services.DownloadService) *DownloadHandler {
	return &DownloadHandler{
		downloadService: downloadService,
	}
}

// Create starts a download and answers immediately with its id.
func (h *DownloadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.VideoID == "" || req.FormatID == "" {
		http.Error(w, "videoId and formatId are required", http.StatusBadRequest)
		return
	}

	// The download outlives this request.
	ctx := context.WithoutCancel(r.Context())
	download := h.downloadService.RequestDownload(ctx, req.VideoID, req.FormatID, req.Filename)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"id":     download.ID,
		"status": download.Status,
	})
}

func (h *DownloadHandler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.downloadService.List())
}

func (h *DownloadHandler) Get(w http.ResponseWriter, r *http.Request) {
	download, exists := h.downloadService.GetDownload(mux.Vars(r)["id"])
	if !exists {
		http.Error(w, "Download not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(download)
}

func (h *DownloadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.downloadService.DeleteFile(mux.Vars(r)["id"])
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDownloadNotFound):
			http.Error(w, "File not found", http.StatusNotFound)
		case errors.Is(err, services.ErrDownloadNotStored):
			http.Error(w, "Download has no file to delete", http.StatusConflict)
		default:
			http.Error(w, "Error deleting file", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
