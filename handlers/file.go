package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/vicradon/ytfetch/models"
	"github.com/vicradon/ytfetch/services"
)

// FileHandler hands a completed download to the browser as an attachment.
type FileHandler struct {
	downloadService *services.DownloadService
}

func NewFileHandler(downloadService *services.DownloadService) *FileHandler {
	return &FileHandler{
		downloadService: downloadService,
	}
}

func (h *FileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	downloadID := mux.Vars(r)["id"]

	download, filePath, err := h.downloadService.FilePath(downloadID)
	if err != nil {
		if errors.Is(err, services.ErrDownloadNotFound) {
			http.Error(w, "Download not found", http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	switch download.Status {
	case models.StatusDownloading:
		http.Error(w, "Download not ready", http.StatusAccepted)
		return
	case models.StatusFailed:
		http.Error(w, services.MsgDownloadFailed, http.StatusGone)
		return
	case models.StatusDeleted:
		http.Error(w, "File deleted", http.StatusGone)
		return
	}

	if _, err := os.Stat(filePath); err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "File not found", http.StatusNotFound)
		} else {
			http.Error(w, "Error accessing file", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	w.Header().Set("Content-Type", "application/octet-stream")

	http.ServeFile(w, r, filePath)

	log.Printf("Served file %s for download %s", download.Filename, downloadID)
}
