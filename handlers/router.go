package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/vicradon/ytfetch/services"
)

func NewRouter(sessions *services.SessionStore, downloadService *services.DownloadService) http.Handler {
	r := mux.NewRouter()

	indexHandler := NewIndexHandler(sessions, downloadService)
	fetchHandler := NewFetchHandler(indexHandler)
	infoHandler := NewInfoHandler(sessions)
	downloadHandler := NewDownloadHandler(downloadService)
	fileHandler := NewFileHandler(downloadService)

	// Page routes
	r.Handle("/", indexHandler).Methods(http.MethodGet)
	r.Handle("/fetch", fetchHandler).Methods(http.MethodPost)
	r.HandleFunc("/health", healthCheck).Methods(http.MethodGet)

	// API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/info", infoHandler).Methods(http.MethodGet)
	api.HandleFunc("/downloads", downloadHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/downloads", downloadHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/downloads/{id}", downloadHandler.Get).Methods(http.MethodGet)
	api.Handle("/file/{id}", fileHandler).Methods(http.MethodGet)
	api.HandleFunc("/file/{id}", downloadHandler.Delete).Methods(http.MethodDelete)

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
