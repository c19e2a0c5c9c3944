package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/vicradon/ytfetch/config"
	"github.com/vicradon/ytfetch/database"
	"github.com/vicradon/ytfetch/handlers"
	"github.com/vicradon/ytfetch/services"
)

func main() {
	// Load configuration
	if err := config.Load(); err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize database
	if config.AppConfig.DatabaseURL != "" {
		if err := database.Init(config.AppConfig.DatabaseURL); err != nil {
			log.Fatal("Failed to initialize database:", err)
		}
	}

	// Initialize services
	backend := services.NewBackendClient(config.AppConfig.APIBaseURL, config.AppConfig.RequestTimeout)
	storageService := services.NewStorageService(config.AppConfig.AbsOngoingDir, config.AppConfig.AbsCompletedDir)
	downloadService := services.NewDownloadService(backend, storageService, database.SaveDownload)
	sessions := services.NewSessionStore(backend, services.DefaultSessionTTL)

	// Load download history from database
	history, err := database.LoadDownloads()
	if err != nil {
		log.Printf("Warning: Failed to load downloads from database: %v", err)
	}
	downloadService.LoadHistory(history)

	router := handlers.NewRouter(sessions, downloadService)

	addr := "0.0.0.0:" + config.AppConfig.Port
	fmt.Printf("Server starting on http://%s (backend %s)\n", addr, backend.BaseURL)
	log.Fatal(http.ListenAndServe(addr, router))
}
