package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/vicradon/ytfetch/config"
	"github.com/vicradon/ytfetch/database"
	"github.com/vicradon/ytfetch/models"
	"github.com/vicradon/ytfetch/services"
)

var (
	session         *services.FetchSession
	downloadService *services.DownloadService
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
	downloadService = services.NewDownloadService(backend, storageService, database.SaveDownload)
	session = services.NewFetchSession(backend)

	// Load existing downloads
	history, err := database.LoadDownloads()
	if err != nil {
		log.Printf("Warning: Failed to load downloads: %v", err)
	}
	downloadService.LoadHistory(history)

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Vid Downloader CLI ===")
	fmt.Printf("Backend: %s\n", backend.BaseURL)

	for {
		fmt.Println("\nCommands:")
		fmt.Println("  1. fetch - Show available formats for a video or playlist")
		fmt.Println("  2. download - Download a format")
		fmt.Println("  3. status - Show downloads")
		fmt.Println("  4. quit - Exit")
		fmt.Print("\nEnter command: ")

		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)

		switch input {
		case "1", "fetch":
			fetchFormats(reader)
		case "2", "download":
			downloadFormat(reader)
		case "3", "status":
			checkStatus()
		case "4", "quit", "exit":
			fmt.Println("Goodbye!")
			return
		default:
			fmt.Println("Unknown command. Try again.")
		}
	}
}

func fetchFormats(reader *bufio.Reader) {
	fmt.Println("\n=== Fetch Formats ===")

	fmt.Print("Enter YouTube URL: ")
	url, _ := reader.ReadString('\n')
	url = strings.TrimSpace(url)

	snap := session.Fetch(context.Background(), url)
	if snap.Error != "" {
		fmt.Printf("✗ %s\n", snap.Error)
		return
	}

	printView(services.BuildView(snap.Result))
}

func printView(view services.ResultView) {
	if view.Kind == models.ResultPlaylist {
		fmt.Printf("\n%s\n%s\n", view.Title, view.Subtitle)
	}

	for i, card := range view.Cards {
		fmt.Printf("\n[%d] %s (%s)\n", i+1, card.Title, card.Duration)
		fmt.Printf("    Video ID: %s\n", card.ID)
		if len(card.Tables) == 0 {
			fmt.Println("    No downloadable formats.")
		}
		for _, table := range card.Tables {
			fmt.Printf("\n    %s\n", table.Title)
			fmt.Printf("    %-8s %-14s %-6s %-16s %s\n", "ID", table.Heading, "Ext", "Codec", "Size")
			for _, row := range table.Rows {
				fmt.Printf("    %-8s %-14s %-6s %-16s %s\n",
					row.FormatID, row.Label, row.Ext, strings.Join(row.Codecs, " "), row.Size)
			}
		}
	}
}

// lastVideo finds the fetched video with the given id.
func lastVideo(videoID string) (models.VideoRecord, bool) {
	snap := session.Snapshot()
	if snap.Result == nil {
		return models.VideoRecord{}, false
	}
	for _, v := range snap.Result.Records() {
		if v.ID == videoID {
			return v, true
		}
	}
	return models.VideoRecord{}, false
}

func downloadFormat(reader *bufio.Reader) {
	fmt.Println("\n=== Download Format ===")

	defaultID := ""
	if snap := session.Snapshot(); snap.Result != nil {
		if records := snap.Result.Records(); len(records) > 0 {
			defaultID = records[0].ID
		}
	}

	if defaultID != "" {
		fmt.Printf("Enter YouTube URL or video ID [%s]: ", defaultID)
	} else {
		fmt.Print("Enter YouTube URL or video ID: ")
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		input = defaultID
	}
	if input == "" {
		fmt.Println("URL cannot be empty.")
		return
	}

	videoID, err := youtube.ExtractVideoID(input)
	if err != nil {
		fmt.Printf("Invalid YouTube URL: %v\n", err)
		return
	}

	fmt.Print("Enter format ID: ")
	formatID, _ := reader.ReadString('\n')
	formatID = strings.TrimSpace(formatID)
	if formatID == "" {
		fmt.Println("Format ID cannot be empty.")
		return
	}

	filename := videoID + "-" + formatID
	if video, ok := lastVideo(videoID); ok {
		for _, f := range video.Formats {
			if f.FormatID == formatID {
				filename = services.DisplayName(video, f)
				break
			}
		}
	}

	download := downloadService.RequestDownload(context.Background(), videoID, formatID, filename)
	fmt.Printf("\nDownloading %s...\n", download.Filename)

	// Show progress indicator
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	spinner := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	for i := 0; ; i++ {
		<-ticker.C
		current, exists := downloadService.GetDownload(download.ID)
		if !exists {
			fmt.Println("\rError: Download record not found")
			return
		}

		switch current.Status {
		case models.StatusCompleted:
			fmt.Printf("\r✓ Download completed: %s (%s)\n", current.Filename, services.FormatFileSize(current.Bytes))
			fmt.Printf("File saved to: %s\n", filepath.Join(config.AppConfig.AbsCompletedDir, current.Filename))
			return
		case models.StatusFailed:
			errMsg := services.MsgDownloadFailed
			if current.Error != nil {
				errMsg = *current.Error
			}
			fmt.Printf("\r✗ %s\n", errMsg)
			return
		default:
			fmt.Printf("\r%s Downloading...", spinner[i%len(spinner)])
		}
	}
}

func checkStatus() {
	fmt.Println("\n=== Downloads ===")

	downloads := downloadService.List()
	if len(downloads) == 0 {
		fmt.Println("No downloads found.")
		return
	}

	for _, d := range downloads {
		fmt.Printf("\nDownload ID: %s\n", d.ID)
		fmt.Printf("Video: %s  Format: %s\n", d.VideoID, d.FormatID)
		fmt.Printf("Status: %s\n", d.Status)
		fmt.Printf("Started: %s\n", d.StartTime.Format("2006-01-02 15:04:05"))

		switch d.Status {
		case models.StatusCompleted:
			fmt.Printf("File: %s (%s)\n", d.Filename, services.FormatFileSize(d.Bytes))
			if d.EndTime != nil {
				fmt.Printf("Completed: %s\n", d.EndTime.Format("2006-01-02 15:04:05"))
			}
		case models.StatusFailed:
			if d.Error != nil {
				fmt.Printf("Error: %s\n", *d.Error)
			}
		}
	}
}
