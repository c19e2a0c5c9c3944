package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vicradon/ytfetch/models"
)

var (
	ErrDownloadNotFound  = errors.New("download not found")
	ErrDownloadNotStored = errors.New("download has no stored file")
)

type Downloader interface {
	Download(ctx context.Context, videoID, formatID, filename string) (*DownloadStream, error)
}

// RecordFunc persists a download snapshot. Errors are logged, never fatal.
type RecordFunc func(*models.Download) error

// DownloadService runs format downloads. Each request is tracked on its own,
// so any number of them may be in flight at once.
type DownloadService struct {
	downloads map[string]*models.Download
	mu        sync.RWMutex
	moveMu    sync.Mutex
	wg        sync.WaitGroup
	client    Downloader
	storage   *StorageService
	record    RecordFunc
}

func NewDownloadService(client Downloader, storage *StorageService, record RecordFunc) *DownloadService {
	return &DownloadService{
		downloads: make(map[string]*models.Download),
		client:    client,
		storage:   storage,
		record:    record,
	}
}

// LoadHistory restores previously recorded downloads. Anything still marked
// as downloading was interrupted and is marked failed.
func (s *DownloadService) LoadHistory(history []models.Download) {
	for _, d := range history {
		dCopy := d
		if dCopy.Status == models.StatusDownloading {
			msg := MsgDownloadFailed
			now := time.Now()
			dCopy.Status = models.StatusFailed
			dCopy.Error = &msg
			dCopy.EndTime = &now
			s.save(&dCopy)
		}
		s.mu.Lock()
		s.downloads[dCopy.ID] = &dCopy
		s.mu.Unlock()
	}
}

// RequestDownload registers a download of formatID and starts it in the
// background. The returned value is a snapshot; poll GetDownload for status.
func (s *DownloadService) RequestDownload(ctx context.Context, videoID, formatID, displayName string) models.Download {
	filename := SanitizeFilename(displayName)
	if filename == "" {
		filename = SanitizeFilename(videoID + "-" + formatID)
	}

	download := &models.Download{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		FormatID:  formatID,
		Filename:  filename,
		Status:    models.StatusDownloading,
		StartTime: time.Now(),
	}

	s.mu.Lock()
	s.downloads[download.ID] = download
	snapshot := *download
	s.mu.Unlock()

	s.save(&snapshot)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.ProcessDownload(ctx, download)
	}()

	return snapshot
}

func (s *DownloadService) ProcessDownload(ctx context.Context, download *models.Download) {
	tempFile := filepath.Join(s.storage.OngoingDir, download.ID+".part")

	size, err := s.downloadFile(ctx, download, tempFile)
	if err != nil {
		os.Remove(tempFile)
		s.markDownloadFailed(download)
		log.Printf("Download %s failed: %v", download.ID, err)
		return
	}

	s.moveMu.Lock()
	completedName := s.uniqueName(download.Filename)
	err = os.Rename(tempFile, filepath.Join(s.storage.CompletedDir, completedName))
	s.moveMu.Unlock()
	if err != nil {
		os.Remove(tempFile)
		s.markDownloadFailed(download)
		log.Printf("Download %s failed to move file: %v", download.ID, err)
		return
	}

	s.mu.Lock()
	download.Status = models.StatusCompleted
	download.Filename = completedName
	download.Bytes = size
	download.Error = nil
	endTime := time.Now()
	download.EndTime = &endTime
	snapshot := *download
	s.mu.Unlock()

	s.save(&snapshot)
	log.Printf("Download %s: Completed %s (%s)", download.ID, completedName, FormatFileSize(size))
}

func (s *DownloadService) downloadFile(ctx context.Context, download *models.Download, outputPath string) (int64, error) {
	stream, err := s.client.Download(ctx, download.VideoID, download.FormatID, download.Filename)
	if err != nil {
		return 0, err
	}
	defer stream.Body.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	size, err := io.Copy(out, stream.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to save payload: %w", err)
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("failed to save payload: %w", err)
	}

	log.Printf("Download %s: Downloaded %d bytes", download.ID, size)
	return size, nil
}

// uniqueName avoids clobbering an earlier download with the same name by
// appending " (n)" before the extension.
func (s *DownloadService) uniqueName(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	name := filename
	for i := 1; s.storage.FileExists(filepath.Join(s.storage.CompletedDir, name)); i++ {
		name = fmt.Sprintf("%s (%d)%s", base, i, ext)
	}
	return name
}

func (s *DownloadService) markDownloadFailed(download *models.Download) {
	msg := MsgDownloadFailed
	s.mu.Lock()
	download.Status = models.StatusFailed
	download.Error = &msg
	endTime := time.Now()
	download.EndTime = &endTime
	snapshot := *download
	s.mu.Unlock()

	s.save(&snapshot)
}

func (s *DownloadService) save(download *models.Download) {
	if s.record == nil {
		return
	}
	if err := s.record(download); err != nil {
		log.Printf("Failed to save download %s to database: %v", download.ID, err)
	}
}

func (s *DownloadService) GetDownload(id string) (models.Download, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	download, exists := s.downloads[id]
	if !exists {
		return models.Download{}, false
	}
	return *download, true
}

// List returns every known download, newest first.
func (s *DownloadService) List() []models.Download {
	s.mu.RLock()
	list := make([]models.Download, 0, len(s.downloads))
	for _, d := range s.downloads {
		list = append(list, *d)
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].StartTime.After(list[j].StartTime)
	})
	return list
}

func (s *DownloadService) InFlight() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, d := range s.downloads {
		if d.Status == models.StatusDownloading {
			n++
		}
	}
	return n
}

// FilePath resolves a completed download to its file on disk.
func (s *DownloadService) FilePath(id string) (models.Download, string, error) {
	download, exists := s.GetDownload(id)
	if !exists {
		return models.Download{}, "", ErrDownloadNotFound
	}
	if download.Status != models.StatusCompleted {
		return download, "", nil
	}
	path, err := s.storage.ValidateFilePath(download.Filename)
	if err != nil {
		return download, "", err
	}
	return download, path, nil
}

// DeleteFile removes the stored file of a completed download and marks the
// download deleted. Only completed downloads own a file in the completed dir.
func (s *DownloadService) DeleteFile(id string) error {
	s.mu.Lock()
	download, exists := s.downloads[id]
	if !exists {
		s.mu.Unlock()
		return ErrDownloadNotFound
	}
	if download.Status != models.StatusCompleted {
		s.mu.Unlock()
		return ErrDownloadNotStored
	}

	if err := s.storage.DeleteFile(download.Filename); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.mu.Unlock()
		return err
	}
	download.Status = models.StatusDeleted
	snapshot := *download
	s.mu.Unlock()

	s.save(&snapshot)
	log.Printf("Download %s: File deleted", download.ID)
	return nil
}

// Wait blocks until every started download has finished.
func (s *DownloadService) Wait() {
	s.wg.Wait()
}
