package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type StorageService struct {
	OngoingDir   string
	CompletedDir string
}

func NewStorageService(ongoingDir, completedDir string) *StorageService {
	return &StorageService{
		OngoingDir:   ongoingDir,
		CompletedDir: completedDir,
	}
}

func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	const k = 1024
	sizes := []string{"Bytes", "KB", "MB", "GB", "TB"}
	value := float64(bytes)
	i := 0
	for value >= k && i < len(sizes)-1 {
		value /= k
		i++
	}
	return fmt.Sprintf("%.1f %s", value, sizes[i])
}

func (s *StorageService) ValidateFilePath(filename string) (string, error) {
	filename = filepath.Clean(filename)
	filePath := filepath.Join(s.CompletedDir, filename)

	absCompletedDir, err := filepath.Abs(s.CompletedDir)
	if err != nil {
		return "", fmt.Errorf("error processing directory path")
	}

	absFilePath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("error processing file path")
	}

	absCompletedDirNormalized := strings.TrimSuffix(absCompletedDir, string(filepath.Separator)) + string(filepath.Separator)
	absFilePathNormalized := strings.TrimSuffix(absFilePath, string(filepath.Separator)) + string(filepath.Separator)

	if !strings.HasPrefix(absFilePathNormalized, absCompletedDirNormalized) || absFilePathNormalized == absCompletedDirNormalized {
		return "", fmt.Errorf("invalid file path")
	}

	return filePath, nil
}

func (s *StorageService) DeleteFile(filename string) error {
	filePath, err := s.ValidateFilePath(filename)
	if err != nil {
		return err
	}
	return os.Remove(filePath)
}

func (s *StorageService) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}

// SanitizeFilename strips characters that are illegal in file names on
// common filesystems and caps the length.
func SanitizeFilename(filename string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := filename
	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "")
	}
	if r := []rune(result); len(r) > 200 {
		result = string(r[:200])
	}
	return strings.TrimSpace(result)
}
