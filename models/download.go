package models

import "time"

const (
	StatusDownloading = "downloading"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
	StatusDeleted     = "deleted"
)

// Download is one requested format download. Rows are kept as history.
type Download struct {
	ID        string     `gorm:"primaryKey" json:"id"`
	VideoID   string     `json:"videoId"`
	FormatID  string     `json:"formatId"`
	Filename  string     `json:"filename"`
	Status    string     `json:"status"`
	Error     *string    `json:"error,omitempty"`
	Bytes     int64      `json:"bytes"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
}

type DownloadRequest struct {
	VideoID  string `json:"videoId"`
	FormatID string `json:"formatId"`
	Filename string `json:"filename"`
}
