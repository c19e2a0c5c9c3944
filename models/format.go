package models

import (
	"encoding/json"
	"fmt"
)

type MediaKind string

const (
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
)

// Format is one downloadable encoding of a video as reported by the backend.
type Format struct {
	FormatID   string    `json:"format_id"`
	Resolution string    `json:"resolution"` // "1920x1080", "1080p" or "audio only"
	Ext        string    `json:"ext"`
	VideoCodec string    `json:"vcodec,omitempty"`
	AudioCodec string    `json:"acodec,omitempty"`
	FileSize   *int64    `json:"filesize"` // nil when the backend doesn't know
	Kind       MediaKind `json:"type"`
	Note       string    `json:"note,omitempty"`
}

// Label is what the tables show in the resolution/quality column.
func (f Format) Label() string {
	if f.Note != "" {
		return f.Note
	}
	return f.Resolution
}

// Size returns the file size, or 0 when unknown.
func (f Format) Size() int64 {
	if f.FileSize == nil {
		return 0
	}
	return *f.FileSize
}

// UnmarshalJSON accepts fractional sizes, which some extractors report as
// approximations.
func (f *Format) UnmarshalJSON(data []byte) error {
	type plain Format
	var aux struct {
		plain
		FileSize *json.Number `json:"filesize"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*f = Format(aux.plain)
	f.FileSize = nil
	if aux.FileSize == nil {
		return nil
	}
	if n, err := aux.FileSize.Int64(); err == nil {
		f.FileSize = &n
		return nil
	}
	v, err := aux.FileSize.Float64()
	if err != nil {
		return fmt.Errorf("invalid filesize %q: %w", aux.FileSize.String(), err)
	}
	n := int64(v)
	f.FileSize = &n
	return nil
}

type VideoRecord struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	ThumbnailURL string   `json:"thumbnailUrl"`
	Duration     string   `json:"duration"`
	Formats      []Format `json:"formats"`
}
