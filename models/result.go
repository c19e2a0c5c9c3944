package models

import (
	"encoding/json"
	"fmt"
)

type ResultKind string

const (
	ResultVideo    ResultKind = "video"
	ResultPlaylist ResultKind = "playlist"
)

// ResultSet is the outcome of one metadata fetch. It is either a
// *VideoResult or a *PlaylistResult; nothing else implements it.
type ResultSet interface {
	Kind() ResultKind
	// Records lists the videos in display order.
	Records() []VideoRecord
	resultSet()
}

type VideoResult struct {
	VideoRecord
}

func (r *VideoResult) Kind() ResultKind       { return ResultVideo }
func (r *VideoResult) Records() []VideoRecord { return []VideoRecord{r.VideoRecord} }
func (r *VideoResult) resultSet()             {}

type PlaylistResult struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	Videos []VideoRecord `json:"videos"`
}

func (r *PlaylistResult) Kind() ResultKind       { return ResultPlaylist }
func (r *PlaylistResult) Records() []VideoRecord { return r.Videos }
func (r *PlaylistResult) resultSet()             {}

// DecodeResultSet parses an /api/info body, dispatching on its "type" tag.
func DecodeResultSet(data []byte) (ResultSet, error) {
	var tag struct {
		Type ResultKind `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}

	switch tag.Type {
	case ResultVideo:
		var v VideoResult
		if err := json.Unmarshal(data, &v.VideoRecord); err != nil {
			return nil, fmt.Errorf("failed to decode video: %w", err)
		}
		return &v, nil
	case ResultPlaylist:
		var p PlaylistResult
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode playlist: %w", err)
		}
		return &p, nil
	default:
		return nil, fmt.Errorf("unknown result type %q", tag.Type)
	}
}

// EncodeResultSet is the inverse of DecodeResultSet.
func EncodeResultSet(rs ResultSet) ([]byte, error) {
	switch r := rs.(type) {
	case *VideoResult:
		return json.Marshal(struct {
			Type ResultKind `json:"type"`
			VideoRecord
		}{ResultVideo, r.VideoRecord})
	case *PlaylistResult:
		return json.Marshal(struct {
			Type ResultKind `json:"type"`
			*PlaylistResult
		}{ResultPlaylist, r})
	default:
		return nil, fmt.Errorf("unsupported result %T", rs)
	}
}
