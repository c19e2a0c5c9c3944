package services

import (
	"fmt"
	"strings"

	"github.com/vicradon/ytfetch/models"
)

type FormatRow struct {
	FormatID string
	Label    string
	Ext      string
	Codecs   []string
	Size     string
	Filename string
}

type FormatTable struct {
	Kind    models.MediaKind
	Title   string
	Heading string // resolution column heading
	Rows    []FormatRow
}

type VideoCard struct {
	ID           string
	Title        string
	ThumbnailURL string
	Duration     string
	Tables       []FormatTable
}

// ResultView is what the results section renders for one ResultSet.
type ResultView struct {
	Kind     models.ResultKind
	Title    string
	Subtitle string
	Cards    []VideoCard
}

// CodecLabel shortens "avc1.640028" to "avc1". Missing tracks render nothing.
func CodecLabel(codec string) string {
	if codec == "" || codec == "none" {
		return ""
	}
	name, _, _ := strings.Cut(codec, ".")
	return name
}

// DisplayName is the file name suggested for a downloaded format.
func DisplayName(video models.VideoRecord, f models.Format) string {
	title := SanitizeFilename(video.Title)
	if title == "" {
		title = SanitizeFilename(video.ID)
	}
	if title == "" {
		title = "video"
	}
	if quality := SanitizeFilename(f.Label()); quality != "" {
		return fmt.Sprintf("%s - %s.%s", title, quality, f.Ext)
	}
	return fmt.Sprintf("%s.%s", title, f.Ext)
}

func BuildTables(video models.VideoRecord) []FormatTable {
	var tables []FormatTable
	for _, kind := range []models.MediaKind{models.MediaVideo, models.MediaAudio} {
		formats := Normalize(FilterKind(video.Formats, kind), kind)
		if len(formats) == 0 {
			continue
		}

		t := FormatTable{Kind: kind, Title: "Video Formats", Heading: "Resolution"}
		if kind == models.MediaAudio {
			t.Title, t.Heading = "Audio Formats", "Quality"
		}
		for _, f := range formats {
			var codecs []string
			for _, c := range []string{f.VideoCodec, f.AudioCodec} {
				if label := CodecLabel(c); label != "" {
					codecs = append(codecs, label)
				}
			}
			t.Rows = append(t.Rows, FormatRow{
				FormatID: f.FormatID,
				Label:    f.Label(),
				Ext:      strings.ToUpper(f.Ext),
				Codecs:   codecs,
				Size:     FormatFileSize(f.Size()),
				Filename: DisplayName(video, f),
			})
		}
		tables = append(tables, t)
	}
	return tables
}

func buildCard(video models.VideoRecord) VideoCard {
	return VideoCard{
		ID:           video.ID,
		Title:        video.Title,
		ThumbnailURL: video.ThumbnailURL,
		Duration:     video.Duration,
		Tables:       BuildTables(video),
	}
}

// BuildView returns the zero view for a nil result.
func BuildView(rs models.ResultSet) ResultView {
	switch r := rs.(type) {
	case *models.VideoResult:
		return ResultView{
			Kind:  models.ResultVideo,
			Title: r.Title,
			Cards: []VideoCard{buildCard(r.VideoRecord)},
		}
	case *models.PlaylistResult:
		view := ResultView{
			Kind:     models.ResultPlaylist,
			Title:    "Playlist: " + r.Title,
			Subtitle: fmt.Sprintf("%d videos found", len(r.Videos)),
		}
		for _, v := range r.Videos {
			view.Cards = append(view.Cards, buildCard(v))
		}
		return view
	default:
		return ResultView{}
	}
}
