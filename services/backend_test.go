package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vicradon/ytfetch/models"
)

const videoBody = `{
	"type": "video",
	"id": "dQw4w9WgXcQ",
	"title": "Never Gonna Give You Up",
	"thumbnailUrl": "https://i.ytimg.com/vi/dQw4w9WgXcQ/hq.jpg",
	"duration": "03:33",
	"formats": [
		{"format_id": "137", "resolution": "1920x1080", "ext": "mp4", "vcodec": "avc1.640028", "acodec": "none", "filesize": 52428800, "type": "video", "note": "1080p"},
		{"format_id": "140", "resolution": "audio only", "ext": "m4a", "vcodec": "none", "acodec": "mp4a.40.2", "filesize": null, "type": "audio", "note": "medium"}
	]
}`

func TestFetchInfo(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/info" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.Query().Get("url")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, videoBody)
	}))
	defer server.Close()

	client := NewBackendClient(server.URL+"/", 5*time.Second)
	rs, err := client.FetchInfo(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=10s")
	if err != nil {
		t.Fatalf("FetchInfo() error = %v", err)
	}

	if gotQuery != "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=10s" {
		t.Errorf("backend saw url %q", gotQuery)
	}

	video, ok := rs.(*models.VideoResult)
	if !ok {
		t.Fatalf("FetchInfo() = %T, want *models.VideoResult", rs)
	}
	if video.ID != "dQw4w9WgXcQ" || len(video.Formats) != 2 {
		t.Errorf("video = %+v", video)
	}
	if video.Formats[1].FileSize != nil {
		t.Errorf("null filesize decoded as %d", *video.Formats[1].FileSize)
	}
}

func TestFetchInfoErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{
			name:    "message from body",
			status:  http.StatusNotFound,
			body:    `{"message": "Failed to fetch info. The URL might be invalid, private, or geo-restricted."}`,
			wantMsg: "Failed to fetch info. The URL might be invalid, private, or geo-restricted.",
		},
		{
			name:    "unparseable body",
			status:  http.StatusBadGateway,
			body:    "<html>bad gateway</html>",
			wantMsg: "API Error: 502 Bad Gateway",
		},
		{
			name:    "empty message",
			status:  http.StatusInternalServerError,
			body:    `{}`,
			wantMsg: "An error occurred on the server.",
		},
		{
			name:    "unknown result type",
			status:  http.StatusOK,
			body:    `{"type": "channel"}`,
			wantMsg: "An error occurred on the server.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client := NewBackendClient(server.URL, 5*time.Second)
			_, err := client.FetchInfo(context.Background(), "https://youtu.be/x")
			if err == nil {
				t.Fatal("FetchInfo() error = nil")
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error %v is not an *APIError", err)
			}
			if got := UserMessage(err); got != tt.wantMsg {
				t.Errorf("UserMessage() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestFetchInfoEmptyURL(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	client := NewBackendClient(server.URL, 5*time.Second)
	_, err := client.FetchInfo(context.Background(), "   ")
	if !errors.Is(err, ErrEmptyURL) {
		t.Errorf("FetchInfo() error = %v, want ErrEmptyURL", err)
	}
	if UserMessage(err) != MsgEmptyURL {
		t.Errorf("UserMessage() = %q", UserMessage(err))
	}
	if calls != 0 {
		t.Errorf("backend called %d times", calls)
	}
}

func TestFetchInfoUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewBackendClient(url, time.Second)
	_, err := client.FetchInfo(context.Background(), "https://youtu.be/x")
	if err == nil {
		t.Fatal("FetchInfo() error = nil")
	}
	if got := UserMessage(err); got != "Failed to communicate with the server. Is it running?" {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestDownloadURL(t *testing.T) {
	client := NewBackendClient("http://backend:5001/", time.Second)
	got := client.DownloadURL("abc", "137+140", "My Video - 1080p.mp4")
	want := "http://backend:5001/download/My%20Video%20-%201080p.mp4?formatId=137%2B140&videoId=abc"
	if got != want {
		t.Errorf("DownloadURL() = %q, want %q", got, want)
	}
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/download/") {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("formatId") == "bad" {
			http.Error(w, `{"message": "nope"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "video/mp4")
		io.WriteString(w, "payload")
	}))
	defer server.Close()

	client := NewBackendClientWithHTTP(server.URL, server.Client())

	stream, err := client.Download(context.Background(), "abc", "137", "clip.mp4")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	body, _ := io.ReadAll(stream.Body)
	stream.Body.Close()
	if string(body) != "payload" || stream.ContentType != "video/mp4" {
		t.Errorf("Download() = %q (%s)", body, stream.ContentType)
	}

	_, err = client.Download(context.Background(), "abc", "bad", "clip.mp4")
	if !errors.Is(err, ErrDownloadFailed) {
		t.Errorf("Download() error = %v, want ErrDownloadFailed", err)
	}
	if UserMessage(err) != MsgDownloadFailed {
		t.Errorf("UserMessage() = %q", UserMessage(err))
	}
}
