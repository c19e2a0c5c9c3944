package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vicradon/ytfetch/models"
)

var (
	ErrEmptyURL       = errors.New("empty video url")
	ErrDownloadFailed = errors.New("download failed")
)

const (
	MsgEmptyURL       = "Please enter a YouTube URL."
	MsgDownloadFailed = "Download failed"

	msgServerError   = "An error occurred on the server."
	msgUnreachable   = "Failed to communicate with the server. Is it running?"
	msgGenericFailed = "An error occurred while fetching video info."
)

// APIError is a non-2xx answer from the metadata endpoint. Message is shown
// to the user as is.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string { return e.Message }

type transportError struct{ err error }

func (e *transportError) Error() string { return "request to backend failed: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// UserMessage turns any error from this package into the string shown to
// the user.
func UserMessage(err error) string {
	var apiErr *APIError
	var tErr *transportError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyURL):
		return MsgEmptyURL
	case errors.Is(err, ErrDownloadFailed):
		return MsgDownloadFailed
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.As(err, &tErr):
		return msgUnreachable
	default:
		return msgGenericFailed
	}
}

// BackendClient talks to the download backend. The base URL is injected so
// the same client can target any deployment.
type BackendClient struct {
	BaseURL string
	client  *http.Client

	// payloads can take far longer than timeout to stream, so only the
	// wait for response headers is bounded.
	downloadClient *http.Client
}

func NewBackendClient(baseURL string, timeout time.Duration) *BackendClient {
	return &BackendClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		downloadClient: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: timeout,
			},
		},
	}
}

// NewBackendClientWithHTTP is used when the caller owns the transport.
func NewBackendClientWithHTTP(baseURL string, client *http.Client) *BackendClient {
	return &BackendClient{
		BaseURL:        strings.TrimSuffix(baseURL, "/"),
		client:         client,
		downloadClient: client,
	}
}

func (c *BackendClient) FetchInfo(ctx context.Context, videoURL string) (models.ResultSet, error) {
	if strings.TrimSpace(videoURL) == "" {
		return nil, ErrEmptyURL
	}

	apiURL := fmt.Sprintf("%s/api/info?url=%s", c.BaseURL, url.QueryEscape(videoURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &transportError{err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transportError{err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeAPIError(resp.StatusCode, body)
	}

	rs, err := models.DecodeResultSet(body)
	if err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msgServerError}
	}
	return rs, nil
}

func decodeAPIError(status int, body []byte) *APIError {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return &APIError{
			StatusCode: status,
			Message:    fmt.Sprintf("API Error: %d %s", status, http.StatusText(status)),
		}
	}
	if payload.Message == "" {
		return &APIError{StatusCode: status, Message: msgServerError}
	}
	return &APIError{StatusCode: status, Message: payload.Message}
}

func (c *BackendClient) DownloadURL(videoID, formatID, filename string) string {
	q := url.Values{}
	q.Set("videoId", videoID)
	q.Set("formatId", formatID)
	return fmt.Sprintf("%s/download/%s?%s", c.BaseURL, url.PathEscape(filename), q.Encode())
}

// DownloadStream is an open download body. Size is -1 when unknown.
type DownloadStream struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

func (c *BackendClient) Download(ctx context.Context, videoID, formatID, filename string) (*DownloadStream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.DownloadURL(videoID, formatID, filename), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.downloadClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status code %d", ErrDownloadFailed, resp.StatusCode)
	}

	return &DownloadStream{
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}, nil
}
