package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/vicradon/ytfetch/models"
)

type fakeDownloader struct {
	payloads map[string]string
	gate     chan struct{}
}

func (f *fakeDownloader) Download(ctx context.Context, videoID, formatID, filename string) (*DownloadStream, error) {
	if f.gate != nil {
		<-f.gate
	}
	payload, ok := f.payloads[formatID]
	if !ok {
		return nil, ErrDownloadFailed
	}
	return &DownloadStream{Body: io.NopCloser(strings.NewReader(payload)), Size: int64(len(payload))}, nil
}

type recorder struct {
	mu      sync.Mutex
	records []models.Download
}

func (r *recorder) save(d *models.Download) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *d)
	return nil
}

func newTestDownloadService(t *testing.T, d Downloader, rec RecordFunc) (*DownloadService, *StorageService) {
	t.Helper()
	dir := t.TempDir()
	storage := NewStorageService(filepath.Join(dir, "ongoing"), filepath.Join(dir, "completed"))
	for _, p := range []string{storage.OngoingDir, storage.CompletedDir} {
		if err := os.MkdirAll(p, 0755); err != nil {
			t.Fatal(err)
		}
	}
	return NewDownloadService(d, storage, rec), storage
}

func TestRequestDownload(t *testing.T) {
	rec := &recorder{}
	svc, storage := newTestDownloadService(t, &fakeDownloader{payloads: map[string]string{"137": "video bytes"}}, rec.save)

	d := svc.RequestDownload(context.Background(), "abc", "137", "Clip: 1080p.mp4")
	if d.Status != models.StatusDownloading || d.Filename != "Clip 1080p.mp4" {
		t.Errorf("RequestDownload() = %+v", d)
	}
	svc.Wait()

	got, ok := svc.GetDownload(d.ID)
	if !ok {
		t.Fatal("download not tracked")
	}
	if got.Status != models.StatusCompleted || got.Bytes != int64(len("video bytes")) || got.EndTime == nil {
		t.Errorf("GetDownload() = %+v", got)
	}

	data, err := os.ReadFile(filepath.Join(storage.CompletedDir, "Clip 1080p.mp4"))
	if err != nil || string(data) != "video bytes" {
		t.Errorf("saved file = %q, %v", data, err)
	}

	entries, _ := os.ReadDir(storage.OngoingDir)
	if len(entries) != 0 {
		t.Errorf("ongoing dir not cleaned up: %d entries", len(entries))
	}

	if len(rec.records) != 2 || rec.records[1].Status != models.StatusCompleted {
		t.Errorf("recorded %+v", rec.records)
	}

	_, path, err := svc.FilePath(d.ID)
	if err != nil || filepath.Base(path) != "Clip 1080p.mp4" {
		t.Errorf("FilePath() = %q, %v", path, err)
	}
}

func TestRequestDownloadFailure(t *testing.T) {
	svc, storage := newTestDownloadService(t, &fakeDownloader{}, nil)

	d := svc.RequestDownload(context.Background(), "abc", "missing", "clip.mp4")
	svc.Wait()

	got, _ := svc.GetDownload(d.ID)
	if got.Status != models.StatusFailed || got.Error == nil || *got.Error != MsgDownloadFailed {
		t.Errorf("GetDownload() = %+v", got)
	}
	if storage.FileExists(filepath.Join(storage.CompletedDir, "clip.mp4")) {
		t.Error("failed download left a file behind")
	}
}

func TestConcurrentDownloadsTrackedIndependently(t *testing.T) {
	gate := make(chan struct{})
	svc, _ := newTestDownloadService(t, &fakeDownloader{
		payloads: map[string]string{"137": "a", "140": "b"},
		gate:     gate,
	}, nil)

	first := svc.RequestDownload(context.Background(), "abc", "137", "clip.mp4")
	second := svc.RequestDownload(context.Background(), "abc", "140", "clip.m4a")
	bad := svc.RequestDownload(context.Background(), "abc", "nope", "clip.webm")

	if first.ID == second.ID {
		t.Fatal("downloads share an id")
	}
	if n := svc.InFlight(); n != 3 {
		t.Errorf("InFlight() = %d, want 3", n)
	}

	close(gate)
	svc.Wait()

	for id, want := range map[string]string{
		first.ID:  models.StatusCompleted,
		second.ID: models.StatusCompleted,
		bad.ID:    models.StatusFailed,
	} {
		got, _ := svc.GetDownload(id)
		if got.Status != want {
			t.Errorf("download %s status = %s, want %s", got.Filename, got.Status, want)
		}
	}
	if n := svc.InFlight(); n != 0 {
		t.Errorf("InFlight() = %d after Wait, want 0", n)
	}
	if len(svc.List()) != 3 {
		t.Errorf("List() = %d entries, want 3", len(svc.List()))
	}
}

func TestDuplicateNamesDoNotClobber(t *testing.T) {
	svc, storage := newTestDownloadService(t, &fakeDownloader{payloads: map[string]string{"137": "x"}}, nil)

	a := svc.RequestDownload(context.Background(), "abc", "137", "clip.mp4")
	svc.Wait()
	b := svc.RequestDownload(context.Background(), "abc", "137", "clip.mp4")
	svc.Wait()

	ga, _ := svc.GetDownload(a.ID)
	gb, _ := svc.GetDownload(b.ID)
	if ga.Filename != "clip.mp4" || gb.Filename != "clip (1).mp4" {
		t.Errorf("filenames = %q, %q", ga.Filename, gb.Filename)
	}
	if !storage.FileExists(filepath.Join(storage.CompletedDir, "clip (1).mp4")) {
		t.Error("second file missing")
	}
}

func TestLoadHistory(t *testing.T) {
	rec := &recorder{}
	svc, _ := newTestDownloadService(t, &fakeDownloader{}, rec.save)

	svc.LoadHistory([]models.Download{
		{ID: "done", Status: models.StatusCompleted},
		{ID: "interrupted", Status: models.StatusDownloading},
	})

	done, _ := svc.GetDownload("done")
	if done.Status != models.StatusCompleted {
		t.Errorf("done = %+v", done)
	}
	interrupted, _ := svc.GetDownload("interrupted")
	if interrupted.Status != models.StatusFailed {
		t.Errorf("interrupted = %+v", interrupted)
	}
	if len(rec.records) != 1 || rec.records[0].ID != "interrupted" {
		t.Errorf("recorded %+v", rec.records)
	}
}

func TestDeleteDownloadFile(t *testing.T) {
	svc, storage := newTestDownloadService(t, &fakeDownloader{payloads: map[string]string{"137": "x"}}, nil)

	d := svc.RequestDownload(context.Background(), "abc", "137", "clip.mp4")
	svc.Wait()

	if err := svc.DeleteFile(d.ID); err != nil {
		t.Fatalf("DeleteFile() error = %v", err)
	}
	if storage.FileExists(filepath.Join(storage.CompletedDir, "clip.mp4")) {
		t.Error("file still exists")
	}
	if err := svc.DeleteFile("unknown"); !errors.Is(err, ErrDownloadNotFound) {
		t.Errorf("DeleteFile(unknown) error = %v", err)
	}
}

func TestDeleteFileOnlyRemovesCompletedDownloads(t *testing.T) {
	rec := &recorder{}
	f := &fakeDownloader{payloads: map[string]string{"137": "first"}}
	svc, storage := newTestDownloadService(t, f, rec.save)
	done := filepath.Join(storage.CompletedDir, "clip.mp4")

	first := svc.RequestDownload(context.Background(), "abc", "137", "clip.mp4")
	svc.Wait()

	failed := svc.RequestDownload(context.Background(), "abc", "missing", "clip.mp4")
	svc.Wait()

	f.gate = make(chan struct{})
	pending := svc.RequestDownload(context.Background(), "abc", "137", "clip.mp4")

	for _, id := range []string{pending.ID, failed.ID} {
		if err := svc.DeleteFile(id); !errors.Is(err, ErrDownloadNotStored) {
			t.Errorf("DeleteFile(%s) error = %v, want ErrDownloadNotStored", id, err)
		}
	}
	if !storage.FileExists(done) {
		t.Fatal("completed download's file was removed")
	}
	if got, _ := svc.GetDownload(first.ID); got.Status != models.StatusCompleted {
		t.Errorf("first download = %+v", got)
	}

	close(f.gate)
	svc.Wait()
}

func TestDeleteFileMarksDownloadDeleted(t *testing.T) {
	rec := &recorder{}
	svc, storage := newTestDownloadService(t, &fakeDownloader{payloads: map[string]string{"137": "x"}}, rec.save)

	d := svc.RequestDownload(context.Background(), "abc", "137", "clip.mp4")
	svc.Wait()

	if err := svc.DeleteFile(d.ID); err != nil {
		t.Fatalf("DeleteFile() error = %v", err)
	}
	got, _ := svc.GetDownload(d.ID)
	if got.Status != models.StatusDeleted {
		t.Errorf("status after delete = %s, want %s", got.Status, models.StatusDeleted)
	}
	if last := rec.records[len(rec.records)-1]; last.ID != d.ID || last.Status != models.StatusDeleted {
		t.Errorf("last record = %+v", last)
	}
	if _, path, _ := svc.FilePath(d.ID); path != "" {
		t.Errorf("FilePath() = %q for a deleted download", path)
	}

	if err := svc.DeleteFile(d.ID); !errors.Is(err, ErrDownloadNotStored) {
		t.Errorf("second DeleteFile() error = %v", err)
	}

	// A later download may reuse the freed name.
	again := svc.RequestDownload(context.Background(), "abc", "137", "clip.mp4")
	svc.Wait()
	if got, _ := svc.GetDownload(again.ID); got.Filename != "clip.mp4" {
		t.Errorf("reused name = %q", got.Filename)
	}
	if !storage.FileExists(filepath.Join(storage.CompletedDir, "clip.mp4")) {
		t.Error("new file missing")
	}
}
