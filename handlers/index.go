package handlers

import (
	"embed"
	"html/template"
	"log"
	"net/http"
	"strings"

	"github.com/vicradon/ytfetch/models"
	"github.com/vicradon/ytfetch/services"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"upper": strings.ToUpper,
}).ParseFS(templateFS, "templates/index.html"))

const sessionCookie = "ytfetch_session"

type pageData struct {
	URL       string
	Error     string
	Loading   bool
	View      services.ResultView
	Downloads []models.Download
}

// session resolves the caller's FetchSession, issuing a cookie for new
// visitors.
func session(w http.ResponseWriter, r *http.Request, sessions *services.SessionStore) *services.FetchSession {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}
	newID, s := sessions.Get(id)
	if newID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    newID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return s
}

type IndexHandler struct {
	sessions        *services.SessionStore
	downloadService *services.DownloadService
}

func NewIndexHandler(sessions *services.SessionStore, downloadService *services.DownloadService) *IndexHandler {
	return &IndexHandler{
		sessions:        sessions,
		downloadService: downloadService,
	}
}

// ServeHTTP renders the page. Viewing it does not start a session; the
// first fetch does.
func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snap := services.Snapshot{State: services.StateIdle}
	if c, err := r.Cookie(sessionCookie); err == nil {
		if s, ok := h.sessions.Lookup(c.Value); ok {
			snap = s.Snapshot()
		}
	}
	h.render(w, snap)
}

func (h *IndexHandler) render(w http.ResponseWriter, snap services.Snapshot) {
	data := pageData{
		URL:       snap.URL,
		Error:     snap.Error,
		Loading:   snap.State == services.StateLoading,
		View:      services.BuildView(snap.Result),
		Downloads: h.downloadService.List(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		log.Printf("Error rendering page: %v", err)
	}
}

// FetchHandler handles the URL form.
type FetchHandler struct {
	*IndexHandler
}

func NewFetchHandler(index *IndexHandler) *FetchHandler {
	return &FetchHandler{IndexHandler: index}
}

func (h *FetchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	s := session(w, r, h.sessions)
	snap := s.Fetch(r.Context(), r.PostForm.Get("url"))
	if snap.Stale {
		// A newer submit from the same session owns the page now.
		snap = s.Snapshot()
	}
	h.render(w, snap)
}
