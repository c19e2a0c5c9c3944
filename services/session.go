package services

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vicradon/ytfetch/models"
)

type InfoFetcher interface {
	FetchInfo(ctx context.Context, videoURL string) (models.ResultSet, error)
}

type FetchState string

const (
	StateIdle      FetchState = "idle"
	StateLoading   FetchState = "loading"
	StateSucceeded FetchState = "succeeded"
	StateFailed    FetchState = "failed"
)

type Snapshot struct {
	State      FetchState
	URL        string
	Result     models.ResultSet
	Error      string
	Generation uint64

	// Stale is set on the value returned to a caller whose request was
	// superseded; such outcomes are never applied.
	Stale bool

	// Rejected marks input refused before any request was made.
	Rejected bool
}

// FetchSession owns one user's fetch lifecycle. Only the outcome of the most
// recently started fetch is ever applied.
type FetchSession struct {
	fetcher InfoFetcher

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	snap   Snapshot
}

func NewFetchSession(fetcher InfoFetcher) *FetchSession {
	return &FetchSession{
		fetcher: fetcher,
		snap:    Snapshot{State: StateIdle},
	}
}

func (s *FetchSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *FetchSession) Fetch(ctx context.Context, videoURL string) Snapshot {
	if strings.TrimSpace(videoURL) == "" {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.snap.Error = MsgEmptyURL
		snap := s.snap
		snap.Rejected = true
		return snap
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.snap = Snapshot{State: StateLoading, URL: videoURL, Generation: gen}
	s.mu.Unlock()

	rs, err := s.fetcher.FetchInfo(ctx, videoURL)

	s.mu.Lock()
	defer s.mu.Unlock()
	cancel()

	if gen != s.gen {
		log.Printf("Fetch %d for %s superseded by %d, discarding", gen, videoURL, s.gen)
		return Snapshot{State: StateLoading, URL: videoURL, Generation: gen, Stale: true}
	}
	s.cancel = nil

	if err != nil {
		log.Printf("Fetch %d for %s failed: %v", gen, videoURL, err)
		s.snap = Snapshot{State: StateFailed, URL: videoURL, Error: UserMessage(err), Generation: gen}
		return s.snap
	}

	s.snap = Snapshot{State: StateSucceeded, URL: videoURL, Result: rs, Generation: gen}
	return s.snap
}

// DefaultSessionTTL is how long an unused session is kept.
const DefaultSessionTTL = 24 * time.Hour

type sessionEntry struct {
	session  *FetchSession
	lastSeen time.Time
}

// SessionStore hands out one FetchSession per browser session. Sessions idle
// for longer than the TTL are swept.
type SessionStore struct {
	fetcher InfoFetcher
	ttl     time.Duration

	mu        sync.Mutex
	sessions  map[string]*sessionEntry
	lastSweep time.Time
	now       func() time.Time
}

func NewSessionStore(fetcher InfoFetcher, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		fetcher:   fetcher,
		ttl:       ttl,
		sessions:  make(map[string]*sessionEntry),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Get returns the session for id, creating one (and a new id) when id is
// empty or unknown.
func (st *SessionStore) Get(id string) (string, *FetchSession) {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	if now.Sub(st.lastSweep) >= st.ttl {
		st.sweep(now)
	}

	if e, ok := st.sessions[id]; ok {
		e.lastSeen = now
		return id, e.session
	}

	id = uuid.NewString()
	s := NewFetchSession(st.fetcher)
	st.sessions[id] = &sessionEntry{session: s, lastSeen: now}
	return id, s
}

// Lookup never creates a session.
func (st *SessionStore) Lookup(id string) (*FetchSession, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = st.now()
	return e.session, true
}

func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// sweep drops sessions idle for longer than the TTL. Callers hold st.mu.
func (st *SessionStore) sweep(now time.Time) {
	removed := 0
	for id, e := range st.sessions {
		if now.Sub(e.lastSeen) > st.ttl {
			delete(st.sessions, id)
			removed++
		}
	}
	st.lastSweep = now
	if removed > 0 {
		log.Printf("Swept %d idle sessions, %d remain", removed, len(st.sessions))
	}
}
