package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/MayAshke/JaMoveo-server/internal/song"
)

// Registry holds every active rehearsal session plus the process-wide
// last-selected song. Sessions are created implicitly on first use and
// reclaimed by Sweep; nothing here survives a restart.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	current  *song.Song // most recent selection across all sessions

	idleTimeout    time.Duration
	endedRetention time.Duration
	now            func() time.Time
}

type RegistryOptions struct {
	IdleTimeout    time.Duration // evict sessions untouched this long; 0 disables
	EndedRetention time.Duration // keep ended sessions around this long; 0 evicts on next sweep
	Now            func() time.Time
}

func NewRegistry(opts RegistryOptions) *Registry {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{
		sessions:       make(map[string]*Session),
		idleTimeout:    opts.IdleTimeout,
		endedRetention: opts.EndedRetention,
		now:            opts.Now,
	}
}

// GetOrCreate returns the session for id, creating an idle one if
// needed. It never fails; unknown ids become new rooms. Existing
// sessions are touched, so a join counts as activity and resets the
// idle clock.
func (r *Registry) GetOrCreate(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getOrCreateLocked(id).Clone()
}

func (r *Registry) getOrCreateLocked(id string) *Session {
	if s, ok := r.sessions[id]; ok {
		s.TouchedAt = r.now()
		return s
	}
	s := &Session{ID: id, Status: Idle, TouchedAt: r.now()}
	r.sessions[id] = s
	return s
}

// SetSong puts song on the session's stand, marks it live, and records
// the song as the global current selection. Both updates happen under
// one lock acquisition so no reader sees one without the other.
func (r *Registry) SetSong(id string, sg *song.Song) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.getOrCreateLocked(id)
	s.Song = sg.Clone()
	s.Status = Live
	s.TouchedAt = r.now()
	r.current = sg.Clone()
	return s.Clone()
}

// End marks the session ended and clears its song so a stale payload is
// never replayed for a finished rehearsal. Unknown ids are a no-op.
// The global current song is deliberately left alone: it tracks the
// last selection process-wide, not any one session's lifecycle.
func (r *Registry) End(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return
	}
	s.Status = Ended
	s.Song = nil
	s.TouchedAt = r.now()
}

// Get returns a copy of the session, if it exists.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Current returns the last song selected in any session, or nil if no
// selection has happened since the process started.
func (r *Registry) Current() *song.Song {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.Clone()
}

// Count reports how many sessions are currently held.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep evicts ended sessions past their retention window and any
// session untouched past the idle timeout. Returns how many were
// removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, s := range r.sessions {
		switch {
		case s.Status == Ended && now.Sub(s.TouchedAt) >= r.endedRetention:
			delete(r.sessions, id)
			removed++
		case r.idleTimeout > 0 && now.Sub(s.TouchedAt) >= r.idleTimeout:
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper sweeps on interval until ctx is cancelled.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				log.Printf("registry sweep: evicted %d session(s), %d remain", n, r.Count())
			}
		}
	}
}
