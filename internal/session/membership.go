package session

import "sync"

// Tracker maintains the connection <-> session relation used to compute
// broadcast audiences. A connection may be a member of several sessions
// at once; joining a new room does not leave the previous one. The
// tracker never owns connections, it only knows their ids.
type Tracker struct {
	mu     sync.RWMutex
	bySess map[string]map[string]struct{} // session id -> member conn ids
	byConn map[string]map[string]struct{} // conn id -> joined session ids
}

func NewTracker() *Tracker {
	return &Tracker{
		bySess: make(map[string]map[string]struct{}),
		byConn: make(map[string]map[string]struct{}),
	}
}

// Join adds connID to sessionID's member set. Joining twice is a no-op.
func (t *Tracker) Join(connID, sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bySess[sessionID] == nil {
		t.bySess[sessionID] = make(map[string]struct{})
	}
	t.bySess[sessionID][connID] = struct{}{}

	if t.byConn[connID] == nil {
		t.byConn[connID] = make(map[string]struct{})
	}
	t.byConn[connID][sessionID] = struct{}{}
}

// Leave removes connID from a single session.
func (t *Tracker) Leave(connID, sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.leaveLocked(connID, sessionID)
}

// LeaveAll removes connID from every session it joined. Called on
// disconnect.
func (t *Tracker) LeaveAll(connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for sessionID := range t.byConn[connID] {
		t.leaveLocked(connID, sessionID)
	}
}

func (t *Tracker) leaveLocked(connID, sessionID string) {
	if members, ok := t.bySess[sessionID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(t.bySess, sessionID)
		}
	}
	if joined, ok := t.byConn[connID]; ok {
		delete(joined, sessionID)
		if len(joined) == 0 {
			delete(t.byConn, connID)
		}
	}
}

// MembersOf returns a snapshot of the connection ids joined to
// sessionID at the moment of the call. An unknown session yields an
// empty slice.
func (t *Tracker) MembersOf(sessionID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	members := t.bySess[sessionID]
	out := make([]string, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

// Sessions returns the session ids connID has joined.
func (t *Tracker) Sessions(connID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	joined := t.byConn[connID]
	out := make([]string, 0, len(joined))
	for id := range joined {
		out = append(out, id)
	}
	return out
}
