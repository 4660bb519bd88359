package ws

import (
	"log"
	"sync"

	"github.com/MayAshke/JaMoveo-server/internal/session"
)

// Sender delivers outbound messages. Implementations must enqueue
// without blocking; the gateway's per-client buffers satisfy this.
type Sender interface {
	// Unicast delivers to a single connection.
	Unicast(connID string, msg Message)
	// ToSession delivers to every current member of a session.
	ToSession(sessionID string, msg Message)
	// Broadcast delivers to every connection.
	Broadcast(msg Message)
}

// Router applies inbound events to the registry and tracker and fans
// the results out through a Sender.
//
// A single mutex serializes Dispatch end to end: state mutation,
// audience computation, and enqueueing all happen before the next
// event is processed, so two near-simultaneous songSelected events can
// never interleave their broadcasts. Actual socket writes happen later
// in per-client write pumps and are not covered by the lock.
type Router struct {
	mu       sync.Mutex
	registry *session.Registry
	tracker  *session.Tracker
	sender   Sender
}

func NewRouter(registry *session.Registry, tracker *session.Tracker, sender Sender) *Router {
	return &Router{
		registry: registry,
		tracker:  tracker,
		sender:   sender,
	}
}

// Dispatch applies one event from connID.
//
// No role check happens here: any connected client may select a song,
// end a session, or force-quit everyone. The only admin-only gate in
// the system is rehearsal creation over HTTP; once connected, clients
// are trusted equally.
func (r *Router) Dispatch(connID string, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e := ev.(type) {
	case JoinSession:
		r.tracker.Join(connID, e.SessionID)
		r.registry.GetOrCreate(e.SessionID)
		log.Printf("conn %s joined session %s", connID, e.SessionID)

	case SongSelected:
		s := r.registry.SetSong(e.SessionID, e.Song)
		// Dual broadcast: the room gets the live view, everyone gets
		// the global now-playing notification that backs current-song
		// replay for late joiners.
		r.sender.ToSession(e.SessionID, liveStatusMsg(e.SessionID, s.Song))
		r.sender.Broadcast(songSelectedMsg(s.Song))
		log.Printf("session %s live with %q (selected by conn %s)", e.SessionID, e.Song.Title, connID)

	case GetCurrentSong:
		r.sender.Unicast(connID, currentSongMsg(r.registry.Current()))

	case EndSession:
		r.registry.End(e.SessionID)
		r.sender.ToSession(e.SessionID, endedStatusMsg(e.SessionID))
		log.Printf("session %s ended by conn %s", e.SessionID, connID)

	case AdminQuit:
		r.sender.Broadcast(forceQuitMsg())
		log.Printf("force quit issued by conn %s", connID)
	}
}

// HandleFrame parses and dispatches one raw inbound frame. Malformed
// frames are logged and dropped; nothing a client sends can take the
// router down.
func (r *Router) HandleFrame(connID string, data []byte) {
	ev, err := ParseEvent(data)
	if err != nil {
		log.Printf("dropping bad frame from conn %s: %v", connID, err)
		return
	}
	r.Dispatch(connID, ev)
}
