package session

import (
	"encoding/json"
	"time"

	"github.com/MayAshke/JaMoveo-server/internal/song"
)

type Status int

const (
	Idle Status = iota
	Live
	Ended
)

var statusNames = map[Status]string{
	Idle:  "idle",
	Live:  "live",
	Ended: "ended",
}

var statusFromName = map[string]Status{
	"idle":  Idle,
	"live":  Live,
	"ended": Ended,
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	if v, ok := statusFromName[name]; ok {
		*s = v
	}
	return nil
}

// Session is one rehearsal room: the song currently on everyone's
// screen and where the room is in its lifecycle.
type Session struct {
	ID        string     `json:"id"`
	Song      *song.Song `json:"song,omitempty"`
	Status    Status     `json:"status"`
	TouchedAt time.Time  `json:"-"`
}

// Clone returns a deep copy so callers can hold the result without
// racing the registry.
func (s *Session) Clone() *Session {
	c := *s
	c.Song = s.Song.Clone()
	return &c
}
