package ws

import (
	"encoding/json"
	"fmt"

	"github.com/MayAshke/JaMoveo-server/internal/session"
	"github.com/MayAshke/JaMoveo-server/internal/song"
)

type EventType string

// Inbound event names, as emitted by clients.
const (
	EvtJoinSession    EventType = "joinSession"
	EvtSongSelected   EventType = "songSelected"
	EvtGetCurrentSong EventType = "getCurrentSong"
	EvtEndSession     EventType = "endSession"
	EvtAdminQuit      EventType = "adminQuit"
)

// Outbound message names, as expected by clients.
const (
	MsgCurrentSong  EventType = "currentSong"
	MsgChangeStatus EventType = "changeStatus"
	MsgSongSelected EventType = "songSelected"
	MsgForceQuit    EventType = "forceQuit"
)

// Event is the parsed form of one inbound frame. Exactly one concrete
// type exists per event name so the router can switch exhaustively.
type Event interface {
	isEvent()
}

type JoinSession struct {
	SessionID string
}

type SongSelected struct {
	SessionID string
	Song      *song.Song
}

type GetCurrentSong struct{}

type EndSession struct {
	SessionID string
}

type AdminQuit struct{}

func (JoinSession) isEvent()    {}
func (SongSelected) isEvent()   {}
func (GetCurrentSong) isEvent() {}
func (EndSession) isEvent()     {}
func (AdminQuit) isEvent()      {}

// frame is the wire shape shared by every inbound event.
type frame struct {
	Event     EventType  `json:"event"`
	SessionID string     `json:"sessionId,omitempty"`
	Song      *song.Song `json:"song,omitempty"`
}

// ParseEvent decodes one inbound frame into its typed event. Unknown
// names and missing required fields are errors; the caller logs and
// drops, never crashes.
func ParseEvent(data []byte) (Event, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	switch f.Event {
	case EvtJoinSession:
		if f.SessionID == "" {
			return nil, fmt.Errorf("%s: sessionId is required", f.Event)
		}
		return JoinSession{SessionID: f.SessionID}, nil
	case EvtSongSelected:
		if f.SessionID == "" {
			return nil, fmt.Errorf("%s: sessionId is required", f.Event)
		}
		if f.Song == nil {
			return nil, fmt.Errorf("%s: song is required", f.Event)
		}
		return SongSelected{SessionID: f.SessionID, Song: f.Song}, nil
	case EvtGetCurrentSong:
		return GetCurrentSong{}, nil
	case EvtEndSession:
		if f.SessionID == "" {
			return nil, fmt.Errorf("%s: sessionId is required", f.Event)
		}
		return EndSession{SessionID: f.SessionID}, nil
	case EvtAdminQuit:
		return AdminQuit{}, nil
	default:
		return nil, fmt.Errorf("unknown event %q", f.Event)
	}
}

// Message is one outbound frame.
type Message struct {
	Event     EventType       `json:"event"`
	SessionID string          `json:"sessionId,omitempty"`
	Status    *session.Status `json:"status,omitempty"`
	Song      *song.Song      `json:"song,omitempty"`
}

func (m Message) encode() []byte {
	data, err := json.Marshal(m)
	if err != nil {
		// Message holds only marshalable fields; this cannot fire.
		panic(err)
	}
	return data
}

func statusPtr(s session.Status) *session.Status {
	return &s
}

// currentSongMsg carries the global current song; Song is null when no
// selection has happened yet.
func currentSongMsg(sg *song.Song) Message {
	return Message{Event: MsgCurrentSong, Song: sg}
}

func liveStatusMsg(sessionID string, sg *song.Song) Message {
	return Message{
		Event:     MsgChangeStatus,
		SessionID: sessionID,
		Status:    statusPtr(session.Live),
		Song:      sg,
	}
}

func endedStatusMsg(sessionID string) Message {
	return Message{
		Event:     MsgChangeStatus,
		SessionID: sessionID,
		Status:    statusPtr(session.Ended),
	}
}

func songSelectedMsg(sg *song.Song) Message {
	return Message{Event: MsgSongSelected, Song: sg}
}

func forceQuitMsg() Message {
	return Message{Event: MsgForceQuit}
}
