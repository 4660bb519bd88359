package ws

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/MayAshke/JaMoveo-server/internal/session"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Event
	}{
		{
			name: "JoinSession",
			in:   `{"event":"joinSession","sessionId":"room1"}`,
			want: JoinSession{SessionID: "room1"},
		},
		{
			name: "SongSelected",
			in:   `{"event":"songSelected","sessionId":"room1","song":{"title":"Let It Be"}}`,
			want: SongSelected{},
		},
		{
			name: "GetCurrentSong",
			in:   `{"event":"getCurrentSong"}`,
			want: GetCurrentSong{},
		},
		{
			name: "EndSession",
			in:   `{"event":"endSession","sessionId":"room1"}`,
			want: EndSession{SessionID: "room1"},
		},
		{
			name: "AdminQuit",
			in:   `{"event":"adminQuit"}`,
			want: AdminQuit{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseEvent([]byte(tt.in))
			if err != nil {
				t.Fatalf("ParseEvent: %v", err)
			}
			switch want := tt.want.(type) {
			case JoinSession:
				got, ok := ev.(JoinSession)
				if !ok || got != want {
					t.Errorf("got %#v, want %#v", ev, want)
				}
			case SongSelected:
				got, ok := ev.(SongSelected)
				if !ok {
					t.Fatalf("got %#v, want %#v", ev, want)
				}
				if got.SessionID != "room1" || got.Song == nil || got.Song.Title != "Let It Be" {
					t.Errorf("got %#v", got)
				}
			case GetCurrentSong:
				if _, ok := ev.(GetCurrentSong); !ok {
					t.Errorf("got %#v, want %#v", ev, want)
				}
			case EndSession:
				got, ok := ev.(EndSession)
				if !ok || got != want {
					t.Errorf("got %#v, want %#v", ev, want)
				}
			case AdminQuit:
				if _, ok := ev.(AdminQuit); !ok {
					t.Errorf("got %#v, want %#v", ev, want)
				}
			}
		})
	}
}

func TestParseEvent_Malformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"NotJSON", `{{{}`},
		{"UnknownEvent", `{"event":"danceParty"}`},
		{"NoEvent", `{"sessionId":"room1"}`},
		{"JoinWithoutSession", `{"event":"joinSession"}`},
		{"SongSelectedWithoutSession", `{"event":"songSelected","song":{"title":"x"}}`},
		{"SongSelectedWithoutSong", `{"event":"songSelected","sessionId":"room1"}`},
		{"EndWithoutSession", `{"event":"endSession"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseEvent([]byte(tt.in)); err == nil {
				t.Errorf("ParseEvent(%s) succeeded, want error", tt.in)
			}
		})
	}
}

func TestMessageEncoding(t *testing.T) {
	data := endedStatusMsg("room1").encode()
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["event"] != "changeStatus" || m["status"] != "ended" {
		t.Errorf("ended message = %s", data)
	}
	if _, ok := m["song"]; ok {
		t.Errorf("ended message should carry no song: %s", data)
	}

	if got := string(currentSongMsg(nil).encode()); strings.Contains(got, "song") {
		t.Errorf("empty current song should omit the field: %s", got)
	}
}

func TestStatusRoundTrip(t *testing.T) {
	for _, st := range []session.Status{session.Idle, session.Live, session.Ended} {
		data, err := json.Marshal(st)
		if err != nil {
			t.Fatalf("marshal %v: %v", st, err)
		}
		var back session.Status
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if back != st {
			t.Errorf("round trip %v -> %s -> %v", st, data, back)
		}
	}
}
