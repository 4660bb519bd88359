package song

// Song is the payload the broadcast engine routes between clients. The
// engine never interprets Content; the catalog stores it and clients
// render it (chords + lyrics for players, lyrics only for singers).
type Song struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title"`
	Artist  string `json:"artist,omitempty"`
	Content string `json:"content,omitempty"`
}

// Clone returns an independent copy, safe to hand to another goroutine.
func (s *Song) Clone() *Song {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
