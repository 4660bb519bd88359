package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/MayAshke/JaMoveo-server/internal/auth"
	"github.com/MayAshke/JaMoveo-server/internal/catalog"
	"github.com/MayAshke/JaMoveo-server/internal/session"
	"github.com/MayAshke/JaMoveo-server/internal/store"
	"github.com/gorilla/websocket"
	"github.com/shirou/gopsutil/v3/process"
)

type Server struct {
	registry *session.Registry
	gateway  *Gateway
	router   *Router
	verifier *auth.Verifier
	songs    *catalog.Catalog
	store    *store.Store

	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
}

func NewServer(registry *session.Registry, gateway *Gateway, router *Router, verifier *auth.Verifier, songs *catalog.Catalog, st *store.Store, allowedOrigins []string) *Server {
	s := &Server{
		registry:       registry,
		gateway:        gateway,
		router:         router,
		verifier:       verifier,
		songs:          songs,
		store:          st,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
	}

	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("POST /api/rehearsals", s.handleCreateRehearsal)
	mux.HandleFunc("POST /api/rehearsals/{id}/join", s.handleJoinRehearsal)
	mux.HandleFunc("GET /api/songs", s.handleListSongs)
	mux.HandleFunc("GET /api/songs/{id}", s.handleGetSong)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "JaMoveo API is running")
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	identity, err := s.verifier.FromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	connID, err := s.gateway.Add(conn)
	if err != nil {
		log.Printf("rejecting connection from %s: %v", r.RemoteAddr, err)
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()))
		conn.Close()
		return
	}

	log.Printf("conn %s connected: user=%s role=%s addr=%s", connID, identity.UserID, identity.Role, r.RemoteAddr)

	go func() {
		defer func() {
			s.gateway.Remove(connID)
			log.Printf("conn %s disconnected: user=%s", connID, identity.UserID)
		}()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			s.router.HandleFrame(connID, data)
		}
	}()
}

// handleCreateRehearsal is the one role-checked entry point: only an
// admin schedules a rehearsal. The realtime channel itself stays
// unchecked (see Router.Dispatch).
func (s *Server) handleCreateRehearsal(w http.ResponseWriter, r *http.Request) {
	identity, err := s.verifier.FromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if !identity.IsAdmin() {
		http.Error(w, "only admins can create rehearsals", http.StatusForbidden)
		return
	}

	rehearsal, err := s.store.CreateRehearsal(r.Context(), identity.UserID)
	if err != nil {
		log.Printf("create rehearsal: %v", err)
		http.Error(w, "error creating rehearsal", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, rehearsal)
}

func (s *Server) handleJoinRehearsal(w http.ResponseWriter, r *http.Request) {
	identity, err := s.verifier.FromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	participant, err := s.store.AddParticipant(r.Context(), r.PathValue("id"), identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "rehearsal not found", http.StatusNotFound)
			return
		}
		log.Printf("join rehearsal: %v", err)
		http.Error(w, "error joining rehearsal", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, participant)
}

func (s *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := s.songs.List(r.Context())
	if err != nil {
		log.Printf("list songs: %v", err)
		http.Error(w, "error listing songs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

func (s *Server) handleGetSong(w http.ResponseWriter, r *http.Request) {
	sg, err := s.songs.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.Error(w, "song not found", http.StatusNotFound)
			return
		}
		log.Printf("get song: %v", err)
		http.Error(w, "error fetching song", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sg)
}

type healthPayload struct {
	Status      string  `json:"status"`
	Connections int     `json:"connections"`
	Sessions    int     `json:"sessions"`
	CPUPercent  float64 `json:"cpuPercent"`
	RSSBytes    uint64  `json:"rssBytes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	payload := healthPayload{
		Status:      "ok",
		Connections: s.gateway.Count(),
		Sessions:    s.registry.Count(),
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if cpu, err := proc.CPUPercent(); err == nil {
			payload.CPUPercent = cpu
		}
		if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
			payload.RSSBytes = mem.RSS
		}
	}

	writeJSON(w, http.StatusOK, payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := parsed.Host
	if host == "" {
		return false
	}

	if host == r.Host {
		return true
	}

	if strings.HasPrefix(host, "localhost:") || host == "localhost" {
		return true
	}
	if strings.HasPrefix(host, "127.0.0.1:") || host == "127.0.0.1" {
		return true
	}
	if strings.HasPrefix(host, "[::1]:") || host == "::1" {
		return true
	}

	return false
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

func ListenAndServe(host string, port int, mux *http.ServeMux) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	log.Printf("Server listening on %s", addr)
	return http.ListenAndServe(addr, securityHeaders(mux))
}
