// Package playlist implements the per-session playlist store: an ordered
// track list, a cursor into it and a bounded play-history log.
package playlist

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"audiofetch/pkg/models"
)

var (
	// ErrTrackNotFound is returned when no track matches the given identifier
	ErrTrackNotFound = errors.New("track not found in playlist")
	// ErrEmptyPlaylist is returned by cursor moves on an empty playlist
	ErrEmptyPlaylist = errors.New("playlist is empty")
)

// HistoryLimit caps the play-history log, newest entries first
const HistoryLimit = 50

// session holds one browser session's playlist under its own lock so that
// operations for one session serialize without blocking other sessions
type session struct {
	mu      sync.Mutex
	tracks  []models.Track
	current int
	history []models.HistoryEntry
}

// Store maps session identifiers to lazily created playlist state
type Store struct {
	mu       sync.Mutex
	sessions map[string]*session
	logger   *slog.Logger
}

// NewStore creates an empty playlist store
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*session),
		logger:   slog.Default(),
	}
}

// forSession returns the session state, creating it on first access
func (s *Store) forSession(sessionID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[sessionID]
	if !exists {
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	return sess
}

// Get returns a snapshot of the session's playlist state
func (s *Store) Get(sessionID string) models.PlaylistState {
	sess := s.forSession(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot()
}

// snapshot copies the state so callers never alias internal slices.
// Caller must hold the session lock.
func (sess *session) snapshot() models.PlaylistState {
	state := models.PlaylistState{
		Tracks:       make([]models.Track, len(sess.tracks)),
		CurrentIndex: sess.current,
		History:      make([]models.HistoryEntry, len(sess.history)),
	}
	copy(state.Tracks, sess.tracks)
	copy(state.History, sess.history)
	return state
}

// Add appends the track unless one with the same identifier is already
// present, in which case the existing index is reported instead.
func (s *Store) Add(sessionID string, track models.Track) (index int, added bool) {
	sess := s.forSession(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	for i, existing := range sess.tracks {
		if existing.ID == track.ID {
			return i, false
		}
	}

	sess.tracks = append(sess.tracks, track)
	s.logger.Debug("Track added to playlist", "track_id", track.ID, "title", track.Title)
	return len(sess.tracks) - 1, true
}

// Remove deletes the first track matching trackID, adjusting the cursor so
// it stays a valid index (or 0 when the list empties)
func (s *Store) Remove(sessionID, trackID string) error {
	sess := s.forSession(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	index := -1
	for i, track := range sess.tracks {
		if track.ID == trackID {
			index = i
			break
		}
	}
	if index == -1 {
		return ErrTrackNotFound
	}

	sess.tracks = append(sess.tracks[:index], sess.tracks[index+1:]...)

	switch {
	case len(sess.tracks) == 0:
		sess.current = 0
	case index < sess.current:
		sess.current--
	case sess.current >= len(sess.tracks):
		sess.current = len(sess.tracks) - 1
	}

	return nil
}

// SetCurrent points the cursor at the given track and records a play event
func (s *Store) SetCurrent(sessionID, trackID string) (int, *models.Track, error) {
	sess := s.forSession(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	for i, track := range sess.tracks {
		if track.ID == trackID {
			sess.current = i
			sess.pushHistory(track)
			t := track
			return i, &t, nil
		}
	}
	return 0, nil, ErrTrackNotFound
}

// Next advances the cursor with wraparound and records a play event
func (s *Store) Next(sessionID string) (int, *models.Track, error) {
	return s.move(sessionID, 1)
}

// Prev retreats the cursor with wraparound and records a play event
func (s *Store) Prev(sessionID string) (int, *models.Track, error) {
	return s.move(sessionID, -1)
}

func (s *Store) move(sessionID string, delta int) (int, *models.Track, error) {
	sess := s.forSession(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	length := len(sess.tracks)
	if length == 0 {
		return 0, nil, ErrEmptyPlaylist
	}

	sess.current = ((sess.current+delta)%length + length) % length
	track := sess.tracks[sess.current]
	sess.pushHistory(track)
	return sess.current, &track, nil
}

// Clear resets the session to an empty track list, cursor 0 and no history
func (s *Store) Clear(sessionID string) {
	sess := s.forSession(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.tracks = nil
	sess.current = 0
	sess.history = nil
}

// pushHistory prepends a play event and truncates the log to HistoryLimit.
// Caller must hold the session lock.
func (sess *session) pushHistory(track models.Track) {
	entry := models.HistoryEntry{
		PlayedAt: time.Now(),
		TrackID:  track.ID,
		Title:    track.Title,
	}
	sess.history = append([]models.HistoryEntry{entry}, sess.history...)
	if len(sess.history) > HistoryLimit {
		sess.history = sess.history[:HistoryLimit]
	}
}
