// Package session provides the playback session entity.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/ceickmeyer/nfc-music-player/internal/domain/activity"
	"github.com/ceickmeyer/nfc-music-player/internal/domain/tag"
)

// Session is one continuous playback run for a single attached tag.
// At most one session exists at any instant.
type Session struct {
	ID        string    // UUID
	Tag       tag.ID    // Owning tag
	Album     string    // Mapped album name
	Shuffled  bool      // Playback order was shuffled
	StartedAt time.Time // Session start time
}

// New creates a session for the given tag and album.
func New(id tag.ID, album string, shuffled bool) *Session {
	return &Session{
		ID:        uuid.New().String(),
		Tag:       id,
		Album:     album,
		Shuffled:  shuffled,
		StartedAt: time.Now(),
	}
}

// StartAction returns the activity action announcing this session.
func (s *Session) StartAction() activity.Action {
	if s.Shuffled {
		return activity.ActionStartedShuffled
	}
	return activity.ActionStarted
}
