package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceickmeyer/nfc-music-player/internal/domain/activity"
	"github.com/ceickmeyer/nfc-music-player/internal/domain/tag"
)

func TestNew(t *testing.T) {
	s := New(tag.ID("a1b2c3"), "Abbey Road", false)

	require.NotNil(t, s)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, tag.ID("a1b2c3"), s.Tag)
	assert.Equal(t, "Abbey Road", s.Album)
	assert.False(t, s.Shuffled)
	assert.False(t, s.StartedAt.IsZero())

	other := New(tag.ID("a1b2c3"), "Abbey Road", false)
	assert.NotEqual(t, s.ID, other.ID)
}

func TestStartAction(t *testing.T) {
	ordered := New(tag.ID("a1b2c3"), "Abbey Road", false)
	assert.Equal(t, activity.ActionStarted, ordered.StartAction())

	shuffled := New(tag.ID("a1b2c3"), "Greatest Hits", true)
	assert.Equal(t, activity.ActionStartedShuffled, shuffled.StartAction())
}
