package activitylog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceickmeyer/nfc-music-player/internal/domain/activity"
	"github.com/ceickmeyer/nfc-music-player/internal/domain/tag"
)

func TestOpen_WritesStartupMarker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "activity.log")

	l, err := Open(path)
	require.NoError(t, err)
	defer l.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "NFC: SYSTEM")
	assert.Contains(t, lines[0], "Album: Music Player")
	assert.Contains(t, lines[0], "Action: started")
}

func TestRecord_AppendsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")

	l, err := Open(path)
	require.NoError(t, err)
	defer l.Close()

	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	l.Record(activity.Record{Time: ts, Tag: tag.ID("a1b2c3"), Album: "Abbey Road", Action: activity.ActionStarted})
	l.Record(activity.Record{Time: ts.Add(time.Minute), Tag: tag.ID("a1b2c3"), Album: "Abbey Road", Action: activity.ActionStopped})

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "2025-03-14 09:26:53 | NFC: a1b2c3 | Album: Abbey Road | Action: started", lines[1])
	assert.Equal(t, "2025-03-14 09:27:53 | NFC: a1b2c3 | Album: Abbey Road | Action: stopped", lines[2])
}

func TestOpen_AppendsAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")

	first, err := Open(path)
	require.NoError(t, err)
	first.Record(activity.Record{Time: time.Now(), Tag: tag.ID("x"), Album: "A", Action: activity.ActionStarted})
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, second.Close())

	lines, err := Recent(path, 0)
	require.NoError(t, err)
	// Two startup markers plus the one session record survive the restart.
	assert.Len(t, lines, 3)
}

func TestRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")

	l, err := Open(path)
	require.NoError(t, err)
	for i := 0; i < 15; i++ {
		l.Record(activity.Record{Time: time.Now(), Tag: tag.ID("a1b2c3"), Album: "Abbey Road", Action: activity.ActionStarted})
	}
	require.NoError(t, l.Close())

	lines, err := Recent(path, 10)
	require.NoError(t, err)
	assert.Len(t, lines, 10)

	all, err := Recent(path, 0)
	require.NoError(t, err)
	assert.Len(t, all, 16)
}

func TestRecent_MissingFile(t *testing.T) {
	lines, err := Recent(filepath.Join(t.TempDir(), "missing.log"), 10)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestRecord_SwallowsWriteFailures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")

	l, err := Open(path)
	require.NoError(t, err)

	// A closed file stands in for a full or yanked disk.
	require.NoError(t, l.f.Close())

	assert.NotPanics(t, func() {
		l.Record(activity.Record{Time: time.Now(), Tag: tag.ID("a1b2c3"), Album: "Abbey Road", Action: activity.ActionStarted})
	})

	// The failed record is dropped; the log keeps what made it to disk.
	lines, err := Recent(path, 0)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}
