// Package activitylog provides the append-only activity log sink.
package activitylog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/ceickmeyer/nfc-music-player/internal/domain/activity"
)

// SystemTag marks records written by the player itself rather than a
// physical tag.
const SystemTag = "SYSTEM"

// Log appends session lifecycle records to a line-oriented file. Lines
// are write-once; the file is never rewritten or truncated.
type Log struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// Open opens the activity log for appending, creating the file and its
// directory if needed, and writes the startup marker record.
func Open(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create activity log directory")
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open activity log")
	}

	l := &Log{path: path, f: f}
	l.Record(activity.Record{
		Time:   time.Now(),
		Tag:    SystemTag,
		Album:  "Music Player",
		Action: activity.ActionStarted,
	})
	return l, nil
}

// Record appends one record. Write failures are logged and swallowed;
// recording never disturbs playback.
func (l *Log) Record(rec activity.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.f.WriteString(rec.Line() + "\n"); err != nil {
		zlog.Error().Msgf("activity log write failed: %v", err)
	}
}

// Close closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// Recent returns the last n lines of the activity log at path, oldest
// first. A missing file yields no lines and no error.
func Recent(path string, n int) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read activity log")
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil, nil
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
