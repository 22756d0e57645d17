// Package activity provides the session lifecycle record entity.
package activity

import (
	"fmt"
	"time"

	"github.com/ceickmeyer/nfc-music-player/internal/domain/tag"
)

// Action classifies a session lifecycle event.
type Action string

const (
	ActionStarted         Action = "started"
	ActionStartedShuffled Action = "started_shuffled"
	ActionStopped         Action = "stopped"
	ActionUnknownTag      Action = "unknown_tag"
)

// TimeLayout is the timestamp format used in activity log lines.
const TimeLayout = "2006-01-02 15:04:05"

// Record is one activity log entry. Records are write-once; nothing
// ever mutates or rewrites a line once appended.
type Record struct {
	Time   time.Time
	Tag    tag.ID
	Album  string
	Action Action
}

// Line renders the record in the log's line format.
func (r Record) Line() string {
	return fmt.Sprintf("%s | NFC: %s | Album: %s | Action: %s",
		r.Time.Format(TimeLayout), r.Tag, r.Album, r.Action)
}
