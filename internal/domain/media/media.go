// Package media provides the track and album entities.
package media

import (
	"path/filepath"
	"strings"
	"time"
)

// Track is a single playable audio file. Title, Artist and Duration are
// metadata filled in by inspection paths only; playback needs just Path.
type Track struct {
	Path     string
	Title    string
	Artist   string
	Duration time.Duration
}

// Name returns the file name without its extension, the display name
// used when no ID3 title is available.
func (t Track) Name() string {
	base := filepath.Base(t.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DisplayTitle returns the ID3 title when known, the file name otherwise.
func (t Track) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return t.Name()
}

// Album is a directory of playable tracks under the music root.
type Album struct {
	Name       string // Directory name; the album's identity
	Path       string
	TrackCount int
}
