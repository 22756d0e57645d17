// Package catalog provides album resolution against the music directory.
package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/ceickmeyer/nfc-music-player/internal/domain/media"
	"github.com/ceickmeyer/nfc-music-player/internal/domain/tag"
)

// Errors
var (
	ErrNoTracks = errors.New("album has no playable tracks")
)

// audioExtensions lists the file extensions treated as playable.
var audioExtensions = map[string]bool{
	".mp3": true,
}

// Catalog maps tags to albums and albums to their track files. Albums
// are the immediate subdirectories of the music root; an album's name
// is its directory name.
type Catalog struct {
	root     string
	mappings map[tag.ID]tag.Mapping
}

// New creates a catalog over the given music root.
func New(root string, mappings map[tag.ID]tag.Mapping) *Catalog {
	return &Catalog{root: root, mappings: mappings}
}

// Root returns the music root directory.
func (c *Catalog) Root() string {
	return c.root
}

// Resolve returns the album mapping for a tag.
func (c *Catalog) Resolve(id tag.ID) (tag.Mapping, bool) {
	m, ok := c.mappings[id]
	return m, ok
}

// Tracks returns the album's playable files sorted byte-wise by file
// name, so playback order never depends on how the file system happens
// to enumerate entries. An album directory without a single recognized
// audio file returns ErrNoTracks.
func (c *Catalog) Tracks(album string) ([]media.Track, error) {
	dir := filepath.Join(c.root, album)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read album directory %s", dir)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !audioExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, errors.Wrapf(ErrNoTracks, "album %s", album)
	}
	sort.Strings(names)

	tracks := make([]media.Track, 0, len(names))
	for _, name := range names {
		tracks = append(tracks, media.Track{Path: filepath.Join(dir, name)})
	}
	return tracks, nil
}

// Albums returns every subdirectory of the music root that holds at
// least one playable track, sorted by name.
func (c *Catalog) Albums() ([]media.Album, error) {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read music root %s", c.root)
	}

	var albums []media.Album
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		tracks, err := c.Tracks(e.Name())
		if err != nil {
			continue
		}
		albums = append(albums, media.Album{
			Name:       e.Name(),
			Path:       filepath.Join(c.root, e.Name()),
			TrackCount: len(tracks),
		})
	}
	sort.Slice(albums, func(i, j int) bool { return albums[i].Name < albums[j].Name })
	return albums, nil
}
