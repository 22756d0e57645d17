package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceickmeyer/nfc-music-player/internal/domain/media"
	"github.com/ceickmeyer/nfc-music-player/internal/domain/tag"
)

// newMusicRoot lays out albums as directories of empty .mp3 files.
func newMusicRoot(t *testing.T, albums map[string][]string) string {
	t.Helper()
	root := t.TempDir()
	for album, files := range albums {
		dir := filepath.Join(root, album)
		require.NoError(t, os.MkdirAll(dir, 0755))
		for _, f := range files {
			require.NoError(t, os.WriteFile(filepath.Join(dir, f), nil, 0644))
		}
	}
	return root
}

func TestResolve(t *testing.T) {
	c := New("/music", map[tag.ID]tag.Mapping{
		"a1b2c3": {Album: "Abbey Road"},
	})

	m, ok := c.Resolve("a1b2c3")
	assert.True(t, ok)
	assert.Equal(t, "Abbey Road", m.Album)

	_, ok = c.Resolve("unknown")
	assert.False(t, ok)
}

func TestTracks_DeterministicOrder(t *testing.T) {
	root := newMusicRoot(t, map[string][]string{
		"Abbey Road": {"03 - Maxwell.mp3", "01 - Come Together.mp3", "02 - Something.mp3"},
	})
	c := New(root, nil)

	tracks, err := c.Tracks("Abbey Road")
	require.NoError(t, err)

	var names []string
	for _, tr := range tracks {
		names = append(names, filepath.Base(tr.Path))
	}
	assert.Equal(t, []string{"01 - Come Together.mp3", "02 - Something.mp3", "03 - Maxwell.mp3"}, names)

	// Repeated scans return the identical order.
	again, err := c.Tracks("Abbey Road")
	require.NoError(t, err)
	assert.Equal(t, tracks, again)
}

func TestTracks_FiltersNonAudio(t *testing.T) {
	root := newMusicRoot(t, map[string][]string{
		"Abbey Road": {"01.mp3", "cover.jpg", "notes.txt", "02.MP3"},
	})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Abbey Road", "bonus"), 0755))
	c := New(root, nil)

	tracks, err := c.Tracks("Abbey Road")
	require.NoError(t, err)

	var names []string
	for _, tr := range tracks {
		names = append(names, filepath.Base(tr.Path))
	}
	assert.Equal(t, []string{"01.mp3", "02.MP3"}, names)
}

func TestTracks_MissingAlbum(t *testing.T) {
	c := New(t.TempDir(), nil)

	_, err := c.Tracks("Nonexistent")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoTracks, "an unreadable album is not a trackless one")
}

func TestTracks_NoPlayableFiles(t *testing.T) {
	root := newMusicRoot(t, map[string][]string{
		"Empty":        {},
		"Artwork Only": {"cover.png"},
	})
	c := New(root, nil)

	_, err := c.Tracks("Empty")
	assert.ErrorIs(t, err, ErrNoTracks)

	_, err = c.Tracks("Artwork Only")
	assert.ErrorIs(t, err, ErrNoTracks)
}

func TestAlbums(t *testing.T) {
	root := newMusicRoot(t, map[string][]string{
		"Kind of Blue": {"01.mp3", "02.mp3"},
		"Abbey Road":   {"01.mp3"},
		"Empty":        {},
		"Artwork Only": {"cover.png"},
	})
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.mp3"), nil, 0644))
	c := New(root, nil)

	albums, err := c.Albums()
	require.NoError(t, err)

	assert.Equal(t, []media.Album{
		{Name: "Abbey Road", Path: filepath.Join(root, "Abbey Road"), TrackCount: 1},
		{Name: "Kind of Blue", Path: filepath.Join(root, "Kind of Blue"), TrackCount: 2},
	}, albums)
}

func TestAlbums_MissingRoot(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "nope"), nil)

	_, err := c.Albums()
	assert.Error(t, err)
}

func TestInspect_UndecodableFile(t *testing.T) {
	root := newMusicRoot(t, map[string][]string{
		"Abbey Road": {"01.mp3"},
	})
	c := New(root, nil)

	tr := media.Track{Path: filepath.Join(root, "Abbey Road", "01.mp3")}
	assert.Error(t, c.Inspect(&tr))
}
