package catalog

import (
	"os"

	"github.com/bogem/id3v2"
	"github.com/cockroachdb/errors"
	"github.com/faiface/beep/mp3"

	"github.com/ceickmeyer/nfc-music-player/internal/domain/media"
)

// Inspect fills in the track's ID3 title and artist and its decoded
// duration. Metadata is best effort; the returned error reports files
// the player would not be able to decode.
func (c *Catalog) Inspect(t *media.Track) error {
	if meta, err := id3v2.Open(t.Path, id3v2.Options{Parse: true}); err == nil {
		t.Title = meta.Title()
		t.Artist = meta.Artist()
		meta.Close()
	}

	f, err := os.Open(t.Path)
	if err != nil {
		return errors.Wrapf(err, "failed to open track %s", t.Path)
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to decode track %s", t.Path)
	}
	defer streamer.Close()

	t.Duration = format.SampleRate.D(streamer.Len())
	return nil
}
