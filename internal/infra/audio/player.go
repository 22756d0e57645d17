// Package audio provides MP3 playback through the system speaker.
package audio

import (
	"context"
	"math"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	zlog "github.com/rs/zerolog/log"

	"github.com/ceickmeyer/nfc-music-player/internal/domain/media"
)

// Errors
var (
	ErrNoTracks = errors.New("track list is empty")
)

const resampleQuality = 4

// Config represents playback output configuration.
type Config struct {
	SampleRate int           // Output sample rate
	Volume     float64       // Linear volume, 0..1
	TrackGap   time.Duration // Pause between consecutive tracks
}

// Player plays track lists through the single exclusive output device.
// Playback loops over the list until Stop is called.
type Player struct {
	mu       sync.Mutex
	cfg      Config
	sr       beep.SampleRate
	gain     float64
	rng      *rand.Rand
	joinWait time.Duration

	playing bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New acquires the audio device and returns the player.
func New(cfg Config) (*Player, error) {
	sr := beep.SampleRate(cfg.SampleRate)
	if err := speaker.Init(sr, sr.N(time.Millisecond*100)); err != nil {
		return nil, errors.Wrap(err, "failed to acquire audio device")
	}

	var gain float64
	if cfg.Volume > 0 {
		gain = math.Log2(cfg.Volume)
	}
	return &Player{
		cfg:      cfg,
		sr:       sr,
		gain:     gain,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		joinWait: 2 * time.Second,
	}, nil
}

// Start begins playback of the given tracks and returns once the
// playback loop is launched. The shuffle permutation is drawn once per
// call; restarting the same album reshuffles.
func (p *Player) Start(tracks []media.Track, shuffle bool) error {
	if len(tracks) == 0 {
		return ErrNoTracks
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()

	order := playbackOrder(tracks, shuffle, p.rng)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.playing = true
	p.cancel = cancel
	p.done = done

	go p.playLoop(ctx, order, done)
	return nil
}

// Stop halts playback and releases the output before returning.
// Stopping an idle player is a no-op.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	if !p.playing {
		return
	}
	p.cancel()
	speaker.Clear()

	select {
	case <-p.done:
	case <-time.After(p.joinWait):
		zlog.Warn().Msg("playback loop did not stop in time")
	}
	p.playing = false
	p.cancel = nil
	p.done = nil
}

// playLoop wraps around the track list until cancelled. Tracks that
// fail to decode are skipped after a short pause.
func (p *Player) playLoop(ctx context.Context, tracks []media.Track, done chan struct{}) {
	defer close(done)
	for i := 0; ; i = (i + 1) % len(tracks) {
		if ctx.Err() != nil {
			return
		}
		if err := p.playTrack(ctx, tracks[i]); err != nil {
			zlog.Warn().Msgf("skipping track %s: %v", tracks[i].Name(), err)
			if !sleepCtx(ctx, time.Second) {
				return
			}
			continue
		}
		if !sleepCtx(ctx, p.cfg.TrackGap) {
			return
		}
	}
}

func (p *Player) playTrack(ctx context.Context, t media.Track) error {
	f, err := os.Open(t.Path)
	if err != nil {
		return errors.Wrap(err, "failed to open track")
	}
	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return errors.Wrap(err, "failed to decode track")
	}
	defer streamer.Close()

	var src beep.Streamer = streamer
	if format.SampleRate != p.sr {
		src = beep.Resample(resampleQuality, format.SampleRate, p.sr, streamer)
	}
	vol := &effects.Volume{
		Streamer: src,
		Base:     2,
		Volume:   p.gain,
		Silent:   p.cfg.Volume <= 0,
	}

	zlog.Info().Msgf("now playing: %s", t.Name())

	trackDone := make(chan struct{})
	speaker.Play(beep.Seq(vol, beep.Callback(func() {
		close(trackDone)
	})))

	select {
	case <-trackDone:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return nil
	}
}

// playbackOrder returns the order tracks will play in, leaving the
// input untouched.
func playbackOrder(tracks []media.Track, shuffle bool, rng *rand.Rand) []media.Track {
	order := make([]media.Track, len(tracks))
	copy(order, tracks)
	if shuffle {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}
	return order
}

// sleepCtx sleeps for d unless ctx ends first, reporting whether the
// full duration elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
