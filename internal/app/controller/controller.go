// Package controller provides the polling loop that turns tag presence
// into playback sessions.
package controller

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/ceickmeyer/nfc-music-player/internal/domain/activity"
	"github.com/ceickmeyer/nfc-music-player/internal/domain/media"
	"github.com/ceickmeyer/nfc-music-player/internal/domain/session"
	"github.com/ceickmeyer/nfc-music-player/internal/domain/tag"
)

// DefaultPollInterval is the sensor poll cadence used when the
// configuration does not override it.
const DefaultPollInterval = 500 * time.Millisecond

// Sensor reads the currently present tag.
type Sensor interface {
	// Poll reports the tag on the reader field, or tag.None when the
	// field is empty. A non-nil error is a transient read failure.
	Poll(ctx context.Context) (tag.ID, error)
}

// Catalog resolves tags to albums and albums to track lists.
type Catalog interface {
	Resolve(id tag.ID) (tag.Mapping, bool)
	Tracks(album string) ([]media.Track, error)
}

// Player drives the audio output. Implementations must return from
// Stop only after the output is released, and treat Stop on an idle
// player as a no-op.
type Player interface {
	Start(tracks []media.Track, shuffle bool) error
	Stop()
}

// Sink records session lifecycle events. Implementations must swallow
// write failures rather than surface them here.
type Sink interface {
	Record(rec activity.Record)
}

// Config holds controller tuning.
type Config struct {
	// PollInterval is the sensor poll cadence.
	PollInterval time.Duration
	// DetachTicks is the number of consecutive absent reads required
	// before an attached tag counts as removed. 1 reacts immediately;
	// higher values ride out flaky reads of a tag that never moved.
	DetachTicks int
}

// Controller polls the sensor on a fixed cadence and drives sessions
// from attach and detach transitions. At most one session exists at any
// instant; a swap stops the old session before starting the new one.
//
// All state is owned by the goroutine running Run. Nothing here locks.
type Controller struct {
	sensor  Sensor
	catalog Catalog
	player  Player
	sink    Sink
	cfg     Config

	state State
	// attached is the present tag most recently acted on, whether or
	// not it produced a session. It suppresses repeated unknown-tag
	// records and start retries while the same tag sits on the reader.
	attached tag.ID
	sess     *session.Session
	misses   int
	now      func() time.Time
}

// New creates a controller over the given collaborators.
func New(sensor Sensor, catalog Catalog, player Player, sink Sink, cfg Config) *Controller {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.DetachTicks < 1 {
		cfg.DetachTicks = 1
	}
	return &Controller{
		sensor:  sensor,
		catalog: catalog,
		player:  player,
		sink:    sink,
		cfg:     cfg,
		state:   StateIdle,
		now:     time.Now,
	}
}

// Run polls the sensor until ctx is cancelled. Whatever ends the loop,
// an active session is stopped and recorded before Run returns.
func (c *Controller) Run(ctx context.Context) error {
	defer c.shutdown()

	zlog.Info().Msgf("watching for tags: poll_interval=%s", c.cfg.PollInterval)

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.step(ctx)
		}
	}
}

// step evaluates one poll against the state machine.
func (c *Controller) step(ctx context.Context) {
	id, err := c.sensor.Poll(ctx)
	if err != nil {
		// A failed read counts as an empty field for this tick.
		zlog.Debug().Msgf("sensor read failed: %v", err)
		id = tag.None
	}

	if id == tag.None {
		c.handleAbsent()
		return
	}
	c.handlePresent(id)
}

func (c *Controller) handleAbsent() {
	if c.attached == tag.None {
		return
	}
	c.misses++
	if c.misses < c.cfg.DetachTicks {
		return
	}

	zlog.Info().Msgf("tag removed: tag=%s", c.attached)
	if c.state == StateActive {
		c.stopSession()
	}
	c.attached = tag.None
	c.misses = 0
}

func (c *Controller) handlePresent(id tag.ID) {
	c.misses = 0
	if id == c.attached {
		return
	}

	if c.attached == tag.None {
		zlog.Info().Msgf("tag detected: tag=%s", id)
	} else {
		zlog.Info().Msgf("tag swapped: old=%s new=%s", c.attached, id)
	}

	// A swap stops the old session before anything else happens, so the
	// output device is free when the new session starts.
	if c.state == StateActive {
		c.stopSession()
	}
	c.attached = id
	c.startSession(id)
}

// startSession tries to start playback for the attached tag. Failures
// leave the controller idle; the tag stays attached so the failure is
// not retried or re-recorded until the tag leaves and returns.
func (c *Controller) startSession(id tag.ID) {
	m, ok := c.catalog.Resolve(id)
	if !ok {
		zlog.Warn().Msgf("unknown tag: tag=%s", id)
		c.sink.Record(activity.Record{
			Time:   c.now(),
			Tag:    id,
			Album:  "Unknown",
			Action: activity.ActionUnknownTag,
		})
		return
	}

	tracks, err := c.catalog.Tracks(m.Album)
	if err != nil {
		zlog.Error().Msgf("cannot play album %q: %v", m.Album, err)
		return
	}
	if len(tracks) == 0 {
		zlog.Error().Msgf("album %q has no playable tracks", m.Album)
		return
	}

	if err := c.player.Start(tracks, m.Shuffle); err != nil {
		zlog.Error().Msgf("cannot start playback of %q: %v", m.Album, err)
		return
	}

	c.sess = session.New(id, m.Album, m.Shuffle)
	c.state = StateActive
	zlog.Info().Msgf("session started: session=%s tag=%s album=%q shuffle=%t tracks=%d",
		c.sess.ID, id, m.Album, m.Shuffle, len(tracks))
	c.sink.Record(activity.Record{
		Time:   c.now(),
		Tag:    id,
		Album:  m.Album,
		Action: c.sess.StartAction(),
	})
}

// stopSession ends the running session: player first, then the record.
// Calling it with no session is a no-op.
func (c *Controller) stopSession() {
	if c.sess == nil {
		return
	}
	s := c.sess

	c.player.Stop()
	c.sess = nil
	c.state = StateIdle

	zlog.Info().Msgf("session stopped: session=%s tag=%s album=%q duration=%s",
		s.ID, s.Tag, s.Album, c.now().Sub(s.StartedAt).Round(time.Second))
	c.sink.Record(activity.Record{
		Time:   c.now(),
		Tag:    s.Tag,
		Album:  s.Album,
		Action: activity.ActionStopped,
	})
}

// shutdown runs on every Run exit path.
func (c *Controller) shutdown() {
	c.stopSession()
	c.attached = tag.None
	c.misses = 0
}
