package sensor

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/ceickmeyer/nfc-music-player/internal/domain/tag"
)

// fifoSettings configures the fifo driver.
type fifoSettings struct {
	Path          string `mapstructure:"path" validate:"required"`
	PresenceTTLMs int    `mapstructure:"presence_ttl_ms" default:"1200" validate:"gt=0"`
}

// fifoDriver follows newline-delimited tag IDs from a named pipe or
// character device.
type fifoDriver struct {
	path     string
	presence *presence
	cancel   context.CancelFunc
	done     chan struct{}

	mu      sync.Mutex
	openErr error
}

func newFifoDriver(settings map[string]any) (Driver, error) {
	var s fifoSettings
	if err := mapstructure.Decode(settings, &s); err != nil {
		return nil, errors.Wrap(err, "failed to decode fifo settings")
	}
	if err := defaults.Set(&s); err != nil {
		return nil, errors.Wrap(err, "failed to set fifo defaults")
	}
	if err := validator.New().Struct(&s); err != nil {
		return nil, errors.Wrap(err, "invalid fifo settings")
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &fifoDriver{
		path:     s.Path,
		presence: newPresence(time.Duration(s.PresenceTTLMs) * time.Millisecond),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go d.follow(ctx)
	return d, nil
}

// follow keeps the pipe open and feeds sightings to the tracker,
// reopening after EOF so a restarting writer does not stop the driver.
func (d *fifoDriver) follow(ctx context.Context) {
	defer close(d.done)
	for {
		if ctx.Err() != nil {
			return
		}

		f, err := d.open()
		if err != nil {
			d.setErr(errors.Wrapf(err, "cannot open sensor pipe %s", d.path))
			if !sleepCtx(ctx, time.Second) {
				return
			}
			continue
		}
		d.setErr(nil)

		scanLines(ctx, f, d.presence)
		f.Close()

		if !sleepCtx(ctx, 100*time.Millisecond) {
			return
		}
	}
}

// open prefers read-write so a FIFO's read end does not see EOF every
// time the writer disconnects; read-only is the fallback for devices
// that refuse writers.
func (d *fifoDriver) open() (*os.File, error) {
	if f, err := os.OpenFile(d.path, os.O_RDWR, 0); err == nil {
		return f, nil
	}
	return os.Open(d.path)
}

func (d *fifoDriver) setErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil && d.openErr == nil {
		zlog.Warn().Msgf("sensor pipe unavailable: %v", err)
	}
	d.openErr = err
}

func (d *fifoDriver) Poll(_ context.Context) (tag.ID, error) {
	d.mu.Lock()
	err := d.openErr
	d.mu.Unlock()
	if err != nil {
		return tag.None, err
	}
	return d.presence.current(), nil
}

func (d *fifoDriver) Close() error {
	d.cancel()
	select {
	case <-d.done:
	case <-time.After(2 * time.Second):
		// A reader blocked on an idle pipe cannot be interrupted; the
		// goroutine exits with the process.
	}
	return nil
}
