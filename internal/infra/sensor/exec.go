package sensor

import (
	"context"
	"os/exec"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/ceickmeyer/nfc-music-player/internal/domain/tag"
)

// execSettings configures the exec driver.
type execSettings struct {
	Command        []string `mapstructure:"command" validate:"required,min=1"`
	PresenceTTLMs  int      `mapstructure:"presence_ttl_ms" default:"1200" validate:"gt=0"`
	RestartDelayMs int      `mapstructure:"restart_delay_ms" default:"1000" validate:"gt=0"`
}

// execDriver runs an external reader command and follows tag IDs on its
// stdout, restarting the command whenever it exits.
type execDriver struct {
	argv     []string
	restart  time.Duration
	presence *presence
	cancel   context.CancelFunc
	done     chan struct{}

	mu      sync.Mutex
	procErr error
}

func newExecDriver(settings map[string]any) (Driver, error) {
	var s execSettings
	if err := mapstructure.Decode(settings, &s); err != nil {
		return nil, errors.Wrap(err, "failed to decode exec settings")
	}
	if err := defaults.Set(&s); err != nil {
		return nil, errors.Wrap(err, "failed to set exec defaults")
	}
	if err := validator.New().Struct(&s); err != nil {
		return nil, errors.Wrap(err, "invalid exec settings")
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &execDriver{
		argv:     s.Command,
		restart:  time.Duration(s.RestartDelayMs) * time.Millisecond,
		presence: newPresence(time.Duration(s.PresenceTTLMs) * time.Millisecond),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go d.supervise(ctx)
	return d, nil
}

// supervise keeps the reader command running.
func (d *execDriver) supervise(ctx context.Context) {
	defer close(d.done)
	for {
		if ctx.Err() != nil {
			return
		}

		err := d.runOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			err = errors.New("reader command exited")
		}
		d.setErr(err)
		zlog.Warn().Msgf("sensor command stopped: %v, restarting in %s", err, d.restart)

		if !sleepCtx(ctx, d.restart) {
			return
		}
	}
}

func (d *execDriver) runOnce(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, d.argv[0], d.argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "failed to open reader stdout")
	}
	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "failed to start reader command")
	}
	d.setErr(nil)

	scanLines(ctx, stdout, d.presence)
	return cmd.Wait()
}

func (d *execDriver) setErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.procErr = err
}

func (d *execDriver) Poll(_ context.Context) (tag.ID, error) {
	d.mu.Lock()
	err := d.procErr
	d.mu.Unlock()
	if err != nil {
		return tag.None, err
	}
	return d.presence.current(), nil
}

func (d *execDriver) Close() error {
	d.cancel()
	select {
	case <-d.done:
	case <-time.After(2 * time.Second):
	}
	return nil
}
