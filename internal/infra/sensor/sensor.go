// Package sensor provides tag reader drivers behind a polling interface.
//
// Readers are line oriented: hardware (or the helper process in front of
// it) repeats the ID of whatever tag sits on the field, one ID per line.
// Drivers turn that stream into a present/absent answer by aging out
// sightings older than the presence TTL.
package sensor

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/ceickmeyer/nfc-music-player/internal/domain/tag"
	"github.com/ceickmeyer/nfc-music-player/internal/infra/config"
)

// Driver reads the currently present tag.
type Driver interface {
	// Poll reports the tag on the reader field, or tag.None when the
	// field is empty. A non-nil error is a transient read failure.
	Poll(ctx context.Context) (tag.ID, error)
	// Close stops the driver and releases the underlying reader.
	Close() error
}

// New creates the driver selected by the configuration.
func New(cfg config.SensorConfig) (Driver, error) {
	switch cfg.Driver {
	case "fifo":
		return newFifoDriver(cfg.Settings)
	case "exec":
		return newExecDriver(cfg.Settings)
	default:
		return nil, errors.Newf("unsupported sensor driver: %s", cfg.Driver)
	}
}

// scanLines forwards newline-delimited tag IDs from r to the tracker
// until r is exhausted or ctx is cancelled.
func scanLines(ctx context.Context, r io.Reader, p *presence) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		p.observe(tag.ID(line))
	}
}

// sleepCtx sleeps for d unless ctx ends first, reporting whether the
// full duration elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
