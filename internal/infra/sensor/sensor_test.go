package sensor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceickmeyer/nfc-music-player/internal/domain/tag"
	"github.com/ceickmeyer/nfc-music-player/internal/infra/config"
)

func TestPresence(t *testing.T) {
	clock := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	p := newPresence(1200 * time.Millisecond)
	p.now = func() time.Time { return clock }

	assert.Equal(t, tag.None, p.current(), "nothing observed yet")

	p.observe(tag.ID("a1b2c3"))
	assert.Equal(t, tag.ID("a1b2c3"), p.current())

	clock = clock.Add(1200 * time.Millisecond)
	assert.Equal(t, tag.ID("a1b2c3"), p.current(), "still within the TTL window")

	clock = clock.Add(time.Millisecond)
	assert.Equal(t, tag.None, p.current(), "sighting aged out")

	p.observe(tag.ID("d4e5f6"))
	assert.Equal(t, tag.ID("d4e5f6"), p.current(), "new sighting resets the window")
}

func TestScanLines(t *testing.T) {
	p := newPresence(time.Minute)
	scanLines(context.Background(), strings.NewReader("\n  a1b2c3  \n\nd4e5f6\n"), p)

	assert.Equal(t, tag.ID("d4e5f6"), p.current(), "last sighting wins")
}

func TestNew_DriverSelection(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.SensorConfig
		wantErr string
	}{
		{
			name:    "unsupported driver",
			cfg:     config.SensorConfig{Driver: "mfrc522"},
			wantErr: "unsupported sensor driver",
		},
		{
			name:    "fifo without path",
			cfg:     config.SensorConfig{Driver: "fifo"},
			wantErr: "invalid fifo settings",
		},
		{
			name:    "exec without command",
			cfg:     config.SensorConfig{Driver: "exec"},
			wantErr: "invalid exec settings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFifoDriver_ReadsTags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reader")
	require.NoError(t, os.WriteFile(path, []byte("a1b2c3\n"), 0644))

	d, err := New(config.SensorConfig{
		Driver:   "fifo",
		Settings: map[string]any{"path": path},
	})
	require.NoError(t, err)
	defer d.Close()

	assert.Eventually(t, func() bool {
		id, err := d.Poll(context.Background())
		return err == nil && id == tag.ID("a1b2c3")
	}, 2*time.Second, 20*time.Millisecond)
}

func TestFifoDriver_MissingPath(t *testing.T) {
	d, err := New(config.SensorConfig{
		Driver:   "fifo",
		Settings: map[string]any{"path": filepath.Join(t.TempDir(), "missing")},
	})
	require.NoError(t, err)
	defer d.Close()

	assert.Eventually(t, func() bool {
		_, err := d.Poll(context.Background())
		return err != nil
	}, 2*time.Second, 20*time.Millisecond, "poll should surface the open failure")
}

func TestExecDriver_ReadsTags(t *testing.T) {
	d, err := New(config.SensorConfig{
		Driver: "exec",
		Settings: map[string]any{
			// []any mirrors what the JSON decoder hands the factory.
			"command": []any{"sh", "-c", "echo a1b2c3; sleep 60"},
		},
	})
	require.NoError(t, err)
	defer d.Close()

	assert.Eventually(t, func() bool {
		id, err := d.Poll(context.Background())
		return err == nil && id == tag.ID("a1b2c3")
	}, 2*time.Second, 20*time.Millisecond)
}

func TestExecDriver_ReportsDeadReader(t *testing.T) {
	d, err := New(config.SensorConfig{
		Driver: "exec",
		Settings: map[string]any{
			"command":          []string{"true"},
			"restart_delay_ms": 50000,
		},
	})
	require.NoError(t, err)
	defer d.Close()

	assert.Eventually(t, func() bool {
		_, err := d.Poll(context.Background())
		return err != nil
	}, 2*time.Second, 20*time.Millisecond, "poll should surface the reader exit")
}
