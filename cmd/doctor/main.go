// Package main provides reader and library diagnostics.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"

	"github.com/ceickmeyer/nfc-music-player/internal/domain/tag"
	"github.com/ceickmeyer/nfc-music-player/internal/infra/catalog"
	"github.com/ceickmeyer/nfc-music-player/internal/infra/config"
	"github.com/ceickmeyer/nfc-music-player/internal/infra/logger"
	"github.com/ceickmeyer/nfc-music-player/internal/infra/sensor"
)

var (
	app        = kingpin.New("nfc-doctor", "Reader and library diagnostics")
	configPath = app.Flag("config", "Path to config file").Default("config.json").String()

	sensorCmd     = app.Command("sensor", "Probe the tag reader")
	sensorTimeout = sensorCmd.Flag("timeout", "How long to wait for a tag").Default("10s").Duration()

	mediaCmd = app.Command("media", "Analyze the music library")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if err := logger.Init(logger.Config{Level: "warn"}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot load config: %v\n", err)
		os.Exit(1)
	}

	var runErr error
	switch command {
	case sensorCmd.FullCommand():
		runErr = probeSensor(cfg, *sensorTimeout)
	case mediaCmd.FullCommand():
		runErr = analyzeMedia(cfg)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "%v\n", runErr)
		os.Exit(1)
	}
}

// probeSensor waits for one tag read and reports what the player would
// do with it.
func probeSensor(cfg *config.Config, timeout time.Duration) error {
	fmt.Printf("Opening %s reader...\n", cfg.Sensor.Driver)
	reader, err := sensor.New(cfg.Sensor)
	if err != nil {
		return err
	}
	defer reader.Close()

	fmt.Printf("Place a tag on the reader within %s...\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var lastErr error
	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			fmt.Println("No tag detected.")
			fmt.Println("Troubleshooting:")
			fmt.Println("  - Is the reader process running and writing IDs to the configured path?")
			fmt.Println("  - Does this user have permission to read the pipe or device?")
			fmt.Println("  - Run nfc-setup to point the config at the right path.")
			if lastErr != nil {
				fmt.Printf("  - Last reader error: %v\n", lastErr)
			}
			return errors.New("sensor probe failed")
		case <-ticker.C:
			id, err := reader.Poll(ctx)
			if err != nil {
				lastErr = err
				fmt.Print("!")
				continue
			}
			if id == tag.None {
				fmt.Print(".")
				continue
			}
			fmt.Printf("\nRead tag: %s\n", id)
			if m, ok := cfg.Lookup(id); ok {
				fmt.Printf("Mapped to: %s\n", m)
			} else {
				fmt.Println("Not mapped to any album yet (run nfc-setup).")
			}
			return nil
		}
	}
}

// analyzeMedia walks the whole library the way playback would read it
// and flags tracks the player will have to skip.
func analyzeMedia(cfg *config.Config) error {
	cat := catalog.New(cfg.MusicPath, cfg.Mappings)
	albums, err := cat.Albums()
	if err != nil {
		return err
	}
	if len(albums) == 0 {
		return errors.Newf("no albums with playable tracks under %s", cfg.MusicPath)
	}

	var totalTracks, badTracks int
	var totalDuration time.Duration
	var totalBytes int64

	for _, album := range albums {
		fmt.Printf("\n%s (%d tracks)\n", album.Name, album.TrackCount)
		tracks, err := cat.Tracks(album.Name)
		if err != nil {
			fmt.Printf("  [!] %v\n", err)
			continue
		}
		for _, tr := range tracks {
			totalTracks++
			if fi, err := os.Stat(tr.Path); err == nil {
				totalBytes += fi.Size()
			}
			if err := cat.Inspect(&tr); err != nil {
				badTracks++
				fmt.Printf("  [!] %s: %v\n", filepath.Base(tr.Path), err)
				continue
			}
			totalDuration += tr.Duration
			line := fmt.Sprintf("  %s [%s]", tr.DisplayTitle(), fmtDuration(tr.Duration))
			if tr.Artist != "" {
				line += " - " + tr.Artist
			}
			fmt.Println(line)
		}
	}

	fmt.Printf("\n%d albums, %d tracks, %s total playtime, %s on disk\n",
		len(albums), totalTracks, fmtDuration(totalDuration), fmtSize(totalBytes))
	if badTracks > 0 {
		fmt.Printf("%d tracks failed to decode and will be skipped during playback\n", badTracks)
	}
	return nil
}

func fmtDuration(d time.Duration) string {
	secs := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func fmtSize(n int64) string {
	return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
}
