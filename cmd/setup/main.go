// Package main provides the interactive tag mapping wizard.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/chzyer/readline"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"

	"github.com/ceickmeyer/nfc-music-player/internal/domain/tag"
	"github.com/ceickmeyer/nfc-music-player/internal/infra/catalog"
	"github.com/ceickmeyer/nfc-music-player/internal/infra/config"
	"github.com/ceickmeyer/nfc-music-player/internal/infra/logger"
	"github.com/ceickmeyer/nfc-music-player/internal/infra/sensor"
)

var (
	app         = kingpin.New("nfc-setup", "Interactive tag mapping wizard")
	configPath  = app.Flag("config", "Path to config file").Default("config.json").String()
	readTimeout = app.Flag("read-timeout", "How long to wait for a tag").Default("10s").Duration()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	// Keep the interview quiet; driver problems still surface.
	if err := logger.Init(logger.Config{Level: "warn"}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	if err := run(*configPath, *readTimeout); err != nil {
		fmt.Fprintf(os.Stderr, "setup failed: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, readTimeout time.Duration) error {
	cfg := loadOrDefault(path)

	rl, err := readline.NewEx(&readline.Config{
		Prompt: ">> ",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItemDynamic(func(line string) []string {
				return listPaths(line)
			}),
		),
	})
	if err != nil {
		return errors.Wrap(err, "failed to open terminal")
	}
	defer rl.Close()

	fmt.Println("=== NFC MUSIC PLAYER SETUP ===")
	fmt.Println("(Tip: Use TAB to autocomplete paths)")

	cfg.MusicPath = chooseMusicPath(rl, cfg.MusicPath)

	albums, err := catalog.New(cfg.MusicPath, cfg.Mappings).Albums()
	if err != nil {
		return errors.Wrapf(err, "cannot scan %s", cfg.MusicPath)
	}
	if len(albums) == 0 {
		return errors.Newf("no albums with playable tracks under %s", cfg.MusicPath)
	}

	byAlbum := make(map[string]tag.ID, len(cfg.Mappings))
	for id, m := range cfg.Mappings {
		byAlbum[m.Album] = id
	}

	fmt.Printf("\nFound %d albums:\n", len(albums))
	for i, a := range albums {
		line := fmt.Sprintf("%3d. %s (%d tracks)", i+1, a.Name, a.TrackCount)
		if id, ok := byAlbum[a.Name]; ok {
			line += fmt.Sprintf(" [tag %s]", id)
		}
		fmt.Println(line)
	}

	reader, err := openReader(rl, cfg)
	if err != nil {
		return err
	}
	defer reader.Close()

	mapped := 0
albums:
	for _, album := range albums {
		ans := ask(rl, fmt.Sprintf("\nMap %q? (y) Yes / (s) Skip / (q) Quit", album.Name), "s")
		switch strings.ToLower(ans) {
		case "y":
			if mapAlbum(rl, reader, cfg, album.Name, readTimeout) {
				mapped++
			}
		case "q":
			break albums
		}
	}

	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Printf("\nSaved %d new mappings to %s (%d total).\n", mapped, path, len(cfg.Mappings))
	fmt.Println("Setup complete! Run nfc-player to start playing.")
	return nil
}

// loadOrDefault loads an existing config so reruns extend it, or starts
// a fresh one.
func loadOrDefault(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		return &config.Config{
			Mappings:       map[tag.ID]tag.Mapping{},
			Audio:          config.AudioConfig{Volume: 0.7, SampleRate: 44100, TrackGapMs: 500},
			PollIntervalMs: 500,
			DetachTicks:    1,
			ActivityLog:    "logs/activity.log",
			Sensor:         config.SensorConfig{Driver: "fifo"},
		}
	}
	if cfg.Mappings == nil {
		cfg.Mappings = map[tag.ID]tag.Mapping{}
	}
	return cfg
}

// chooseMusicPath suggests the mount with the most album directories.
func chooseMusicPath(rl *readline.Instance, current string) string {
	best := current
	bestCount := countAlbumDirs(current)
	for _, cand := range mountCandidates() {
		if n := countAlbumDirs(cand); n > bestCount {
			best, bestCount = cand, n
		}
	}
	if best == "" {
		best = "/media/pi/MUSIC"
	}
	return askValidDir(rl, "1. Music path", best)
}

// mountCandidates lists the usual removable media mount points.
func mountCandidates() []string {
	var out []string
	for _, base := range []string{"/media", "/mnt"} {
		entries, err := os.ReadDir(base)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			p := filepath.Join(base, e.Name())
			out = append(out, p)
			subs, err := os.ReadDir(p)
			if err != nil {
				continue
			}
			for _, s := range subs {
				if s.IsDir() {
					out = append(out, filepath.Join(p, s.Name()))
				}
			}
		}
	}
	return out
}

// countAlbumDirs counts subdirectories holding at least one track.
func countAlbumDirs(root string) int {
	if root == "" {
		return 0
	}
	albums, err := catalog.New(root, nil).Albums()
	if err != nil {
		return 0
	}
	return len(albums)
}

// openReader builds the tag reader, asking for the pipe path when the
// config does not carry one yet.
func openReader(rl *readline.Instance, cfg *config.Config) (sensor.Driver, error) {
	if cfg.Sensor.Driver == "" {
		cfg.Sensor.Driver = "fifo"
	}
	if cfg.Sensor.Driver == "fifo" {
		if _, ok := cfg.Sensor.Settings["path"]; !ok {
			p := askValidPath(rl, "2. Reader pipe or device path", "/dev/nfc0")
			if cfg.Sensor.Settings == nil {
				cfg.Sensor.Settings = map[string]any{}
			}
			cfg.Sensor.Settings["path"] = p
		}
	}

	reader, err := sensor.New(cfg.Sensor)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open tag reader")
	}
	return reader, nil
}

// mapAlbum reads one tag and binds it to the album, reporting whether a
// mapping was written.
func mapAlbum(rl *readline.Instance, reader sensor.Driver, cfg *config.Config, album string, timeout time.Duration) bool {
	fmt.Printf(" Place the tag for %q on the reader (%s timeout)...\n", album, timeout)
	id, err := awaitTag(reader, timeout)
	if err != nil {
		fmt.Printf(" [!] %v\n", err)
		return false
	}
	fmt.Printf(" Read tag: %s\n", id)

	if existing, ok := cfg.Mappings[id]; ok {
		ans := ask(rl, fmt.Sprintf(" Tag is already mapped to %q. Overwrite? (y/N)", existing.Album), "n")
		if strings.ToLower(ans) != "y" {
			return false
		}
	}

	shuffle := strings.ToLower(ask(rl, " Shuffle playback? (y/N)", "n")) == "y"
	m := tag.Mapping{Album: album, Shuffle: shuffle}
	cfg.Mappings[id] = m
	fmt.Printf(" Mapped %s -> %s\n", id, m)
	return true
}

// awaitTag polls the reader until a tag shows up or the timeout passes.
// A tag left over from the previous mapping has to clear the field
// first so it cannot claim the next album by accident.
func awaitTag(reader sensor.Driver, timeout time.Duration) (tag.ID, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	if prev, _ := reader.Poll(ctx); prev != tag.None {
		fmt.Println(" (remove the previous tag)")
		for prev != tag.None {
			select {
			case <-ctx.Done():
				return tag.None, errors.New("previous tag never left the reader")
			case <-ticker.C:
				prev, _ = reader.Poll(ctx)
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return tag.None, errors.New("no tag detected")
		case <-ticker.C:
			if id, err := reader.Poll(ctx); err == nil && id != tag.None {
				return id, nil
			}
		}
	}
}

// Helpers
func ask(rl *readline.Instance, label, defaultVal string) string {
	rl.SetPrompt(fmt.Sprintf("%s [%s]: ", label, defaultVal))
	line, _ := rl.Readline()
	line = strings.TrimSpace(line)
	if line == "" {
		return defaultVal
	}
	return line
}

func askValidDir(rl *readline.Instance, label, defaultVal string) string {
	for {
		p := ask(rl, label, defaultVal)
		if s, err := os.Stat(p); err == nil && s.IsDir() {
			return p
		}
		fmt.Println(" [!] Path is not a valid directory.")
	}
}

func askValidPath(rl *readline.Instance, label, defaultVal string) string {
	for {
		p := ask(rl, label, defaultVal)
		if s, err := os.Stat(p); err == nil && !s.IsDir() {
			return p
		}
		fmt.Println(" [!] Path does not exist or is a directory.")
	}
}

func listPaths(line string) []string {
	dir := filepath.Dir(line)
	if line == "" {
		dir = "."
	}
	entries, _ := os.ReadDir(dir)
	var names []string
	for _, e := range entries {
		name := filepath.Join(dir, e.Name())
		if strings.HasPrefix(name, line) {
			names = append(names, name)
		}
	}
	return names
}
