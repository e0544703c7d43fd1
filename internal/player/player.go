// Package player provides playback position sources.
package player

import (
	"fmt"
	"math"
	"net/url"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Player plays a song and reports the playback position.
type Player interface {
	Load(path string) error
	Position() (time.Duration, error)
	Play() error
	Pause() error
	Seek(position time.Duration) error
}

// New returns the player named by source: "playerctl" or "internal".
func New(source string) (Player, error) {
	switch source {
	case "", "internal":
		return NewStopwatch(), nil
	case "playerctl":
		return NewPlayerctl(), nil
	default:
		return nil, fmt.Errorf("unknown player source: %s", source)
	}
}

// Playerctl drives an MPRIS player through the playerctl command.
type Playerctl struct {
	bin string
}

func NewPlayerctl() *Playerctl {
	return &Playerctl{bin: "playerctl"}
}

func (p *Playerctl) Load(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	uri := (&url.URL{Scheme: "file", Path: abs}).String()
	if out, err := exec.Command(p.bin, "open", uri).CombinedOutput(); err != nil {
		return fmt.Errorf("playerctl open %s: %w: %s", uri, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (p *Playerctl) Position() (time.Duration, error) {
	out, err := exec.Command(p.bin, "position").Output()
	if err != nil {
		return 0, err
	}
	return parseSeconds(string(out))
}

func (p *Playerctl) Play() error {
	return p.run("play")
}

func (p *Playerctl) Pause() error {
	return p.run("pause")
}

func (p *Playerctl) Seek(position time.Duration) error {
	if position < 0 {
		position = 0
	}
	return p.run("position", strconv.FormatFloat(position.Seconds(), 'f', 3, 64))
}

func (p *Playerctl) run(args ...string) error {
	if out, err := exec.Command(p.bin, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("playerctl %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

func parseSeconds(s string) (time.Duration, error) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid position %q: %w", strings.TrimSpace(s), err)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("negative position %v", seconds)
	}
	return time.Duration(math.Round(seconds * float64(time.Second))), nil
}
