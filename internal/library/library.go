// Package library lists songs in a folder and reads and writes their
// lyric files.
package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// ErrNoLyricsFile is returned when a song has no paired .lrc file.
	ErrNoLyricsFile = errors.New("no lyrics file")
	// ErrNoWriters is returned when a Saver has nowhere to write.
	ErrNoWriters = errors.New("no lyric writers configured")
)

var (
	audioExtRe = regexp.MustCompile(`(?i)\.(mp3|m4a|aac|wav|ogg|flac|webm)$`)
	lrcExtRe   = regexp.MustCompile(`(?i)\.lrc$`)
)

// Song is an audio file and its optional lyric file.
type Song struct {
	Name       string // audio file name without extension
	Dir        string
	AudioPath  string
	LyricsPath string // empty when there is no .lrc
}

// HasLyrics reports whether the song has a paired lyric file.
func (s Song) HasLyrics() bool {
	return s.LyricsPath != ""
}

// LyricsFileName is the name the song's lyric file is saved under.
func (s Song) LyricsFileName() string {
	return s.Name + ".lrc"
}

// IsRelevant reports whether name is an audio or lyric file.
func IsRelevant(name string) bool {
	return audioExtRe.MatchString(name) || lrcExtRe.MatchString(name)
}

// Scan lists the audio files of dir, pairing each with the .lrc file of
// the same base name. Names are compared case-insensitively.
func Scan(dir string) ([]Song, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read library directory %s: %w", dir, err)
	}

	lrcByBase := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || !lrcExtRe.MatchString(e.Name()) {
			continue
		}
		base := lrcExtRe.ReplaceAllString(e.Name(), "")
		lrcByBase[strings.ToLower(base)] = filepath.Join(dir, e.Name())
	}

	var songs []Song
	for _, e := range entries {
		if e.IsDir() || !audioExtRe.MatchString(e.Name()) {
			continue
		}
		base := audioExtRe.ReplaceAllString(e.Name(), "")
		songs = append(songs, Song{
			Name:       base,
			Dir:        dir,
			AudioPath:  filepath.Join(dir, e.Name()),
			LyricsPath: lrcByBase[strings.ToLower(base)],
		})
	}

	logger().Info().
		Str("dir", dir).
		Int("songs", len(songs)).
		Int("lyrics", len(lrcByBase)).
		Msg("Library scanned")
	return songs, nil
}
