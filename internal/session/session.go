// Package session holds the state of the player: the selected song, its
// lyrics, and whether they are followed by playback or being timed.
//
// A PlayerSession is not safe for concurrent use. It is owned by the
// application loop; file reads and writes happen elsewhere and are handed
// back through Apply and Saved with the ticket they were started with.
package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"lrc-player/internal/display"
	"lrc-player/internal/library"
	"lrc-player/internal/lrc"
	"lrc-player/internal/scroll"
	"lrc-player/internal/timing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// logger follows the global logger configured at startup.
func logger() *zerolog.Logger {
	l := log.With().Str("component", "session").Logger()
	return &l
}

var (
	ErrUnknownSong   = errors.New("unknown song")
	ErrNoSong        = errors.New("no song selected")
	ErrNothingToSave = errors.New("nothing to save")
	ErrNotTimed      = errors.New("current lyrics have no time tags")
)

// Mode is what the lyric view is doing.
type Mode int

const (
	Idle Mode = iota
	Loading
	Sync
	Timing
	Placeholder
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Sync:
		return "sync"
	case Timing:
		return "timing"
	case Placeholder:
		return "no-lyrics"
	default:
		return "unknown"
	}
}

// Load is the ticket for reading the lyrics of a selected song.
type Load struct {
	Gen  uint64
	Song library.Song
}

// Save is the ticket for writing the lyrics being timed.
type Save struct {
	Gen       uint64
	Song      library.Song
	Name      string
	Content   string
	SessionID string
	Lines     int
	Timed     int
}

// Status summarizes the session for display.
type Status struct {
	Song     string
	Mode     Mode
	Lines    int
	Timing   timing.State
	Cursor   int
	Editable int
	Timed    int
}

type PlayerSession struct {
	display display.LineDisplay
	engine  *scroll.Engine

	songs   []library.Song
	current int
	gen     uint64
	mode    Mode

	lines  []lrc.Line
	timing *timing.Session
}

func New(d display.LineDisplay) *PlayerSession {
	return &PlayerSession{
		display: d,
		engine:  scroll.NewEngine(d),
		current: -1,
	}
}

// SetSongs replaces the song list. The selected song stays selected when
// it is still listed under the same audio path.
func (p *PlayerSession) SetSongs(songs []library.Song) {
	var selected string
	if p.current >= 0 {
		selected = p.songs[p.current].AudioPath
	}
	p.songs = songs
	p.current = -1
	for i, s := range songs {
		if selected != "" && s.AudioPath == selected {
			p.current = i
			break
		}
	}
	if selected != "" && p.current < 0 {
		logger().Warn().Str("audio", selected).Msg("Selected song disappeared from library")
		p.reset()
		p.mode = Idle
	}
}

func (p *PlayerSession) Songs() []library.Song {
	return p.songs
}

// Current returns the selected song.
func (p *PlayerSession) Current() (library.Song, bool) {
	if p.current < 0 {
		return library.Song{}, false
	}
	return p.songs[p.current], true
}

func (p *PlayerSession) Mode() Mode {
	return p.mode
}

// Timing returns the active timing session, or nil.
func (p *PlayerSession) Timing() *timing.Session {
	return p.timing
}

// Lines returns the parsed lyrics followed in sync mode.
func (p *PlayerSession) Lines() []lrc.Line {
	return p.lines
}

// Select makes song index current. Any lyrics and timing session of the
// previous song are dropped before the returned ticket is issued.
func (p *PlayerSession) Select(index int) (Load, error) {
	if index < 0 || index >= len(p.songs) {
		return Load{}, fmt.Errorf("%w: %d", ErrUnknownSong, index)
	}

	p.reset()
	p.current = index
	p.mode = Loading
	song := p.songs[index]

	logger().Info().Str("song", song.Name).Uint64("gen", p.gen).Msg("Song selected")
	p.display.ShowMessage("Now playing: " + song.Name)
	return Load{Gen: p.gen, Song: song}, nil
}

// Reload issues a fresh ticket for the selected song, dropping its current
// lyrics and timing session.
func (p *PlayerSession) Reload() (Load, error) {
	if p.current < 0 {
		return Load{}, ErrNoSong
	}
	return p.Select(p.current)
}

func (p *PlayerSession) reset() {
	p.gen++
	if p.timing != nil {
		logger().Info().Str("timing_session", p.timing.ID()).Msg("Discarding timing session")
		p.display.MarkEditing(-1)
	}
	p.timing = nil
	p.lines = nil
}

// Apply hands the result of reading a song's lyrics back to the session.
// It reports false when the ticket is stale.
func (p *PlayerSession) Apply(l Load, text string, err error) bool {
	if l.Gen != p.gen {
		logger().Debug().Uint64("gen", l.Gen).Uint64("current_gen", p.gen).Msg("Ignoring stale lyrics")
		return false
	}

	switch {
	case errors.Is(err, library.ErrNoLyricsFile):
		p.mode = Placeholder
		p.display.Render(nil)
		p.display.ShowMessage(fmt.Sprintf("No .lrc for this song. Put %s next to the audio file.", l.Song.LyricsFileName()))
	case err != nil:
		logger().Error().Err(err).Str("song", l.Song.Name).Msg("Failed to read lyrics")
		p.mode = Placeholder
		p.display.Render(nil)
		p.display.ShowMessage("Could not read lyrics for " + l.Song.Name)
	case lrc.HasTimeTags(text):
		p.follow(lrc.Parse(text))
	default:
		p.startTiming(timing.FromText(text, p.display))
	}
	return true
}

func (p *PlayerSession) follow(lines []lrc.Line) {
	p.lines = lines
	p.timing = nil
	p.mode = Sync
	p.engine.Load(lines)
	logger().Info().Int("lines_count", len(lines)).Msg("Following lyrics")
}

func (p *PlayerSession) startTiming(s *timing.Session) {
	p.timing = s
	if s.State() == timing.Inert {
		p.mode = Placeholder
		p.display.ShowMessage("Lyrics file is empty, nothing to time.")
		return
	}
	p.mode = Timing
}

// StartRetiming switches timed lyrics into a timing session seeded with
// their current times.
func (p *PlayerSession) StartRetiming() error {
	if p.current < 0 {
		return ErrNoSong
	}
	if p.mode != Sync || len(p.lines) == 0 {
		return ErrNotTimed
	}
	p.startTiming(timing.FromLines(p.lines, p.display))
	return nil
}

// Tick follows playback position in sync mode.
func (p *PlayerSession) Tick(position time.Duration) {
	if p.mode != Sync {
		return
	}
	p.engine.Update(position)
}

// Mark stamps the next line of the timing session.
func (p *PlayerSession) Mark(position time.Duration) bool {
	if p.timing == nil {
		return false
	}
	return p.timing.Mark(position)
}

// Back undoes the latest stamp of the timing session.
func (p *PlayerSession) Back() bool {
	if p.timing == nil {
		return false
	}
	return p.timing.Back()
}

// PrepareSave serializes the timing session for writing.
func (p *PlayerSession) PrepareSave() (Save, error) {
	if p.current < 0 {
		return Save{}, ErrNoSong
	}
	if p.timing == nil || p.timing.State() == timing.Inert {
		return Save{}, ErrNothingToSave
	}

	song := p.songs[p.current]
	return Save{
		Gen:       p.gen,
		Song:      song,
		Name:      song.LyricsFileName(),
		Content:   p.timing.Serialize(),
		SessionID: p.timing.ID(),
		Lines:     len(p.timing.Lines()),
		Timed:     p.timing.Timed(),
	}, nil
}

// Saved hands the result of writing s back to the session. On success the
// saved lyrics are followed in sync mode; on failure nothing changes so
// the save can be retried.
func (p *PlayerSession) Saved(s Save, dest string, err error) bool {
	if err != nil {
		logger().Error().Err(err).Str("song", s.Song.Name).Msg("Failed to save lyrics")
		return false
	}

	for i := range p.songs {
		if p.songs[i].AudioPath == s.Song.AudioPath && filepath.Dir(dest) == p.songs[i].Dir {
			p.songs[i].LyricsPath = dest
		}
	}

	if s.Gen != p.gen {
		logger().Info().Str("song", s.Song.Name).Str("dest", dest).Msg("Saved lyrics for a song no longer selected")
		return true
	}
	p.follow(lrc.Parse(s.Content))
	p.display.ShowMessage("LRC saved: " + dest)
	return true
}

func (p *PlayerSession) Status() Status {
	st := Status{Mode: p.mode, Lines: len(p.lines), Cursor: -1}
	if song, ok := p.Current(); ok {
		st.Song = song.Name
	}
	if p.timing != nil {
		st.Timing = p.timing.State()
		st.Cursor = p.timing.Cursor()
		st.Editable = len(p.timing.Editable())
		st.Timed = p.timing.Timed()
		st.Lines = len(p.timing.Lines())
	}
	return st
}
