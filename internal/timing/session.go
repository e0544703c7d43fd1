// Package timing implements interactive time tagging of plain lyric lines.
//
// A session walks a cursor over the non-blank lines. Each Mark stamps the
// line under the cursor with the playback position and moves on; Back
// undoes the latest stamp. The cursor is -1 before the first stamp, i while
// the i-th editable line is highlighted, and N once every line is done.
package timing

import (
	"strings"
	"time"

	"lrc-player/internal/display"
	"lrc-player/internal/lrc"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Lead is subtracted from every stamp to make up for reaction time.
const Lead = 300 * time.Millisecond

// State is the phase of a session.
type State int

const (
	Inert State = iota
	NotStarted
	Editing
	Complete
)

func (s State) String() string {
	switch s {
	case Inert:
		return "inert"
	case NotStarted:
		return "not-started"
	case Editing:
		return "editing"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

type Session struct {
	id       string
	plain    []string
	editable []int
	times    []lrc.Time
	cursor   int
	display  display.LineDisplay
	logger   zerolog.Logger
}

// New starts a session over plain lines. seed holds times already known
// for the lines (re-timing a tagged file) and may be nil. The lines are
// rendered on d right away.
func New(plain []string, seed []lrc.Time, d display.LineDisplay) *Session {
	s := &Session{
		id:      uuid.NewString(),
		plain:   plain,
		times:   make([]lrc.Time, len(plain)),
		cursor:  -1,
		display: d,
	}
	for i, line := range plain {
		if strings.TrimSpace(line) == "" {
			continue
		}
		s.editable = append(s.editable, i)
		if i < len(seed) {
			s.times[i] = seed[i]
		}
	}
	s.logger = log.With().
		Str("component", "timing").
		Str("session", s.id).
		Logger()

	labels := make([]string, len(plain))
	for i, t := range s.times {
		labels[i] = t.String()
	}
	d.Render(display.Rows(plain, labels))

	s.logger.Info().
		Int("lines", len(plain)).
		Int("editable", len(s.editable)).
		Msg("Timing session started")
	return s
}

// FromText starts a session over the lines of an untagged lyric file.
func FromText(text string, d display.LineDisplay) *Session {
	return New(lrc.SplitLines(text), nil, d)
}

// FromLines starts a session that re-times parsed lines, keeping their
// current times until they are stamped again.
func FromLines(lines []lrc.Line, d display.LineDisplay) *Session {
	return New(lrc.PlainText(lines), lrc.Times(lines), d)
}

func (s *Session) ID() string { return s.id }

// Cursor returns the cursor position in [-1, N].
func (s *Session) Cursor() int { return s.cursor }

// Editable returns the positions of the lines that can be stamped.
func (s *Session) Editable() []int {
	return append([]int(nil), s.editable...)
}

func (s *Session) State() State {
	switch {
	case len(s.editable) == 0:
		return Inert
	case s.cursor < 0:
		return NotStarted
	case s.cursor >= len(s.editable):
		return Complete
	default:
		return Editing
	}
}

// CanMark reports whether the mark control is enabled.
func (s *Session) CanMark() bool {
	st := s.State()
	return st == NotStarted || st == Editing
}

// CanBack reports whether the back control is enabled.
func (s *Session) CanBack() bool {
	st := s.State()
	return st == Editing || st == Complete
}

// Times returns a copy of the timing table, indexed by line position.
func (s *Session) Times() []lrc.Time {
	return append([]lrc.Time(nil), s.times...)
}

// Timed returns how many lines currently carry a timestamp.
func (s *Session) Timed() int {
	n := 0
	for _, idx := range s.editable {
		if s.times[idx].IsSet() {
			n++
		}
	}
	return n
}

// Lines returns the plain lines of the session.
func (s *Session) Lines() []string {
	return s.plain
}

// Serialize renders the session as LRC text.
func (s *Session) Serialize() string {
	return lrc.Serialize(s.plain, s.times)
}

// Stamp converts a playback position to the time assigned by Mark.
func Stamp(position time.Duration) int64 {
	ms := position.Milliseconds() - Lead.Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}

// Mark stamps the next line with position. It reports whether the session
// changed.
func (s *Session) Mark(position time.Duration) bool {
	if !s.CanMark() {
		return false
	}
	ms := Stamp(position)
	last := len(s.editable) - 1

	switch {
	case s.cursor == last:
		s.assign(s.editable[last], lrc.At(ms))
		s.cursor = len(s.editable)
		s.display.MarkEditing(-1)
		s.logger.Info().Int64("ms", ms).Msg("All lines timed")
		return true
	case s.cursor >= 0:
		s.cursor++
	default:
		s.cursor = 0
	}

	s.assign(s.editable[s.cursor], lrc.At(ms))
	s.highlight()
	s.logger.Debug().Int("cursor", s.cursor).Int64("ms", ms).Msg("Line marked")
	return true
}

// Back clears the latest stamp and steps the cursor back. It reports
// whether the session changed.
func (s *Session) Back() bool {
	if !s.CanBack() {
		return false
	}

	if s.cursor >= len(s.editable) {
		s.cursor = len(s.editable) - 1
		s.assign(s.editable[s.cursor], lrc.Untimed)
		s.highlight()
		s.logger.Debug().Int("cursor", s.cursor).Msg("Reopened last line")
		return true
	}

	s.assign(s.editable[s.cursor], lrc.Untimed)
	s.cursor--
	if s.cursor < 0 {
		s.display.MarkEditing(-1)
	} else {
		s.highlight()
	}
	s.logger.Debug().Int("cursor", s.cursor).Msg("Stepped back")
	return true
}

func (s *Session) assign(index int, t lrc.Time) {
	s.times[index] = t
	s.display.SetLabel(index, t.String())
}

func (s *Session) highlight() {
	index := s.editable[s.cursor]
	s.display.MarkEditing(index)
	s.display.ScrollTo(index)
}
