// Package scroll follows playback position through a list of lyric lines.
package scroll

import (
	"time"

	"lrc-player/internal/display"
	"lrc-player/internal/lrc"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// logger follows the global logger configured at startup.
func logger() *zerolog.Logger {
	l := log.With().Str("component", "scroll").Logger()
	return &l
}

// Locate returns the index of the current line at position ms: the last
// line in file order whose timestamp is at or before the position. Untimed
// lines are skipped. ok is false before the first timed line.
func Locate(lines []lrc.Line, position int64) (index int, ok bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		if lines[i].Time.NotAfter(position) {
			return i, true
		}
	}
	return -1, false
}

// Engine drives a display from playback position updates.
type Engine struct {
	display display.LineDisplay
	lines   []lrc.Line
	last    int
}

func NewEngine(d display.LineDisplay) *Engine {
	return &Engine{display: d, last: -2}
}

// Load renders lines and makes the next Update notify the display.
func (e *Engine) Load(lines []lrc.Line) {
	e.lines = lines
	e.last = -2

	rows := make([]display.Row, len(lines))
	for i, l := range lines {
		rows[i] = display.Row{Text: l.Text}
	}
	e.display.Render(rows)
	logger().Debug().Int("lines_count", len(lines)).Msg("Lyrics loaded")
}

// Lines returns the loaded lines.
func (e *Engine) Lines() []lrc.Line {
	return e.lines
}

// Update selects the current line for position. The selection is computed
// from scratch so seeks in either direction are handled; the display is
// only notified when the selection changed.
func (e *Engine) Update(position time.Duration) (int, bool) {
	index, ok := Locate(e.lines, position.Milliseconds())
	if index == e.last {
		return index, ok
	}
	e.last = index

	if !ok {
		e.display.MarkPast(nil)
		e.display.MarkCurrent(-1)
		return index, ok
	}

	past := make([]int, index)
	for i := range past {
		past[i] = i
	}
	e.display.MarkPast(past)
	e.display.MarkCurrent(index)
	e.display.ScrollTo(index)

	logger().Debug().
		Int("index", index).
		Dur("position", position).
		Str("lyric", e.lines[index].Text).
		Msg("Current line changed")
	return index, ok
}
