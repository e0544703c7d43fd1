// Package displaytest provides a LineDisplay that records what it is told.
package displaytest

import (
	"sync"

	"lrc-player/internal/display"
)

// Recorder keeps the latest state pushed to a display.
type Recorder struct {
	mu       sync.Mutex
	Rows     []display.Row
	Current  int
	Past     []int
	Editing  int
	Scrolled []int
	Messages []string
	Renders  int
}

func NewRecorder() *Recorder {
	return &Recorder{Current: -1, Editing: -1}
}

func (r *Recorder) Render(rows []display.Row) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Rows = append([]display.Row(nil), rows...)
	r.Current, r.Editing, r.Past = -1, -1, nil
	r.Renders++
}

func (r *Recorder) MarkCurrent(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Current = index
}

func (r *Recorder) MarkPast(indices []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Past = append([]int(nil), indices...)
}

func (r *Recorder) MarkEditing(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Editing = index
}

func (r *Recorder) SetLabel(index int, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index >= 0 && index < len(r.Rows) {
		r.Rows[index].Label = label
	}
}

func (r *Recorder) ScrollTo(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Scrolled = append(r.Scrolled, index)
}

func (r *Recorder) ShowMessage(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, msg)
}

// LastMessage returns the most recent message, or "".
func (r *Recorder) LastMessage() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[len(r.Messages)-1]
}

// Label returns the label of row index, or "" when out of range.
func (r *Recorder) Label(index int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.Rows) {
		return ""
	}
	return r.Rows[index].Label
}
