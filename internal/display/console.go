package display

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Console prints lyric progress to a terminal. It only reacts to changes
// of the current or editing line, so it can be driven by every tick.
type Console struct {
	out     io.Writer
	mu      sync.Mutex
	rows    []Row
	current int
	editing int
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out, current: -1, editing: -1}
}

func (c *Console) Render(rows []Row) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rows = append(c.rows[:0], rows...)
	c.current, c.editing = -1, -1

	var b strings.Builder
	for i, r := range rows {
		label := r.Label
		if label == "" {
			label = strings.Repeat(" ", 8)
		}
		fmt.Fprintf(&b, "%3d %s  %s\n", i, label, r.Text)
	}
	io.WriteString(c.out, b.String())
}

func (c *Console) MarkCurrent(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index == c.current {
		return
	}
	c.current = index
	if index >= 0 && index < len(c.rows) {
		fmt.Fprintf(c.out, "♪ %s\n", c.rows[index].Text)
	}
}

// MarkPast is implied by MarkCurrent on a terminal.
func (c *Console) MarkPast(indices []int) {}

func (c *Console) MarkEditing(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index == c.editing {
		return
	}
	c.editing = index
	if index >= 0 && index < len(c.rows) {
		r := c.rows[index]
		fmt.Fprintf(c.out, "> %3d [%s] %s\n", index, r.Label, r.Text)
	}
}

func (c *Console) SetLabel(index int, label string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index >= 0 && index < len(c.rows) {
		c.rows[index].Label = label
	}
}

func (c *Console) ScrollTo(index int) {}

func (c *Console) ShowMessage(msg string) {
	fmt.Fprintln(c.out, msg)
}
