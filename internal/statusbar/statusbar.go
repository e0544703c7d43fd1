// Package statusbar mirrors the lyric view into a one-line text file for
// status bar blocks such as i3blocks, and signals the bar to redraw.
package statusbar

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"lrc-player/internal/display"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// logger follows the global logger configured at startup.
func logger() *zerolog.Logger {
	l := log.With().Str("component", "statusbar").Logger()
	return &l
}

// DefaultSignal is SIGRTMIN+21, the i3blocks signal for the lyrics block.
const DefaultSignal = syscall.Signal(55)

// Bar is a display.LineDisplay showing a single line: the current lyric in
// sync mode, the line being timed, or the latest message.
type Bar struct {
	path    string
	process string
	signal  syscall.Signal
	findPID func(name string) (int, error)

	mu   sync.Mutex
	rows []display.Row
	text string
	pid  int
}

var _ display.LineDisplay = (*Bar)(nil)

// New writes to path and signals the process named process. An empty
// process name disables signalling.
func New(path, process string, signal syscall.Signal) *Bar {
	return &Bar{
		path:    path,
		process: process,
		signal:  signal,
		findPID: pgrep,
		pid:     -1,
	}
}

func (b *Bar) Render(rows []display.Row) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rows = append([]display.Row(nil), rows...)
}

func (b *Bar) MarkCurrent(index int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.show(b.rowText(index))
}

func (b *Bar) MarkPast(indices []int) {}

func (b *Bar) MarkEditing(index int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 {
		return
	}
	b.show("> " + b.rowText(index))
}

func (b *Bar) SetLabel(index int, label string) {}

func (b *Bar) ScrollTo(index int) {}

func (b *Bar) ShowMessage(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.show(msg)
}

// Text returns the line last written.
func (b *Bar) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

func (b *Bar) rowText(index int) string {
	if index < 0 || index >= len(b.rows) {
		return ""
	}
	return b.rows[index].Text
}

// show writes text and signals the bar when it changed. Callers hold b.mu.
func (b *Bar) show(text string) {
	if text == b.text {
		return
	}
	b.text = text
	if err := os.WriteFile(b.path, []byte(text+"\n"), 0644); err != nil {
		logger().Warn().Err(err).Str("path", b.path).Msg("Failed to write status line")
		return
	}
	if b.process == "" {
		return
	}
	if err := b.notify(); err != nil {
		logger().Debug().Err(err).Msg("Failed to signal status bar")
	}
}

// notify signals the bar, looking its PID up again when the cached one
// is gone.
func (b *Bar) notify() error {
	if b.pid > 0 && syscall.Kill(b.pid, b.signal) == nil {
		return nil
	}

	pid, err := b.findPID(b.process)
	if err != nil {
		b.pid = -1
		return err
	}
	if pid != b.pid {
		logger().Info().Int("old_pid", b.pid).Int("pid", pid).Str("process", b.process).Msg("Status bar PID updated")
	}
	b.pid = pid
	if err := syscall.Kill(pid, b.signal); err != nil {
		return fmt.Errorf("failed to send signal %d to process %d: %w", b.signal, pid, err)
	}
	return nil
}

func pgrep(name string) (int, error) {
	output, err := exec.Command("pgrep", "-x", name).Output()
	if err != nil {
		return -1, fmt.Errorf("%s process not found: %w", name, err)
	}

	// 多个进程时取第一个
	first, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n")
	pid, err := strconv.Atoi(first)
	if err != nil {
		return -1, fmt.Errorf("failed to parse PID: %w", err)
	}
	return pid, nil
}
