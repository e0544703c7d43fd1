// Package ipc publishes display events to clients on a unix socket, one
// JSON object per line.
package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"lrc-player/internal/display"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// logger follows the global logger configured at startup.
func logger() *zerolog.Logger {
	l := log.With().Str("component", "ipc").Logger()
	return &l
}

const writeTimeout = time.Second

// Event is one line sent to clients. Index is -1 when it does not apply.
type Event struct {
	Event string `json:"event"`
	Index int    `json:"index"`
	Text  string `json:"text,omitempty"`
}

// Server is a display.LineDisplay that forwards every call to the
// connected clients. New clients first receive a snapshot of the view.
type Server struct {
	socketPath   string
	listener     net.Listener
	lockFile     *os.File
	lockFilePath string

	mu      sync.Mutex
	conns   map[net.Conn]struct{}
	rows    []display.Row
	current int
	editing int
	message string
}

var _ display.LineDisplay = (*Server)(nil)

func NewServer(socketPath string) *Server {
	return &Server{
		socketPath:   socketPath,
		lockFilePath: socketPath + ".lock",
		conns:        make(map[net.Conn]struct{}),
		current:      -1,
		editing:      -1,
	}
}

func (s *Server) checkAndCleanOldLock() {
	content, err := os.ReadFile(s.lockFilePath)
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		logger().Warn().Err(err).Msg("Failed to read lock file, removing it")
		os.Remove(s.lockFilePath)
		return
	}

	pidStr := strings.TrimSpace(string(content))
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		logger().Warn().Str("pid_str", pidStr).Msg("Invalid PID in lock file, removing it")
		os.Remove(s.lockFilePath)
		return
	}

	// kill(pid, 0) 只检查进程是否存在
	if syscall.Kill(pid, 0) != nil {
		logger().Info().Int("old_pid", pid).Msg("Process in lock file is not running, removing lock file")
		os.Remove(s.lockFilePath)
		return
	}
	logger().Info().Int("existing_pid", pid).Msg("Another process is still running")
}

func (s *Server) acquireLock() error {
	s.checkAndCleanOldLock()

	file, err := os.OpenFile(s.lockFilePath, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create lock file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		if err == syscall.EWOULDBLOCK {
			return fmt.Errorf("another lrc-player instance is already running")
		}
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if err := file.Truncate(0); err != nil {
		s.unlock(file)
		return fmt.Errorf("failed to truncate lock file: %w", err)
	}
	if _, err := file.WriteString(fmt.Sprintf("%d\n", os.Getpid())); err != nil {
		s.unlock(file)
		return fmt.Errorf("failed to write PID to lock file: %w", err)
	}

	s.lockFile = file
	logger().Info().Str("lock_file", s.lockFilePath).Int("pid", os.Getpid()).Msg("Acquired process lock")
	return nil
}

func (s *Server) unlock(file *os.File) {
	syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
	file.Close()
}

func (s *Server) releaseLock() {
	if s.lockFile == nil {
		return
	}
	s.unlock(s.lockFile)
	os.Remove(s.lockFilePath)
	logger().Info().Str("lock_file", s.lockFilePath).Msg("Released process lock")
	s.lockFile = nil
}

// Start takes the process lock and begins accepting clients.
func (s *Server) Start() error {
	if err := s.acquireLock(); err != nil {
		return err
	}

	if err := os.RemoveAll(s.socketPath); err != nil {
		s.releaseLock()
		return err
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		s.releaseLock()
		return err
	}
	s.listener = listener

	logger().Info().Str("socket_path", s.socketPath).Msg("IPC server listening")
	go s.acceptConnections()
	return nil
}

func (s *Server) acceptConnections() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logger().Error().Err(err).Msg("Failed to accept IPC connection")
			continue
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	for _, ev := range s.snapshot() {
		if err := write(conn, encode(ev)); err != nil {
			logger().Error().Err(err).Msg("Failed to send snapshot")
			break
		}
	}
	s.mu.Unlock()

	logger().Info().Msg("Client connected")

	// 客户端只读，等待其断开
	buf := make([]byte, 1)
	for {
		if _, err := conn.Read(buf); err != nil {
			break
		}
	}

	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
	logger().Info().Msg("Client disconnected")
}

// snapshot replays the current view. Callers hold s.mu.
func (s *Server) snapshot() []Event {
	events := rowEvents(s.rows)
	for i, row := range s.rows {
		if row.Label != "" {
			events = append(events, Event{Event: "label", Index: i, Text: row.Label})
		}
	}
	if s.current >= 0 {
		events = append(events, Event{Event: "current", Index: s.current, Text: s.text(s.current)})
	}
	if s.editing >= 0 {
		events = append(events, Event{Event: "editing", Index: s.editing, Text: s.text(s.editing)})
	}
	if s.message != "" {
		events = append(events, Event{Event: "message", Index: -1, Text: s.message})
	}
	return events
}

func rowEvents(rows []display.Row) []Event {
	events := make([]Event, 0, len(rows)+1)
	events = append(events, Event{Event: "render", Index: len(rows)})
	for i, row := range rows {
		events = append(events, Event{Event: "row", Index: i, Text: row.Text})
	}
	return events
}

func (s *Server) text(index int) string {
	if index < 0 || index >= len(s.rows) {
		return ""
	}
	return s.rows[index].Text
}

func encode(ev Event) []byte {
	b, err := json.Marshal(ev)
	if err != nil {
		// Event 只含基本类型
		panic(err)
	}
	return append(b, '\n')
}

func write(conn net.Conn, line []byte) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := conn.Write(line)
	return err
}

// broadcast sends events to every client. Callers hold s.mu.
func (s *Server) broadcast(events ...Event) {
	for conn := range s.conns {
		for _, ev := range events {
			if err := write(conn, encode(ev)); err != nil {
				logger().Error().Err(err).Msg("Failed to write to client, removing")
				conn.Close()
				delete(s.conns, conn)
				break
			}
		}
	}
}

func (s *Server) Render(rows []display.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append([]display.Row(nil), rows...)
	s.current, s.editing = -1, -1
	s.broadcast(rowEvents(s.rows)...)
}

func (s *Server) MarkCurrent(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = index
	s.broadcast(Event{Event: "current", Index: index, Text: s.text(index)})
}

// MarkPast sends the highest past index; everything before it is past too.
func (s *Server) MarkPast(indices []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	last := -1
	for _, i := range indices {
		if i > last {
			last = i
		}
	}
	s.broadcast(Event{Event: "past", Index: last})
}

func (s *Server) MarkEditing(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = index
	s.broadcast(Event{Event: "editing", Index: index, Text: s.text(index)})
}

func (s *Server) SetLabel(index int, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index >= 0 && index < len(s.rows) {
		s.rows[index].Label = label
	}
	s.broadcast(Event{Event: "label", Index: index, Text: label})
}

func (s *Server) ScrollTo(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcast(Event{Event: "scroll", Index: index})
}

func (s *Server) ShowMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = msg
	s.broadcast(Event{Event: "message", Index: -1, Text: msg})
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) Close() {
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	s.releaseLock()
}
