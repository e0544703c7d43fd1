package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// logger follows the global logger configured at startup.
func logger() *zerolog.Logger {
	l := log.With().Str("component", "library").Logger()
	return &l
}

// Writer stores a lyric file by name.
type Writer interface {
	// Write stores content under name and returns where it ended up.
	Write(ctx context.Context, name, content string) (string, error)
	Name() string
}

// Mirror keeps a secondary copy of saved lyrics.
type Mirror interface {
	Put(ctx context.Context, name, content string) error
	Get(ctx context.Context, name string) (string, bool, error)
	Name() string
}

// WriteError is a failed write through a Writer.
type WriteError struct {
	Writer string
	Name   string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: write %s: %v", e.Writer, e.Name, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// DirWriter writes files into a directory, overwriting existing ones.
type DirWriter struct {
	dir    string
	label  string
	create bool
}

// NewFolderWriter writes next to the songs in dir.
func NewFolderWriter(dir string) *DirWriter {
	return &DirWriter{dir: dir, label: "folder"}
}

// NewExportWriter writes into dir, creating it when needed. It stands in
// for offering the file as a download.
func NewExportWriter(dir string) *DirWriter {
	return &DirWriter{dir: dir, label: "export", create: true}
}

func (w *DirWriter) Name() string {
	return w.label
}

func (w *DirWriter) Write(ctx context.Context, name, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if w.create {
		if err := os.MkdirAll(w.dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", w.dir, err)
		}
	}

	path := filepath.Join(w.dir, filepath.Base(name))
	if err := writeFileOverwrite(path, []byte(content), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func writeFileOverwrite(filePath string, content []byte, perm os.FileMode) error {
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filePath, err)
	}

	if _, err := f.Write(content); err != nil {
		f.Close()
		return fmt.Errorf("failed to write to file %s: %w", filePath, err)
	}
	return f.Close()
}

// Saver writes through a list of writers, falling back to the next one on
// failure, and copies successful saves to its mirrors.
type Saver struct {
	writers []Writer
	mirrors []Mirror
}

func NewSaver(writers []Writer, mirrors ...Mirror) *Saver {
	if len(writers) == 0 {
		logger().Warn().Msg("No lyric writers configured")
	}
	return &Saver{writers: writers, mirrors: mirrors}
}

// Save stores content under name with the first writer that succeeds and
// returns the destination. Mirror failures are logged only.
func (s *Saver) Save(ctx context.Context, name, content string) (string, error) {
	if len(s.writers) == 0 {
		return "", ErrNoWriters
	}

	var lastErr error
	for i, w := range s.writers {
		dest, err := w.Write(ctx, name, content)
		if err != nil {
			logger().Warn().
				Str("writer", w.Name()).
				Str("name", name).
				Int("attempt", i+1).
				Int("total_writers", len(s.writers)).
				Err(err).
				Msg("Writer failed")
			lastErr = &WriteError{Writer: w.Name(), Name: name, Err: err}
			continue
		}

		logger().Info().Str("writer", w.Name()).Str("dest", dest).Msg("Lyrics saved")
		s.mirror(ctx, name, content)
		return dest, nil
	}
	return "", fmt.Errorf("all writers failed, last error: %w", lastErr)
}

func (s *Saver) mirror(ctx context.Context, name, content string) {
	for _, m := range s.mirrors {
		if err := m.Put(ctx, name, content); err != nil {
			logger().Warn().Str("mirror", m.Name()).Str("name", name).Err(err).Msg("Mirror failed")
		}
	}
}

// Recall looks name up in the mirrors, in order.
func (s *Saver) Recall(ctx context.Context, name string) (string, bool) {
	for _, m := range s.mirrors {
		content, ok, err := m.Get(ctx, name)
		if err != nil {
			logger().Warn().Str("mirror", m.Name()).Str("name", name).Err(err).Msg("Mirror lookup failed")
			continue
		}
		if ok {
			logger().Info().Str("mirror", m.Name()).Str("name", name).Msg("Lyrics recalled from mirror")
			return content, true
		}
	}
	return "", false
}
