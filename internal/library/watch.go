package library

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reports changes to the audio and lyric files of dir. Bursts of
// events are coalesced: a signal is sent once dir has been quiet for
// debounce. The channel is closed when ctx is done.
func Watch(ctx context.Context, dir string, debounce time.Duration) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	logger().Info().Str("dir", dir).Msg("Watching library directory")

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer watcher.Close()

		timer := time.NewTimer(debounce)
		timer.Stop()
		defer timer.Stop()

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !IsRelevant(filepath.Base(event.Name)) || event.Op == fsnotify.Chmod {
					continue
				}
				logger().Debug().Str("op", event.Op.String()).Str("name", event.Name).Msg("Watcher event")
				timer.Reset(debounce)
			case <-timer.C:
				select {
				case out <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger().Error().Err(err).Msg("Watcher error")
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
