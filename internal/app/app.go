// Package app wires the player together and runs its event loop.
//
// All session state is owned by the loop goroutine. Lyric reads and
// writes run on their own goroutines and post their results back as
// closures executed by the loop.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"lrc-player/internal/config"
	"lrc-player/internal/display"
	"lrc-player/internal/history"
	"lrc-player/internal/ipc"
	"lrc-player/internal/library"
	"lrc-player/internal/player"
	"lrc-player/internal/session"
	"lrc-player/internal/statusbar"
	"lrc-player/pkg/redis"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ioTimeout bounds a single lyric save including its mirrors.
const ioTimeout = 30 * time.Second

// Deps are the collaborators of an App that do not come from config.
type Deps struct {
	Out     io.Writer
	Display display.LineDisplay
	Player  player.Player
	Decoder *library.Decoder
	Mirrors []library.Mirror
	History *history.Store
}

type App struct {
	cfg     *config.Config
	out     io.Writer
	session *session.PlayerSession
	player  player.Player
	decoder *library.Decoder
	mirrors []library.Mirror
	history *history.Store

	dir       string
	refresh   <-chan struct{}
	stopWatch context.CancelFunc
	results   chan func()

	rl        *readline.Instance
	ipcServer *ipc.Server
	closers   []func() error
}

func newApp(cfg *config.Config, deps Deps) *App {
	return &App{
		cfg:     cfg,
		out:     deps.Out,
		session: session.New(deps.Display),
		player:  deps.Player,
		decoder: deps.Decoder,
		mirrors: deps.Mirrors,
		history: deps.History,
		results: make(chan func(), 16),
	}
}

// New builds the application from cfg. Startup failures are fatal.
func New(cfg *config.Config) *App {
	// 设置 zerolog 的全局配置
	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(cfg.App.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if err := os.MkdirAll(cfg.App.CacheDir, 0755); err != nil {
		log.Fatal().Err(err).Str("cache_dir", cfg.App.CacheDir).Msg("Failed to create cache directory")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "lrc> ",
		HistoryFile:     filepath.Join(cfg.App.CacheDir, "shell_history"),
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize shell")
	}
	// 日志经由 readline 输出，避免打乱提示符
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: rl.Stderr(), TimeFormat: time.Kitchen})

	decoder, err := library.NewDecoder(cfg.Library.FallbackEncoding)
	if err != nil {
		log.Warn().Err(err).Msg("Falling back to UTF-8 only")
		decoder, _ = library.NewDecoder("")
	}

	store, err := history.Open(cfg.App.HistoryDB)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.App.HistoryDB).Msg("Failed to open history database")
	}

	p, err := player.New(cfg.Player.Source)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create player")
	}

	ipcServer := ipc.NewServer(cfg.App.SocketPath)
	displays := display.Fanout{display.NewConsole(rl.Stdout()), ipcServer}
	if cfg.StatusBar.Enabled {
		displays = append(displays, statusbar.New(cfg.StatusBar.File, cfg.StatusBar.Process, statusbar.DefaultSignal))
	}

	var mirrors []library.Mirror
	var closers []func() error
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, saving without mirror")
		} else {
			mirrors = append(mirrors, library.NewRedisMirror(client, cfg.Redis.KeyPrefix, cfg.Redis.TTL))
			closers = append(closers, client.Close)
		}
	}

	a := newApp(cfg, Deps{
		Out:     rl.Stdout(),
		Display: displays,
		Player:  p,
		Decoder: decoder,
		Mirrors: mirrors,
		History: store,
	})
	a.rl = rl
	a.ipcServer = ipcServer
	a.closers = append(closers, store.Close)
	return a
}

// Run serves the shell until it is closed or told to quit.
func (a *App) Run() {
	if err := a.ipcServer.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start IPC server")
	}
	defer a.close()

	a.open(a.cfg.Library.Dir)
	a.printf("Type help for commands.")

	commands := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go a.readCommands(commands, done)

	ticker := time.NewTicker(a.cfg.App.TickInterval)
	defer ticker.Stop()

	log.Info().Dur("tick_interval", a.cfg.App.TickInterval).Msg("Starting player loop")
	for {
		select {
		case <-ticker.C:
			a.tick()
		case line, ok := <-commands:
			if !ok || !a.handle(line) {
				log.Info().Msg("Shutting down")
				return
			}
		case _, ok := <-a.refresh:
			if !ok {
				a.refresh = nil
				continue
			}
			a.rescan()
		case fn := <-a.results:
			fn()
		}
	}
}

func (a *App) readCommands(commands chan<- string, done <-chan struct{}) {
	defer close(commands)
	for {
		line, err := a.rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return
			}
			continue
		}
		if err != nil {
			return
		}
		select {
		case commands <- line:
		case <-done:
			return
		}
	}
}

func (a *App) close() {
	if a.stopWatch != nil {
		a.stopWatch()
	}
	if a.ipcServer != nil {
		a.ipcServer.Close()
	}
	for _, c := range a.closers {
		if err := c(); err != nil {
			log.Warn().Err(err).Msg("Failed to close resource")
		}
	}
	if a.rl != nil {
		a.rl.Close()
	}
}

// post hands fn to the loop goroutine.
func (a *App) post(fn func()) {
	a.results <- fn
}

func (a *App) tick() {
	if a.session.Mode() != session.Sync {
		return
	}
	pos, err := a.player.Position()
	if err != nil {
		log.Debug().Err(err).Msg("No playback position")
		return
	}
	a.session.Tick(pos)
}

// open scans dir as the library and starts watching it.
func (a *App) open(dir string) {
	songs, err := library.Scan(dir)
	if err != nil {
		a.report(err)
		return
	}
	a.dir = dir
	a.session.SetSongs(songs)
	a.printf("%d songs in %s", len(songs), dir)
	a.watch(dir)
}

func (a *App) watch(dir string) {
	if a.stopWatch != nil {
		a.stopWatch()
		a.stopWatch, a.refresh = nil, nil
	}
	if !a.cfg.Library.Watch {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := library.Watch(ctx, dir, a.cfg.Library.WatchDebounce)
	if err != nil {
		cancel()
		log.Warn().Err(err).Str("dir", dir).Msg("Library changes will not be picked up")
		return
	}
	a.stopWatch, a.refresh = cancel, ch
}

func (a *App) rescan() {
	songs, err := library.Scan(a.dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", a.dir).Msg("Failed to rescan library")
		return
	}
	a.session.SetSongs(songs)
	log.Info().Int("songs", len(songs)).Msg("Library refreshed")
}

// load reads the lyrics of the ticket's song in the background.
func (a *App) load(l session.Load) {
	go func() {
		text, err := a.readLyrics(l.Song)
		a.post(func() { a.session.Apply(l, text, err) })
	}()
}

func (a *App) readLyrics(song library.Song) (string, error) {
	if !song.HasLyrics() {
		return "", library.ErrNoLyricsFile
	}
	return a.decoder.ReadText(song.LyricsPath)
}

// recallLyrics applies the mirrored copy of the ticket's song.
func (a *App) recallLyrics(l session.Load) {
	saver := a.newSaver(l.Song.Dir)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		defer cancel()
		text, ok := saver.Recall(ctx, l.Song.LyricsFileName())
		var err error
		if !ok {
			err = fmt.Errorf("%w in mirrors", library.ErrNoLyricsFile)
		}
		a.post(func() { a.session.Apply(l, text, err) })
	}()
}

// newSaver writes next to the song first, then into the export directory.
func (a *App) newSaver(songDir string) *library.Saver {
	writers := []library.Writer{library.NewFolderWriter(songDir)}
	if a.cfg.Library.ExportDir != "" {
		writers = append(writers, library.NewExportWriter(a.cfg.Library.ExportDir))
	}
	return library.NewSaver(writers, a.mirrors...)
}

func (a *App) save(s session.Save) {
	saver := a.newSaver(s.Song.Dir)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		defer cancel()

		dest, err := saver.Save(ctx, s.Name, s.Content)
		if err == nil && a.history != nil {
			_, herr := a.history.Record(ctx, history.Entry{
				SessionID:   s.SessionID,
				Song:        s.Song.Name,
				Destination: dest,
				Lines:       s.Lines,
				Timed:       s.Timed,
			})
			if herr != nil {
				log.Warn().Err(herr).Str("dest", dest).Msg("Failed to record save history")
			}
		}
		a.post(func() {
			if !a.session.Saved(s, dest, err) {
				a.printf("Save failed: %v", err)
			}
		})
	}()
}

func (a *App) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

func (a *App) report(err error) {
	if err != nil {
		a.printf("Error: %v", err)
	}
}
