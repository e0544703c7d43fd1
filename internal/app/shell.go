package app

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"lrc-player/internal/session"
	"lrc-player/internal/timing"

	"github.com/chzyer/readline"
)

const recentHistory = 10

const helpText = `Commands:
  songs          list the songs of the library
  open <dir>     use <dir> as the library
  play <n>       play song n and show its lyrics
  pause          pause playback
  resume         resume playback
  seek <sec>     jump to a position in seconds
  retime         time the current lyrics again
  mark           stamp the next line (an empty line does the same while timing)
  back           undo the last stamp
  save           save the timed lyrics
  reload         read the current song's lyrics again
  recall         load the mirrored copy of the current song's lyrics
  status         show what the player is doing
  history        show recently saved lyrics
  quit           exit`

func completer() readline.AutoCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("songs"),
		readline.PcItem("open", readline.PcItemDynamic(listDirs)),
		readline.PcItem("play"),
		readline.PcItem("pause"),
		readline.PcItem("resume"),
		readline.PcItem("seek"),
		readline.PcItem("retime"),
		readline.PcItem("mark"),
		readline.PcItem("back"),
		readline.PcItem("save"),
		readline.PcItem("reload"),
		readline.PcItem("recall"),
		readline.PcItem("status"),
		readline.PcItem("history"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

func listDirs(string) []string {
	entries, err := os.ReadDir(".")
	if err != nil {
		return nil
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs
}

// handle runs one shell command. It reports false when the shell should
// exit.
func (a *App) handle(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		if a.session.Mode() == session.Timing {
			a.mark()
		}
		return true
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "songs", "ls":
		a.listSongs()
	case "open":
		if len(args) == 0 {
			a.printf("Usage: open <dir>")
			return true
		}
		a.open(strings.Join(args, " "))
	case "play":
		a.play(args)
	case "pause":
		a.report(a.player.Pause())
	case "resume":
		a.report(a.player.Play())
	case "seek":
		a.seek(args)
	case "retime":
		a.report(a.session.StartRetiming())
	case "mark", "m":
		a.mark()
	case "back", "b":
		if !a.session.Back() {
			a.printf("Nothing to undo.")
		}
	case "save":
		s, err := a.session.PrepareSave()
		if err != nil {
			a.report(err)
			return true
		}
		a.save(s)
	case "reload":
		l, err := a.session.Reload()
		if err != nil {
			a.report(err)
			return true
		}
		a.load(l)
	case "recall":
		l, err := a.session.Reload()
		if err != nil {
			a.report(err)
			return true
		}
		a.recallLyrics(l)
	case "status":
		a.status()
	case "history":
		a.showHistory()
	case "help", "?":
		a.printf("%s", helpText)
	case "quit", "exit", "q":
		return false
	default:
		a.printf("Unknown command %q, type help for commands.", cmd)
	}
	return true
}

func (a *App) listSongs() {
	songs := a.session.Songs()
	if len(songs) == 0 {
		a.printf("No songs in %s", a.dir)
		return
	}
	current, _ := a.session.Current()
	for i, s := range songs {
		marker := " "
		if s.AudioPath == current.AudioPath {
			marker = "*"
		}
		lrc := ""
		if s.HasLyrics() {
			lrc = "  [lrc]"
		}
		a.printf("%s%3d  %s%s", marker, i+1, s.Name, lrc)
	}
}

func (a *App) play(args []string) {
	if len(args) != 1 {
		a.printf("Usage: play <n>")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		a.printf("Invalid song number %q", args[0])
		return
	}

	l, err := a.session.Select(n - 1)
	if err != nil {
		a.report(err)
		return
	}
	if err := a.player.Load(l.Song.AudioPath); err != nil {
		a.report(err)
	}
	a.load(l)
}

func (a *App) seek(args []string) {
	if len(args) != 1 {
		a.printf("Usage: seek <sec>")
		return
	}
	secs, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		a.printf("Invalid position %q", args[0])
		return
	}
	a.report(a.player.Seek(time.Duration(secs * float64(time.Second))))
}

func (a *App) mark() {
	pos, err := a.player.Position()
	if err != nil {
		a.report(err)
		return
	}
	if a.session.Mark(pos) {
		return
	}
	if t := a.session.Timing(); t != nil && t.State() == timing.Complete {
		a.printf("All lines are timed. Type save to keep them.")
		return
	}
	a.printf("Nothing to mark.")
}

func (a *App) status() {
	st := a.session.Status()
	song := st.Song
	if song == "" {
		song = "-"
	}
	pos, _ := a.player.Position()
	a.printf("song: %s  mode: %s  lines: %d  position: %s", song, st.Mode, st.Lines, pos.Truncate(10*time.Millisecond))
	if st.Mode == session.Timing {
		a.printf("timing: %s  line: %d  timed: %d/%d", st.Timing, st.Cursor+1, st.Timed, st.Editable)
	}
}

func (a *App) showHistory() {
	if a.history == nil {
		a.printf("History is not available.")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entries, err := a.history.Recent(ctx, recentHistory)
	if err != nil {
		a.report(err)
		return
	}
	if len(entries) == 0 {
		a.printf("Nothing saved yet.")
		return
	}
	for _, e := range entries {
		a.printf("%s  %-24s %3d/%-3d %s", e.SavedAt.Format("2006-01-02 15:04"), e.Song, e.Timed, e.Lines, e.Destination)
	}
}
