package session

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lrc-player/internal/display/displaytest"
	"lrc-player/internal/library"
	"lrc-player/internal/timing"
)

func newSession(t *testing.T) (*PlayerSession, *displaytest.Recorder) {
	t.Helper()
	rec := displaytest.NewRecorder()
	p := New(rec)
	p.SetSongs([]library.Song{
		{Name: "one", Dir: "/music", AudioPath: "/music/one.mp3", LyricsPath: "/music/one.lrc"},
		{Name: "two", Dir: "/music", AudioPath: "/music/two.mp3"},
	})
	return p, rec
}

func TestSelectTimedLyrics(t *testing.T) {
	p, rec := newSession(t)

	load, err := p.Select(0)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if p.Mode() != Loading {
		t.Errorf("Expected loading, got %s", p.Mode())
	}
	p.Apply(load, "[00:00.00]a\n[00:01.00]b\n[00:02.00]c", nil)

	if p.Mode() != Sync || len(p.Lines()) != 3 {
		t.Fatalf("Expected sync mode with 3 lines, got %s / %d", p.Mode(), len(p.Lines()))
	}

	p.Tick(1500 * time.Millisecond)
	if rec.Current != 1 {
		t.Errorf("Expected current line 1, got %d", rec.Current)
	}
}

func TestSelectUntimedStartsTiming(t *testing.T) {
	p, rec := newSession(t)
	load, _ := p.Select(0)
	p.Apply(load, "a\n\nb\nc", nil)

	if p.Mode() != Timing || p.Timing() == nil {
		t.Fatalf("Expected timing mode, got %s", p.Mode())
	}
	if p.Timing().State() != timing.NotStarted {
		t.Errorf("Expected NotStarted, got %s", p.Timing().State())
	}

	// sync is off while timing
	p.Tick(10 * time.Second)
	if rec.Current != -1 {
		t.Errorf("Expected no current line while timing, got %d", rec.Current)
	}
}

func TestSelectBlankLyricsIsInert(t *testing.T) {
	p, _ := newSession(t)
	load, _ := p.Select(0)
	p.Apply(load, "\n  \n", nil)

	if p.Mode() != Placeholder {
		t.Errorf("Expected placeholder mode, got %s", p.Mode())
	}
	if p.Mark(time.Second) || p.Back() {
		t.Error("Expected mark and back ignored")
	}
	if _, err := p.PrepareSave(); !errors.Is(err, ErrNothingToSave) {
		t.Errorf("Expected ErrNothingToSave, got %v", err)
	}
}

func TestSelectWithoutLyricsShowsPlaceholder(t *testing.T) {
	p, rec := newSession(t)
	load, _ := p.Select(1)
	p.Apply(load, "", library.ErrNoLyricsFile)

	if p.Mode() != Placeholder {
		t.Errorf("Expected placeholder, got %s", p.Mode())
	}
	if msg := rec.LastMessage(); !strings.Contains(msg, "two.lrc") {
		t.Errorf("Expected placeholder message naming two.lrc, got %q", msg)
	}
}

func TestSelectDiscardsTimingSession(t *testing.T) {
	p, rec := newSession(t)
	load, _ := p.Select(0)
	p.Apply(load, "a\nb\nc", nil)
	p.Mark(time.Second)
	p.Mark(2 * time.Second)
	if p.Timing().Cursor() != 1 {
		t.Fatalf("Expected Editing(1), got %d", p.Timing().Cursor())
	}

	next, err := p.Select(1)
	if err != nil {
		t.Fatal(err)
	}
	if p.Timing() != nil {
		t.Fatal("Expected timing session discarded on song change")
	}
	if rec.Editing != -1 {
		t.Errorf("Expected editing highlight cleared, got %d", rec.Editing)
	}
	if p.Mark(3 * time.Second) {
		t.Error("Expected mark ignored without a session")
	}

	// the read started for the previous song completes late
	if p.Apply(load, "x\ny", nil) {
		t.Error("Expected stale load ignored")
	}
	if p.Timing() != nil || p.Mode() != Loading {
		t.Errorf("Stale load must not change state, got %s", p.Mode())
	}

	if !p.Apply(next, "[00:01.00]z", nil) || p.Mode() != Sync {
		t.Errorf("Expected current load applied, got %s", p.Mode())
	}
}

func TestSelectUnknownSong(t *testing.T) {
	p, _ := newSession(t)
	if _, err := p.Select(5); !errors.Is(err, ErrUnknownSong) {
		t.Errorf("Expected ErrUnknownSong, got %v", err)
	}
	if _, ok := p.Current(); ok {
		t.Error("Expected no song selected")
	}
}

func TestRetimeAndSave(t *testing.T) {
	p, rec := newSession(t)

	if err := p.StartRetiming(); !errors.Is(err, ErrNoSong) {
		t.Errorf("Expected ErrNoSong, got %v", err)
	}

	load, _ := p.Select(0)
	p.Apply(load, "[00:01.00]a\n[00:02.00]b", nil)
	if err := p.StartRetiming(); err != nil {
		t.Fatalf("StartRetiming failed: %v", err)
	}
	if p.Mode() != Timing {
		t.Fatalf("Expected timing mode, got %s", p.Mode())
	}
	if rec.Label(1) != "00:02.00" {
		t.Errorf("Expected seeded label, got %q", rec.Label(1))
	}
	if err := p.StartRetiming(); !errors.Is(err, ErrNotTimed) {
		t.Errorf("Expected ErrNotTimed while already timing, got %v", err)
	}

	p.Mark(800 * time.Millisecond)
	save, err := p.PrepareSave()
	if err != nil {
		t.Fatalf("PrepareSave failed: %v", err)
	}
	if save.Name != "one.lrc" || save.Content != "[00:00.50] a\n[00:02.00] b" {
		t.Errorf("Unexpected save %+v", save)
	}
	if save.Timed != 2 || save.Lines != 2 || save.SessionID == "" {
		t.Errorf("Unexpected save counters %+v", save)
	}

	// a failed write keeps everything for a retry
	if p.Saved(save, "", errors.New("permission denied")) {
		t.Error("Expected failed save reported")
	}
	if p.Mode() != Timing || p.Timing() == nil {
		t.Fatal("Expected timing state kept after failed save")
	}

	if !p.Saved(save, "/music/one.lrc", nil) {
		t.Fatal("Expected save applied")
	}
	if p.Mode() != Sync || p.Timing() != nil || len(p.Lines()) != 2 {
		t.Errorf("Expected sync mode after save, got %s", p.Mode())
	}
	if !strings.Contains(rec.LastMessage(), "saved") {
		t.Errorf("Expected save acknowledgment, got %q", rec.LastMessage())
	}
}

func TestSavedUpdatesLyricsPath(t *testing.T) {
	p, _ := newSession(t)
	load, _ := p.Select(1)
	p.Apply(load, "only line", nil)
	p.Mark(time.Second)
	save, err := p.PrepareSave()
	if err != nil {
		t.Fatal(err)
	}

	p.Saved(save, filepath.Join("/music", "two.lrc"), nil)
	if got := p.Songs()[1].LyricsPath; got != "/music/two.lrc" {
		t.Errorf("Expected lyrics path recorded, got %q", got)
	}
}

func TestSavedForPreviousSong(t *testing.T) {
	p, _ := newSession(t)
	load, _ := p.Select(1)
	p.Apply(load, "line", nil)
	p.Mark(time.Second)
	save, _ := p.PrepareSave()

	p.Select(0)
	p.Saved(save, "/exports/two.lrc", nil)
	if p.Mode() != Loading {
		t.Errorf("Save of a previous song must not change the view, got %s", p.Mode())
	}
	if p.Songs()[1].LyricsPath != "" {
		t.Error("Export destination must not become the song's lyrics path")
	}
}

func TestSetSongsKeepsSelection(t *testing.T) {
	p, _ := newSession(t)
	load, _ := p.Select(1)
	p.Apply(load, "[00:01.00]x", nil)

	p.SetSongs([]library.Song{
		{Name: "zero", Dir: "/music", AudioPath: "/music/zero.mp3"},
		{Name: "two", Dir: "/music", AudioPath: "/music/two.mp3"},
	})
	if song, ok := p.Current(); !ok || song.Name != "two" {
		t.Errorf("Expected selection kept, got %+v", song)
	}
	if p.Mode() != Sync {
		t.Errorf("Expected mode kept, got %s", p.Mode())
	}

	p.SetSongs(nil)
	if _, ok := p.Current(); ok || p.Mode() != Idle {
		t.Errorf("Expected selection dropped, got mode %s", p.Mode())
	}
}

func TestStatus(t *testing.T) {
	p, _ := newSession(t)
	load, _ := p.Select(0)
	p.Apply(load, "a\nb", nil)
	p.Mark(time.Second)

	st := p.Status()
	if st.Song != "one" || st.Mode != Timing || st.Cursor != 0 || st.Editable != 2 || st.Timed != 1 {
		t.Errorf("Unexpected status %+v", st)
	}
}

func TestReload(t *testing.T) {
	p, _ := newSession(t)
	if _, err := p.Reload(); !errors.Is(err, ErrNoSong) {
		t.Errorf("Expected ErrNoSong, got %v", err)
	}

	first, _ := p.Select(0)
	p.Apply(first, "a\nb", nil)
	p.Mark(time.Second)

	again, err := p.Reload()
	if err != nil {
		t.Fatal(err)
	}
	if again.Song.Name != "one" || again.Gen == first.Gen {
		t.Errorf("Expected a new ticket for the same song, got %+v", again)
	}
	if p.Timing() != nil || p.Mode() != Loading {
		t.Errorf("Expected timing dropped on reload, got %s", p.Mode())
	}
}
