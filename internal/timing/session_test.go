package timing

import (
	"testing"
	"time"

	"lrc-player/internal/display/displaytest"
	"lrc-player/internal/lrc"
)

func ms(t *testing.T, tm lrc.Time) int64 {
	t.Helper()
	v, ok := tm.Millis()
	if !ok {
		t.Fatalf("Expected timed value")
	}
	return v
}

func TestMarkAndBackWalk(t *testing.T) {
	rec := displaytest.NewRecorder()
	s := FromText("first\n\nsecond\nthird", rec)

	if got := s.Editable(); len(got) != 3 || got[0] != 0 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("Unexpected editable positions %v", got)
	}
	if s.State() != NotStarted || s.Cursor() != -1 {
		t.Fatalf("Expected NotStarted, got %s at %d", s.State(), s.Cursor())
	}
	if !s.CanMark() || s.CanBack() {
		t.Fatal("Expected mark enabled and back disabled before start")
	}

	s.Mark(1000 * time.Millisecond)
	if s.Cursor() != 0 || !s.CanBack() {
		t.Fatalf("Expected cursor 0 with back enabled, got %d", s.Cursor())
	}
	if rec.Editing != 0 {
		t.Errorf("Expected first line highlighted, got %d", rec.Editing)
	}

	s.Mark(2000 * time.Millisecond)
	s.Mark(3200 * time.Millisecond)
	if s.Cursor() != 2 {
		t.Fatalf("Expected cursor 2, got %d", s.Cursor())
	}

	times := s.Times()
	want := map[int]int64{0: 700, 2: 1700, 3: 2900}
	for idx, w := range want {
		if got := ms(t, times[idx]); got != w {
			t.Errorf("line %d: expected %dms, got %dms", idx, w, got)
		}
	}
	if times[1].IsSet() {
		t.Error("Blank line must stay untimed")
	}
	if rec.Label(3) != "00:02.90" {
		t.Errorf("Expected label on third line, got %q", rec.Label(3))
	}
	if rec.Editing != 3 {
		t.Errorf("Expected highlight on line 3, got %d", rec.Editing)
	}

	s.Back()
	if s.Cursor() != 1 || s.Times()[3].IsSet() {
		t.Fatalf("Expected third stamp cleared and cursor 1, got cursor %d", s.Cursor())
	}
	if rec.Label(3) != "" || rec.Editing != 2 {
		t.Errorf("Expected label cleared and highlight on line 2, got %q / %d", rec.Label(3), rec.Editing)
	}

	s.Back()
	if s.Cursor() != 0 || s.Times()[2].IsSet() {
		t.Fatalf("Expected second stamp cleared and cursor 0, got cursor %d", s.Cursor())
	}

	s.Back()
	if s.Cursor() != -1 || s.Times()[0].IsSet() {
		t.Fatalf("Expected first stamp cleared and NotStarted, got cursor %d", s.Cursor())
	}
	if s.CanBack() {
		t.Error("Expected back disabled")
	}
	if rec.Editing != -1 {
		t.Errorf("Expected highlight removed, got %d", rec.Editing)
	}
	if s.Back() {
		t.Error("Back from NotStarted must be ignored")
	}
}

func TestCompleteAndReopen(t *testing.T) {
	rec := displaytest.NewRecorder()
	s := FromText("a\nb", rec)

	s.Mark(500 * time.Millisecond)
	s.Mark(1500 * time.Millisecond)
	if s.State() != Editing || s.Cursor() != 1 {
		t.Fatalf("Expected Editing(1), got %s(%d)", s.State(), s.Cursor())
	}

	s.Mark(1800 * time.Millisecond)
	if s.State() != Complete || s.Cursor() != 2 {
		t.Fatalf("Expected Complete(2), got %s(%d)", s.State(), s.Cursor())
	}
	if s.CanMark() {
		t.Error("Expected mark disabled when complete")
	}
	if got := ms(t, s.Times()[1]); got != 1500 {
		t.Errorf("Expected last line stamped at 1500ms, got %d", got)
	}
	if rec.Editing != -1 {
		t.Errorf("Expected no highlight when complete, got %d", rec.Editing)
	}
	if s.Mark(9 * time.Second) {
		t.Error("Mark when complete must be ignored")
	}

	s.Back()
	if s.State() != Editing || s.Cursor() != 1 {
		t.Fatalf("Expected Editing(1) after back, got %s(%d)", s.State(), s.Cursor())
	}
	if s.Times()[1].IsSet() {
		t.Error("Expected last stamp cleared")
	}
	if !s.CanMark() || rec.Editing != 1 {
		t.Errorf("Expected mark re-enabled and highlight restored, got %v / %d", s.CanMark(), rec.Editing)
	}

	if got := s.Serialize(); got != "[00:00.20] a\nb" {
		t.Errorf("Unexpected serialization %q", got)
	}
}

func TestStampFloorsAtZero(t *testing.T) {
	tests := []struct {
		position time.Duration
		want     int64
	}{
		{0, 0},
		{299 * time.Millisecond, 0},
		{300 * time.Millisecond, 0},
		{1300*time.Millisecond + 999*time.Microsecond, 1000},
		{-time.Second, 0},
	}
	for _, tt := range tests {
		if got := Stamp(tt.position); got != tt.want {
			t.Errorf("Stamp(%v) = %d, want %d", tt.position, got, tt.want)
		}
	}
}

func TestInertSession(t *testing.T) {
	rec := displaytest.NewRecorder()
	s := FromText("\n   \n", rec)

	if s.State() != Inert {
		t.Fatalf("Expected inert session, got %s", s.State())
	}
	if s.Mark(time.Second) || s.Back() {
		t.Error("Inert session must ignore mark and back")
	}
	if s.CanMark() || s.CanBack() {
		t.Error("Inert session must disable both controls")
	}
}

func TestFromLinesKeepsExistingTimes(t *testing.T) {
	rec := displaytest.NewRecorder()
	lines := lrc.Parse("[00:01.00]one\nuntimed\n[00:03.00]\n[00:05.00]five")
	s := FromLines(lines, rec)

	if got := s.Editable(); len(got) != 3 {
		t.Fatalf("Expected 3 editable lines, got %v", got)
	}
	if rec.Label(0) != "00:01.00" || rec.Label(1) != "" {
		t.Errorf("Expected seeded labels, got %q and %q", rec.Label(0), rec.Label(1))
	}
	if s.Times()[2].IsSet() {
		t.Error("Blank line must not keep a time")
	}

	s.Mark(2300 * time.Millisecond)
	want := "[00:02.00] one\nuntimed\n\n[00:05.00] five"
	if got := s.Serialize(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
	if s.Timed() != 2 {
		t.Errorf("Expected 2 timed lines, got %d", s.Timed())
	}
}

func TestRoundTripThroughSession(t *testing.T) {
	rec := displaytest.NewRecorder()
	s := FromText("one\ntwo\nthree", rec)
	for _, p := range []time.Duration{1234, 5678, 9999, 12000} {
		s.Mark(p * time.Millisecond)
	}

	lines := lrc.Parse(s.Serialize())
	want := []int64{930, 5370, 11700}
	for i, w := range want {
		if got := ms(t, lines[i].Time); got != w {
			t.Errorf("line %d: expected %dms, got %dms", i, w, got)
		}
	}
}
