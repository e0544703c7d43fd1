package lrc

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ms   int64
		text string
	}{
		{"minutes and seconds", "[01:02]hello", 62000, "hello"},
		{"unpadded", "[1:2] hello ", 62000, "hello"},
		{"centiseconds", "[01:02.50]x", 62500, "x"},
		{"colon fraction", "[00:10:25]x", 10250, "x"},
		{"two digit fraction scaled", "[00:00.33]x", 330, "x"},
		{"three digit fraction raw", "[00:00.333]x", 333, "x"},
		{"two digit small", "[00:00.05]x", 50, "x"},
		{"three digit small", "[00:00.050]x", 50, "x"},
		{"empty text", "[00:03.00]", 3000, ""},
		{"leading whitespace", "   [00:04.00]  four", 4000, "four"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := Parse(tt.in)
			if len(lines) != 1 {
				t.Fatalf("Expected 1 line, got %d", len(lines))
			}
			ms, ok := lines[0].Time.Millis()
			if !ok {
				t.Fatalf("Expected timed line for %q", tt.in)
			}
			if ms != tt.ms {
				t.Errorf("Expected %dms, got %dms", tt.ms, ms)
			}
			if lines[0].Text != tt.text {
				t.Errorf("Expected text %q, got %q", tt.text, lines[0].Text)
			}
		})
	}
}

func TestParseKeepsOrderAndUntimedLines(t *testing.T) {
	text := "[00:05.00]second\r\n\r\nstray line\n[00:01.00]first\n   \n[0:1.5]bad fraction"
	lines := Parse(text)

	want := []struct {
		timed bool
		ms    int64
		text  string
	}{
		{true, 5000, "second"},
		{false, 0, "stray line"},
		{true, 1000, "first"},
		{false, 0, "[0:1.5]bad fraction"},
	}
	if len(lines) != len(want) {
		t.Fatalf("Expected %d lines, got %d: %+v", len(want), len(lines), lines)
	}
	for i, w := range want {
		ms, ok := lines[i].Time.Millis()
		if ok != w.timed {
			t.Errorf("line %d: expected timed=%v, got %v", i, w.timed, ok)
		}
		if ok && ms != w.ms {
			t.Errorf("line %d: expected %dms, got %dms", i, w.ms, ms)
		}
		if lines[i].Text != w.text {
			t.Errorf("line %d: expected %q, got %q", i, w.text, lines[i].Text)
		}
	}
}

func TestHasTimeTags(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"plain\nlyrics", false},
		{"", false},
		{"title\n  [00:01.00]line", true},
		{"[ar:Someone]\n[ti:Song]", false},
		{"text [00:01.00] in the middle", false},
		{"[00:01]", true},
	}
	for _, tt := range tests {
		if got := HasTimeTags(tt.in); got != tt.want {
			t.Errorf("HasTimeTags(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatTag(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "[00:00.00]"},
		{-250, "[00:00.00]"},
		{62509, "[01:02.50]"},
		{5, "[00:00.00]"},
		{3599990, "[59:59.99]"},
		{6000000, "[100:00.00]"},
	}
	for _, tt := range tests {
		if got := FormatTag(tt.ms); got != tt.want {
			t.Errorf("FormatTag(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestSerialize(t *testing.T) {
	plain := []string{"first", "", "second", "  ", "third"}
	times := []Time{At(1000), Untimed, Untimed, At(5000), At(61234)}

	got := Serialize(plain, times)
	want := "[00:01.00] first\n\nsecond\n\n[01:01.23] third"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestSerializeShortTable(t *testing.T) {
	got := Serialize([]string{"a", "b"}, []Time{At(10)})
	if got != "[00:00.01] a\nb" {
		t.Errorf("Unexpected output %q", got)
	}
}

func TestRoundTrip(t *testing.T) {
	plain := []string{"one", "two", "", "three"}
	times := []Time{At(1234), At(65009), Untimed, At(600001)}

	lines := Parse(Serialize(plain, times))
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(lines))
	}

	want := []struct {
		ms   int64
		text string
	}{
		{1230, "one"},
		{65000, "two"},
		{600000, "three"},
	}
	for i, w := range want {
		ms, _ := lines[i].Time.Millis()
		if ms != w.ms || lines[i].Text != w.text {
			t.Errorf("line %d: expected (%d, %q), got (%d, %q)", i, w.ms, w.text, ms, lines[i].Text)
		}
	}
}

func TestUntimedNeverNotAfter(t *testing.T) {
	if Untimed.NotAfter(1 << 62) {
		t.Error("Untimed must never be at or before a position")
	}
	if !At(0).NotAfter(0) {
		t.Error("At(0) should be at position 0")
	}
	if Untimed.String() != "" {
		t.Errorf("Expected empty label, got %q", Untimed.String())
	}
}
