// Package lrc reads and writes LRC lyric text.
package lrc

import (
	"regexp"
	"strconv"
	"strings"
)

// Line is one lyric line in file order.
type Line struct {
	Time Time
	Text string
}

var (
	lineRe = regexp.MustCompile(`^\[(\d{1,2}):(\d{1,2})(?:[.:](\d{2,3}))?\](.*)$`)
	tagRe  = regexp.MustCompile(`^\[\d{1,2}:\d{1,2}(?:[.:]\d{2,3})?\]`)
)

// SplitLines splits text on LF or CRLF.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// HasTimeTags reports whether any line of text starts with a time tag.
func HasTimeTags(text string) bool {
	for _, line := range SplitLines(text) {
		if tagRe.MatchString(strings.TrimSpace(line)) {
			return true
		}
	}
	return false
}

// Parse converts LRC text into lines, keeping file order. Lines without a
// valid tag become Untimed, blank lines are dropped.
func Parse(text string) []Line {
	var result []Line
	for _, raw := range SplitLines(text) {
		trimmed := strings.TrimSpace(raw)
		m := lineRe.FindStringSubmatch(trimmed)
		if m == nil {
			if trimmed != "" {
				result = append(result, Line{Time: Untimed, Text: trimmed})
			}
			continue
		}

		min, _ := strconv.ParseInt(m[1], 10, 64)
		sec, _ := strconv.ParseInt(m[2], 10, 64)
		ms := (min*60 + sec) * 1000
		if frac := m[3]; frac != "" {
			n, _ := strconv.ParseInt(frac, 10, 64)
			// two digits are centiseconds, three are milliseconds
			if len(frac) == 2 {
				n *= 10
			}
			ms += n
		}
		result = append(result, Line{Time: At(ms), Text: strings.TrimSpace(m[4])})
	}
	return result
}

// PlainText flattens parsed lines back to their texts.
func PlainText(lines []Line) []string {
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}
	return texts
}

// Times returns the timestamps of lines, index aligned.
func Times(lines []Line) []Time {
	times := make([]Time, len(lines))
	for i, l := range lines {
		times[i] = l.Time
	}
	return times
}

// Serialize writes plain lines back to LRC text. times is indexed by line
// position; missing or Untimed entries leave the line without a tag, and
// blank lines are written empty.
func Serialize(plain []string, times []Time) string {
	out := make([]string, len(plain))
	for i, text := range plain {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if i >= len(times) || !times[i].IsSet() {
			out[i] = text
			continue
		}
		out[i] = FormatTag(times[i].ms) + " " + text
	}
	return strings.Join(out, "\n")
}
