// Package display defines the surface lyric lines are rendered on.
package display

// Row is one rendered lyric line.
type Row struct {
	Text  string
	Label string // time label, empty when the line has none
}

// LineDisplay receives rendering requests from the player. All calls are
// one-way notifications; an index of -1 clears the marker.
type LineDisplay interface {
	Render(rows []Row)
	MarkCurrent(index int)
	MarkPast(indices []int)
	MarkEditing(index int)
	SetLabel(index int, label string)
	ScrollTo(index int)
	ShowMessage(msg string)
}

// Fanout forwards every call to all of its displays.
type Fanout []LineDisplay

func (f Fanout) Render(rows []Row) {
	for _, d := range f {
		d.Render(rows)
	}
}

func (f Fanout) MarkCurrent(index int) {
	for _, d := range f {
		d.MarkCurrent(index)
	}
}

func (f Fanout) MarkPast(indices []int) {
	for _, d := range f {
		d.MarkPast(indices)
	}
}

func (f Fanout) MarkEditing(index int) {
	for _, d := range f {
		d.MarkEditing(index)
	}
}

func (f Fanout) SetLabel(index int, label string) {
	for _, d := range f {
		d.SetLabel(index, label)
	}
}

func (f Fanout) ScrollTo(index int) {
	for _, d := range f {
		d.ScrollTo(index)
	}
}

func (f Fanout) ShowMessage(msg string) {
	for _, d := range f {
		d.ShowMessage(msg)
	}
}

// Rows builds rows from texts and labels of equal length.
func Rows(texts, labels []string) []Row {
	rows := make([]Row, len(texts))
	for i, text := range texts {
		rows[i].Text = text
		if i < len(labels) {
			rows[i].Label = labels[i]
		}
	}
	return rows
}
