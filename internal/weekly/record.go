// Package weekly holds the per-user weekly note record and the rules that
// govern its dialog state.
package weekly

import (
	"fmt"
	"strconv"
	"time"
)

const (
	// Days is the number of weekday slots in a record.
	Days = 7

	// NoNote marks a weekday without a notification.
	NoNote = "なし"

	// MaxNoteLength is the maximum number of characters kept for a note.
	MaxNoteLength = 10

	// CreatedLayout is the persisted layout of Record.CreatedAt.
	CreatedLayout = "2006/01/02 15:04:05"
)

// DayNames are the short weekday labels, Monday first.
var DayNames = [Days]string{"月", "火", "水", "木", "金", "土", "日"}

// DialogState is the step of the configuration dialog a user is in.
// 0..6 means the note for that weekday is being edited; Idle shows the menu.
type DialogState int

// Idle is the resting dialog state.
const Idle DialogState = 99

// Valid reports whether s may be persisted.
func (s DialogState) Valid() bool {
	return s == Idle || (s >= 0 && s < Days)
}

// Editing reports whether s points at a weekday slot.
func (s DialogState) Editing() bool {
	return s >= 0 && s < Days
}

// Next applies the advance rule: idle enters Monday, Sunday (or beyond)
// returns to idle, any other day moves to the following day.
func (s DialogState) Next() DialogState {
	switch {
	case s == Idle:
		return 0
	case s >= Days-1:
		return Idle
	default:
		return s + 1
	}
}

// String returns the persisted numeric encoding.
func (s DialogState) String() string {
	return strconv.Itoa(int(s))
}

// ParseDialogState decodes the persisted numeric encoding.
func ParseDialogState(raw string) (DialogState, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse dialog state %q: %w", raw, err)
	}
	s := DialogState(n)
	if !s.Valid() {
		return 0, fmt.Errorf("dialog state %d out of range", n)
	}
	return s, nil
}

// Record is one chat user's configuration.
type Record struct {
	ID        string
	Name      string
	Notes     [Days]string
	State     DialogState
	CreatedAt time.Time
}

// NewRecord returns an idle record with every weekday cleared.
func NewRecord(id, name string, createdAt time.Time) *Record {
	rec := &Record{
		ID:        id,
		Name:      name,
		State:     Idle,
		CreatedAt: createdAt,
	}
	for i := range rec.Notes {
		rec.Notes[i] = NoNote
	}
	return rec
}

// Clone returns an independent copy of r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}

// SetNote stores text for the given weekday, truncated to MaxNoteLength.
func (r *Record) SetNote(day int, text string) {
	if day < 0 || day >= Days {
		return
	}
	r.Notes[day] = Truncate(text)
}

// NoteFor returns the note for day and whether a notification is configured.
func (r *Record) NoteFor(day int) (string, bool) {
	if day < 0 || day >= Days {
		return "", false
	}
	note := r.Notes[day]
	if note == NoNote {
		return note, false
	}
	return note, true
}

// Truncate cuts text down to MaxNoteLength characters.
func Truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxNoteLength {
		return text
	}
	return string(runes[:MaxNoteLength])
}

// Today returns the weekday index (0=Monday) of t in loc.
func Today(t time.Time, loc *time.Location) int {
	if loc != nil {
		t = t.In(loc)
	}
	return (int(t.Weekday()) + 6) % Days
}

// NormalizeNotes pads or trims a persisted note list to exactly Days
// entries, filling missing slots with NoNote.
func NormalizeNotes(in []string) [Days]string {
	var out [Days]string
	for i := range out {
		out[i] = NoNote
		if i < len(in) {
			out[i] = in[i]
		}
	}
	return out
}
