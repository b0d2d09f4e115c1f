// Package convo turns independent inbound events into the multi-step
// weekly configuration dialog. The record's dialog state is the only memory
// kept between events.
package convo

import (
	"time"

	"trash-notify/internal/render"
	"trash-notify/internal/weekly"
)

// Action tells the caller how to persist a decision.
type Action int

const (
	// ActionNone leaves the store untouched.
	ActionNone Action = iota
	// ActionCreate inserts Decision.Record as a new record.
	ActionCreate
	// ActionUpdate writes the changed fields of Decision.Record.
	ActionUpdate
	// ActionDelete removes the sender's record.
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	default:
		return "none"
	}
}

// Decision is the outcome of applying one event to a record.
type Decision struct {
	Action Action
	// Record is the record after the event; nil when there is none.
	Record *weekly.Record
	// NotesChanged and StateChanged select the fields ActionUpdate writes.
	NotesChanged bool
	StateChanged bool
	// Reply is nil when nothing is sent back.
	Reply *render.Message
}

// Decide applies ev from userID to existing, which is nil for unknown users.
// It never mutates existing. now stamps newly created records.
func Decide(existing *weekly.Record, userID string, ev Event, now time.Time) Decision {
	if _, ok := ev.(Unfollow); ok {
		if existing == nil {
			return Decision{Action: ActionNone}
		}
		return Decision{Action: ActionDelete, Record: existing.Clone()}
	}

	if existing == nil {
		return decideUnknown(userID, ev, now)
	}

	rec := existing.Clone()
	switch e := ev.(type) {
	case TextMessage:
		if !rec.State.Editing() {
			return reply(ActionNone, rec, render.MainMenu(render.HeadlineIdle, rec.Notes))
		}
		rec.SetNote(int(rec.State), e.Text)
		rec.State = rec.State.Next()
		d := reply(ActionUpdate, rec, step(rec))
		d.NotesChanged = true
		d.StateChanged = true
		return d

	case MenuSelection:
		switch e.Mode {
		case render.ModeSetting:
			rec.State = rec.State.Next()
			d := reply(ActionUpdate, rec, step(rec))
			d.StateChanged = true
			return d
		case render.ModeGuide:
			return reply(ActionNone, rec, render.Guide())
		default:
			return reply(ActionNone, rec, render.Fallback())
		}
	}

	return Decision{Action: ActionNone, Record: rec}
}

// decideUnknown handles events from users without a record.
func decideUnknown(userID string, ev Event, now time.Time) Decision {
	switch e := ev.(type) {
	case TextMessage:
		rec := weekly.NewRecord(userID, "", now)
		return reply(ActionCreate, rec, render.MainMenu(render.HeadlineFirstContact, rec.Notes))

	case MenuSelection:
		switch e.Mode {
		case render.ModeSetting:
			rec := weekly.NewRecord(userID, "", now)
			rec.State = rec.State.Next()
			return reply(ActionCreate, rec, step(rec))
		case render.ModeGuide:
			return reply(ActionNone, nil, render.Guide())
		default:
			return reply(ActionNone, nil, render.Fallback())
		}
	}
	return Decision{Action: ActionNone}
}

// step renders the message following a state advance: the next day's
// prompt, or the menu once the dialog is back to idle.
func step(rec *weekly.Record) render.Message {
	if rec.State.Editing() {
		day := int(rec.State)
		return render.DayPrompt(day, rec.Notes[day])
	}
	return render.MainMenu(render.HeadlineDone, rec.Notes)
}

func reply(action Action, rec *weekly.Record, msg render.Message) Decision {
	return Decision{Action: action, Record: rec, Reply: &msg}
}
