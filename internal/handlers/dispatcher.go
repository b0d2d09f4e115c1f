package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"trash-notify/internal/convo"
	"trash-notify/internal/render"
	"trash-notify/internal/repo"
)

// Messenger is the part of the chat transport the dispatcher replies through.
type Messenger interface {
	Reply(ctx context.Context, replyToken string, msg render.Message) error
	DisplayName(ctx context.Context, userID string) (string, error)
}

// Dispatcher loads the sender's record, applies the dialog rules, persists
// the outcome and sends exactly one reply per message or menu selection.
type Dispatcher struct {
	store     repo.Store
	messenger Messenger
	logger    *slog.Logger
	loc       *time.Location
	now       func() time.Time
}

// NewDispatcher wires a dispatcher. loc is the reference timezone used to
// stamp new records.
func NewDispatcher(store repo.Store, messenger Messenger, loc *time.Location, logger *slog.Logger) *Dispatcher {
	if loc == nil {
		loc = time.UTC
	}
	return &Dispatcher{
		store:     store,
		messenger: messenger,
		logger:    logger.With("component", "dispatcher"),
		loc:       loc,
		now:       time.Now,
	}
}

// HandleEvents processes events in order and stops at the first failure.
func (d *Dispatcher) HandleEvents(ctx context.Context, events []convo.Envelope) error {
	for _, ev := range events {
		if err := d.Handle(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// Handle processes a single event. Store and transport failures are
// returned unretried.
func (d *Dispatcher) Handle(ctx context.Context, env convo.Envelope) error {
	kind := convo.Kind(env.Event)

	existing, err := d.store.Get(ctx, env.UserID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		existing = nil
	case err != nil:
		return fmt.Errorf("load record %s: %w", env.UserID, err)
	}

	dec := convo.Decide(existing, env.UserID, env.Event, d.now().In(d.loc))
	if err := d.persist(ctx, dec); err != nil {
		return fmt.Errorf("%s %s: %w", dec.Action, env.UserID, err)
	}

	attrs := []any{"user_id", env.UserID, "event", kind, "action", dec.Action.String()}
	if dec.Record != nil && dec.Action != convo.ActionDelete {
		attrs = append(attrs, "state", dec.Record.State.String())
	}
	d.logger.Info("event handled", attrs...)

	if dec.Reply == nil {
		return nil
	}
	if err := d.messenger.Reply(ctx, env.ReplyToken, *dec.Reply); err != nil {
		return fmt.Errorf("reply to %s: %w", env.UserID, err)
	}
	return nil
}

func (d *Dispatcher) persist(ctx context.Context, dec convo.Decision) error {
	rec := dec.Record
	switch dec.Action {
	case convo.ActionCreate:
		name, err := d.messenger.DisplayName(ctx, rec.ID)
		if err != nil {
			return fmt.Errorf("profile: %w", err)
		}
		rec.Name = name
		return d.store.Put(ctx, rec)

	case convo.ActionUpdate:
		if dec.NotesChanged {
			if err := d.store.UpdateField(ctx, rec.ID, repo.FieldSetting, rec.Notes); err != nil {
				return err
			}
		}
		if dec.StateChanged {
			if err := d.store.UpdateField(ctx, rec.ID, repo.FieldState, rec.State); err != nil {
				return err
			}
		}
		return nil

	case convo.ActionDelete:
		return d.store.Delete(ctx, rec.ID)
	}
	return nil
}
