// Package bot implements the single-consumer moderation loop.
package bot

import (
	"context"
	"log/slog"

	"github.com/groupwarden/groupwarden/internal/bus"
	"github.com/groupwarden/groupwarden/internal/commands"
	"github.com/groupwarden/groupwarden/internal/gateway"
	"github.com/groupwarden/groupwarden/internal/moderation"
	"github.com/groupwarden/groupwarden/internal/settings"
)

// Bot drains the inbound event queue and processes each event to completion
// before the next. Only the scheduled unmute timer runs concurrently with
// event handling; the settings store serializes their mutations.
type Bot struct {
	bus        *bus.Bus
	store      *settings.Store
	activity   *moderation.Activity
	pipeline   *moderation.Pipeline
	dispatcher *commands.Dispatcher
	gw         gateway.Gateway
}

// New wires the loop.
func New(b *bus.Bus, store *settings.Store, activity *moderation.Activity, pipeline *moderation.Pipeline, dispatcher *commands.Dispatcher, gw gateway.Gateway) *Bot {
	return &Bot{bus: b, store: store, activity: activity, pipeline: pipeline, dispatcher: dispatcher, gw: gw}
}

// Run consumes events until the context is cancelled or the gateway reports
// a terminal logout.
func (b *Bot) Run(ctx context.Context) error {
	slog.Info("Moderation loop started")

	for {
		evt, err := b.bus.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("Failed to consume event", "error", err)
			continue
		}

		switch {
		case evt.Message != nil:
			b.handleMessage(ctx, evt.Message)
		case evt.Membership != nil:
			b.handleMembership(ctx, evt.Membership)
		case evt.Connection != nil:
			if done := b.handleConnection(evt.Connection); done {
				return nil
			}
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *bus.Message) {
	if !msg.IsGroup || msg.Content == "" {
		return
	}

	if err := b.activity.Touch(msg.Chat, msg.Sender); err != nil {
		slog.Warn("Activity touch failed", "chat", msg.Chat, "sender", msg.Sender, "error", err)
	}

	// Pick up edits made to the document outside the process between
	// events. A missing or corrupt file at this point keeps the in-memory
	// copy authoritative.
	if err := b.store.Reload(); err != nil {
		slog.Warn("Settings reload failed, keeping in-memory copy", "error", err)
	}

	if b.pipeline.Check(ctx, msg) {
		return
	}
	b.dispatcher.Dispatch(ctx, msg)
}

func (b *Bot) handleConnection(conn *bus.Connection) (done bool) {
	switch conn.State {
	case bus.StateConnected:
		slog.Info("Gateway connected")
	case bus.StateDisconnected:
		// The gateway reconnects on its own; nothing to do here.
		slog.Warn("Gateway disconnected, reconnecting")
	case bus.StateLoggedOut:
		slog.Error("Gateway logged out, shutting down")
		return true
	}
	return false
}
