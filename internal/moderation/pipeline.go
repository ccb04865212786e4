package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/groupwarden/groupwarden/internal/audit"
	"github.com/groupwarden/groupwarden/internal/bus"
	"github.com/groupwarden/groupwarden/internal/gateway"
	"github.com/groupwarden/groupwarden/internal/settings"
)

// Escalation thresholds within the warning window.
const (
	muteNoticeThreshold  = 3
	removalThreshold     = 5
	linkRemovalThreshold = 3
)

// Pipeline runs the ordered violation checks on every inbound group text
// message before command parsing. Each stage is gated by its feature flag
// and is terminal on violation.
type Pipeline struct {
	store     *settings.Store
	ledger    *Ledger
	cooldowns *Cooldowns
	gw        gateway.Gateway
	audit     *audit.Publisher
}

// NewPipeline wires the pipeline. audit may be a disabled publisher.
func NewPipeline(store *settings.Store, ledger *Ledger, cooldowns *Cooldowns, gw gateway.Gateway, pub *audit.Publisher) *Pipeline {
	return &Pipeline{store: store, ledger: ledger, cooldowns: cooldowns, gw: gw, audit: pub}
}

// Check classifies the message. It returns true when a stage fired and
// processing must stop before the command dispatcher.
func (p *Pipeline) Check(ctx context.Context, msg *bus.Message) bool {
	doc := p.store.Snapshot()

	if doc.FeatureEnabled(settings.FeatureAntiSpam) && p.checkSpam(ctx, msg) {
		return true
	}
	if doc.FeatureEnabled(settings.FeatureBannedWords) && p.checkBannedWords(ctx, doc, msg) {
		return true
	}
	if doc.FeatureEnabled(settings.FeatureAntiLinks) && p.checkLinks(ctx, msg) {
		return true
	}
	return false
}

func (p *Pipeline) checkSpam(ctx context.Context, msg *bus.Message) bool {
	wait, err := p.cooldowns.Check("spam", msg.Sender, SpamWindow)
	if err != nil {
		slog.Error("Spam cooldown check failed", "sender", msg.Sender, "error", err)
		return false
	}
	if wait <= 0 {
		return false
	}
	p.reply(ctx, msg.Chat,
		fmt.Sprintf("%s, please wait before sending another message.", settings.MentionToken(msg.Sender)),
		msg.Sender)
	return true
}

func (p *Pipeline) checkBannedWords(ctx context.Context, doc *settings.Settings, msg *bus.Message) bool {
	word := doc.MatchBannedWord(msg.Content)
	if word == "" {
		return false
	}

	count, err := p.ledger.Warn(msg.Sender)
	if err != nil {
		slog.Error("Warning ledger update failed", "sender", msg.Sender, "error", err)
		return true
	}
	mention := settings.MentionToken(msg.Sender)
	p.reply(ctx, msg.Chat, fmt.Sprintf("%s used a banned word. Warnings: %d", mention, count), msg.Sender)
	p.audit.Record(ctx, audit.Event{
		Type: audit.TypeWarning, Chat: msg.Chat, Target: msg.Sender,
		Detail: fmt.Sprintf("banned word %q, warning %d", word, count),
	})

	if count >= removalThreshold {
		p.remove(ctx, msg.Chat, msg.Sender)
		p.reply(ctx, msg.Chat, fmt.Sprintf("%s was removed for excessive warnings.", mention), msg.Sender)
		p.audit.Record(ctx, audit.Event{Type: audit.TypeRemoval, Chat: msg.Chat, Target: msg.Sender, Detail: "excessive warnings"})
	} else if count >= muteNoticeThreshold {
		// Notice only: no platform-level mute is issued at this threshold.
		p.reply(ctx, msg.Chat, fmt.Sprintf("%s has been muted for repeated violations.", mention), msg.Sender)
	}
	return true
}

func (p *Pipeline) checkLinks(ctx context.Context, msg *bus.Message) bool {
	if !strings.Contains(msg.Content, "http") && !strings.Contains(msg.Content, "www.") {
		return false
	}

	count, err := p.ledger.Warn(msg.Sender)
	if err != nil {
		slog.Error("Warning ledger update failed", "sender", msg.Sender, "error", err)
		return true
	}
	mention := settings.MentionToken(msg.Sender)
	p.reply(ctx, msg.Chat, fmt.Sprintf("%s, links are not allowed. Warning %d", mention, count), msg.Sender)
	if err := p.gw.DeleteMessage(ctx, msg.Chat, msg.Sender, msg.MessageID); err != nil {
		slog.Warn("Failed to delete link message", "chat", msg.Chat, "error", err)
	}
	p.audit.Record(ctx, audit.Event{
		Type: audit.TypeWarning, Chat: msg.Chat, Target: msg.Sender,
		Detail: fmt.Sprintf("link posted, warning %d", count),
	})

	if count >= linkRemovalThreshold {
		p.remove(ctx, msg.Chat, msg.Sender)
		p.reply(ctx, msg.Chat, fmt.Sprintf("%s was removed for sharing links.", mention), msg.Sender)
		p.audit.Record(ctx, audit.Event{Type: audit.TypeRemoval, Chat: msg.Chat, Target: msg.Sender, Detail: "links"})
	}
	return true
}

// reply sends best-effort; delivery failures are logged, never surfaced.
func (p *Pipeline) reply(ctx context.Context, chat, text string, mentions ...string) {
	if err := p.gw.SendMessage(ctx, chat, text, mentions); err != nil {
		slog.Warn("Failed to send moderation reply", "chat", chat, "error", err)
	}
}

func (p *Pipeline) remove(ctx context.Context, chat, jid string) {
	if err := p.gw.RemoveParticipants(ctx, chat, []string{jid}); err != nil {
		slog.Warn("Failed to remove participant", "chat", chat, "jid", jid, "error", err)
	}
}
