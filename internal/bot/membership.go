package bot

import (
	"context"
	"log/slog"

	"github.com/groupwarden/groupwarden/internal/bus"
	"github.com/groupwarden/groupwarden/internal/settings"
)

// handleMembership sends templated welcome/goodbye announcements, one
// outbound message per affected identity.
func (b *Bot) handleMembership(ctx context.Context, update *bus.Membership) {
	doc := b.store.Snapshot()

	var tmpl settings.Template
	switch update.Action {
	case bus.ActionAdd:
		if !doc.FeatureEnabled(settings.FeatureWelcomeMessages) {
			return
		}
		tmpl = doc.WelcomeMessage
	case bus.ActionRemove:
		if !doc.FeatureEnabled(settings.FeatureGoodbyeMessages) {
			return
		}
		tmpl = doc.GoodbyeMessage
	default:
		return
	}

	for _, jid := range update.Participants {
		text := tmpl.Render(settings.MentionToken(jid))
		if err := b.gw.SendMessage(ctx, update.Chat, text, []string{jid}); err != nil {
			slog.Warn("Failed to send membership announcement", "chat", update.Chat, "jid", jid, "error", err)
		}
	}
}
