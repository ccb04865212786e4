package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/groupwarden/groupwarden/internal/audit"
	"github.com/groupwarden/groupwarden/internal/moderation"
	"github.com/groupwarden/groupwarden/internal/settings"
)

// warnRemovalThreshold is the manual-warn escalation point.
const warnRemovalThreshold = 3

// ---------------------------------------------------------------------------
// Member commands
// ---------------------------------------------------------------------------

func (d *Dispatcher) handleRules(ctx context.Context, req *Request) {
	d.reply(ctx, req.Msg.Chat, req.Doc.Rules)
}

var featureDisplay = []struct {
	label string
	name  string
}{
	{"Anti-Links", settings.FeatureAntiLinks},
	{"Anti-Spam", settings.FeatureAntiSpam},
	{"Banned Words", settings.FeatureBannedWords},
	{"Welcome Messages", settings.FeatureWelcomeMessages},
	{"Goodbye Messages", settings.FeatureGoodbyeMessages},
	{"Inactivity Check", settings.FeatureInactivityCheck},
}

func (d *Dispatcher) handleHelp(ctx context.Context, req *Request) {
	var b strings.Builder
	b.WriteString("*Bot Commands*\n\n")

	if req.Role >= settings.RoleSuperAdmin {
		b.WriteString("*SuperAdmin Commands:*\n")
		b.WriteString("!addadmin [reply to user] - Add admin\n")
		b.WriteString("!deladmin [reply to user] - Remove admin\n")
		b.WriteString("!addword [word] - Add banned word\n")
		b.WriteString("!delword [word] - Remove banned word\n")
		b.WriteString("!toggle [feature] - Toggle feature\n")
		b.WriteString("!setwelcome [message] - Set welcome message\n")
		b.WriteString("!setgoodbye [message] - Set goodbye message\n")
		b.WriteString("!setrules [rules] - Set group rules\n")
		b.WriteString("!checkinactive - Check inactive users\n")
		b.WriteString("!cleaninactive - Remove inactive users\n\n")
	}
	if req.Role >= settings.RoleAdmin {
		b.WriteString("*Admin Commands:*\n")
		b.WriteString("!admins - List admins\n")
		b.WriteString("!bannedwords - List banned words\n")
		b.WriteString("!warn [reply to user] - Warn user\n")
		b.WriteString("!kick [reply to user] - Kick user\n")
		b.WriteString("!tagall [message] - Mention all members\n")
		b.WriteString("!mute [time] - Mute group (e.g., !mute 1h)\n")
		b.WriteString("!unmute - Unmute group\n")
		b.WriteString("!settings - Show settings\n\n")
	}
	b.WriteString("*Member Commands:*\n")
	b.WriteString("!rules - Show group rules\n")
	b.WriteString("!help - Show this help\n\n")

	b.WriteString("*Features Status:*\n")
	for _, f := range featureDisplay {
		state := "off"
		if req.Doc.FeatureEnabled(f.name) {
			state = "on"
		}
		fmt.Fprintf(&b, "%s: %s\n", f.label, state)
	}

	d.reply(ctx, req.Msg.Chat, b.String())
}

// ---------------------------------------------------------------------------
// Admin commands
// ---------------------------------------------------------------------------

func (d *Dispatcher) handleAdmins(ctx context.Context, req *Request) {
	var b strings.Builder
	fmt.Fprintf(&b, "Admins:\n- %s (SuperAdmin)\n", settings.MentionToken(req.Doc.SuperSu))
	if len(req.Doc.Admins) == 0 {
		b.WriteString("No additional admins")
	} else {
		for i, a := range req.Doc.Admins {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "- %s", settings.MentionToken(a))
		}
	}
	mentions := append([]string{req.Doc.SuperSu}, req.Doc.Admins...)
	d.reply(ctx, req.Msg.Chat, b.String(), mentions...)
}

func (d *Dispatcher) handleBannedWords(ctx context.Context, req *Request) {
	list := strings.Join(req.Doc.BannedWords, ", ")
	if list == "" {
		list = "None"
	}
	d.reply(ctx, req.Msg.Chat, "Banned Words:\n"+list)
}

func (d *Dispatcher) handleWarn(ctx context.Context, req *Request) {
	target := req.Msg.ReplyTo
	if target == "" {
		return
	}
	count, err := d.deps.Ledger.Warn(target)
	if err != nil {
		slog.Error("Manual warn failed", "target", target, "error", err)
		return
	}
	mention := settings.MentionToken(target)
	d.reply(ctx, req.Msg.Chat, fmt.Sprintf("Warned %s (%d warnings)", mention, count), target)
	d.deps.Audit.Record(ctx, audit.Event{
		Type: audit.TypeWarning, Chat: req.Msg.Chat, Actor: req.Msg.Sender, Target: target,
		Detail: fmt.Sprintf("manual warning %d", count),
	})

	if count >= warnRemovalThreshold {
		d.removeParticipants(ctx, req.Msg.Chat, []string{target})
		d.reply(ctx, req.Msg.Chat, fmt.Sprintf("%s was removed for exceeding warnings", mention), target)
		d.deps.Audit.Record(ctx, audit.Event{
			Type: audit.TypeRemoval, Chat: req.Msg.Chat, Actor: req.Msg.Sender, Target: target,
			Detail: "warning escalation",
		})
	}
}

func (d *Dispatcher) handleKick(ctx context.Context, req *Request) {
	target := req.Msg.ReplyTo
	if target == "" {
		return
	}
	d.removeParticipants(ctx, req.Msg.Chat, []string{target})
	d.reply(ctx, req.Msg.Chat, fmt.Sprintf("%s was kicked from the group", settings.MentionToken(target)), target)
	d.deps.Audit.Record(ctx, audit.Event{
		Type: audit.TypeRemoval, Chat: req.Msg.Chat, Actor: req.Msg.Sender, Target: target, Detail: "kick",
	})
}

func (d *Dispatcher) handleTagAll(ctx context.Context, req *Request) {
	// Cooldown key is the group, not the caller: one tagall per group per day.
	wait, err := d.deps.Cooldowns.Check("tagAll", req.Msg.Chat, moderation.TagAllWindow)
	if err != nil {
		slog.Error("TagAll cooldown check failed", "chat", req.Msg.Chat, "error", err)
		return
	}
	if wait > 0 {
		hours := wait / 3600
		minutes := (wait % 3600) / 60
		d.reply(ctx, req.Msg.Chat, fmt.Sprintf("TagAll is on cooldown. Try again in %dh %dm", hours, minutes))
		return
	}

	members, err := d.deps.Gateway.GroupMembers(ctx, req.Msg.Chat)
	if err != nil {
		slog.Warn("Failed to fetch group members", "chat", req.Msg.Chat, "error", err)
		return
	}
	message := strings.Join(req.Args, " ")
	if message == "" {
		message = "Attention everyone!"
	}
	tokens := make([]string, len(members))
	for i, m := range members {
		tokens[i] = settings.MentionToken(m)
	}
	d.reply(ctx, req.Msg.Chat, message+"\n\n"+strings.Join(tokens, " "), members...)
}

func (d *Dispatcher) handleMute(ctx context.Context, req *Request) {
	duration := parseMuteDuration(req.Arg(0))

	if err := d.deps.Gateway.SetAnnouncementOnly(ctx, req.Msg.Chat, true); err != nil {
		slog.Warn("Failed to set group announcement-only", "chat", req.Msg.Chat, "error", err)
	}
	d.reply(ctx, req.Msg.Chat, fmt.Sprintf("Group muted for %d minutes", int(duration.Minutes())))
	d.deps.Audit.Record(ctx, audit.Event{
		Type: audit.TypeMute, Chat: req.Msg.Chat, Actor: req.Msg.Sender,
		Detail: duration.String(),
	})

	// The timer is not cancellable; a manual !unmute before it fires does
	// not suppress it.
	chat := req.Msg.Chat
	d.deps.Scheduler.After("unmute:"+chat, duration, func() {
		unmuteCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := d.deps.Gateway.SetAnnouncementOnly(unmuteCtx, chat, false); err != nil {
			slog.Warn("Scheduled unmute failed", "chat", chat, "error", err)
		}
		d.reply(unmuteCtx, chat, "Group unmuted")
		d.deps.Audit.Record(unmuteCtx, audit.Event{Type: audit.TypeUnmute, Chat: chat, Detail: "scheduled"})
	})
}

func (d *Dispatcher) handleUnmute(ctx context.Context, req *Request) {
	if err := d.deps.Gateway.SetAnnouncementOnly(ctx, req.Msg.Chat, false); err != nil {
		slog.Warn("Failed to unset group announcement-only", "chat", req.Msg.Chat, "error", err)
	}
	d.reply(ctx, req.Msg.Chat, "Group unmuted")
	d.deps.Audit.Record(ctx, audit.Event{Type: audit.TypeUnmute, Chat: req.Msg.Chat, Actor: req.Msg.Sender, Detail: "manual"})
}

// handleSettings dumps the whole document. Unredacted on purpose: nothing
// secret is stored in it.
func (d *Dispatcher) handleSettings(ctx context.Context, req *Request) {
	data, err := json.MarshalIndent(req.Doc, "", "  ")
	if err != nil {
		slog.Error("Settings dump encode failed", "error", err)
		return
	}
	d.reply(ctx, req.Msg.Chat, "Current Settings:\n"+string(data))
}

// ---------------------------------------------------------------------------
// SuperAdmin commands
// ---------------------------------------------------------------------------

func (d *Dispatcher) handleAddAdmin(ctx context.Context, req *Request) {
	target := req.Msg.ReplyTo
	if target == "" {
		return
	}
	added := false
	err := d.deps.Store.Update(func(doc *settings.Settings) error {
		if !doc.HasAdmin(target) {
			doc.Admins = append(doc.Admins, target)
			added = true
		}
		return nil
	})
	if err != nil {
		slog.Error("Failed to add admin", "target", target, "error", err)
		return
	}
	if added {
		d.reply(ctx, req.Msg.Chat, fmt.Sprintf("Added %s as admin.", settings.MentionToken(target)), target)
		d.recordSettingsChange(ctx, req, "admin added: "+target)
	}
}

func (d *Dispatcher) handleDelAdmin(ctx context.Context, req *Request) {
	target := req.Msg.ReplyTo
	if target == "" {
		return
	}
	err := d.deps.Store.Update(func(doc *settings.Settings) error {
		kept := doc.Admins[:0]
		for _, a := range doc.Admins {
			if a != target {
				kept = append(kept, a)
			}
		}
		doc.Admins = kept
		return nil
	})
	if err != nil {
		slog.Error("Failed to remove admin", "target", target, "error", err)
		return
	}
	d.reply(ctx, req.Msg.Chat, fmt.Sprintf("Removed %s from admins.", settings.MentionToken(target)), target)
	d.recordSettingsChange(ctx, req, "admin removed: "+target)
}

func (d *Dispatcher) handleAddWord(ctx context.Context, req *Request) {
	word := req.Arg(0)
	if word == "" {
		return
	}
	added := false
	err := d.deps.Store.Update(func(doc *settings.Settings) error {
		if !doc.HasBannedWord(word) {
			doc.BannedWords = append(doc.BannedWords, word)
			added = true
		}
		return nil
	})
	if err != nil {
		slog.Error("Failed to add banned word", "word", word, "error", err)
		return
	}
	if added {
		d.reply(ctx, req.Msg.Chat, "Added banned word: "+word)
		d.recordSettingsChange(ctx, req, "banned word added: "+word)
	}
}

func (d *Dispatcher) handleDelWord(ctx context.Context, req *Request) {
	word := req.Arg(0)
	if word == "" {
		return
	}
	err := d.deps.Store.Update(func(doc *settings.Settings) error {
		kept := doc.BannedWords[:0]
		for _, w := range doc.BannedWords {
			if w != word {
				kept = append(kept, w)
			}
		}
		doc.BannedWords = kept
		return nil
	})
	if err != nil {
		slog.Error("Failed to remove banned word", "word", word, "error", err)
		return
	}
	d.reply(ctx, req.Msg.Chat, "Removed banned word: "+word)
	d.recordSettingsChange(ctx, req, "banned word removed: "+word)
}

func (d *Dispatcher) handleToggle(ctx context.Context, req *Request) {
	name := req.Arg(0)
	if name == "" {
		return
	}
	known := false
	state := false
	err := d.deps.Store.Update(func(doc *settings.Settings) error {
		if _, ok := doc.Features[name]; !ok {
			return nil
		}
		known = true
		doc.Features[name] = !doc.Features[name]
		state = doc.Features[name]
		return nil
	})
	if err != nil {
		slog.Error("Failed to toggle feature", "feature", name, "error", err)
		return
	}
	if !known {
		d.reply(ctx, req.Msg.Chat, "Unknown feature. Available: "+strings.Join(req.Doc.FeatureNames(), ", "))
		return
	}
	d.reply(ctx, req.Msg.Chat, fmt.Sprintf("Feature %s set to %t", name, state))
	d.recordSettingsChange(ctx, req, fmt.Sprintf("feature %s set to %t", name, state))
}

func (d *Dispatcher) handleSetWelcome(ctx context.Context, req *Request) {
	d.setTemplate(ctx, req, "!setwelcome", "Welcome message updated", func(doc *settings.Settings, text string) {
		doc.WelcomeMessage = settings.Template(text)
	})
}

func (d *Dispatcher) handleSetGoodbye(ctx context.Context, req *Request) {
	d.setTemplate(ctx, req, "!setgoodbye", "Goodbye message updated", func(doc *settings.Settings, text string) {
		doc.GoodbyeMessage = settings.Template(text)
	})
}

func (d *Dispatcher) handleSetRules(ctx context.Context, req *Request) {
	d.setTemplate(ctx, req, "!setrules", "Group rules updated", func(doc *settings.Settings, text string) {
		doc.Rules = text
	})
}

func (d *Dispatcher) setTemplate(ctx context.Context, req *Request, cmd, confirmation string, apply func(*settings.Settings, string)) {
	if len(req.Args) == 0 {
		return
	}
	text := req.Trailing(cmd)
	err := d.deps.Store.Update(func(doc *settings.Settings) error {
		apply(doc, text)
		return nil
	})
	if err != nil {
		slog.Error("Failed to update template", "command", cmd, "error", err)
		return
	}
	d.reply(ctx, req.Msg.Chat, confirmation)
	d.recordSettingsChange(ctx, req, cmd+" updated")
}

func (d *Dispatcher) handleCheckInactive(ctx context.Context, req *Request) {
	inactive := d.deps.Activity.Inactive(req.Msg.Chat, moderation.InactivityThreshold)
	if len(inactive) == 0 {
		d.reply(ctx, req.Msg.Chat, "No inactive users found (2+ weeks inactive)")
		return
	}
	tokens := make([]string, len(inactive))
	for i, jid := range inactive {
		tokens[i] = settings.MentionToken(jid)
	}
	d.reply(ctx, req.Msg.Chat, "Inactive users (2+ weeks):\n"+strings.Join(tokens, "\n"), inactive...)
}

func (d *Dispatcher) handleCleanInactive(ctx context.Context, req *Request) {
	inactive := d.deps.Activity.Inactive(req.Msg.Chat, moderation.InactivityThreshold)
	if len(inactive) == 0 {
		d.reply(ctx, req.Msg.Chat, "No inactive users to remove")
		return
	}
	d.removeParticipants(ctx, req.Msg.Chat, inactive)
	tokens := make([]string, len(inactive))
	for i, jid := range inactive {
		tokens[i] = settings.MentionToken(jid)
	}
	d.reply(ctx, req.Msg.Chat,
		fmt.Sprintf("Removed %d inactive users:\n%s", len(inactive), strings.Join(tokens, "\n")), inactive...)
	d.deps.Audit.Record(ctx, audit.Event{
		Type: audit.TypeRemoval, Chat: req.Msg.Chat, Actor: req.Msg.Sender,
		Detail: fmt.Sprintf("%d inactive users removed", len(inactive)),
	})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (d *Dispatcher) removeParticipants(ctx context.Context, chat string, jids []string) {
	if err := d.deps.Gateway.RemoveParticipants(ctx, chat, jids); err != nil {
		slog.Warn("Failed to remove participants", "chat", chat, "count", len(jids), "error", err)
	}
}

func (d *Dispatcher) recordSettingsChange(ctx context.Context, req *Request, detail string) {
	d.deps.Audit.Record(ctx, audit.Event{
		Type: audit.TypeSettings, Chat: req.Msg.Chat, Actor: req.Msg.Sender, Detail: detail,
	})
}

// parseMuteDuration parses the !mute argument: a number with an optional
// trailing unit (h, m, or d), defaulting to minutes. No argument or an
// unparseable one means one hour.
func parseMuteDuration(arg string) time.Duration {
	if arg == "" {
		return time.Hour
	}
	i := 0
	for i < len(arg) && arg[i] >= '0' && arg[i] <= '9' {
		i++
	}
	n, err := strconv.Atoi(arg[:i])
	if err != nil || n <= 0 {
		return time.Hour
	}
	unit := strings.ToLower(arg[i:])
	switch {
	case strings.Contains(unit, "h"):
		return time.Duration(n) * time.Hour
	case strings.Contains(unit, "m"):
		return time.Duration(n) * time.Minute
	case strings.Contains(unit, "d"):
		return time.Duration(n) * 24 * time.Hour
	default:
		return time.Duration(n) * time.Minute
	}
}
