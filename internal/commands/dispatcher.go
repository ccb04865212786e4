// Package commands parses and routes "!"-prefixed group commands.
package commands

import (
	"context"
	"log/slog"
	"strings"

	"github.com/groupwarden/groupwarden/internal/audit"
	"github.com/groupwarden/groupwarden/internal/bus"
	"github.com/groupwarden/groupwarden/internal/gateway"
	"github.com/groupwarden/groupwarden/internal/moderation"
	"github.com/groupwarden/groupwarden/internal/scheduler"
	"github.com/groupwarden/groupwarden/internal/settings"
)

// Deps are the collaborators handlers act on.
type Deps struct {
	Store     *settings.Store
	Ledger    *moderation.Ledger
	Cooldowns *moderation.Cooldowns
	Activity  *moderation.Activity
	Gateway   gateway.Gateway
	Scheduler *scheduler.Scheduler
	Audit     *audit.Publisher
}

// Request carries one parsed command through its handler.
type Request struct {
	Msg  *bus.Message
	Doc  *settings.Settings
	Args []string
	Role settings.Role
}

// Arg returns the i-th argument after the command name, or "".
func (r *Request) Arg(i int) string {
	if i < len(r.Args) {
		return r.Args[i]
	}
	return ""
}

// Trailing returns the message text after the command word and one
// separating space, preserving inner whitespace. Used by the !set* commands
// which store the remainder verbatim. Positional so the command word keeps
// whatever casing the sender typed.
func (r *Request) Trailing(cmd string) string {
	text := strings.TrimSpace(r.Msg.Content)
	if len(text) <= len(cmd) {
		return ""
	}
	return strings.TrimPrefix(text[len(cmd):], " ")
}

type handlerFunc func(d *Dispatcher, ctx context.Context, req *Request)

type command struct {
	min     settings.Role
	handler handlerFunc
}

// Dispatcher routes commands through a declarative table keyed by command
// name. Authorization is resolved once here; handlers never re-check roles.
type Dispatcher struct {
	deps  Deps
	table map[string]command
}

// New builds the dispatcher and its routing table.
func New(deps Deps) *Dispatcher {
	d := &Dispatcher{deps: deps}
	d.table = map[string]command{
		"!help":  {settings.RoleMember, (*Dispatcher).handleHelp},
		"!rules": {settings.RoleMember, (*Dispatcher).handleRules},

		"!admins":      {settings.RoleAdmin, (*Dispatcher).handleAdmins},
		"!bannedwords": {settings.RoleAdmin, (*Dispatcher).handleBannedWords},
		"!warn":        {settings.RoleAdmin, (*Dispatcher).handleWarn},
		"!kick":        {settings.RoleAdmin, (*Dispatcher).handleKick},
		"!tagall":      {settings.RoleAdmin, (*Dispatcher).handleTagAll},
		"!mute":        {settings.RoleAdmin, (*Dispatcher).handleMute},
		"!unmute":      {settings.RoleAdmin, (*Dispatcher).handleUnmute},
		"!settings":    {settings.RoleAdmin, (*Dispatcher).handleSettings},

		"!addadmin":      {settings.RoleSuperAdmin, (*Dispatcher).handleAddAdmin},
		"!deladmin":      {settings.RoleSuperAdmin, (*Dispatcher).handleDelAdmin},
		"!addword":       {settings.RoleSuperAdmin, (*Dispatcher).handleAddWord},
		"!delword":       {settings.RoleSuperAdmin, (*Dispatcher).handleDelWord},
		"!toggle":        {settings.RoleSuperAdmin, (*Dispatcher).handleToggle},
		"!setwelcome":    {settings.RoleSuperAdmin, (*Dispatcher).handleSetWelcome},
		"!setgoodbye":    {settings.RoleSuperAdmin, (*Dispatcher).handleSetGoodbye},
		"!setrules":      {settings.RoleSuperAdmin, (*Dispatcher).handleSetRules},
		"!checkinactive": {settings.RoleSuperAdmin, (*Dispatcher).handleCheckInactive},
		"!cleaninactive": {settings.RoleSuperAdmin, (*Dispatcher).handleCleanInactive},
	}
	return d
}

// Dispatch handles the message when it is a command. It returns true for
// every "!"-prefixed message, including unknown commands and unauthorized
// attempts, both of which are dropped without a reply.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *bus.Message) bool {
	text := strings.TrimSpace(msg.Content)
	if !strings.HasPrefix(text, "!") {
		return false
	}

	fields := strings.Fields(text)
	name := strings.ToLower(fields[0])

	entry, ok := d.table[name]
	if !ok {
		slog.Debug("Unknown command dropped", "command", name, "sender", msg.Sender)
		return true
	}

	doc := d.deps.Store.Snapshot()
	role := doc.RoleOf(msg.Sender)
	if role < entry.min {
		// Least disclosure: unauthorized attempts get no reply at all.
		slog.Debug("Unauthorized command dropped", "command", name, "sender", msg.Sender, "role", role.String())
		return true
	}

	entry.handler(d, ctx, &Request{Msg: msg, Doc: doc, Args: fields[1:], Role: role})
	return true
}

// reply sends best-effort; a failed send is logged and never surfaced to the
// triggering handler.
func (d *Dispatcher) reply(ctx context.Context, chat, text string, mentions ...string) {
	if err := d.deps.Gateway.SendMessage(ctx, chat, text, mentions); err != nil {
		slog.Warn("Failed to send command reply", "chat", chat, "error", err)
	}
}
