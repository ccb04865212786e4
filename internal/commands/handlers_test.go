package commands

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/groupwarden/groupwarden/internal/moderation"
	"github.com/groupwarden/groupwarden/internal/settings"
)

func TestParseMuteDuration(t *testing.T) {
	tests := []struct {
		arg  string
		want time.Duration
	}{
		{"", time.Hour},
		{"2h", 2 * time.Hour},
		{"30m", 30 * time.Minute},
		{"1d", 24 * time.Hour},
		{"45", 45 * time.Minute}, // bare number defaults to minutes
		{"junk", time.Hour},
		{"0m", time.Hour},
	}
	for _, tt := range tests {
		if got := parseMuteDuration(tt.arg); got != tt.want {
			t.Errorf("parseMuteDuration(%q) = %v, want %v", tt.arg, got, tt.want)
		}
	}
}

func TestMuteAndUnmute(t *testing.T) {
	d, _, gw := newTestDispatcher(t)

	d.Dispatch(context.Background(), msg(adminJID, "!mute 90m"))
	if len(gw.announce) != 1 || !gw.announce[0] {
		t.Fatalf("announce calls = %v", gw.announce)
	}
	if !strings.Contains(gw.sent[0].text, "muted for 90 minutes") {
		t.Errorf("mute reply = %q", gw.sent[0].text)
	}
	if d.deps.Scheduler.Pending("unmute:"+groupJID) != 1 {
		t.Error("auto-unmute not scheduled")
	}

	gw.sent = nil
	d.Dispatch(context.Background(), msg(adminJID, "!unmute"))
	if len(gw.announce) != 2 || gw.announce[1] {
		t.Fatalf("announce calls = %v", gw.announce)
	}
	if gw.sent[0].text != "Group unmuted" {
		t.Errorf("unmute reply = %q", gw.sent[0].text)
	}
	// Manual unmute does not cancel the scheduled one.
	if d.deps.Scheduler.Pending("unmute:"+groupJID) != 1 {
		t.Error("scheduled unmute was cancelled by manual unmute")
	}
}

func TestScheduledUnmuteFires(t *testing.T) {
	d, _, gw := newTestDispatcher(t)

	// The mute argument floor is one minute, so fire the same callback
	// shape the handler arms through the scheduler directly.
	fired := make(chan struct{})
	d.deps.Scheduler.After("unmute:"+groupJID, 10*time.Millisecond, func() {
		ctx := context.Background()
		_ = d.deps.Gateway.SetAnnouncementOnly(ctx, groupJID, false)
		d.reply(ctx, groupJID, "Group unmuted")
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled unmute never fired")
	}
	if len(gw.announce) != 1 || gw.announce[0] {
		t.Errorf("announce calls = %v", gw.announce)
	}
	if len(gw.sent) != 1 || gw.sent[0].text != "Group unmuted" {
		t.Errorf("replies = %v", gw.sent)
	}
	// The pending count is decremented after the callback returns.
	deadline := time.Now().Add(time.Second)
	for d.deps.Scheduler.Pending("unmute:"+groupJID) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("job still pending after firing")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSetTemplates(t *testing.T) {
	d, store, gw := newTestDispatcher(t)

	d.Dispatch(context.Background(), msg(superJID, "!setwelcome Hi @user, read !rules  please"))
	if got := store.Snapshot().WelcomeMessage; got != "Hi @user, read !rules  please" {
		t.Errorf("welcome = %q", got)
	}
	if gw.sent[0].text != "Welcome message updated" {
		t.Errorf("reply = %q", gw.sent[0].text)
	}

	d.Dispatch(context.Background(), msg(superJID, "!setgoodbye Bye @user"))
	if got := store.Snapshot().GoodbyeMessage; got != "Bye @user" {
		t.Errorf("goodbye = %q", got)
	}

	d.Dispatch(context.Background(), msg(superJID, "!setrules 1. be kind"))
	if got := store.Snapshot().Rules; got != "1. be kind" {
		t.Errorf("rules = %q", got)
	}

	// Missing argument: silent no-op, template unchanged.
	gw.sent = nil
	d.Dispatch(context.Background(), msg(superJID, "!setwelcome"))
	if len(gw.sent) != 0 {
		t.Errorf("empty setwelcome replied: %v", gw.sent)
	}
	if got := store.Snapshot().WelcomeMessage; got != "Hi @user, read !rules  please" {
		t.Errorf("welcome mutated by empty command: %q", got)
	}
}

func TestInactiveCommands(t *testing.T) {
	d, store, gw := newTestDispatcher(t)

	stale := settings.UnixMillis(time.Now().Add(-15 * 24 * time.Hour))
	fresh := settings.UnixMillis(time.Now().Add(-time.Hour))
	err := store.Update(func(doc *settings.Settings) error {
		doc.UserActivity[groupJID] = map[string]int64{
			"stale@s.whatsapp.net": stale,
			"fresh@s.whatsapp.net": fresh,
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	d.Dispatch(context.Background(), msg(superJID, "!checkinactive"))
	reply := gw.sent[0]
	if !strings.Contains(reply.text, "@stale") || strings.Contains(reply.text, "@fresh") {
		t.Errorf("checkinactive reply = %q", reply.text)
	}
	if len(reply.mentions) != 1 || reply.mentions[0] != "stale@s.whatsapp.net" {
		t.Errorf("checkinactive mentions = %v", reply.mentions)
	}

	gw.sent = nil
	d.Dispatch(context.Background(), msg(superJID, "!cleaninactive"))
	if len(gw.removed) != 1 || gw.removed[0][0] != "stale@s.whatsapp.net" {
		t.Errorf("cleaninactive removed = %v", gw.removed)
	}
	if !strings.Contains(gw.sent[0].text, "Removed 1 inactive users") {
		t.Errorf("cleaninactive reply = %q", gw.sent[0].text)
	}
}

func TestCheckInactiveEmpty(t *testing.T) {
	d, _, gw := newTestDispatcher(t)

	d.Dispatch(context.Background(), msg(superJID, "!checkinactive"))
	if !strings.Contains(gw.sent[0].text, "No inactive users found") {
		t.Errorf("reply = %q", gw.sent[0].text)
	}

	gw.sent = nil
	d.Dispatch(context.Background(), msg(superJID, "!cleaninactive"))
	if !strings.Contains(gw.sent[0].text, "No inactive users to remove") {
		t.Errorf("reply = %q", gw.sent[0].text)
	}
	if len(gw.removed) != 0 {
		t.Errorf("removed = %v", gw.removed)
	}
}

func TestHelpIsRoleAware(t *testing.T) {
	d, _, gw := newTestDispatcher(t)

	d.Dispatch(context.Background(), msg(memberJID, "!help"))
	member := gw.sent[0].text
	if strings.Contains(member, "!kick") || strings.Contains(member, "!toggle") {
		t.Errorf("member help leaks privileged commands: %q", member)
	}
	if !strings.Contains(member, "!rules") || !strings.Contains(member, "Anti-Links: on") {
		t.Errorf("member help = %q", member)
	}

	gw.sent = nil
	d.Dispatch(context.Background(), msg(adminJID, "!help"))
	admin := gw.sent[0].text
	if !strings.Contains(admin, "!kick") || strings.Contains(admin, "!toggle") {
		t.Errorf("admin help = %q", admin)
	}

	gw.sent = nil
	d.Dispatch(context.Background(), msg(superJID, "!help"))
	super := gw.sent[0].text
	if !strings.Contains(super, "!toggle") || !strings.Contains(super, "!kick") || !strings.Contains(super, "!rules") {
		t.Errorf("superadmin help = %q", super)
	}
}

func TestToggleThenPipelinePassesLinks(t *testing.T) {
	// End to end across dispatcher and pipeline: after !toggle antiLinks,
	// link messages are no longer warned.
	d, store, gw := newTestDispatcher(t)
	pipe := moderation.NewPipeline(store, d.deps.Ledger, d.deps.Cooldowns, gw, d.deps.Audit)

	disable := func(name string) {
		err := store.Update(func(doc *settings.Settings) error {
			doc.Features[name] = false
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	disable(settings.FeatureAntiSpam)
	disable(settings.FeatureBannedWords)

	if !pipe.Check(context.Background(), msg(memberJID, "see www.example.com")) {
		t.Fatal("link not stopped while antiLinks enabled")
	}

	gw.sent = nil
	d.Dispatch(context.Background(), msg(superJID, "!toggle antiLinks"))
	if !strings.Contains(gw.sent[0].text, "set to false") {
		t.Fatalf("toggle reply = %q", gw.sent[0].text)
	}

	gw.sent = nil
	if pipe.Check(context.Background(), msg(memberJID, "see www.example.com")) {
		t.Error("link stopped after antiLinks disabled")
	}
	if len(gw.sent) != 0 {
		t.Errorf("unexpected replies = %v", gw.sent)
	}
}
