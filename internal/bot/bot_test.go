package bot

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/groupwarden/groupwarden/internal/audit"
	"github.com/groupwarden/groupwarden/internal/bus"
	"github.com/groupwarden/groupwarden/internal/commands"
	"github.com/groupwarden/groupwarden/internal/moderation"
	"github.com/groupwarden/groupwarden/internal/scheduler"
	"github.com/groupwarden/groupwarden/internal/settings"
)

const (
	superJID  = "super@s.whatsapp.net"
	memberJID = "member@s.whatsapp.net"
	groupJID  = "g@g.us"
)

type sent struct {
	chat     string
	text     string
	mentions []string
}

type fakeGateway struct {
	sent    []sent
	removed [][]string
}

func (g *fakeGateway) SendMessage(_ context.Context, chat, text string, mentions []string) error {
	g.sent = append(g.sent, sent{chat, text, mentions})
	return nil
}

func (g *fakeGateway) DeleteMessage(_ context.Context, _, _, _ string) error { return nil }

func (g *fakeGateway) RemoveParticipants(_ context.Context, _ string, jids []string) error {
	g.removed = append(g.removed, jids)
	return nil
}

func (g *fakeGateway) SetAnnouncementOnly(_ context.Context, _ string, _ bool) error { return nil }

func (g *fakeGateway) GroupMembers(_ context.Context, _ string) ([]string, error) { return nil, nil }

func newTestBot(t *testing.T) (*Bot, *bus.Bus, *settings.Store, *fakeGateway) {
	t.Helper()
	store, err := settings.Open(filepath.Join(t.TempDir(), "settings.json"), superJID)
	if err != nil {
		t.Fatal(err)
	}

	gw := &fakeGateway{}
	pub := audit.NewPublisher(audit.Config{})
	ledger := moderation.NewLedger(store)
	cooldowns := moderation.NewCooldowns(store)
	activity := moderation.NewActivity(store)
	pipeline := moderation.NewPipeline(store, ledger, cooldowns, gw, pub)
	dispatcher := commands.New(commands.Deps{
		Store:     store,
		Ledger:    ledger,
		Cooldowns: cooldowns,
		Activity:  activity,
		Gateway:   gw,
		Scheduler: scheduler.New(),
		Audit:     pub,
	})
	eventBus := bus.New()
	return New(eventBus, store, activity, pipeline, dispatcher, gw), eventBus, store, gw
}

// runUntilLogout drives the loop in the foreground by terminating the event
// stream with a logout, which shuts the loop down cleanly.
func runUntilLogout(t *testing.T, b *Bot, eventBus *bus.Bus, events ...*bus.Event) {
	t.Helper()
	for _, evt := range events {
		eventBus.Publish(evt)
	}
	eventBus.Publish(&bus.Event{Connection: &bus.Connection{State: bus.StateLoggedOut}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestMessageRouting(t *testing.T) {
	b, eventBus, store, gw := newTestBot(t)

	// Two back-to-back messages from the same sender would trip the spam
	// gate; this test is about routing, not moderation.
	if err := store.Update(func(doc *settings.Settings) error {
		doc.Features[settings.FeatureAntiSpam] = false
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	runUntilLogout(t, b, eventBus,
		&bus.Event{Message: &bus.Message{
			Chat: groupJID, Sender: memberJID, SenderName: "M",
			Content: "hello all", MessageID: "M1", IsGroup: true,
		}},
		&bus.Event{Message: &bus.Message{
			Chat: groupJID, Sender: memberJID, SenderName: "M",
			Content: "!rules", MessageID: "M2", IsGroup: true,
		}},
	)

	// The plain message produced no reply but touched activity; the
	// command produced the rules reply.
	if len(gw.sent) != 1 || !strings.Contains(gw.sent[0].text, "GROUP RULES") {
		t.Errorf("replies = %v", gw.sent)
	}
	if store.Snapshot().UserActivity[groupJID][memberJID] == 0 {
		t.Error("activity not touched")
	}
}

func TestDirectChatsIgnored(t *testing.T) {
	b, eventBus, _, gw := newTestBot(t)

	runUntilLogout(t, b, eventBus, &bus.Event{Message: &bus.Message{
		Chat: "dm@s.whatsapp.net", Sender: memberJID, Content: "!rules", MessageID: "M1", IsGroup: false,
	}})

	if len(gw.sent) != 0 {
		t.Errorf("direct chat produced replies: %v", gw.sent)
	}
}

func TestPipelineRunsBeforeCommands(t *testing.T) {
	b, eventBus, _, gw := newTestBot(t)

	// A command that also trips the banned-word stage never reaches the
	// dispatcher.
	runUntilLogout(t, b, eventBus, &bus.Event{Message: &bus.Message{
		Chat: groupJID, Sender: memberJID, Content: "!rules about spam", MessageID: "M1", IsGroup: true,
	}})

	if len(gw.sent) != 1 || !strings.Contains(gw.sent[0].text, "banned word") {
		t.Errorf("replies = %v", gw.sent)
	}
}

func TestConnectionEvents(t *testing.T) {
	b, eventBus, _, _ := newTestBot(t)

	// Disconnected does not stop the loop; logged out does.
	runUntilLogout(t, b, eventBus,
		&bus.Event{Connection: &bus.Connection{State: bus.StateConnected}},
		&bus.Event{Connection: &bus.Connection{State: bus.StateDisconnected}},
	)
}
