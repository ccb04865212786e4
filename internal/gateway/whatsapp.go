package gateway

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skip2/go-qrcode"

	_ "modernc.org/sqlite"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"github.com/groupwarden/groupwarden/internal/bus"
)

// Config holds WhatsApp gateway settings.
type Config struct {
	// SessionPath is the sqlite database holding the device session.
	SessionPath string `json:"sessionPath" envconfig:"SESSION_PATH"`
	// QRPath is where the pairing QR code PNG is written on first login.
	QRPath string `json:"qrPath" envconfig:"QR_PATH"`
}

// WhatsApp is the whatsmeow-backed gateway. Inbound events are published to
// the bus; outbound actions go through the Gateway interface.
type WhatsApp struct {
	cfg       Config
	bus       *bus.Bus
	client    *whatsmeow.Client
	container *sqlstore.Container
}

// NewWhatsApp creates the gateway.
func NewWhatsApp(cfg Config, b *bus.Bus) *WhatsApp {
	return &WhatsApp{cfg: cfg, bus: b}
}

// Start opens the session store, connects, and begins publishing events.
// When no device session exists it runs the QR pairing flow, blocking until
// the phone scans the code.
func (w *WhatsApp) Start(ctx context.Context) error {
	dbLog := waLog.Stdout("Database", "WARN", true)
	clientLog := waLog.Stdout("Client", "INFO", true)

	if err := os.MkdirAll(filepath.Dir(w.cfg.SessionPath), 0o755); err != nil {
		return fmt.Errorf("session dir: %w", err)
	}
	container, err := sqlstore.New(ctx, "sqlite",
		"file:"+w.cfg.SessionPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbLog)
	if err != nil {
		return fmt.Errorf("failed to init whatsapp db: %w", err)
	}
	w.container = container

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return fmt.Errorf("failed to get device: %w", err)
	}

	w.client = whatsmeow.NewClient(deviceStore, clientLog)
	w.client.AddEventHandler(w.eventHandler)

	if w.client.Store.ID == nil {
		qrChan, _ := w.client.GetQRChannel(context.Background())
		if err := w.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		fmt.Println("WhatsApp: Scan this QR code to login:")
		for evt := range qrChan {
			if evt.Event == "code" {
				if err := qrcode.WriteFile(evt.Code, qrcode.Medium, 512, w.cfg.QRPath); err == nil {
					fmt.Printf("WhatsApp login QR code saved to: %s\n", w.cfg.QRPath)
					fmt.Println("Open this file and scan it with your phone.")
				}
			} else {
				fmt.Println("WhatsApp: Login event:", evt.Event)
			}
		}
	} else {
		if err := w.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		fmt.Println("WhatsApp: Connected")
	}

	return nil
}

// Stop disconnects and closes the session store.
func (w *WhatsApp) Stop() error {
	if w.client != nil {
		w.client.Disconnect()
	}
	if w.container != nil {
		w.container.Close()
	}
	return nil
}

// SendMessage sends text to the chat. Mentioned identities ride in the
// message context info so the platform renders the mention tokens.
func (w *WhatsApp) SendMessage(ctx context.Context, chat, text string, mentions []string) error {
	jid, err := types.ParseJID(chat)
	if err != nil {
		return fmt.Errorf("invalid JID: %w", err)
	}

	var msg *waE2E.Message
	if len(mentions) > 0 {
		msg = &waE2E.Message{
			ExtendedTextMessage: &waE2E.ExtendedTextMessage{
				Text:        proto.String(text),
				ContextInfo: &waE2E.ContextInfo{MentionedJID: mentions},
			},
		}
	} else {
		msg = &waE2E.Message{Conversation: proto.String(text)}
	}

	_, err = w.client.SendMessage(ctx, jid, msg)
	return err
}

// DeleteMessage revokes a message previously sent by sender in chat.
func (w *WhatsApp) DeleteMessage(ctx context.Context, chat, sender, messageID string) error {
	chatJID, err := types.ParseJID(chat)
	if err != nil {
		return fmt.Errorf("invalid chat JID: %w", err)
	}
	senderJID, err := types.ParseJID(sender)
	if err != nil {
		return fmt.Errorf("invalid sender JID: %w", err)
	}
	_, err = w.client.SendMessage(ctx, chatJID, w.client.BuildRevoke(chatJID, senderJID, types.MessageID(messageID)))
	return err
}

// RemoveParticipants removes the identities from the group.
func (w *WhatsApp) RemoveParticipants(ctx context.Context, chat string, jids []string) error {
	chatJID, err := types.ParseJID(chat)
	if err != nil {
		return fmt.Errorf("invalid chat JID: %w", err)
	}
	participants := make([]types.JID, 0, len(jids))
	for _, j := range jids {
		jid, err := types.ParseJID(j)
		if err != nil {
			return fmt.Errorf("invalid participant JID %q: %w", j, err)
		}
		participants = append(participants, jid)
	}
	_, err = w.client.UpdateGroupParticipants(ctx, chatJID, participants, whatsmeow.ParticipantChangeRemove)
	return err
}

// SetAnnouncementOnly switches the group between announcement-only and open.
func (w *WhatsApp) SetAnnouncementOnly(ctx context.Context, chat string, on bool) error {
	chatJID, err := types.ParseJID(chat)
	if err != nil {
		return fmt.Errorf("invalid chat JID: %w", err)
	}
	return w.client.SetGroupAnnounce(ctx, chatJID, on)
}

// GroupMembers returns the current member identities of the group.
func (w *WhatsApp) GroupMembers(ctx context.Context, chat string) ([]string, error) {
	chatJID, err := types.ParseJID(chat)
	if err != nil {
		return nil, fmt.Errorf("invalid chat JID: %w", err)
	}
	info, err := w.client.GetGroupInfo(ctx, chatJID)
	if err != nil {
		return nil, fmt.Errorf("group info: %w", err)
	}
	members := make([]string, 0, len(info.Participants))
	for _, p := range info.Participants {
		members = append(members, p.JID.ToNonAD().String())
	}
	return members, nil
}

func (w *WhatsApp) eventHandler(evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		w.publishMessage(v)
	case *events.GroupInfo:
		w.publishGroupInfo(v)
	case *events.Connected:
		w.bus.Publish(&bus.Event{Connection: &bus.Connection{State: bus.StateConnected}})
	case *events.Disconnected:
		// whatsmeow reconnects on its own unless the session was logged out.
		w.bus.Publish(&bus.Event{Connection: &bus.Connection{State: bus.StateDisconnected}})
	case *events.LoggedOut:
		w.bus.Publish(&bus.Event{Connection: &bus.Connection{State: bus.StateLoggedOut}})
	}
}

func (w *WhatsApp) publishMessage(v *events.Message) {
	if v.Info.IsFromMe {
		return
	}

	content := ""
	replyTo := ""
	if v.Message.GetConversation() != "" {
		content = v.Message.GetConversation()
	} else if ext := v.Message.GetExtendedTextMessage(); ext.GetText() != "" {
		content = ext.GetText()
		replyTo = ext.GetContextInfo().GetParticipant()
	}
	if content == "" {
		return
	}

	sender := v.Info.Sender.ToNonAD().String()
	senderName := v.Info.PushName
	if senderName == "" {
		senderName = v.Info.Sender.User
	}

	w.bus.Publish(&bus.Event{
		TraceID: "wa-" + v.Info.ID,
		Message: &bus.Message{
			Chat:       v.Info.Chat.String(),
			Sender:     sender,
			SenderName: senderName,
			Content:    content,
			MessageID:  v.Info.ID,
			ReplyTo:    replyTo,
			IsGroup:    v.Info.IsGroup,
			Timestamp:  v.Info.Timestamp,
		},
	})
}

func (w *WhatsApp) publishGroupInfo(v *events.GroupInfo) {
	if len(v.Join) > 0 {
		w.bus.Publish(&bus.Event{Membership: &bus.Membership{
			Chat:         v.JID.String(),
			Participants: jidStrings(v.Join),
			Action:       bus.ActionAdd,
		}})
	}
	if len(v.Leave) > 0 {
		w.bus.Publish(&bus.Event{Membership: &bus.Membership{
			Chat:         v.JID.String(),
			Participants: jidStrings(v.Leave),
			Action:       bus.ActionRemove,
		}})
	}
}

func jidStrings(jids []types.JID) []string {
	out := make([]string, len(jids))
	for i, j := range jids {
		out[i] = j.ToNonAD().String()
	}
	return out
}
