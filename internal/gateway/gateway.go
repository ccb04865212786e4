// Package gateway defines the messaging gateway boundary and its WhatsApp
// implementation.
package gateway

import "context"

// Gateway is the outbound side of the messaging platform. The moderation
// core only ever talks to the platform through this interface; inbound
// events arrive on the bus.
type Gateway interface {
	// SendMessage sends text to a chat. Every identity the text addresses
	// by mention token must be listed in mentions so the platform renders
	// the mention.
	SendMessage(ctx context.Context, chat, text string, mentions []string) error
	// DeleteMessage revokes a previously delivered message.
	DeleteMessage(ctx context.Context, chat, sender, messageID string) error
	// RemoveParticipants removes the identities from the group.
	RemoveParticipants(ctx context.Context, chat string, jids []string) error
	// SetAnnouncementOnly switches the group between announcement-only and
	// open posting.
	SetAnnouncementOnly(ctx context.Context, chat string, on bool) error
	// GroupMembers returns the current member identities of the group.
	GroupMembers(ctx context.Context, chat string) ([]string, error)
}
