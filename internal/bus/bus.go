// Package bus provides the ordered inbound event queue between the gateway
// and the moderation loop.
package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Membership actions.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
)

// Connection states.
const (
	StateConnected    = "connected"
	StateDisconnected = "disconnected"
	StateLoggedOut    = "logged_out"
)

// Message is an inbound group text message.
type Message struct {
	Chat       string `json:"chat"`
	Sender     string `json:"sender"`
	SenderName string `json:"sender_name"`
	Content    string `json:"content"`
	MessageID  string `json:"message_id"`
	// ReplyTo is the identity whose message was being replied to, for
	// reply-targeted commands. Empty when the message is not a reply.
	ReplyTo   string    `json:"reply_to,omitempty"`
	IsGroup   bool      `json:"is_group"`
	Timestamp time.Time `json:"timestamp"`
}

// Membership is a participant lifecycle change.
type Membership struct {
	Chat         string   `json:"chat"`
	Participants []string `json:"participants"`
	Action       string   `json:"action"`
}

// Connection is a gateway connection state change.
type Connection struct {
	State string `json:"state"`
}

// Event is one inbound event; exactly one of the payload fields is set.
type Event struct {
	TraceID    string      `json:"trace_id"`
	Message    *Message    `json:"message,omitempty"`
	Membership *Membership `json:"membership,omitempty"`
	Connection *Connection `json:"connection,omitempty"`
}

// Bus is a buffered single-consumer event queue. Events are delivered in
// publication order.
type Bus struct {
	events chan *Event
}

// New creates a bus.
func New() *Bus {
	return &Bus{events: make(chan *Event, 100)}
}

// Publish enqueues an event, assigning a trace ID when the publisher did not.
func (b *Bus) Publish(evt *Event) {
	if evt.TraceID == "" {
		evt.TraceID = uuid.NewString()
	}
	b.events <- evt
}

// Consume blocks until an event is available or the context is cancelled.
func (b *Bus) Consume(ctx context.Context) (*Event, error) {
	select {
	case evt := <-b.events:
		return evt, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Size returns the number of pending events.
func (b *Bus) Size() int {
	return len(b.events)
}
