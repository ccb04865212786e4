package moderation

import (
	"time"

	"github.com/groupwarden/groupwarden/internal/settings"
)

// Cooldown windows used by the moderation core.
const (
	SpamWindow   = 2 * time.Second
	TagAllWindow = 24 * time.Hour
)

// Cooldowns is the per-feature, per-key rate limiter. The same mechanism
// serves the 2-second spam gate (key = sender) and the 24-hour tagall
// throttle (key = group).
type Cooldowns struct {
	store *settings.Store
	now   func() time.Time
}

// NewCooldowns creates a tracker over the store.
func NewCooldowns(store *settings.Store) *Cooldowns {
	return &Cooldowns{store: store, now: time.Now}
}

// Check returns 0 and records now when the window has elapsed (or no entry
// exists), allowing the caller to proceed. Otherwise it returns the
// remaining wait in whole seconds, rounded up, without touching the
// timestamp, so repeated checks do not extend the cooldown.
func (c *Cooldowns) Check(feature, key string, window time.Duration) (int, error) {
	now := settings.UnixMillis(c.now())

	remaining := 0
	err := c.store.Update(func(doc *settings.Settings) error {
		entries := doc.Cooldowns[feature]
		if entries == nil {
			entries = map[string]int64{}
			doc.Cooldowns[feature] = entries
		}
		last, ok := entries[key]
		elapsed := now - last
		if ok && elapsed < window.Milliseconds() {
			remaining = int((window.Milliseconds() - elapsed + 999) / 1000)
			return nil
		}
		entries[key] = now
		return nil
	})
	return remaining, err
}
