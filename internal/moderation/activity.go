package moderation

import (
	"time"

	"github.com/groupwarden/groupwarden/internal/settings"
)

// InactivityThreshold is the no-activity window after which a member is
// flagged as removable.
const InactivityThreshold = 14 * 24 * time.Hour

// Activity tracks the last-seen timestamp per user per group.
type Activity struct {
	store *settings.Store
	now   func() time.Time
}

// NewActivity creates a tracker over the store.
func NewActivity(store *settings.Store) *Activity {
	return &Activity{store: store, now: time.Now}
}

// Touch records now for the identity in the group, unconditionally, once per
// processed message.
func (a *Activity) Touch(group, jid string) error {
	now := settings.UnixMillis(a.now())
	return a.store.Update(func(doc *settings.Settings) error {
		seen := doc.UserActivity[group]
		if seen == nil {
			seen = map[string]int64{}
			doc.UserActivity[group] = seen
		}
		seen[jid] = now
		return nil
	})
}

// Inactive returns the identities in the group whose last touch predates
// now minus threshold. Order follows map iteration and is only suitable for
// display.
func (a *Activity) Inactive(group string, threshold time.Duration) []string {
	cutoff := settings.UnixMillis(a.now().Add(-threshold))
	doc := a.store.Snapshot()

	var out []string
	for jid, last := range doc.UserActivity[group] {
		if last < cutoff {
			out = append(out, jid)
		}
	}
	return out
}
