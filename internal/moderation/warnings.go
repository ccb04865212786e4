// Package moderation implements the warning ledger, cooldown tracker,
// activity tracker, and the inbound moderation pipeline.
package moderation

import (
	"time"

	"github.com/groupwarden/groupwarden/internal/settings"
)

// WarningWindow is how long a warning counts toward escalation.
const WarningWindow = 24 * time.Hour

// Ledger is the sliding-window warning counter. Violations from every
// pipeline stage and from manual !warn share one pool per identity.
type Ledger struct {
	store *settings.Store
	now   func() time.Time
}

// NewLedger creates a ledger over the store.
func NewLedger(store *settings.Store) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// Warn appends a warning for the identity, expires entries older than the
// window, persists, and returns the resulting count. The count never
// decreases between calls until entries age out.
func (l *Ledger) Warn(jid string) (int, error) {
	now := l.now()
	cutoff := settings.UnixMillis(now.Add(-WarningWindow))

	count := 0
	err := l.store.Update(func(doc *settings.Settings) error {
		record := append(doc.Warnings[jid], settings.UnixMillis(now))
		kept := record[:0]
		for _, ts := range record {
			if ts > cutoff {
				kept = append(kept, ts)
			}
		}
		doc.Warnings[jid] = kept
		count = len(kept)
		return nil
	})
	return count, err
}
