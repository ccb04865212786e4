package moderation

import (
	"sort"
	"testing"
	"time"
)

func TestInactiveThreshold(t *testing.T) {
	act := NewActivity(newTestStore(t))

	base := time.Now()
	act.now = func() time.Time { return base.Add(-15 * 24 * time.Hour) }
	if err := act.Touch("g@g.us", "stale@s.whatsapp.net"); err != nil {
		t.Fatal(err)
	}
	act.now = func() time.Time { return base.Add(-13 * 24 * time.Hour) }
	if err := act.Touch("g@g.us", "recent@s.whatsapp.net"); err != nil {
		t.Fatal(err)
	}
	act.now = func() time.Time { return base }

	inactive := act.Inactive("g@g.us", InactivityThreshold)
	if len(inactive) != 1 || inactive[0] != "stale@s.whatsapp.net" {
		t.Errorf("Inactive = %v", inactive)
	}
}

func TestTouchRefreshes(t *testing.T) {
	act := NewActivity(newTestStore(t))

	base := time.Now()
	act.now = func() time.Time { return base.Add(-20 * 24 * time.Hour) }
	if err := act.Touch("g@g.us", "u@s.whatsapp.net"); err != nil {
		t.Fatal(err)
	}
	// Any message refreshes the timestamp.
	act.now = func() time.Time { return base.Add(-time.Hour) }
	if err := act.Touch("g@g.us", "u@s.whatsapp.net"); err != nil {
		t.Fatal(err)
	}
	act.now = func() time.Time { return base }

	if got := act.Inactive("g@g.us", InactivityThreshold); len(got) != 0 {
		t.Errorf("Inactive = %v, want none", got)
	}
}

func TestInactivePerGroup(t *testing.T) {
	act := NewActivity(newTestStore(t))

	base := time.Now()
	act.now = func() time.Time { return base.Add(-30 * 24 * time.Hour) }
	for _, jid := range []string{"a@s.whatsapp.net", "b@s.whatsapp.net"} {
		if err := act.Touch("g1@g.us", jid); err != nil {
			t.Fatal(err)
		}
	}
	act.now = func() time.Time { return base }
	if err := act.Touch("g2@g.us", "a@s.whatsapp.net"); err != nil {
		t.Fatal(err)
	}

	inactive := act.Inactive("g1@g.us", InactivityThreshold)
	sort.Strings(inactive)
	if len(inactive) != 2 {
		t.Errorf("g1 inactive = %v", inactive)
	}
	if got := act.Inactive("g2@g.us", InactivityThreshold); len(got) != 0 {
		t.Errorf("g2 inactive = %v", got)
	}
	if got := act.Inactive("empty@g.us", InactivityThreshold); len(got) != 0 {
		t.Errorf("unknown group inactive = %v", got)
	}
}
