// Package settings holds the persisted moderation document and its store.
package settings

import (
	"sort"
	"strings"
	"time"
)

// Feature flag names as stored in the document.
const (
	FeatureAntiLinks       = "antiLinks"
	FeatureAntiSpam        = "antiSpam"
	FeatureBannedWords     = "bannedWords"
	FeatureWelcomeMessages = "welcomeMessages"
	FeatureGoodbyeMessages = "goodbyeMessages"
	FeatureInactivityCheck = "inactivityCheck"
)

// Role is the derived authorization tier of a sender. Roles are ordered so
// callers can compare with >=.
type Role int

const (
	RoleMember Role = iota
	RoleAdmin
	RoleSuperAdmin
)

func (r Role) String() string {
	switch r {
	case RoleSuperAdmin:
		return "superadmin"
	case RoleAdmin:
		return "admin"
	default:
		return "member"
	}
}

// Settings is the whole persisted document. Timestamps are Unix milliseconds,
// matching the wire shape the document has always had.
type Settings struct {
	SuperSu        string                      `json:"superSu"`
	Admins         []string                    `json:"admins"`
	BannedWords    []string                    `json:"bannedWords"`
	WelcomeMessage Template                    `json:"welcomeMessage"`
	GoodbyeMessage Template                    `json:"goodbyeMessage"`
	Rules          string                      `json:"rules"`
	Features       map[string]bool             `json:"features"`
	Warnings       map[string][]int64          `json:"warnings"`
	Cooldowns      map[string]map[string]int64 `json:"cooldowns"`
	UserActivity   map[string]map[string]int64 `json:"userActivity"`
}

const defaultRules = `GROUP RULES

- Respect is non-negotiable. No insults, hate speech, or personal attacks.
- Active participation. Inactive for 2 weeks and admins may remove you.
- Spam gets a red card. No flooding with stickers, forwards, or random links.
- Privacy first. No leaking group chats or personal details.
- Admin final say. Admins moderate disputes.`

// Default returns a fresh document seeded with superAdmin as the immutable
// top authority.
func Default(superAdmin string) *Settings {
	return &Settings{
		SuperSu:        superAdmin,
		Admins:         []string{},
		BannedWords:    []string{"scam", "spam", "http://", "https://", "www."},
		WelcomeMessage: "Welcome @user to the group! Please read the rules with !rules",
		GoodbyeMessage: "@user has left the group",
		Rules:          defaultRules,
		Features: map[string]bool{
			FeatureAntiLinks:       true,
			FeatureAntiSpam:        true,
			FeatureBannedWords:     true,
			FeatureWelcomeMessages: true,
			FeatureGoodbyeMessages: true,
			FeatureInactivityCheck: true,
		},
		Warnings: map[string][]int64{},
		Cooldowns: map[string]map[string]int64{
			"tagAll": {},
			"spam":   {},
		},
		UserActivity: map[string]map[string]int64{},
	}
}

// RoleOf resolves the authorization tier for a sender. SuperSu strictly
// overrides Admin even when the identity is also listed in Admins.
func (s *Settings) RoleOf(jid string) Role {
	if jid == s.SuperSu {
		return RoleSuperAdmin
	}
	for _, a := range s.Admins {
		if a == jid {
			return RoleAdmin
		}
	}
	return RoleMember
}

// FeatureEnabled reports whether a known feature flag is on. Unknown names
// are off.
func (s *Settings) FeatureEnabled(name string) bool {
	return s.Features[name]
}

// FeatureNames returns the known flag names in stable order, for advisory
// replies.
func (s *Settings) FeatureNames() []string {
	names := make([]string, 0, len(s.Features))
	for name := range s.Features {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasAdmin reports whether the identity is in the admin set.
func (s *Settings) HasAdmin(jid string) bool {
	for _, a := range s.Admins {
		if a == jid {
			return true
		}
	}
	return false
}

// HasBannedWord reports whether the exact word is already listed.
func (s *Settings) HasBannedWord(word string) bool {
	for _, w := range s.BannedWords {
		if w == word {
			return true
		}
	}
	return false
}

// MatchBannedWord returns the first banned word contained in text,
// case-insensitively, in list order. Empty string means no match.
func (s *Settings) MatchBannedWord(text string) string {
	lower := strings.ToLower(text)
	for _, w := range s.BannedWords {
		if w != "" && strings.Contains(lower, strings.ToLower(w)) {
			return w
		}
	}
	return ""
}

// Clone returns a deep copy, safe to read without holding the store lock.
func (s *Settings) Clone() *Settings {
	out := *s
	out.Admins = append([]string(nil), s.Admins...)
	out.BannedWords = append([]string(nil), s.BannedWords...)
	out.Features = make(map[string]bool, len(s.Features))
	for k, v := range s.Features {
		out.Features[k] = v
	}
	out.Warnings = make(map[string][]int64, len(s.Warnings))
	for k, v := range s.Warnings {
		out.Warnings[k] = append([]int64(nil), v...)
	}
	out.Cooldowns = make(map[string]map[string]int64, len(s.Cooldowns))
	for k, v := range s.Cooldowns {
		inner := make(map[string]int64, len(v))
		for kk, vv := range v {
			inner[kk] = vv
		}
		out.Cooldowns[k] = inner
	}
	out.UserActivity = make(map[string]map[string]int64, len(s.UserActivity))
	for k, v := range s.UserActivity {
		inner := make(map[string]int64, len(v))
		for kk, vv := range v {
			inner[kk] = vv
		}
		out.UserActivity[k] = inner
	}
	return &out
}

// UnixMillis converts a time to the document's timestamp representation.
func UnixMillis(t time.Time) int64 { return t.UnixMilli() }
