package settings

import "strings"

// userToken is the single named placeholder supported by announcement
// templates.
const userToken = "@user"

// Template is an announcement text with an optional @user placeholder. The
// first occurrence is substituted with the mention token of the affected
// identity; any later occurrences are left verbatim.
type Template string

// Render substitutes the first @user occurrence with mention and returns the
// resulting text. Templates without the placeholder render unchanged.
func (t Template) Render(mention string) string {
	return strings.Replace(string(t), userToken, mention, 1)
}

// MentionToken formats a JID as the @-prefixed token the platform renders as
// a tappable mention ("123@s.whatsapp.net" becomes "@123").
func MentionToken(jid string) string {
	if i := strings.IndexByte(jid, '@'); i >= 0 {
		return "@" + jid[:i]
	}
	return "@" + jid
}
