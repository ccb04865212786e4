package settings

import "testing"

func TestTemplateRender(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    Template
		mention string
		want    string
	}{
		{"substitutes placeholder", "Welcome @user to the group!", "@123", "Welcome @123 to the group!"},
		{"first occurrence only", "@user meet @user", "@123", "@123 meet @user"},
		{"no placeholder", "Hello there", "@123", "Hello there"},
		{"empty template", "", "@123", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tmpl.Render(tt.mention); got != tt.want {
				t.Errorf("Render = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMentionToken(t *testing.T) {
	if got := MentionToken("12345@s.whatsapp.net"); got != "@12345" {
		t.Errorf("MentionToken = %q", got)
	}
	if got := MentionToken("bare"); got != "@bare" {
		t.Errorf("MentionToken without server = %q", got)
	}
}
