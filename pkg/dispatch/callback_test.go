package dispatch

import "testing"

func TestParseCallback(t *testing.T) {
	cases := []struct {
		data    string
		kind    CallbackKind
		payload string
	}{
		{"command:help", CallbackCommand, "help"},
		{"action:check_balance", CallbackAction, "check_balance"},
		{"link_account:a@b.co", CallbackLinkAccount, "a@b.co"},
		{"notifications:toggle:news", CallbackNotifications, "toggle:news"},
		{"command: help ", CallbackCommand, "help"},
		{"garbage", CallbackUnknown, "garbage"},
		{"bogus:payload", CallbackUnknown, "bogus:payload"},
		{"", CallbackUnknown, ""},
	}
	for _, tc := range cases {
		cb := ParseCallback(tc.data)
		if cb.Kind != tc.kind || cb.Payload != tc.payload {
			t.Errorf("ParseCallback(%q) = {%d %q}, want {%d %q}", tc.data, cb.Kind, cb.Payload, tc.kind, tc.payload)
		}
	}
}
