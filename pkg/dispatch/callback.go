package dispatch

import "strings"

type CallbackKind int

const (
	CallbackUnknown CallbackKind = iota
	CallbackCommand
	CallbackAction
	CallbackLinkAccount
	CallbackNotifications
)

// Callback is the typed form of a namespaced `prefix:payload` callback
// string. Decoding happens once at the boundary; nothing downstream
// re-parses the raw string.
type Callback struct {
	Kind    CallbackKind
	Payload string
}

func ParseCallback(data string) Callback {
	prefix, payload, found := strings.Cut(data, ":")
	if !found {
		return Callback{Kind: CallbackUnknown, Payload: data}
	}
	payload = strings.TrimSpace(payload)
	switch prefix {
	case "command":
		return Callback{Kind: CallbackCommand, Payload: payload}
	case "action":
		return Callback{Kind: CallbackAction, Payload: payload}
	case "link_account":
		return Callback{Kind: CallbackLinkAccount, Payload: payload}
	case "notifications":
		return Callback{Kind: CallbackNotifications, Payload: payload}
	}
	return Callback{Kind: CallbackUnknown, Payload: data}
}
