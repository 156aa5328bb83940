package models

import "time"

const (
	InteractionMessage           = "message"
	InteractionEditedMessage     = "edited_message"
	InteractionCallback          = "callback"
	InteractionMembershipChange  = "membership_change"
	InteractionOTP               = "otp"
	InteractionAIResponse        = "ai_response"
	InteractionSupportEscalation = "support_escalation"
)

// InteractionRecord is the append-only audit projection of an inbound
// update or a generated reply. Raw updates are never stored verbatim.
type InteractionRecord struct {
	ID        int64             `json:"id"`
	UserID    *int64            `json:"user_id"`
	ChatID    int64             `json:"chat_id"`
	Kind      string            `json:"kind"`
	Content   string            `json:"content"`
	Response  string            `json:"response"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
}
