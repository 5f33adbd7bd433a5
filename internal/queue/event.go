// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names.  All are durable.
const (
	CredentialChangedQueue  = "credential.changed"
	CredentialRevealedQueue = "credential.revealed"
	ContactReceivedQueue    = "contact.received"
)

// CredentialChangedEvent is published whenever a user's password or login
// phone changes, regardless of which flow caused it (self-service change,
// admin change, matrimony profile sync, DOB reset).  Downstream consumers
// keep the durable audit trail without touching the primary database.
type CredentialChangedEvent struct {
	UserID          string `json:"user_id"`
	ActorID         string `json:"actor_id,omitempty"` // empty for unauthenticated resets
	Source          string `json:"source"`             // e.g. "auth.update", "matrimony.sync"
	PasswordChanged bool   `json:"password_changed"`
	PhoneChanged    bool   `json:"phone_changed"`
	ChangedAt       string `json:"changed_at"`
}

// CredentialRevealedEvent records an admin decrypting a user's stored
// password through the support endpoint.  Every reveal must leave a trace.
type CredentialRevealedEvent struct {
	ActorID    string `json:"actor_id"`
	TargetID   string `json:"target_id"`
	RevealedAt string `json:"revealed_at"`
}

// ContactReceivedEvent notifies downstream systems of a new contact-form
// message so staff can be alerted without polling the table.
type ContactReceivedEvent struct {
	MessageID  uint64 `json:"message_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Subject    string `json:"subject"`
	ReceivedAt string `json:"received_at"`
}
