package chat

// Envelope is the canonical in-memory form of one inbound message, produced
// by a provider normalizer. Every field defaults to its zero value; partial
// payloads (delivery receipts, status callbacks) simply leave fields empty.
type Envelope struct {
	From         string
	FromName     string
	FromLocale   string
	FromMetadata map[string]string
	MessageID    string
	ChatID       string
	To           string
	Body         string
	Type         string
	ButtonID     string
}

// Message classification stored on persisted messages.
const (
	TypeText        = "text"
	TypeInteractive = "interactive"
	TypeReceipt     = "receipt"
	TypeUnknown     = "unknown"
)

// Acknowledgeable reports whether the message can be acknowledged back to
// the provider (a read receipt needs both a sender and a message id).
func (e *Envelope) Acknowledgeable() bool {
	return e.From != "" && e.MessageID != ""
}

// UserText reports whether the message is free text typed by a user.
func (e *Envelope) UserText() bool {
	return e.From != "" && e.Body != "" && e.ButtonID == ""
}

// Actionable reports whether the message is a button or list selection.
func (e *Envelope) Actionable() bool {
	return e.From != "" && e.ButtonID != ""
}

// Classification maps the envelope onto the stored message type.
func (e *Envelope) Classification() string {
	switch {
	case e.Actionable():
		return TypeInteractive
	case e.UserText():
		return TypeText
	case e.From == "" && e.MessageID == "":
		return TypeReceipt
	default:
		return TypeUnknown
	}
}
