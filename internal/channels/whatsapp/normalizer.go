package whatsapp

import (
	"encoding/json"

	"github.com/openpoke/decidim-module-chatbot/internal/chat"
)

// Inbound is the normalized result of parsing a webhook payload: the
// canonical envelope plus the provider-side routing detail needed for
// replies.
type Inbound struct {
	Envelope      *chat.Envelope
	PhoneNumberID string
}

// Normalize turns a raw webhook payload into the canonical envelope.
// It never fails: malformed or partial payloads (status callbacks carry no
// user message) yield an envelope with the affected fields left empty.
// Only the first entry and its first change are processed; batched
// secondary entries are a known limitation of this integration.
func Normalize(payload []byte) Inbound {
	env := &chat.Envelope{}
	inbound := Inbound{Envelope: env}

	var wp WebhookPayload
	if err := json.Unmarshal(payload, &wp); err != nil || len(wp.Entry) == 0 {
		return inbound
	}

	entry := wp.Entry[0]
	env.ChatID = entry.ID
	if len(entry.Changes) == 0 {
		return inbound
	}

	value := entry.Changes[0].Value
	inbound.PhoneNumberID = value.Metadata.PhoneNumberID
	env.To = value.Metadata.DisplayPhoneNumber

	if len(value.Contacts) > 0 {
		env.From = value.Contacts[0].WaID
		env.FromName = value.Contacts[0].Profile.Name
	}
	if len(value.Messages) == 0 {
		return inbound
	}

	msg := value.Messages[0]
	if env.From == "" {
		env.From = msg.From
	}
	env.MessageID = msg.ID
	env.Type = msg.Type
	if msg.Text != nil {
		env.Body = msg.Text.Body
	}
	if msg.Type != "interactive" || msg.Interactive == nil {
		return inbound
	}

	// Button-style and list-style replies both collapse onto the same
	// id/title pair so downstream logic stays provider-agnostic.
	var reply *ReplyOption
	switch msg.Interactive.Type {
	case "button_reply":
		reply = msg.Interactive.ButtonReply
	case "list_reply":
		reply = msg.Interactive.ListReply
	}
	if reply != nil {
		env.Body = reply.Title
		env.ButtonID = reply.ID
	}
	return inbound
}
