package instagram

import (
	"encoding/json"

	"github.com/openpoke/decidim-module-chatbot/internal/chat"
)

// Normalize turns a raw webhook payload into the canonical envelope.
// It never fails: malformed or partial payloads (delivery and read events
// carry no user message) yield an envelope with the affected fields left
// empty. Only the first entry and its first messaging event are processed.
func Normalize(payload []byte) *chat.Envelope {
	env := &chat.Envelope{}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil || len(event.Entry) == 0 {
		return env
	}

	entry := event.Entry[0]
	env.ChatID = entry.ID
	if len(entry.Messaging) == 0 {
		return env
	}

	m := entry.Messaging[0]
	env.From = m.Sender.ID
	env.To = m.Recipient.ID

	switch {
	case m.Message != nil:
		env.MessageID = m.Message.MID
		env.Body = m.Message.Text
		env.Type = "text"
	case m.Postback != nil:
		// Postbacks carry the tapped button's payload as the stable id.
		env.MessageID = m.Postback.MID
		env.Body = m.Postback.Title
		env.ButtonID = m.Postback.Payload
		env.Type = "interactive"
	default:
		env.From = ""
	}
	return env
}
