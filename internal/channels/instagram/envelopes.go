package instagram

import (
	"strings"

	"github.com/openpoke/decidim-module-chatbot/internal/chat"
)

// Pure outbound envelope construction. No I/O happens here; only the
// client performs the send.

type TextMessage struct{ SendRequest }

func (m *TextMessage) Kind() chat.MessageKind { return chat.MessageText }
func (m *TextMessage) Payload() any           { return m }

type ButtonTemplateMessage struct{ SendRequest }

func (m *ButtonTemplateMessage) Kind() chat.MessageKind { return chat.MessageInteractiveButtons }
func (m *ButtonTemplateMessage) Payload() any           { return m }

type GenericTemplateMessage struct{ SendRequest }

func (m *GenericTemplateMessage) Kind() chat.MessageKind { return chat.MessageInteractiveCarousel }
func (m *GenericTemplateMessage) Payload() any           { return m }

type MarkSeenMessage struct{ SendRequest }

func (m *MarkSeenMessage) Kind() chat.MessageKind { return chat.MessageReadReceipt }
func (m *MarkSeenMessage) Payload() any           { return m }

// NewText builds a plain text envelope.
func NewText(to string, data chat.MessageData) *TextMessage {
	return &TextMessage{SendRequest{
		Recipient: SendRecipient{ID: to},
		Message:   &SendMessage{Text: data.Body},
	}}
}

// NewInteractiveButtons builds a button template prompt. Messenger-style
// templates have no separate header or footer, so the sections collapse
// into the template text; input buttons map onto postback buttons in
// order.
func NewInteractiveButtons(to string, data chat.MessageData) *ButtonTemplateMessage {
	buttons := make([]Button, 0, len(data.Buttons))
	for _, b := range data.Buttons {
		buttons = append(buttons, Button{
			Type:    "postback",
			Title:   b.Title,
			Payload: b.ID,
		})
	}

	return &ButtonTemplateMessage{SendRequest{
		Recipient: SendRecipient{ID: to},
		Message: &SendMessage{
			Attachment: &Attachment{
				Type: "template",
				Payload: Payload{
					TemplateType: "button",
					Text:         joinSections(data.HeaderText, data.BodyText, data.FooterText),
					Buttons:      buttons,
				},
			},
		},
	}}
}

// NewInteractiveCarousel builds a generic template carousel. Each card
// becomes one element with a web_url button when the card carries a link.
func NewInteractiveCarousel(to string, data chat.MessageData) *GenericTemplateMessage {
	elements := make([]Element, 0, len(data.Cards))
	for _, c := range data.Cards {
		el := Element{
			Title:    c.BodyText,
			ImageURL: c.ImageURL,
		}
		if el.Title == "" {
			el.Title = c.URLTitle
		}
		if c.URL != "" {
			el.Buttons = []Button{{Type: "web_url", Title: c.URLTitle, URL: c.URL}}
		}
		elements = append(elements, el)
	}

	return &GenericTemplateMessage{SendRequest{
		Recipient: SendRecipient{ID: to},
		Message: &SendMessage{
			Attachment: &Attachment{
				Type: "template",
				Payload: Payload{
					TemplateType: "generic",
					Elements:     elements,
				},
			},
		},
	}}
}

// NewMarkSeen builds a mark_seen sender action for the conversation with
// the given user.
func NewMarkSeen(to string) *MarkSeenMessage {
	return &MarkSeenMessage{SendRequest{
		Recipient:    SendRecipient{ID: to},
		SenderAction: "mark_seen",
	}}
}

func joinSections(sections ...string) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}
