package whatsapp

import (
	"github.com/openpoke/decidim-module-chatbot/internal/chat"
)

// Pure outbound envelope construction. No I/O happens here; only the
// client performs the send.

func (m *TextMessage) Kind() chat.MessageKind { return chat.MessageText }
func (m *TextMessage) Payload() any           { return m }

func (m *InteractiveMessage) Kind() chat.MessageKind {
	if m.Interactive.Type == "carousel" {
		return chat.MessageInteractiveCarousel
	}
	return chat.MessageInteractiveButtons
}
func (m *InteractiveMessage) Payload() any { return m }

func (m *ReadReceiptMessage) Kind() chat.MessageKind { return chat.MessageReadReceipt }
func (m *ReadReceiptMessage) Payload() any           { return m }

// NewText builds a plain text envelope.
func NewText(to string, data chat.MessageData) *TextMessage {
	return &TextMessage{
		MessagingProduct: messagingProduct,
		RecipientType:    recipientKind,
		To:               to,
		Type:             "text",
		Text:             TextBody{Body: data.Body},
	}
}

// NewInteractiveButtons builds a button prompt. The header is text or
// image, omitted entirely when neither is supplied; the footer is omitted
// when blank; input buttons map 1:1 onto reply buttons in order.
func NewInteractiveButtons(to string, data chat.MessageData) *InteractiveMessage {
	buttons := make([]ReplyButton, 0, len(data.Buttons))
	for _, b := range data.Buttons {
		buttons = append(buttons, ReplyButton{
			Type:  "reply",
			Reply: ButtonReply{ID: b.ID, Title: b.Title},
		})
	}

	body := InteractiveBody{
		Type:   "button",
		Body:   &InteractiveText{Text: data.BodyText},
		Action: InteractiveAction{Buttons: buttons},
	}
	switch {
	case data.HeaderText != "":
		body.Header = &InteractiveHeader{Type: "text", Text: data.HeaderText}
	case data.HeaderImageURL != "":
		body.Header = &InteractiveHeader{Type: "image", Image: &MediaLink{Link: data.HeaderImageURL}}
	}
	if data.FooterText != "" {
		body.Footer = &InteractiveText{Text: data.FooterText}
	}

	return &InteractiveMessage{
		MessagingProduct: messagingProduct,
		RecipientType:    recipientKind,
		To:               to,
		Type:             "interactive",
		Interactive:      body,
	}
}

// NewInteractiveCarousel builds a card carousel. Card indexes are assigned
// by position starting at zero; a card body is omitted when blank.
func NewInteractiveCarousel(to string, data chat.MessageData) *InteractiveMessage {
	cards := make([]CarouselCard, 0, len(data.Cards))
	for i, c := range data.Cards {
		card := CarouselCard{
			CardIndex: i,
			Type:      "cta_url",
			Header:    InteractiveHeader{Type: "image", Image: &MediaLink{Link: c.ImageURL}},
			Action: CardAction{
				Name:       "cta_url",
				Parameters: CTAParameters{DisplayText: c.URLTitle, URL: c.URL},
			},
		}
		if c.BodyText != "" {
			card.Body = &InteractiveText{Text: c.BodyText}
		}
		cards = append(cards, card)
	}

	return &InteractiveMessage{
		MessagingProduct: messagingProduct,
		RecipientType:    recipientKind,
		To:               to,
		Type:             "interactive",
		Interactive: InteractiveBody{
			Type:   "carousel",
			Body:   &InteractiveText{Text: data.BodyText},
			Action: InteractiveAction{Cards: cards},
		},
	}
}

// NewReadReceipt builds a read acknowledgment for an inbound message.
func NewReadReceipt(data chat.MessageData) *ReadReceiptMessage {
	return &ReadReceiptMessage{
		MessagingProduct: messagingProduct,
		Status:           "read",
		MessageID:        data.MessageID,
	}
}
