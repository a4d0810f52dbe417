package whatsapp

// Inbound webhook payload, as posted by the WhatsApp Cloud API.

// WebhookPayload is the top-level structure received from Meta's webhook.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry represents a single entry in the webhook payload.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change wraps one value object per changed field.
type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

// Value carries the business payload: metadata about the receiving number,
// contacts, user messages and delivery statuses.
type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         Metadata  `json:"metadata"`
	Contacts         []Contact `json:"contacts"`
	Messages         []Message `json:"messages"`
	Statuses         []Status  `json:"statuses"`
}

// Metadata identifies the business phone number the message was sent to.
type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// Contact describes the remote user.
type Contact struct {
	WaID    string  `json:"wa_id"`
	Profile Profile `json:"profile"`
}

// Profile carries the user's display name.
type Profile struct {
	Name string `json:"name"`
}

// Message is one inbound user message.
type Message struct {
	From        string       `json:"from"`
	ID          string       `json:"id"`
	Timestamp   string       `json:"timestamp"`
	Type        string       `json:"type"`
	Text        *TextContent `json:"text,omitempty"`
	Interactive *Interactive `json:"interactive,omitempty"`
}

// TextContent is the body of a text message.
type TextContent struct {
	Body string `json:"body"`
}

// Interactive is a button or list selection. Both sub-kinds carry the same
// id/title pair.
type Interactive struct {
	Type        string       `json:"type"`
	ButtonReply *ReplyOption `json:"button_reply,omitempty"`
	ListReply   *ReplyOption `json:"list_reply,omitempty"`
}

// ReplyOption is the selected button or list row.
type ReplyOption struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Status is a delivery/read receipt for an outbound message.
type Status struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Outbound message bodies, as accepted by POST /{phone_number_id}/messages.

const (
	messagingProduct = "whatsapp"
	recipientKind    = "individual"
)

// TextMessage is a plain text send.
type TextMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             TextBody `json:"text"`
}

// TextBody wraps the message body.
type TextBody struct {
	Body string `json:"body"`
}

// InteractiveMessage is a button prompt or a carousel.
type InteractiveMessage struct {
	MessagingProduct string          `json:"messaging_product"`
	RecipientType    string          `json:"recipient_type"`
	To               string          `json:"to"`
	Type             string          `json:"type"`
	Interactive      InteractiveBody `json:"interactive"`
}

// InteractiveBody is the interactive section of an outbound message.
type InteractiveBody struct {
	Type   string             `json:"type"`
	Header *InteractiveHeader `json:"header,omitempty"`
	Body   *InteractiveText   `json:"body,omitempty"`
	Footer *InteractiveText   `json:"footer,omitempty"`
	Action InteractiveAction  `json:"action"`
}

// InteractiveHeader is either a text header or an image header.
type InteractiveHeader struct {
	Type  string     `json:"type"`
	Text  string     `json:"text,omitempty"`
	Image *MediaLink `json:"image,omitempty"`
}

// MediaLink references hosted media by URL.
type MediaLink struct {
	Link string `json:"link"`
}

// InteractiveText wraps a text fragment.
type InteractiveText struct {
	Text string `json:"text"`
}

// InteractiveAction carries the reply buttons or carousel cards.
type InteractiveAction struct {
	Buttons []ReplyButton  `json:"buttons,omitempty"`
	Cards   []CarouselCard `json:"cards,omitempty"`
}

// ReplyButton is one tappable reply button.
type ReplyButton struct {
	Type  string      `json:"type"`
	Reply ButtonReply `json:"reply"`
}

// ButtonReply is the id/title pair echoed back on tap.
type ButtonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// CarouselCard is one card of an interactive carousel.
type CarouselCard struct {
	CardIndex int               `json:"card_index"`
	Type      string            `json:"type"`
	Header    InteractiveHeader `json:"header"`
	Body      *InteractiveText  `json:"body,omitempty"`
	Action    CardAction        `json:"action"`
}

// CardAction opens a URL from a carousel card.
type CardAction struct {
	Name       string        `json:"name"`
	Parameters CTAParameters `json:"parameters"`
}

// CTAParameters label the card link.
type CTAParameters struct {
	DisplayText string `json:"display_text"`
	URL         string `json:"url"`
}

// ReadReceiptMessage acknowledges an inbound message. It addresses the
// message, not the user, so it carries no recipient.
type ReadReceiptMessage struct {
	MessagingProduct string `json:"messaging_product"`
	Status           string `json:"status"`
	MessageID        string `json:"message_id"`
}

// APIResponse is the Graph API response after a send.
type APIResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *APIError `json:"error,omitempty"`
}

// APIError is an error object returned by the Graph API.
type APIError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	FBTraceID string `json:"fbtrace_id"`
}
