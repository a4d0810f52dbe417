package chat

import (
	"context"
	"fmt"
	"net/url"
	"sort"
)

// MessageKind identifies an outbound envelope variant.
type MessageKind string

const (
	MessageText                MessageKind = "text"
	MessageInteractiveButtons  MessageKind = "interactive_buttons"
	MessageInteractiveCarousel MessageKind = "interactive_carousel"
	MessageReadReceipt         MessageKind = "read_receipt"
)

// Button is one reply button of an interactive message, order preserved.
type Button struct {
	ID    string
	Title string
}

// Card is one carousel card; its index is assigned by position.
type Card struct {
	ImageURL string
	BodyText string
	URLTitle string
	URL      string
}

// MessageData carries the provider-agnostic content of an outbound message.
// Builders pick the fields relevant to the requested kind.
type MessageData struct {
	Body           string
	HeaderText     string
	HeaderImageURL string
	BodyText       string
	FooterText     string
	Buttons        []Button
	Cards          []Card
	MessageID      string
}

// Outbound is a fully built provider message body, ready to send.
type Outbound interface {
	Kind() MessageKind
	// Payload returns the wire representation to be serialized as the
	// request body.
	Payload() any
}

// Adapter is the per-request provider boundary: handshake verification,
// inbound normalization and outbound transport. Adapters hold no
// persistence state; one instance serves one webhook request.
type Adapter interface {
	// Verify checks a webhook subscription handshake and returns the
	// challenge to echo, or ErrVerificationFailed.
	Verify(params url.Values) (string, error)

	// ReceivedMessage returns the normalized inbound envelope. The payload
	// is parsed lazily and memoized for the life of the adapter.
	ReceivedMessage() *Envelope

	// BuildMessage constructs a typed outbound envelope. An unrecognized
	// kind is a configuration error, never silently dropped.
	BuildMessage(kind MessageKind, to string, data MessageData) (Outbound, error)

	// Send performs the outbound provider call.
	Send(ctx context.Context, msg Outbound) error

	// MarkAsRead acknowledges an inbound message at the provider.
	MarkAsRead(ctx context.Context, messageID string) error

	// SendText builds and sends a plain text message to the inbound sender.
	SendText(ctx context.Context, body string) error
}

// SignedPayloadVerifier is implemented by adapters whose provider signs
// webhook payloads. The processor enforces the check before any payload
// is parsed or persisted.
type SignedPayloadVerifier interface {
	// VerifySignature checks the provider signature header against the raw
	// payload, returning ErrVerificationFailed on mismatch.
	VerifySignature(payload []byte, signature string) error
}

// AdapterFactory builds a request-scoped adapter for a Setting and a raw
// webhook payload.
type AdapterFactory func(setting SettingRecord, payload []byte) Adapter

// ProviderRegistry maps provider names to adapter factories. It is an
// explicitly constructed, injected object so tests can assemble isolated
// engines.
type ProviderRegistry struct {
	factories map[string]AdapterFactory
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{factories: make(map[string]AdapterFactory)}
}

func (r *ProviderRegistry) Register(name string, factory AdapterFactory) {
	r.factories[name] = factory
}

// New instantiates an adapter for the named provider.
func (r *ProviderRegistry) New(name string, setting SettingRecord, payload []byte) (Adapter, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return factory(setting, payload), nil
}

// Names lists the registered provider names, sorted.
func (r *ProviderRegistry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
