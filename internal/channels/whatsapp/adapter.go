// Package whatsapp implements the WhatsApp Cloud API channel: webhook
// handshake verification, inbound payload normalization and outbound
// message delivery through the Graph API.
package whatsapp

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/openpoke/decidim-module-chatbot/internal/chat"
	"github.com/openpoke/decidim-module-chatbot/internal/observability/metrics"
	"github.com/openpoke/decidim-module-chatbot/pkg/logging"
)

// ProviderName is the registry key for this channel.
const ProviderName = "whatsapp"

// Config carries the channel-level settings shared by all adapters built
// from the same factory.
type Config struct {
	VerifyToken string
	AccessToken string
	GraphAPIURL string
	HTTPTimeout time.Duration
	Logger      *logging.Logger
	Metrics     *metrics.WebhookMetrics
}

// Adapter serves a single webhook request: it parses the inbound payload
// lazily and routes outbound calls to the Graph API.
type Adapter struct {
	cfg     Config
	setting chat.SettingRecord
	payload []byte
	client  *Client

	once    sync.Once
	inbound Inbound
}

// Factory returns a chat.AdapterFactory wired with the given channel
// configuration.
func Factory(cfg Config) chat.AdapterFactory {
	return func(setting chat.SettingRecord, payload []byte) chat.Adapter {
		client := NewClient(cfg.AccessToken, cfg.HTTPTimeout)
		client.SetGraphAPIBase(cfg.GraphAPIURL)
		return &Adapter{cfg: cfg, setting: setting, payload: payload, client: client}
	}
}

// Verify checks the Meta webhook subscription handshake. The token
// comparison is constant-time and an empty configured token always fails.
func (a *Adapter) Verify(params url.Values) (string, error) {
	mode := params.Get("hub.mode")
	token := params.Get("hub.verify_token")
	challenge := params.Get("hub.challenge")

	if mode != "subscribe" || a.cfg.VerifyToken == "" {
		return "", chat.ErrVerificationFailed
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.cfg.VerifyToken)) != 1 {
		return "", chat.ErrVerificationFailed
	}
	return challenge, nil
}

// ReceivedMessage returns the normalized envelope for the request payload.
func (a *Adapter) ReceivedMessage() *chat.Envelope {
	a.once.Do(func() {
		a.inbound = Normalize(a.payload)
	})
	return a.inbound.Envelope
}

// BuildMessage constructs an outbound envelope of the requested kind.
func (a *Adapter) BuildMessage(kind chat.MessageKind, to string, data chat.MessageData) (chat.Outbound, error) {
	switch kind {
	case chat.MessageText:
		return NewText(to, data), nil
	case chat.MessageInteractiveButtons:
		return NewInteractiveButtons(to, data), nil
	case chat.MessageInteractiveCarousel:
		return NewInteractiveCarousel(to, data), nil
	case chat.MessageReadReceipt:
		return NewReadReceipt(data), nil
	default:
		return nil, fmt.Errorf("%w: %q", chat.ErrUnknownMessageType, kind)
	}
}

// Send posts an outbound envelope to the Graph API. The business phone
// number comes from the inbound payload's metadata.
func (a *Adapter) Send(ctx context.Context, msg chat.Outbound) error {
	a.ReceivedMessage()
	_, err := a.client.Post(ctx, a.inbound.PhoneNumberID, msg.Payload())
	if err != nil {
		a.cfg.Metrics.ObserveOutbound(ProviderName, string(msg.Kind()), "failed")
		if a.cfg.Logger != nil {
			a.cfg.Logger.Warn("outbound send failed", "provider", ProviderName, "kind", string(msg.Kind()), "error", err)
		}
		return &chat.TransportError{Provider: ProviderName, Err: err}
	}
	a.cfg.Metrics.ObserveOutbound(ProviderName, string(msg.Kind()), "sent")
	return nil
}

// MarkAsRead acknowledges an inbound message at the provider.
func (a *Adapter) MarkAsRead(ctx context.Context, messageID string) error {
	msg, err := a.BuildMessage(chat.MessageReadReceipt, "", chat.MessageData{MessageID: messageID})
	if err != nil {
		return err
	}
	return a.Send(ctx, msg)
}

// SendText builds and sends a plain text message back to the inbound
// sender.
func (a *Adapter) SendText(ctx context.Context, body string) error {
	env := a.ReceivedMessage()
	msg, err := a.BuildMessage(chat.MessageText, env.From, chat.MessageData{Body: body})
	if err != nil {
		return err
	}
	return a.Send(ctx, msg)
}
