// Package instagram implements the Instagram DM channel: webhook
// handshake verification, payload signature checks, inbound normalization
// and outbound delivery through the Meta Graph API messaging endpoint.
package instagram

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/openpoke/decidim-module-chatbot/internal/chat"
	"github.com/openpoke/decidim-module-chatbot/internal/observability/metrics"
	"github.com/openpoke/decidim-module-chatbot/pkg/logging"
)

// ProviderName is the registry key for this channel.
const ProviderName = "instagram"

// Config carries the channel-level settings shared by all adapters built
// from the same factory.
type Config struct {
	VerifyToken     string
	AppSecret       string
	PageAccessToken string
	GraphAPIURL     string
	HTTPTimeout     time.Duration
	Logger          *logging.Logger
	Metrics         *metrics.WebhookMetrics
}

// Adapter serves a single webhook request: it parses the inbound payload
// lazily and routes outbound calls to the Graph API.
type Adapter struct {
	cfg     Config
	setting chat.SettingRecord
	payload []byte
	client  *Client

	once    sync.Once
	inbound *chat.Envelope
}

// Factory returns a chat.AdapterFactory wired with the given channel
// configuration.
func Factory(cfg Config) chat.AdapterFactory {
	return func(setting chat.SettingRecord, payload []byte) chat.Adapter {
		client := NewClient(cfg.PageAccessToken, cfg.HTTPTimeout)
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

// VerifySignature checks the X-Hub-Signature-256 header against the raw
// payload. The check is skipped when no app secret is configured.
func (a *Adapter) VerifySignature(payload []byte, signature string) error {
	if a.cfg.AppSecret == "" {
		return nil
	}

	const prefix = "sha256="
	if !strings.HasPrefix(signature, prefix) {
		return chat.ErrVerificationFailed
	}
	sigHex := signature[len(prefix):]

	mac := hmac.New(sha256.New, []byte(a.cfg.AppSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(sigHex)) {
		return chat.ErrVerificationFailed
	}
	return nil
}

// ReceivedMessage returns the normalized envelope for the request payload.
func (a *Adapter) ReceivedMessage() *chat.Envelope {
	a.once.Do(func() {
		a.inbound = Normalize(a.payload)
	})
	return a.inbound
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
		return NewMarkSeen(to), nil
	default:
		return nil, fmt.Errorf("%w: %q", chat.ErrUnknownMessageType, kind)
	}
}

// Send posts an outbound envelope to the Graph API.
func (a *Adapter) Send(ctx context.Context, msg chat.Outbound) error {
	_, err := a.client.Post(ctx, msg.Payload())
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

// MarkAsRead acknowledges the conversation at the provider. Instagram has
// no per-message receipt; mark_seen targets the inbound sender.
func (a *Adapter) MarkAsRead(ctx context.Context, messageID string) error {
	env := a.ReceivedMessage()
	msg, err := a.BuildMessage(chat.MessageReadReceipt, env.From, chat.MessageData{MessageID: messageID})
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
