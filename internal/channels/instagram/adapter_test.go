package instagram

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/openpoke/decidim-module-chatbot/internal/chat"
)

func newTestAdapter(t *testing.T, cfg Config, payload string) *Adapter {
	t.Helper()
	factory := Factory(cfg)
	return factory(chat.SettingRecord{}, []byte(payload)).(*Adapter)
}

func signPayload(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyChallenge(t *testing.T) {
	adapter := newTestAdapter(t, Config{VerifyToken: "secret"}, "")
	params := url.Values{
		"hub.mode":         {"subscribe"},
		"hub.verify_token": {"secret"},
		"hub.challenge":    {"abc123"},
	}

	challenge, err := adapter.Verify(params)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if challenge != "abc123" {
		t.Fatalf("expected challenge echoed, got %q", challenge)
	}
}

func TestVerifyRejections(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		params url.Values
	}{
		{
			name:  "wrong token",
			token: "secret",
			params: url.Values{
				"hub.mode":         {"subscribe"},
				"hub.verify_token": {"wrong"},
			},
		},
		{
			name:  "wrong mode",
			token: "secret",
			params: url.Values{
				"hub.mode":         {"unsubscribe"},
				"hub.verify_token": {"secret"},
			},
		},
		{
			name:  "empty configured token",
			token: "",
			params: url.Values{
				"hub.mode":         {"subscribe"},
				"hub.verify_token": {""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := newTestAdapter(t, Config{VerifyToken: tt.token}, "")
			if _, err := adapter.Verify(tt.params); !errors.Is(err, chat.ErrVerificationFailed) {
				t.Fatalf("expected ErrVerificationFailed, got %v", err)
			}
		})
	}
}

func TestVerifySignature(t *testing.T) {
	adapter := newTestAdapter(t, Config{AppSecret: "app-secret"}, textPayload)

	valid := signPayload("app-secret", textPayload)
	if err := adapter.VerifySignature([]byte(textPayload), valid); err != nil {
		t.Fatalf("expected valid signature accepted, got %v", err)
	}
}

func TestVerifySignatureRejections(t *testing.T) {
	adapter := newTestAdapter(t, Config{AppSecret: "app-secret"}, textPayload)

	tests := []struct {
		name      string
		signature string
	}{
		{"missing header", ""},
		{"missing prefix", "deadbeef"},
		{"wrong secret", signPayload("other-secret", textPayload)},
		{"tampered payload", signPayload("app-secret", textPayload+" ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := adapter.VerifySignature([]byte(textPayload), tt.signature); !errors.Is(err, chat.ErrVerificationFailed) {
				t.Fatalf("expected ErrVerificationFailed, got %v", err)
			}
		})
	}
}

func TestVerifySignatureSkippedWithoutSecret(t *testing.T) {
	adapter := newTestAdapter(t, Config{}, textPayload)
	if err := adapter.VerifySignature([]byte(textPayload), ""); err != nil {
		t.Fatalf("expected check skipped, got %v", err)
	}
}

func TestReceivedMessageMemoized(t *testing.T) {
	adapter := newTestAdapter(t, Config{}, textPayload)

	first := adapter.ReceivedMessage()
	second := adapter.ReceivedMessage()
	if first != second {
		t.Fatal("expected the same envelope instance on repeat calls")
	}
	if first.Body != "hello" {
		t.Fatalf("expected parsed body, got %q", first.Body)
	}
}

func TestBuildMessageUnknownKind(t *testing.T) {
	adapter := newTestAdapter(t, Config{}, "")
	if _, err := adapter.BuildMessage("sticker", "891234", chat.MessageData{}); !errors.Is(err, chat.ErrUnknownMessageType) {
		t.Fatalf("expected ErrUnknownMessageType, got %v", err)
	}
}

func TestSendPostsToGraphAPI(t *testing.T) {
	var gotPath string
	var gotBody SendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"recipient_id":"891234","message_id":"mid.out"}`))
	}))
	defer server.Close()

	adapter := newTestAdapter(t, Config{PageAccessToken: "token", GraphAPIURL: server.URL}, textPayload)
	msg, err := adapter.BuildMessage(chat.MessageText, "891234", chat.MessageData{Body: "hi"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := adapter.Send(context.Background(), msg); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotPath != "/me/messages" {
		t.Fatalf("expected the page messages endpoint, got %q", gotPath)
	}
	if gotBody.Message == nil || gotBody.Message.Text != "hi" {
		t.Fatalf("unexpected request body: %+v", gotBody)
	}
}

func TestSendWrapsAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad token","type":"OAuthException","code":190}}`))
	}))
	defer server.Close()

	adapter := newTestAdapter(t, Config{PageAccessToken: "token", GraphAPIURL: server.URL}, textPayload)
	msg, _ := adapter.BuildMessage(chat.MessageText, "891234", chat.MessageData{Body: "hi"})

	err := adapter.Send(context.Background(), msg)
	var transportErr *chat.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if transportErr.Provider != "instagram" {
		t.Fatalf("expected provider tagged, got %q", transportErr.Provider)
	}
}

func TestMarkAsRead(t *testing.T) {
	var gotBody SendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	adapter := newTestAdapter(t, Config{PageAccessToken: "token", GraphAPIURL: server.URL}, textPayload)
	if err := adapter.MarkAsRead(context.Background(), "mid.abc123"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotBody.SenderAction != "mark_seen" {
		t.Fatalf("expected mark_seen action, got %q", gotBody.SenderAction)
	}
	if gotBody.Recipient.ID != "8912345600000001" {
		t.Fatalf("expected the inbound sender acknowledged, got %q", gotBody.Recipient.ID)
	}
}

func TestSendTextRepliesToSender(t *testing.T) {
	var gotBody SendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	adapter := newTestAdapter(t, Config{PageAccessToken: "token", GraphAPIURL: server.URL}, textPayload)
	if err := adapter.SendText(context.Background(), "thanks"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotBody.Recipient.ID != "8912345600000001" {
		t.Fatalf("expected reply to inbound sender, got %q", gotBody.Recipient.ID)
	}
	if gotBody.Message == nil || gotBody.Message.Text != "thanks" {
		t.Fatalf("unexpected body: %+v", gotBody)
	}
}
