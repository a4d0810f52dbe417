package handlers_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/openpoke/decidim-module-chatbot/internal/api/router"
	"github.com/openpoke/decidim-module-chatbot/internal/channels/instagram"
	"github.com/openpoke/decidim-module-chatbot/internal/channels/whatsapp"
	"github.com/openpoke/decidim-module-chatbot/internal/chat"
	"github.com/openpoke/decidim-module-chatbot/internal/http/handlers"
	"github.com/openpoke/decidim-module-chatbot/internal/workflows"
)

const inboundText = `{
  "entry": [{
    "id": "entry-1",
    "changes": [{
      "field": "messages",
      "value": {
        "metadata": {"display_phone_number": "15550000000", "phone_number_id": "phone-1"},
        "contacts": [{"wa_id": "34600000000", "profile": {"name": "Alice"}}],
        "messages": [{"from": "34600000000", "id": "wamid.1", "type": "text", "text": {"body": "hello"}}]
      }
    }]
  }]
}`

type stubStore struct {
	mu       sync.Mutex
	setting  chat.SettingRecord
	found    bool
	created  bool
	reads    int
	cleared  int
	setCalls int
}

func (s *stubStore) FindSetting(ctx context.Context, orgID uuid.UUID, provider string) (chat.SettingRecord, error) {
	if !s.found {
		return chat.SettingRecord{}, chat.ErrSettingNotFound
	}
	return s.setting, nil
}

func (s *stubStore) FindOrCreateSender(ctx context.Context, setting chat.SettingRecord, env *chat.Envelope) (chat.SenderRecord, error) {
	return chat.SenderRecord{ID: uuid.New()}, nil
}

func (s *stubStore) FindOrCreateMessage(ctx context.Context, setting chat.SettingRecord, sender chat.SenderRecord, env *chat.Envelope) (chat.MessageRecord, bool, error) {
	return chat.MessageRecord{ID: uuid.New()}, s.created, nil
}

func (s *stubStore) MarkMessageRead(ctx context.Context, messageID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	return nil
}

func (s *stubStore) SetWorkflow(ctx context.Context, senderID uuid.UUID, current, parent string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCalls++
	return nil
}

func (s *stubStore) ClearWorkflow(ctx context.Context, senderID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared++
	return nil
}

type recordedRequest struct {
	path string
	body string
}

func newTestServer(t *testing.T, store *stubStore) (http.Handler, *[]recordedRequest) {
	t.Helper()

	var requests []recordedRequest
	var mu sync.Mutex
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read graph request: %v", err)
		}
		mu.Lock()
		requests = append(requests, recordedRequest{path: r.URL.Path, body: string(body)})
		mu.Unlock()
		w.Write([]byte(`{"messages":[{"id":"wamid.out"}]}`))
	}))
	t.Cleanup(graph.Close)

	providers := chat.NewProviderRegistry()
	providers.Register(whatsapp.ProviderName, whatsapp.Factory(whatsapp.Config{
		VerifyToken: "secret",
		AccessToken: "token",
		GraphAPIURL: graph.URL,
	}))
	providers.Register(instagram.ProviderName, instagram.Factory(instagram.Config{
		VerifyToken:     "secret",
		AppSecret:       "app-secret",
		PageAccessToken: "token",
		GraphAPIURL:     graph.URL,
	}))

	registry := chat.NewWorkflowRegistry()
	workflows.Register(registry, workflows.Deps{})

	processor := chat.NewProcessor(store, providers, registry, nil, workflows.Messages(), nil)
	handler := handlers.NewWebhookHandler(processor, nil, nil)
	return router.New(&router.Config{Webhooks: handler}), &requests
}

func greetingSetting() chat.SettingRecord {
	return chat.SettingRecord{
		ID:            uuid.New(),
		Provider:      whatsapp.ProviderName,
		StartWorkflow: workflows.GreetingsName,
		Enabled:       true,
	}
}

func TestHandleVerifyEchoesChallenge(t *testing.T) {
	store := &stubStore{found: true, setting: greetingSetting()}
	srv, _ := newTestServer(t, store)

	orgID := uuid.New()
	url := "/chatbot/webhooks/" + orgID.String() + "/whatsapp?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=abc123"
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "abc123" {
		t.Fatalf("expected challenge echoed, got %q", rec.Body.String())
	}
}

func TestHandleVerifyWrongToken(t *testing.T) {
	store := &stubStore{found: true, setting: greetingSetting()}
	srv, _ := newTestServer(t, store)

	url := "/chatbot/webhooks/" + uuid.New().String() + "/whatsapp?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=abc123"
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestHandleVerifyUnconfiguredPair(t *testing.T) {
	srv, _ := newTestServer(t, &stubStore{})

	url := "/chatbot/webhooks/" + uuid.New().String() + "/whatsapp?hub.mode=subscribe&hub.verify_token=secret"
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rec.Code)
	}
}

func TestHandleVerifyBadOrganizationID(t *testing.T) {
	srv, _ := newTestServer(t, &stubStore{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chatbot/webhooks/not-a-uuid/whatsapp", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleReceiveProcessesMessage(t *testing.T) {
	store := &stubStore{found: true, created: true, setting: greetingSetting()}
	srv, requests := newTestServer(t, store)

	url := "/chatbot/webhooks/" + uuid.New().String() + "/whatsapp"
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, url, strings.NewReader(inboundText)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	// One read receipt plus the echo reply, both to the business number.
	if len(*requests) != 2 {
		t.Fatalf("expected 2 provider calls, got %d", len(*requests))
	}
	for _, req := range *requests {
		if req.path != "/phone-1/messages" {
			t.Fatalf("unexpected provider path %q", req.path)
		}
	}
	if !strings.Contains((*requests)[1].body, "hello") {
		t.Fatalf("expected echo reply, got %q", (*requests)[1].body)
	}
	if store.reads != 1 {
		t.Fatalf("expected read_at stamped once, got %d", store.reads)
	}
}

func TestHandleReceiveDuplicateAcknowledgedWithoutDispatch(t *testing.T) {
	store := &stubStore{found: true, created: false, setting: greetingSetting()}
	srv, requests := newTestServer(t, store)

	url := "/chatbot/webhooks/" + uuid.New().String() + "/whatsapp"
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, url, strings.NewReader(inboundText)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on redelivery, got %d", rec.Code)
	}
	if len(*requests) != 0 {
		t.Fatalf("expected no provider calls on redelivery, got %d", len(*requests))
	}
}

func TestHandleReceiveUnconfiguredPair(t *testing.T) {
	srv, _ := newTestServer(t, &stubStore{})

	url := "/chatbot/webhooks/" + uuid.New().String() + "/whatsapp"
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, url, strings.NewReader(inboundText)))

	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rec.Code)
	}
}

const inboundDM = `{"object":"instagram","entry":[{"id":"17840001","messaging":[{"sender":{"id":"8900001"},"recipient":{"id":"17840001"},"message":{"mid":"mid.1","text":"hola"}}]}]}`

func signBody(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestHandleReceiveSignedPayload(t *testing.T) {
	setting := greetingSetting()
	setting.Provider = instagram.ProviderName
	store := &stubStore{found: true, created: true, setting: setting}
	srv, requests := newTestServer(t, store)

	url := "/chatbot/webhooks/" + uuid.New().String() + "/instagram"
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(inboundDM))
	req.Header.Set("X-Hub-Signature-256", signBody("app-secret", inboundDM))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	// One mark_seen plus the echo reply, both to the page endpoint.
	if len(*requests) != 2 {
		t.Fatalf("expected 2 provider calls, got %d", len(*requests))
	}
	for _, req := range *requests {
		if req.path != "/me/messages" {
			t.Fatalf("unexpected provider path %q", req.path)
		}
	}
	if !strings.Contains((*requests)[1].body, "hola") {
		t.Fatalf("expected echo reply, got %q", (*requests)[1].body)
	}
}

func TestHandleReceiveBadSignatureRejected(t *testing.T) {
	setting := greetingSetting()
	setting.Provider = instagram.ProviderName
	store := &stubStore{found: true, created: true, setting: setting}
	srv, requests := newTestServer(t, store)

	url := "/chatbot/webhooks/" + uuid.New().String() + "/instagram"
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(inboundDM))
	req.Header.Set("X-Hub-Signature-256", "sha256=bogus")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(*requests) != 0 {
		t.Fatalf("expected no provider calls on rejected signature, got %d", len(*requests))
	}
}

func TestHandleReceiveStatusPayloadIgnored(t *testing.T) {
	store := &stubStore{found: true, setting: greetingSetting()}
	srv, requests := newTestServer(t, store)

	status := `{"entry":[{"id":"entry-1","changes":[{"field":"messages","value":{"statuses":[{"id":"wamid.out","status":"read"}]}}]}]}`
	url := "/chatbot/webhooks/" + uuid.New().String() + "/whatsapp"
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, url, strings.NewReader(status)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(*requests) != 0 {
		t.Fatalf("expected no provider calls for a status payload, got %d", len(*requests))
	}
}

func TestHealthCheck(t *testing.T) {
	srv, _ := newTestServer(t, &stubStore{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}
