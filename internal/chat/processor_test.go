package chat

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/google/uuid"
)

type staticLocale string

func (s staticLocale) SenderLocale(ctx context.Context, setting SettingRecord, sender SenderRecord) string {
	return string(s)
}

func newTestProcessor(store *fakeStore, adapter *fakeAdapter, wf Workflow) *Processor {
	providers := NewProviderRegistry()
	providers.Register("whatsapp", func(setting SettingRecord, payload []byte) Adapter {
		return adapter
	})
	workflows := NewWorkflowRegistry()
	if wf != nil {
		workflows.Register(WorkflowManifest{Name: wf.Name(), Workflow: wf})
	}
	return NewProcessor(store, providers, workflows, staticLocale("en"), testCatalog(), nil)
}

func TestProcessorReceiveProcessed(t *testing.T) {
	store := &fakeStore{
		setting: SettingRecord{ID: uuid.New(), StartWorkflow: "organization_welcome"},
		sender:  SenderRecord{ID: uuid.New()},
		message: MessageRecord{ID: uuid.New()},
		created: true,
	}
	adapter := &fakeAdapter{env: &Envelope{From: "123", MessageID: "wamid.1", Body: "hello"}}
	wf := &recordingWorkflow{name: "organization_welcome"}

	p := newTestProcessor(store, adapter, wf)
	outcome, err := p.Receive(context.Background(), uuid.New(), "whatsapp", []byte(`{}`), "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if outcome != OutcomeProcessed {
		t.Fatalf("expected processed, got %s", outcome)
	}
	if wf.userCalls != 1 {
		t.Fatalf("expected dispatch, got %d", wf.userCalls)
	}
}

func TestProcessorReceiveRoutesToCurrentWorkflow(t *testing.T) {
	store := &fakeStore{
		setting: SettingRecord{ID: uuid.New(), StartWorkflow: "organization_welcome"},
		sender:  SenderRecord{ID: uuid.New(), CurrentWorkflow: "meetings", ParentWorkflow: "organization_welcome"},
		message: MessageRecord{ID: uuid.New()},
		created: true,
	}
	adapter := &fakeAdapter{env: &Envelope{From: "123", MessageID: "wamid.1", Body: "hello"}}
	wf := &recordingWorkflow{name: "meetings"}

	p := newTestProcessor(store, adapter, wf)
	outcome, err := p.Receive(context.Background(), uuid.New(), "whatsapp", []byte(`{}`), "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if outcome != OutcomeProcessed {
		t.Fatalf("expected processed, got %s", outcome)
	}
	if wf.userCalls != 1 {
		t.Fatal("expected the sender's current workflow to be dispatched")
	}
}

func TestProcessorReceiveDuplicateSkipsDispatch(t *testing.T) {
	store := &fakeStore{
		setting: SettingRecord{ID: uuid.New(), StartWorkflow: "organization_welcome"},
		sender:  SenderRecord{ID: uuid.New()},
		message: MessageRecord{ID: uuid.New()},
		created: false,
	}
	adapter := &fakeAdapter{env: &Envelope{From: "123", MessageID: "wamid.1", Body: "hello"}}
	wf := &recordingWorkflow{name: "organization_welcome"}

	p := newTestProcessor(store, adapter, wf)
	outcome, err := p.Receive(context.Background(), uuid.New(), "whatsapp", []byte(`{}`), "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if outcome != OutcomeDuplicate {
		t.Fatalf("expected duplicate, got %s", outcome)
	}
	if wf.userCalls != 0 && wf.actionCalls == 0 {
		t.Fatal("expected no dispatch on redelivery")
	}
	if len(adapter.sent) != 0 || len(adapter.texts) != 0 {
		t.Fatal("expected no outbound messages on redelivery")
	}
}

func TestProcessorReceiveIgnoresReceipts(t *testing.T) {
	store := &fakeStore{setting: SettingRecord{ID: uuid.New()}}
	adapter := &fakeAdapter{env: &Envelope{}}

	p := newTestProcessor(store, adapter, &recordingWorkflow{name: "organization_welcome"})
	outcome, err := p.Receive(context.Background(), uuid.New(), "whatsapp", []byte(`{}`), "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if outcome != OutcomeIgnored {
		t.Fatalf("expected ignored, got %s", outcome)
	}
}

func TestProcessorReceiveUnknownSetting(t *testing.T) {
	store := &fakeStore{settingErr: ErrSettingNotFound}
	adapter := &fakeAdapter{}

	p := newTestProcessor(store, adapter, nil)
	_, err := p.Receive(context.Background(), uuid.New(), "whatsapp", []byte(`{}`), "")
	if !errors.Is(err, ErrSettingNotFound) {
		t.Fatalf("expected ErrSettingNotFound, got %v", err)
	}
}

func TestProcessorReceiveUnknownProvider(t *testing.T) {
	store := &fakeStore{setting: SettingRecord{ID: uuid.New()}}

	p := NewProcessor(store, NewProviderRegistry(), NewWorkflowRegistry(), nil, testCatalog(), nil)
	_, err := p.Receive(context.Background(), uuid.New(), "telegram", []byte(`{}`), "")
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestProcessorReceiveWorkflowErrorAbsorbed(t *testing.T) {
	store := &fakeStore{
		setting: SettingRecord{ID: uuid.New(), StartWorkflow: "organization_welcome"},
		sender:  SenderRecord{ID: uuid.New()},
		message: MessageRecord{ID: uuid.New()},
		created: true,
	}
	adapter := &fakeAdapter{env: &Envelope{From: "123", MessageID: "wamid.1", Body: "hello"}}
	wf := &recordingWorkflow{name: "organization_welcome", userErr: errors.New("boom")}

	p := newTestProcessor(store, adapter, wf)
	outcome, err := p.Receive(context.Background(), uuid.New(), "whatsapp", []byte(`{}`), "")
	if err != nil {
		t.Fatalf("expected error absorbed, got %v", err)
	}
	if outcome != OutcomeFailed {
		t.Fatalf("expected failed, got %s", outcome)
	}
}

func TestProcessorReceiveUnknownStartWorkflow(t *testing.T) {
	store := &fakeStore{
		setting: SettingRecord{ID: uuid.New(), StartWorkflow: "ghost"},
		sender:  SenderRecord{ID: uuid.New()},
		message: MessageRecord{ID: uuid.New()},
		created: true,
	}
	adapter := &fakeAdapter{env: &Envelope{From: "123", MessageID: "wamid.1", Body: "hello"}}

	p := newTestProcessor(store, adapter, &recordingWorkflow{name: "organization_welcome"})
	outcome, err := p.Receive(context.Background(), uuid.New(), "whatsapp", []byte(`{}`), "")
	if err != nil {
		t.Fatalf("expected error absorbed, got %v", err)
	}
	if outcome != OutcomeFailed {
		t.Fatalf("expected failed, got %s", outcome)
	}
}

type signedFakeAdapter struct {
	*fakeAdapter
	sigErr error
}

func (a *signedFakeAdapter) VerifySignature(payload []byte, signature string) error {
	return a.sigErr
}

func TestProcessorReceiveRejectsBadSignature(t *testing.T) {
	store := &fakeStore{
		setting: SettingRecord{ID: uuid.New(), StartWorkflow: "organization_welcome"},
		sender:  SenderRecord{ID: uuid.New()},
		message: MessageRecord{ID: uuid.New()},
		created: true,
	}
	adapter := &signedFakeAdapter{
		fakeAdapter: &fakeAdapter{env: &Envelope{From: "123", MessageID: "mid.1", Body: "hello"}},
		sigErr:      ErrVerificationFailed,
	}
	wf := &recordingWorkflow{name: "organization_welcome"}

	providers := NewProviderRegistry()
	providers.Register("instagram", func(setting SettingRecord, payload []byte) Adapter {
		return adapter
	})
	workflows := NewWorkflowRegistry()
	workflows.Register(WorkflowManifest{Name: wf.name, Workflow: wf})
	p := NewProcessor(store, providers, workflows, staticLocale("en"), testCatalog(), nil)

	outcome, err := p.Receive(context.Background(), uuid.New(), "instagram", []byte(`{}`), "sha256=bogus")
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
	if outcome != OutcomeIgnored {
		t.Fatalf("expected ignored, got %s", outcome)
	}
	if wf.userCalls != 0 || wf.actionCalls != 0 {
		t.Fatal("expected no dispatch on rejected signature")
	}
	if len(store.readMessages) != 0 {
		t.Fatal("expected nothing persisted on rejected signature")
	}
}

func TestProcessorVerify(t *testing.T) {
	store := &fakeStore{setting: SettingRecord{ID: uuid.New()}}
	adapter := &fakeAdapter{}

	p := newTestProcessor(store, adapter, nil)
	params := url.Values{
		"hub.mode":         {"subscribe"},
		"hub.verify_token": {"secret"},
		"hub.challenge":    {"abc123"},
	}
	challenge, err := p.Verify(context.Background(), uuid.New(), "whatsapp", params)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if challenge != "abc123" {
		t.Fatalf("expected challenge echoed, got %q", challenge)
	}
}

func TestProcessorVerifyBadToken(t *testing.T) {
	store := &fakeStore{setting: SettingRecord{ID: uuid.New()}}
	adapter := &fakeAdapter{}

	p := newTestProcessor(store, adapter, nil)
	params := url.Values{
		"hub.mode":         {"subscribe"},
		"hub.verify_token": {"wrong"},
	}
	if _, err := p.Verify(context.Background(), uuid.New(), "whatsapp", params); !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
}
