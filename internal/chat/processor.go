package chat

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"github.com/openpoke/decidim-module-chatbot/pkg/logging"
)

// ReceiveOutcome classifies one delivery for metrics.
type ReceiveOutcome string

const (
	// OutcomeProcessed means the message was stored and dispatched.
	OutcomeProcessed ReceiveOutcome = "processed"
	// OutcomeDuplicate means the provider redelivered an already stored
	// message; dispatch was skipped.
	OutcomeDuplicate ReceiveOutcome = "duplicate"
	// OutcomeIgnored covers receipts and payloads with nothing to persist.
	OutcomeIgnored ReceiveOutcome = "ignored"
	// OutcomeFailed means processing errored after the Setting was
	// resolved; the webhook is acknowledged anyway.
	OutcomeFailed ReceiveOutcome = "failed"
)

// LocaleResolver picks the locale for outbound messages to a sender.
type LocaleResolver interface {
	SenderLocale(ctx context.Context, setting SettingRecord, sender SenderRecord) string
}

// Processor wires normalization, persistence and workflow dispatch for one
// webhook delivery. It holds no per-request state.
type Processor struct {
	store     Store
	providers *ProviderRegistry
	workflows *WorkflowRegistry
	locales   LocaleResolver
	messages  Catalog
	logger    *logging.Logger
}

func NewProcessor(store Store, providers *ProviderRegistry, workflows *WorkflowRegistry, locales LocaleResolver, messages Catalog, logger *logging.Logger) *Processor {
	if logger == nil {
		logger = logging.Default()
	}
	return &Processor{
		store:     store,
		providers: providers,
		workflows: workflows,
		locales:   locales,
		messages:  messages,
		logger:    logger,
	}
}

// Verify answers a webhook subscription handshake. ErrSettingNotFound and
// ErrUnknownProvider mean the endpoint is not configured for this pair;
// ErrVerificationFailed means the token did not match.
func (p *Processor) Verify(ctx context.Context, orgID uuid.UUID, provider string, params url.Values) (string, error) {
	setting, err := p.store.FindSetting(ctx, orgID, provider)
	if err != nil {
		return "", err
	}
	adapter, err := p.providers.New(provider, setting, nil)
	if err != nil {
		return "", err
	}
	return adapter.Verify(params)
}

// Receive processes one delivery. A non-nil error is returned only when
// the provider/Setting pair is not configured or the payload signature is
// invalid; every other failure is logged here and absorbed, so the
// webhook is acknowledged and the provider stops redelivering.
func (p *Processor) Receive(ctx context.Context, orgID uuid.UUID, provider string, payload []byte, signature string) (ReceiveOutcome, error) {
	setting, err := p.store.FindSetting(ctx, orgID, provider)
	if err != nil {
		return OutcomeIgnored, err
	}
	adapter, err := p.providers.New(provider, setting, payload)
	if err != nil {
		return OutcomeIgnored, err
	}
	if verifier, ok := adapter.(SignedPayloadVerifier); ok {
		if err := verifier.VerifySignature(payload, signature); err != nil {
			return OutcomeIgnored, err
		}
	}

	log := p.logger.With("provider", provider, "organization_id", orgID.String())

	env := adapter.ReceivedMessage()
	if env.From == "" || env.MessageID == "" {
		// Delivery receipts and other partial payloads carry no user
		// message.
		return OutcomeIgnored, nil
	}
	log = log.With("from", env.From)

	sender, err := p.store.FindOrCreateSender(ctx, setting, env)
	if err != nil {
		log.Error("persist sender failed", "error", err)
		return OutcomeFailed, nil
	}
	message, created, err := p.store.FindOrCreateMessage(ctx, setting, sender, env)
	if err != nil {
		log.Error("persist message failed", "error", err)
		return OutcomeFailed, nil
	}
	if !created {
		log.Info("duplicate delivery, skipping dispatch", "external_id", env.MessageID)
		return OutcomeDuplicate, nil
	}

	name := sender.CurrentWorkflow
	if name == "" {
		name = setting.StartWorkflow
	}
	wf, err := p.workflows.Find(name)
	if err != nil {
		log.Error("workflow resolution failed", "error", err, "workflow", name)
		return OutcomeFailed, nil
	}

	locale := ""
	if p.locales != nil {
		locale = p.locales.SenderLocale(ctx, setting, sender)
	}

	rt := NewRuntime(name, adapter, p.store, p.workflows, setting, sender, message, locale, p.messages, p.logger)
	if err := rt.Start(ctx, wf, false); err != nil {
		if IsConfigError(err) {
			log.Error("workflow misconfigured", "error", err, "workflow", name)
		} else {
			log.Error("workflow dispatch failed", "error", err, "workflow", name)
		}
		return OutcomeFailed, nil
	}
	return OutcomeProcessed, nil
}
