// Package handlers exposes the chatbot webhook HTTP surface.
package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/openpoke/decidim-module-chatbot/internal/chat"
	"github.com/openpoke/decidim-module-chatbot/internal/observability/metrics"
	"github.com/openpoke/decidim-module-chatbot/pkg/logging"
)

const maxPayloadBytes = 1 << 20

// WebhookHandler serves the provider webhook endpoints. The provider is
// only trusted to retry on non-2xx, so every configured delivery is
// acknowledged with 200 regardless of processing outcome.
type WebhookHandler struct {
	processor *chat.Processor
	metrics   *metrics.WebhookMetrics
	logger    *logging.Logger
	tracer    trace.Tracer
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(processor *chat.Processor, m *metrics.WebhookMetrics, logger *logging.Logger) *WebhookHandler {
	if processor == nil {
		panic("handlers: processor cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		processor: processor,
		metrics:   m,
		logger:    logger,
		tracer:    otel.Tracer("chatbot.internal.http.webhooks"),
	}
}

// HandleVerify handles GET /chatbot/webhooks/{organization}/{provider},
// the provider's subscription handshake.
func (h *WebhookHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "chatbot.webhook.verify")
	defer span.End()

	provider := chi.URLParam(r, "provider")
	orgID, err := uuid.Parse(chi.URLParam(r, "organization"))
	if err != nil {
		http.Error(w, "invalid organization id", http.StatusBadRequest)
		return
	}
	span.SetAttributes(
		attribute.String("chatbot.provider", provider),
		attribute.String("chatbot.organization_id", orgID.String()),
	)

	challenge, err := h.processor.Verify(ctx, orgID, provider, r.URL.Query())
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge))
	case errors.Is(err, chat.ErrSettingNotFound), errors.Is(err, chat.ErrUnknownProvider):
		http.Error(w, "webhook not configured", http.StatusNotImplemented)
	case errors.Is(err, chat.ErrVerificationFailed):
		// Expected during probing; not an operational error.
		h.logger.Warn("webhook verification rejected", "provider", provider, "organization_id", orgID.String())
		http.Error(w, "verification failed", http.StatusForbidden)
	default:
		h.logger.Error("webhook verification failed", "error", err, "provider", provider)
		span.RecordError(err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// HandleReceive handles POST /chatbot/webhooks/{organization}/{provider}.
func (h *WebhookHandler) HandleReceive(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "chatbot.webhook.receive")
	defer span.End()
	start := time.Now()

	provider := chi.URLParam(r, "provider")
	orgID, err := uuid.Parse(chi.URLParam(r, "organization"))
	if err != nil {
		http.Error(w, "invalid organization id", http.StatusBadRequest)
		return
	}
	span.SetAttributes(
		attribute.String("chatbot.provider", provider),
		attribute.String("chatbot.organization_id", orgID.String()),
	)

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		span.RecordError(err)
		return
	}

	outcome, err := h.processor.Receive(ctx, orgID, provider, payload, r.Header.Get("X-Hub-Signature-256"))
	if err != nil {
		// Only unsupported organization/provider pairs and rejected payload
		// signatures reach here; every processing failure is absorbed by
		// the processor.
		h.metrics.ObserveInbound(provider, string(outcome))
		if errors.Is(err, chat.ErrVerificationFailed) {
			h.logger.Warn("webhook payload signature rejected", "provider", provider, "organization_id", orgID.String())
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
		http.Error(w, "webhook not configured", http.StatusNotImplemented)
		return
	}
	span.SetAttributes(attribute.String("chatbot.outcome", string(outcome)))
	h.metrics.ObserveInbound(provider, string(outcome))
	h.metrics.ObserveWebhookLatency(provider, time.Since(start).Seconds())

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// HealthCheck handles GET /health.
func (h *WebhookHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
