package line

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"trash-notify/internal/convo"
	"trash-notify/internal/metrics"
)

// EventParser authenticates a webhook request and extracts its events.
type EventParser interface {
	ParseRequest(r *http.Request) ([]convo.Envelope, error)
}

// EventProcessor handles the events of one webhook delivery.
type EventProcessor interface {
	HandleEvents(ctx context.Context, events []convo.Envelope) error
}

// WebhookHandler verifies LINE webhook signatures and forwards events.
type WebhookHandler struct {
	logger    *slog.Logger
	metrics   *metrics.Metrics
	parser    EventParser
	processor EventProcessor
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(logger *slog.Logger, metrics *metrics.Metrics, parser EventParser, processor EventProcessor) *WebhookHandler {
	return &WebhookHandler{
		logger:    logger.With("component", "line_webhook"),
		metrics:   metrics,
		parser:    parser,
		processor: processor,
	}
}

// ServeHTTP satisfies http.Handler. It answers {"status":"ok"} once every
// event was processed and {"status":"error"} otherwise.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	logger := h.logger.With("request_id", uuid.NewString())

	events, err := h.parser.ParseRequest(r)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSignature):
			h.countError("line_webhook_auth")
			logger.Warn("rejected webhook", "error", err)
		default:
			h.countError("line_webhook_parse")
			logger.Warn("unparseable webhook", "error", err)
		}
		writeStatus(w, http.StatusBadRequest, "error")
		return
	}

	for _, ev := range events {
		if h.metrics != nil {
			h.metrics.WebhookEvents.WithLabelValues(convo.Kind(ev.Event)).Inc()
		}
	}
	logger.Debug("webhook received", "events", len(events))

	if h.processor != nil && len(events) > 0 {
		if err := h.processor.HandleEvents(r.Context(), events); err != nil {
			logger.Error("failed processing webhook", "error", err, "events", len(events))
			h.countError("line_webhook_process")
			writeStatus(w, http.StatusInternalServerError, "error")
			return
		}
	}

	writeStatus(w, http.StatusOK, "ok")
}

func (h *WebhookHandler) countError(component string) {
	if h.metrics != nil {
		h.metrics.Errors.WithLabelValues(component).Inc()
	}
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"status":"` + status + `"}`))
}
