package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atendezap/atende-ai-platform/internal/booking"
	"github.com/atendezap/atende-ai-platform/internal/business"
	"github.com/atendezap/atende-ai-platform/internal/channels"
	"github.com/atendezap/atende-ai-platform/internal/channels/telegram"
	"github.com/atendezap/atende-ai-platform/internal/channels/whatsapp"
	observemetrics "github.com/atendezap/atende-ai-platform/internal/observability/metrics"
	"github.com/atendezap/atende-ai-platform/pkg/logging"
)

type tenantStore interface {
	FindByInstance(ctx context.Context, instanceName string) (*business.Config, error)
	FirstActive(ctx context.Context) (*business.Config, error)
}

type messageOrchestrator interface {
	Handle(ctx context.Context, cfg *business.Config, msg booking.InboundMessage) (*booking.Outcome, error)
}

type whatsappSender interface {
	SendText(ctx context.Context, number, text string) (*whatsapp.SendResponse, error)
}

type telegramSender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// Webhook response statuses, matching what channel dashboards expect.
const (
	webhookStatusSuccess        = "success"
	webhookStatusPartialSuccess = "partial_success"
	webhookStatusIgnored        = "ignored"
)

type webhookResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Response  string `json:"response,omitempty"`
	SendError string `json:"sendError,omitempty"`
}

// MessagingWebhookHandler receives inbound WhatsApp and Telegram webhooks,
// runs each message through the booking flow, and sends the reply back out
// on the same channel.
type MessagingWebhookHandler struct {
	tenants      tenantStore
	orchestrator messageOrchestrator
	logger       *logging.Logger
	metrics      *observemetrics.BookingMetrics

	whatsappFor func(cfg *business.Config) whatsappSender
	telegramFor func(cfg *business.Config) telegramSender
}

// MessagingWebhookConfig wires the handler. Nil sender factories default to
// real channel clients built from the tenant's credentials.
type MessagingWebhookConfig struct {
	Tenants      tenantStore
	Orchestrator messageOrchestrator
	Logger       *logging.Logger
	Metrics      *observemetrics.BookingMetrics
	WhatsAppFor  func(cfg *business.Config) whatsappSender
	TelegramFor  func(cfg *business.Config) telegramSender
}

func NewMessagingWebhookHandler(cfg MessagingWebhookConfig) *MessagingWebhookHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.WhatsAppFor == nil {
		cfg.WhatsAppFor = func(c *business.Config) whatsappSender {
			if c.WhatsApp == nil {
				return nil
			}
			return whatsapp.NewClient(c.WhatsApp.ServerURL, c.WhatsApp.APIKey, c.WhatsApp.InstanceName)
		}
	}
	if cfg.TelegramFor == nil {
		cfg.TelegramFor = func(c *business.Config) telegramSender {
			if c.Telegram == nil {
				return nil
			}
			return telegram.NewClient(c.Telegram.BotToken)
		}
	}
	return &MessagingWebhookHandler{
		tenants:      cfg.Tenants,
		orchestrator: cfg.Orchestrator,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		whatsappFor:  cfg.WhatsAppFor,
		telegramFor:  cfg.TelegramFor,
	}
}

// HandleVerification answers channel handshake GETs.
func (h *MessagingWebhookHandler) HandleVerification(w http.ResponseWriter, r *http.Request) {
	platform := chi.URLParam(r, "platform")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "platform": platform})
}

// HandleInbound processes one webhook delivery. Echoes of our own messages
// and empty texts are acknowledged without processing; a failed outbound
// send still acknowledges the webhook so the channel does not retry.
func (h *MessagingWebhookHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	platform := chi.URLParam(r, "platform")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	inbound, err := parseInbound(platform, body)
	if err != nil {
		h.logger.Warn("unparseable webhook", "platform", platform, "error", err)
		h.metrics.ObserveInbound(platform, webhookStatusIgnored)
		writeJSON(w, http.StatusOK, webhookResponse{Status: webhookStatusIgnored, Message: err.Error()})
		return
	}
	if inbound.Ignorable() {
		h.metrics.ObserveInbound(platform, webhookStatusIgnored)
		writeJSON(w, http.StatusOK, webhookResponse{Status: webhookStatusIgnored})
		return
	}

	cfg, err := h.resolveTenant(r.Context(), inbound)
	if err != nil {
		if errors.Is(err, business.ErrTenantNotFound) {
			h.logger.Warn("no tenant for inbound message", "platform", platform, "instance", inbound.Instance)
			h.metrics.ObserveInbound(platform, webhookStatusIgnored)
			writeJSON(w, http.StatusOK, webhookResponse{Status: webhookStatusIgnored, Message: "no tenant configured"})
			return
		}
		h.logger.Error("tenant lookup failed", "platform", platform, "error", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	outcome, err := h.orchestrator.Handle(r.Context(), cfg, booking.InboundMessage{
		CustomerID:   inbound.CustomerID,
		CustomerName: inbound.CustomerName,
		Text:         inbound.Text,
	})
	if err != nil {
		h.logger.WithTenant(cfg.TenantID).Error("message handling failed", "platform", platform, "error", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	resp := webhookResponse{Status: webhookStatusSuccess, Response: outcome.Reply}
	if err := h.send(r.Context(), cfg, inbound, outcome.Reply); err != nil {
		h.logger.WithTenant(cfg.TenantID).Error("outbound send failed", "platform", platform, "error", err)
		h.metrics.ObserveOutbound(platform, "error")
		resp.Status = webhookStatusPartialSuccess
		resp.SendError = err.Error()
	} else {
		h.metrics.ObserveOutbound(platform, "ok")
	}

	h.metrics.ObserveInbound(platform, resp.Status)
	h.metrics.ObserveWebhookLatency(platform, time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, resp)
}

func parseInbound(platform string, body []byte) (*channels.Inbound, error) {
	switch platform {
	case channels.PlatformWhatsApp:
		return whatsapp.ParseWebhook(body)
	case channels.PlatformTelegram:
		return telegram.ParseWebhook(body)
	default:
		return nil, errors.New("handlers: unsupported platform " + platform)
	}
}

// resolveTenant maps the delivery to a tenant: WhatsApp by instance name,
// falling back to the first active tenant for single-tenant deployments.
func (h *MessagingWebhookHandler) resolveTenant(ctx context.Context, inbound *channels.Inbound) (*business.Config, error) {
	if inbound.Platform == channels.PlatformWhatsApp && inbound.Instance != "" {
		cfg, err := h.tenants.FindByInstance(ctx, inbound.Instance)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, business.ErrTenantNotFound) {
			return nil, err
		}
	}
	return h.tenants.FirstActive(ctx)
}

func (h *MessagingWebhookHandler) send(ctx context.Context, cfg *business.Config, inbound *channels.Inbound, reply string) error {
	switch inbound.Platform {
	case channels.PlatformWhatsApp:
		sender := h.whatsappFor(cfg)
		if sender == nil {
			return errors.New("handlers: tenant has no whatsapp integration")
		}
		_, err := sender.SendText(ctx, inbound.ChatID, reply)
		return err
	case channels.PlatformTelegram:
		sender := h.telegramFor(cfg)
		if sender == nil {
			return errors.New("handlers: tenant has no telegram integration")
		}
		return sender.SendMessage(ctx, inbound.ChatID, reply)
	default:
		return errors.New("handlers: unsupported platform " + inbound.Platform)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
