package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/atendezap/atende-ai-platform/internal/booking"
	"github.com/atendezap/atende-ai-platform/internal/business"
	"github.com/atendezap/atende-ai-platform/internal/channels/whatsapp"
)

type stubTenants struct {
	byInstance map[string]*business.Config
	active     *business.Config
}

func (s *stubTenants) FindByInstance(_ context.Context, instance string) (*business.Config, error) {
	if cfg, ok := s.byInstance[instance]; ok {
		return cfg, nil
	}
	return nil, business.ErrTenantNotFound
}

func (s *stubTenants) FirstActive(context.Context) (*business.Config, error) {
	if s.active == nil {
		return nil, business.ErrTenantNotFound
	}
	return s.active, nil
}

type stubOrchestrator struct {
	outcome *booking.Outcome
	err     error
	got     booking.InboundMessage
}

func (s *stubOrchestrator) Handle(_ context.Context, _ *business.Config, msg booking.InboundMessage) (*booking.Outcome, error) {
	s.got = msg
	return s.outcome, s.err
}

type stubWhatsAppSender struct {
	sentTo   string
	sentText string
	err      error
}

func (s *stubWhatsAppSender) SendText(_ context.Context, number, text string) (*whatsapp.SendResponse, error) {
	s.sentTo = number
	s.sentText = text
	if s.err != nil {
		return nil, s.err
	}
	return &whatsapp.SendResponse{Status: "PENDING"}, nil
}

func webhookTenant() *business.Config {
	cfg := business.DefaultConfig("tenant-1")
	cfg.WhatsApp = &business.WhatsAppIntegration{
		ServerURL:    "https://evo.example",
		APIKey:       "key",
		InstanceName: "barbearia-central",
		Active:       true,
	}
	return cfg
}

func newWebhookServer(h *MessagingWebhookHandler) *httptest.Server {
	r := chi.NewRouter()
	r.Get("/webhooks/{platform}", h.HandleVerification)
	r.Post("/webhooks/{platform}", h.HandleInbound)
	return httptest.NewServer(r)
}

const whatsappInbound = `{
	"event": "messages.upsert",
	"instance": "barbearia-central",
	"data": {
		"key": {"remoteJid": "5511999990001@s.whatsapp.net", "fromMe": false},
		"pushName": "Maria",
		"message": {"conversation": "quero agendar amanhã às 14:00"}
	}
}`

func TestWebhookSuccess(t *testing.T) {
	sender := &stubWhatsAppSender{}
	orch := &stubOrchestrator{outcome: &booking.Outcome{Kind: booking.OutcomeHoldPlaced, Reply: "Reservado!"}}
	h := NewMessagingWebhookHandler(MessagingWebhookConfig{
		Tenants:      &stubTenants{byInstance: map[string]*business.Config{"barbearia-central": webhookTenant()}},
		Orchestrator: orch,
		WhatsAppFor:  func(*business.Config) whatsappSender { return sender },
	})
	srv := newWebhookServer(h)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/webhooks/whatsapp", "application/json", strings.NewReader(whatsappInbound))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body webhookResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "success" || body.Response != "Reservado!" {
		t.Errorf("body = %+v", body)
	}
	if orch.got.CustomerID != "5511999990001" || orch.got.CustomerName != "Maria" {
		t.Errorf("orchestrator message = %+v", orch.got)
	}
	if sender.sentTo != "5511999990001@s.whatsapp.net" || sender.sentText != "Reservado!" {
		t.Errorf("sent = %q to %q", sender.sentText, sender.sentTo)
	}
}

func TestWebhookIgnoresOwnEcho(t *testing.T) {
	orch := &stubOrchestrator{outcome: &booking.Outcome{}}
	h := NewMessagingWebhookHandler(MessagingWebhookConfig{
		Tenants:      &stubTenants{},
		Orchestrator: orch,
		WhatsAppFor:  func(*business.Config) whatsappSender { return &stubWhatsAppSender{} },
	})
	srv := newWebhookServer(h)
	defer srv.Close()

	echo := strings.Replace(whatsappInbound, `"fromMe": false`, `"fromMe": true`, 1)
	resp, err := http.Post(srv.URL+"/webhooks/whatsapp", "application/json", strings.NewReader(echo))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	var body webhookResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Status != "ignored" {
		t.Errorf("status = %q, want ignored", body.Status)
	}
	if orch.got.Text != "" {
		t.Error("orchestrator should not run for echoes")
	}
}

func TestWebhookNoTenant(t *testing.T) {
	h := NewMessagingWebhookHandler(MessagingWebhookConfig{
		Tenants:      &stubTenants{},
		Orchestrator: &stubOrchestrator{outcome: &booking.Outcome{}},
		WhatsAppFor:  func(*business.Config) whatsappSender { return &stubWhatsAppSender{} },
	})
	srv := newWebhookServer(h)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/webhooks/whatsapp", "application/json", strings.NewReader(whatsappInbound))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 so the channel does not retry", resp.StatusCode)
	}

	var body webhookResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Status != "ignored" {
		t.Errorf("status = %q, want ignored", body.Status)
	}
}

func TestWebhookOrchestratorFailure(t *testing.T) {
	h := NewMessagingWebhookHandler(MessagingWebhookConfig{
		Tenants:      &stubTenants{byInstance: map[string]*business.Config{"barbearia-central": webhookTenant()}},
		Orchestrator: &stubOrchestrator{err: errors.New("db down")},
		WhatsAppFor:  func(*business.Config) whatsappSender { return &stubWhatsAppSender{} },
	})
	srv := newWebhookServer(h)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/webhooks/whatsapp", "application/json", strings.NewReader(whatsappInbound))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 so the channel retries", resp.StatusCode)
	}
}

func TestWebhookSendFailureIsPartialSuccess(t *testing.T) {
	sender := &stubWhatsAppSender{err: errors.New("instance disconnected")}
	h := NewMessagingWebhookHandler(MessagingWebhookConfig{
		Tenants:      &stubTenants{byInstance: map[string]*business.Config{"barbearia-central": webhookTenant()}},
		Orchestrator: &stubOrchestrator{outcome: &booking.Outcome{Kind: booking.OutcomePersona, Reply: "Olá!"}},
		WhatsAppFor:  func(*business.Config) whatsappSender { return sender },
	})
	srv := newWebhookServer(h)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/webhooks/whatsapp", "application/json", strings.NewReader(whatsappInbound))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body webhookResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Status != "partial_success" {
		t.Errorf("status = %q, want partial_success", body.Status)
	}
	if body.SendError == "" || body.Response != "Olá!" {
		t.Errorf("body = %+v", body)
	}
}

func TestWebhookVerificationHandshake(t *testing.T) {
	h := NewMessagingWebhookHandler(MessagingWebhookConfig{
		Tenants:      &stubTenants{},
		Orchestrator: &stubOrchestrator{outcome: &booking.Outcome{}},
	})
	srv := newWebhookServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/webhooks/telegram")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "ok" || body["platform"] != "telegram" {
		t.Errorf("body = %v", body)
	}
}

func TestWebhookUnknownPlatform(t *testing.T) {
	h := NewMessagingWebhookHandler(MessagingWebhookConfig{
		Tenants:      &stubTenants{},
		Orchestrator: &stubOrchestrator{outcome: &booking.Outcome{}},
	})
	srv := newWebhookServer(h)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/webhooks/smoke-signals", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	var body webhookResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Status != "ignored" {
		t.Errorf("status = %q, want ignored", body.Status)
	}
}
