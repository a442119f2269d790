// Package persona generates the conversational replies for messages that
// carry no booking intent, in each tenant's configured voice.
package persona

import (
	"context"
	"fmt"
	"strings"

	"github.com/atendezap/atende-ai-platform/internal/business"
)

// Responder produces a reply to a free-form customer message.
type Responder interface {
	Reply(ctx context.Context, cfg *business.Config, message string) (string, error)
}

// StaticResponder replies with a fixed greeting built from the tenant's
// persona and service list. Used when no LLM is configured and as the
// fallback when the LLM fails.
type StaticResponder struct{}

// NewStaticResponder creates the deterministic responder.
func NewStaticResponder() *StaticResponder {
	return &StaticResponder{}
}

// Reply builds the greeting. It never fails.
func (s *StaticResponder) Reply(_ context.Context, cfg *business.Config, _ string) (string, error) {
	var b strings.Builder
	name := cfg.Persona.AgentName
	if name == "" {
		name = "Assistente"
	}
	fmt.Fprintf(&b, "Olá! Sou %s", name)
	if cfg.Name != "" {
		fmt.Fprintf(&b, ", da %s", cfg.Name)
	}
	b.WriteString(". Posso ajudar com informações e agendamentos.\n\nNossos serviços:\n")
	b.WriteString(cfg.InventoryLines())
	b.WriteString("\n\nPara agendar, é só me dizer o dia e o horário.")
	return b.String(), nil
}

// FallbackResponder tries a primary responder and falls back to a secondary
// when the primary errors. The returned error is always nil when the
// fallback succeeds.
type FallbackResponder struct {
	primary  Responder
	fallback Responder
}

// NewFallbackResponder chains two responders.
func NewFallbackResponder(primary, fallback Responder) *FallbackResponder {
	return &FallbackResponder{primary: primary, fallback: fallback}
}

func (f *FallbackResponder) Reply(ctx context.Context, cfg *business.Config, message string) (string, error) {
	reply, err := f.primary.Reply(ctx, cfg, message)
	if err == nil {
		return reply, nil
	}
	return f.fallback.Reply(ctx, cfg, message)
}
