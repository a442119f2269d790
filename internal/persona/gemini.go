package persona

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/atendezap/atende-ai-platform/internal/business"
)

const defaultModelID = "gemini-2.5-flash"

// GeminiResponder generates persona replies with Google's Gemini API.
type GeminiResponder struct {
	client  *genai.Client
	modelID string
}

// NewGeminiResponder creates a Gemini-backed responder.
func NewGeminiResponder(ctx context.Context, apiKey, modelID string) (*GeminiResponder, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("persona: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = defaultModelID
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("persona: failed to create gemini client: %w", err)
	}
	return &GeminiResponder{client: client, modelID: modelID}, nil
}

// Reply sends the customer message with the tenant's persona as the system
// instruction and returns the generated text.
func (g *GeminiResponder) Reply(ctx context.Context, cfg *business.Config, message string) (string, error) {
	model := g.client.GenerativeModel(g.modelID)
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemPrompt(cfg)))

	resp, err := model.GenerateContent(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("persona: gemini generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("persona: gemini returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("persona: gemini returned empty content")
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	reply := strings.TrimSpace(text.String())
	if reply == "" {
		return "", errors.New("persona: gemini returned empty text")
	}
	return reply, nil
}

// Close releases the underlying client.
func (g *GeminiResponder) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// systemPrompt renders the tenant's persona and service inventory into the
// instruction the model answers under.
func systemPrompt(cfg *business.Config) string {
	name := cfg.Persona.AgentName
	if name == "" {
		name = "Assistente"
	}
	tone := cfg.Persona.Tone
	if tone == "" {
		tone = "amigavel"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Você é %s, atendente virtual", name)
	if cfg.Name != "" {
		fmt.Fprintf(&b, " da empresa %s", cfg.Name)
	}
	fmt.Fprintf(&b, ". Responda sempre em português brasileiro, em tom %s, de forma breve e objetiva.\n\n", tone)
	b.WriteString("Serviços oferecidos:\n")
	b.WriteString(cfg.InventoryLines())
	b.WriteString("\n\nVocê não realiza agendamentos diretamente; quando o cliente quiser agendar, peça o dia e o horário desejados.")
	if cfg.Persona.SystemPrompt != "" {
		b.WriteString("\n\nInstruções adicionais do negócio:\n")
		b.WriteString(cfg.Persona.SystemPrompt)
	}
	return b.String()
}
