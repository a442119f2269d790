package whatsapp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atendezap/atende-ai-platform/internal/channels"
)

// eventMessagesUpsert is the only Evolution event we act on.
const eventMessagesUpsert = "messages.upsert"

// ParseWebhook decodes an Evolution webhook delivery into the normalized
// inbound shape. Non-message events and malformed payloads return an error;
// echoes of our own messages parse fine and are flagged FromMe.
func ParseWebhook(body []byte) (*channels.Inbound, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("whatsapp: decode webhook: %w", err)
	}

	name := event.Event
	instance := event.Instance
	data := event.Data
	if data == nil && event.Body != nil {
		name = event.Body.Event
		instance = event.Body.Instance
		data = event.Body.Data
	}
	if data == nil {
		return nil, fmt.Errorf("whatsapp: webhook has no message data")
	}
	if name != "" && !strings.EqualFold(name, eventMessagesUpsert) {
		return nil, fmt.Errorf("whatsapp: unsupported event %q", name)
	}

	return &channels.Inbound{
		Platform:     channels.PlatformWhatsApp,
		Instance:     instance,
		ChatID:       data.Key.RemoteJid,
		CustomerID:   CleanJid(data.Key.RemoteJid),
		CustomerName: data.PushName,
		Text:         strings.TrimSpace(data.Message.Text()),
		FromMe:       data.Key.FromMe,
	}, nil
}

// CleanJid strips the server suffix and device part from a WhatsApp jid:
// "5511999999999:12@s.whatsapp.net" becomes "5511999999999".
func CleanJid(jid string) string {
	if i := strings.IndexByte(jid, '@'); i >= 0 {
		jid = jid[:i]
	}
	if i := strings.IndexByte(jid, ':'); i >= 0 {
		jid = jid[:i]
	}
	return jid
}
