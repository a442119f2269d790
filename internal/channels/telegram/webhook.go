package telegram

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/atendezap/atende-ai-platform/internal/channels"
)

// ParseWebhook decodes a Bot API update into the normalized inbound shape.
// Updates without a text message return an error.
func ParseWebhook(body []byte) (*channels.Inbound, error) {
	var update Update
	if err := json.Unmarshal(body, &update); err != nil {
		return nil, fmt.Errorf("telegram: decode update: %w", err)
	}
	if update.Message == nil {
		return nil, fmt.Errorf("telegram: update has no message")
	}

	msg := update.Message
	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	inbound := &channels.Inbound{
		Platform:   channels.PlatformTelegram,
		ChatID:     chatID,
		CustomerID: chatID,
		Text:       strings.TrimSpace(msg.Text),
	}
	if msg.From != nil {
		inbound.CustomerName = strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
		inbound.FromMe = msg.From.IsBot
	}
	return inbound, nil
}
