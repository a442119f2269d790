// Package channels holds the types shared by the messaging channel adapters.
package channels

// Platform names, used in routes, logs, and metric labels.
const (
	PlatformWhatsApp = "whatsapp"
	PlatformTelegram = "telegram"
)

// Inbound is a channel-agnostic incoming message after webhook parsing.
type Inbound struct {
	Platform string
	// Instance is the WhatsApp instance name the message arrived on; empty
	// for channels that address the bot directly.
	Instance     string
	ChatID       string
	CustomerID   string
	CustomerName string
	Text         string
	// FromMe marks echoes of the business's own outbound messages.
	FromMe bool
}

// Ignorable reports whether the message should be acknowledged without
// processing: our own echoes and empty texts.
func (m *Inbound) Ignorable() bool {
	return m.FromMe || m.Text == ""
}
