package whatsapp

// WebhookEvent is an Evolution API webhook delivery. Depending on the server
// version the payload arrives either flat or wrapped in a body envelope, so
// both shapes are modeled.
type WebhookEvent struct {
	Event    string       `json:"event"`
	Instance string       `json:"instance"`
	Data     *EventData   `json:"data"`
	Body     *WebhookBody `json:"body"`
}

// WebhookBody is the envelope some Evolution versions wrap deliveries in.
type WebhookBody struct {
	Event    string     `json:"event"`
	Instance string     `json:"instance"`
	Data     *EventData `json:"data"`
}

// EventData carries one message of a messages.upsert event.
type EventData struct {
	Key      MessageKey      `json:"key"`
	PushName string          `json:"pushName"`
	Message  *MessageContent `json:"message"`
}

// MessageKey identifies the chat and direction of a message.
type MessageKey struct {
	RemoteJid string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
	ID        string `json:"id"`
}

// MessageContent holds the message text in whichever field WhatsApp used.
type MessageContent struct {
	Conversation        string               `json:"conversation"`
	ExtendedTextMessage *ExtendedTextMessage `json:"extendedTextMessage"`
}

// ExtendedTextMessage is the quoted/linked text variant.
type ExtendedTextMessage struct {
	Text string `json:"text"`
}

// Text returns the message text regardless of variant.
func (m *MessageContent) Text() string {
	if m == nil {
		return ""
	}
	if m.Conversation != "" {
		return m.Conversation
	}
	if m.ExtendedTextMessage != nil {
		return m.ExtendedTextMessage.Text
	}
	return ""
}

// SendTextRequest is the Evolution sendText payload.
type SendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

// SendResponse is the subset of the Evolution send response we read.
type SendResponse struct {
	Key    *MessageKey `json:"key"`
	Status string      `json:"status"`
}
