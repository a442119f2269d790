package whatsapp

import "testing"

func TestParseWebhookFlatFormat(t *testing.T) {
	body := []byte(`{
		"event": "messages.upsert",
		"instance": "barbearia-central",
		"data": {
			"key": {"remoteJid": "5511999990001@s.whatsapp.net", "fromMe": false, "id": "msg1"},
			"pushName": "Maria",
			"message": {"conversation": "quero agendar amanhã"}
		}
	}`)

	inbound, err := ParseWebhook(body)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if inbound.Instance != "barbearia-central" {
		t.Errorf("instance = %q", inbound.Instance)
	}
	if inbound.CustomerID != "5511999990001" {
		t.Errorf("customer id = %q, want cleaned jid", inbound.CustomerID)
	}
	if inbound.ChatID != "5511999990001@s.whatsapp.net" {
		t.Errorf("chat id = %q, want full jid", inbound.ChatID)
	}
	if inbound.CustomerName != "Maria" || inbound.Text != "quero agendar amanhã" {
		t.Errorf("inbound = %+v", inbound)
	}
	if inbound.Ignorable() {
		t.Error("real customer message should not be ignorable")
	}
}

func TestParseWebhookEnvelopeFormat(t *testing.T) {
	body := []byte(`{
		"body": {
			"event": "MESSAGES.UPSERT",
			"instance": "barbearia-central",
			"data": {
				"key": {"remoteJid": "5511999990001@s.whatsapp.net", "fromMe": false},
				"message": {"extendedTextMessage": {"text": "confirmo"}}
			}
		}
	}`)

	inbound, err := ParseWebhook(body)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if inbound.Text != "confirmo" {
		t.Errorf("text = %q, want extended text", inbound.Text)
	}
}

func TestParseWebhookFromMe(t *testing.T) {
	body := []byte(`{
		"event": "messages.upsert",
		"instance": "barbearia-central",
		"data": {
			"key": {"remoteJid": "5511999990001@s.whatsapp.net", "fromMe": true},
			"message": {"conversation": "Agendamento confirmado"}
		}
	}`)

	inbound, err := ParseWebhook(body)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if !inbound.FromMe || !inbound.Ignorable() {
		t.Error("own echo should be flagged and ignorable")
	}
}

func TestParseWebhookRejectsOtherEvents(t *testing.T) {
	body := []byte(`{"event": "connection.update", "instance": "x", "data": {"key": {"remoteJid": "a@b"}}}`)
	if _, err := ParseWebhook(body); err == nil {
		t.Fatal("expected error for non-message event")
	}

	if _, err := ParseWebhook([]byte(`{"event": "messages.upsert"}`)); err == nil {
		t.Fatal("expected error for missing data")
	}

	if _, err := ParseWebhook([]byte(`not json`)); err == nil {
		t.Fatal("expected error for invalid json")
	}
}

func TestCleanJid(t *testing.T) {
	cases := map[string]string{
		"5511999990001@s.whatsapp.net":    "5511999990001",
		"5511999990001:12@s.whatsapp.net": "5511999990001",
		"5511999990001":                   "5511999990001",
	}
	for in, want := range cases {
		if got := CleanJid(in); got != want {
			t.Errorf("CleanJid(%q) = %q, want %q", in, got, want)
		}
	}
}
