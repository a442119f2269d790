package booking

import (
	"testing"
	"time"
)

func fixedClock(t *testing.T, value string) func() time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", value)
	if err != nil {
		t.Fatalf("parse clock value: %v", err)
	}
	return func() time.Time { return ts }
}

func TestExtractNoIntent(t *testing.T) {
	e := NewIntentExtractor(nil)

	for _, msg := range []string{"oi, tudo bem?", "qual o endereço de vocês?", ""} {
		intent := e.Extract(msg, nil)
		if intent.HasIntent {
			t.Errorf("message %q: expected no intent", msg)
		}
	}
}

func TestExtractFullIntent(t *testing.T) {
	e := NewIntentExtractor(fixedClock(t, "2026-03-09 10:00"))

	intent := e.Extract("quero agendar corte de cabelo amanhã às 14:00", []string{"Corte de Cabelo", "Barba"})
	if !intent.HasIntent {
		t.Fatal("expected intent")
	}
	if intent.Date != "2026-03-10" {
		t.Errorf("date = %q, want 2026-03-10", intent.Date)
	}
	if intent.Time != "14:00" {
		t.Errorf("time = %q, want 14:00", intent.Time)
	}
	if intent.Service != "Corte de Cabelo" {
		t.Errorf("service = %q, want Corte de Cabelo", intent.Service)
	}
	if len(intent.MissingFields) != 0 {
		t.Errorf("missing fields = %v, want none", intent.MissingFields)
	}
}

func TestExtractRelativeDates(t *testing.T) {
	e := NewIntentExtractor(fixedClock(t, "2026-03-09 10:00"))

	cases := []struct {
		msg  string
		want string
	}{
		{"quero marcar hoje", "2026-03-09"},
		{"quero marcar amanhã", "2026-03-10"},
		{"quero marcar amanha", "2026-03-10"},
		{"quero marcar depois de amanhã", "2026-03-11"},
	}
	for _, tc := range cases {
		intent := e.Extract(tc.msg, nil)
		if intent.Date != tc.want {
			t.Errorf("%q: date = %q, want %q", tc.msg, intent.Date, tc.want)
		}
	}
}

func TestExtractNumericDates(t *testing.T) {
	e := NewIntentExtractor(fixedClock(t, "2026-03-09 10:00"))

	cases := []struct {
		msg  string
		want string
	}{
		{"agendar para 15/04/2026", "2026-04-15"},
		{"agendar para 15/04", "2026-04-15"},
		{"agendar para 2026-04-15", "2026-04-15"},
		// Numeric beats relative when both are present.
		{"agendar amanhã ou 20/05", "2026-05-20"},
	}
	for _, tc := range cases {
		intent := e.Extract(tc.msg, nil)
		if intent.Date != tc.want {
			t.Errorf("%q: date = %q, want %q", tc.msg, intent.Date, tc.want)
		}
	}
}

func TestExtractInvalidDateNotFound(t *testing.T) {
	e := NewIntentExtractor(fixedClock(t, "2026-03-09 10:00"))

	intent := e.Extract("quero agendar dia 31/02/2026", nil)
	if intent.Date != "" {
		t.Errorf("date = %q, want empty for invalid calendar date", intent.Date)
	}
	found := false
	for _, f := range intent.MissingFields {
		if f == "date" {
			found = true
		}
	}
	if !found {
		t.Errorf("missing fields = %v, want date", intent.MissingFields)
	}
}

func TestExtractTimeFormats(t *testing.T) {
	e := NewIntentExtractor(fixedClock(t, "2026-03-09 10:00"))

	cases := []struct {
		msg  string
		want string
	}{
		{"agendar amanhã às 14:30", "14:30"},
		{"agendar amanhã às 14h", "14:00"},
		{"agendar amanhã às 14h30", "14:30"},
		{"agendar amanhã às 9 horas", "09:00"},
		{"agendar amanhã", ""},
	}
	for _, tc := range cases {
		intent := e.Extract(tc.msg, nil)
		if intent.Time != tc.want {
			t.Errorf("%q: time = %q, want %q", tc.msg, intent.Time, tc.want)
		}
	}
}

func TestExtractServiceCaseInsensitive(t *testing.T) {
	e := NewIntentExtractor(nil)

	intent := e.Extract("quero agendar uma LIMPEZA DE PELE", []string{"Limpeza de Pele"})
	if intent.Service != "Limpeza de Pele" {
		t.Errorf("service = %q, want Limpeza de Pele", intent.Service)
	}
}
