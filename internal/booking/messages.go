package booking

import (
	"fmt"
	"strings"
	"time"
)

// maxOfferedSlots caps how many alternative times a single reply lists.
const maxOfferedSlots = 5

// Customer-facing replies are Brazilian Portuguese; that is the product's
// market and the language the personas speak.

func formatDay(t time.Time) string   { return t.Format("02/01/2006") }
func formatClock(t time.Time) string { return t.Format("15:04") }

// HoldPlacedMessage announces a fresh or renewed hold and the confirmation
// window.
func HoldPlacedMessage(appt *Appointment, loc *time.Location, ttl time.Duration) string {
	local := appt.StartsAt.In(loc)
	var b strings.Builder
	b.WriteString("Ótimo! Reservei ")
	if appt.Service != "" {
		b.WriteString(appt.Service)
		b.WriteString(" para ")
	} else {
		b.WriteString("seu horário para ")
	}
	fmt.Fprintf(&b, "%s às %s.", formatDay(local), formatClock(local))
	fmt.Fprintf(&b, " O horário fica guardado por %d minutos.", int(ttl.Minutes()))
	b.WriteString(" Responda \"confirmo\" para garantir seu agendamento.")
	return b.String()
}

// SlotTakenMessage is sent when the requested time conflicts; it offers up
// to maxOfferedSlots alternatives for the same day.
func SlotTakenMessage(date time.Time, alternatives []time.Time) string {
	if len(alternatives) == 0 {
		return NoSlotsMessage(date)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Desculpe, este horário já está reservado. Tenho estas opções para %s:\n", formatDay(date))
	writeSlotList(&b, alternatives)
	b.WriteString("\nQual prefere?")
	return b.String()
}

// AvailableSlotsMessage lists openings when the customer gave a date but no
// time.
func AvailableSlotsMessage(date time.Time, slots []time.Time) string {
	if len(slots) == 0 {
		return NoSlotsMessage(date)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Tenho estes horários disponíveis para %s:\n", formatDay(date))
	writeSlotList(&b, slots)
	b.WriteString("\nQual prefere?")
	return b.String()
}

func writeSlotList(b *strings.Builder, slots []time.Time) {
	n := len(slots)
	if n > maxOfferedSlots {
		n = maxOfferedSlots
	}
	for i := 0; i < n; i++ {
		fmt.Fprintf(b, "- %s\n", formatClock(slots[i]))
	}
}

// NoSlotsMessage is sent when the whole day is full or closed.
func NoSlotsMessage(date time.Time) string {
	return fmt.Sprintf("Desculpe, não há horários disponíveis para %s. Gostaria de verificar outro dia?", formatDay(date))
}

// ConfirmedMessage announces the promoted appointment, with the calendar
// link when one exists.
func ConfirmedMessage(appt *Appointment, loc *time.Location) string {
	local := appt.StartsAt.In(loc)
	msg := fmt.Sprintf("Agendamento confirmado para %s às %s. Até lá!", formatDay(local), formatClock(local))
	if appt.CalendarEventLink != "" {
		msg += "\n" + appt.CalendarEventLink
	}
	return msg
}

// NothingToConfirmMessage is sent when a confirmation arrives with no live
// hold, including after the hold expired.
func NothingToConfirmMessage() string {
	return "Não encontrei nenhuma reserva pendente em seu nome. Gostaria de agendar um horário?"
}

// CalendarFailMessage is sent when the calendar provider failed; the hold is
// still live, so the customer can just try again.
func CalendarFailMessage() string {
	return "Desculpe, tivemos um problema ao confirmar seu agendamento. Por favor, tente novamente em instantes."
}

// MissingDateTimeMessage asks for the pieces the intent extractor could not
// find.
func MissingDateTimeMessage(missing []string) string {
	needDate := false
	needTime := false
	for _, f := range missing {
		switch f {
		case "date":
			needDate = true
		case "time":
			needTime = true
		}
	}
	switch {
	case needDate && needTime:
		return "Claro! Para qual dia e horário você gostaria de agendar? Por exemplo: \"amanhã às 14:00\"."
	case needDate:
		return "Claro! Para qual dia você gostaria de agendar?"
	default:
		return "Claro! Qual horário você prefere?"
	}
}

// ClosedDayMessage is sent when the requested date falls outside the
// business's available days.
func ClosedDayMessage(date time.Time) string {
	return fmt.Sprintf("Desculpe, não atendemos em %s. Gostaria de verificar outro dia?", formatDay(date))
}

// PastTimeMessage is sent when the requested slot is already in the past.
func PastTimeMessage() string {
	return "Esse horário já passou. Gostaria de escolher outro?"
}

// ApologyMessage is the generic failure reply.
func ApologyMessage() string {
	return "Desculpe, tivemos um problema ao processar sua mensagem. Pode tentar novamente em instantes?"
}

// CancelledByBusinessMessage tells the customer their confirmed appointment
// was cancelled on the business side.
func CancelledByBusinessMessage(appt *Appointment, loc *time.Location) string {
	local := appt.StartsAt.In(loc)
	label := ""
	if appt.Service != "" {
		label = " de " + appt.Service
	}
	return fmt.Sprintf("⚠️ O agendamento%s marcado para %s às %s foi cancelado pelo profissional. Posso ajudar a remarcar?",
		label, formatDay(local), formatClock(local))
}
