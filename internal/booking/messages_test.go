package booking

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHoldPlacedMessage(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	appt := &Appointment{
		Service:         "Corte de Cabelo",
		StartsAt:        time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC),
		DurationMinutes: 45,
	}
	msg := HoldPlacedMessage(appt, loc, 10*time.Minute)

	assert.Contains(t, msg, "Corte de Cabelo")
	assert.Contains(t, msg, "10/03/2026 às 14:00")
	assert.Contains(t, msg, "10 minutos")
	assert.Contains(t, msg, `"confirmo"`)
}

func TestSlotListMessagesCapAtFive(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	var slots []time.Time
	for i := 0; i < 8; i++ {
		slots = append(slots, day.Add(time.Duration(9+i)*time.Hour))
	}

	msg := AvailableSlotsMessage(day, slots)
	assert.Equal(t, 5, countLines(msg, "- "))

	taken := SlotTakenMessage(day, slots)
	assert.Contains(t, taken, "já está reservado")
	assert.Equal(t, 5, countLines(taken, "- "))
}

func TestSlotListMessagesEmpty(t *testing.T) {
	day := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)

	msg := AvailableSlotsMessage(day, nil)
	assert.Contains(t, msg, "não há horários disponíveis para 08/03/2026")

	taken := SlotTakenMessage(day, nil)
	assert.Equal(t, msg, taken)
}

func TestConfirmedMessageIncludesLink(t *testing.T) {
	appt := &Appointment{
		StartsAt:          time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC),
		DurationMinutes:   45,
		CalendarEventLink: "https://calendar.example/evt123",
	}
	msg := ConfirmedMessage(appt, time.UTC)

	assert.Contains(t, msg, "confirmado para 10/03/2026 às 17:00")
	assert.Contains(t, msg, "https://calendar.example/evt123")

	appt.CalendarEventLink = ""
	assert.NotContains(t, ConfirmedMessage(appt, time.UTC), "https://")
}

func TestMissingDateTimeMessage(t *testing.T) {
	assert.Contains(t, MissingDateTimeMessage([]string{"date", "time"}), "dia e horário")
	assert.Contains(t, MissingDateTimeMessage([]string{"date"}), "qual dia")
	assert.Contains(t, MissingDateTimeMessage([]string{"time"}), "horário")
}

func countLines(s, prefix string) int {
	count := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(line, prefix) {
			count++
		}
	}
	return count
}
