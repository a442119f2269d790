package booking

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Intent is the best-effort structured reading of a customer message.
// Date is "2006-01-02" and Time is "15:04"; empty means not found.
type Intent struct {
	HasIntent     bool
	Date          string
	Time          string
	Service       string
	MissingFields []string
}

// Keywords that signal a booking request. Portuguese first (the product's
// main market), plus the English equivalents.
var bookingKeywords = []string{
	"agendar", "agendamento", "marcar", "marcação", "marcacao",
	"horário", "horario", "consulta", "atendimento",
	"reunião", "reuniao", "visita", "encontro",
	"disponível", "disponivel", "livre", "quando", "quando posso",
	"book", "schedule", "appointment", "available", "when can i",
}

var (
	reDateSlashFull = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)
	reDateSlash     = regexp.MustCompile(`(\d{1,2})/(\d{1,2})`)
	reDateISO       = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)

	reTimeColon = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	reTimeH     = regexp.MustCompile(`(\d{1,2})h(\d{2})?`)
	reTimeHoras = regexp.MustCompile(`(\d{1,2}) horas?`)
)

// IntentExtractor turns free text plus the tenant's known service names into
// a structured booking intent. It is deterministic and total: it never fails,
// ambiguity surfaces as missing fields.
type IntentExtractor struct {
	now func() time.Time
}

// NewIntentExtractor creates an extractor. A nil clock uses time.Now.
func NewIntentExtractor(now func() time.Time) *IntentExtractor {
	if now == nil {
		now = time.Now
	}
	return &IntentExtractor{now: now}
}

// Extract parses the message. Pattern priority is fixed: explicit numeric
// dates beat relative keywords, and the first match of each kind wins.
func (e *IntentExtractor) Extract(message string, serviceNames []string) Intent {
	lower := strings.ToLower(message)

	hasIntent := false
	for _, kw := range bookingKeywords {
		if strings.Contains(lower, kw) {
			hasIntent = true
			break
		}
	}
	if !hasIntent {
		return Intent{HasIntent: false}
	}

	intent := Intent{HasIntent: true}
	intent.Date = e.extractDate(message, lower)
	intent.Time = extractTime(message)
	intent.Service = matchService(lower, serviceNames)

	if intent.Date == "" {
		intent.MissingFields = append(intent.MissingFields, "date")
	}
	if intent.Time == "" {
		intent.MissingFields = append(intent.MissingFields, "time")
	}
	if intent.Service == "" {
		intent.MissingFields = append(intent.MissingFields, "service")
	}
	return intent
}

func (e *IntentExtractor) extractDate(message, lower string) string {
	if m := reDateSlashFull.FindStringSubmatch(message); m != nil {
		return civilDate(atoi(m[3]), atoi(m[2]), atoi(m[1]))
	}
	if m := reDateSlash.FindStringSubmatch(message); m != nil {
		return civilDate(e.now().Year(), atoi(m[2]), atoi(m[1]))
	}
	if m := reDateISO.FindStringSubmatch(message); m != nil {
		return civilDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	// "depois de amanhã" must be tested before "amanhã".
	switch {
	case strings.Contains(lower, "depois de amanhã") || strings.Contains(lower, "depois de amanha"):
		return e.now().AddDate(0, 0, 2).Format("2006-01-02")
	case strings.Contains(lower, "amanhã") || strings.Contains(lower, "amanha"):
		return e.now().AddDate(0, 0, 1).Format("2006-01-02")
	case strings.Contains(lower, "hoje"):
		return e.now().Format("2006-01-02")
	}
	return ""
}

// civilDate validates the components strictly; 31/02 is "not found", it does
// not roll over into March.
func civilDate(year, month, day int) string {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return ""
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return ""
	}
	return d.Format("2006-01-02")
}

func extractTime(message string) string {
	patterns := []*regexp.Regexp{reTimeColon, reTimeH, reTimeHoras}
	for _, pattern := range patterns {
		m := pattern.FindStringSubmatch(message)
		if m == nil {
			continue
		}
		hour := atoi(m[1])
		minute := 0
		if len(m) > 2 && m[2] != "" {
			minute = atoi(m[2])
		}
		// Out-of-range values are discarded; the first matching pattern
		// still wins, so a bogus "25:99" does not fall through to "25h".
		if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
			return ""
		}
		return padTwo(hour) + ":" + padTwo(minute)
	}
	return ""
}

func matchService(lower string, serviceNames []string) string {
	for _, name := range serviceNames {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(trimmed)) {
			return trimmed
		}
	}
	return ""
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func padTwo(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
