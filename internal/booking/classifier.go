package booking

import "strings"

// ConfirmationClassifier decides whether a message confirms a pending hold.
// Pluggable so the keyword matcher can be swapped for a real NLU component
// without touching the state machine.
type ConfirmationClassifier interface {
	IsConfirmation(message string) bool
}

// Explicit confirmation words, matched by substring containment. These win
// even inside a longer sentence.
var confirmationPhrases = []string{
	"confirmo", "confirmado", "confirmar", "pode confirmar", "confirm",
}

// Casual agreements. They only count when the message carries no booking
// keyword: "beleza, pode marcar amanhã?" asks for a new slot.
var agreementPhrases = []string{
	"combinado", "fechado", "pode ser", "beleza", "sounds good", "go ahead",
}

// Very short affirmatives are matched as whole tokens only, so "assim que
// der" or "ok, quero agendar amanhã" do not read as confirmations.
var confirmationTokens = []string{"sim", "ok", "yes"}

// KeywordConfirmationClassifier is the default keyword/substring strategy.
type KeywordConfirmationClassifier struct{}

// NewKeywordConfirmationClassifier returns the default classifier.
func NewKeywordConfirmationClassifier() *KeywordConfirmationClassifier {
	return &KeywordConfirmationClassifier{}
}

// IsConfirmation tests the message against the keyword lists.
func (c *KeywordConfirmationClassifier) IsConfirmation(message string) bool {
	lower := strings.ToLower(message)

	for _, phrase := range confirmationPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}

	// Agreement and token matches are skipped when the message also carries
	// a booking keyword: those are requests, not confirmations.
	for _, kw := range bookingKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	for _, phrase := range agreementPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	for _, token := range strings.FieldsFunc(lower, isTokenSeparator) {
		for _, want := range confirmationTokens {
			if token == want {
				return true
			}
		}
	}
	return false
}

func isTokenSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', ',', '.', '!', '?', ';', ':':
		return true
	}
	return false
}
