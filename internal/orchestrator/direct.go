package orchestrator

import "strings"

// Short messages answered without touching the LLM.
var (
	greetings = map[string]string{
		"bonjour":      "Bonjour ! Bienvenue, comment puis-je vous aider ?",
		"bonsoir":      "Bonsoir ! Comment puis-je vous aider ?",
		"salut":        "Salut ! Comment puis-je vous aider ?",
		"hello":        "Hello! Welcome, how can I help you?",
		"hi":           "Hi! How can I help you?",
		"good evening": "Good evening! How can I help you?",
	}
	farewells = map[string]string{
		"au revoir":       "Au revoir, à bientôt !",
		"à bientôt":       "À bientôt !",
		"bonne soirée":    "Merci, bonne soirée à vous !",
		"bye":             "Goodbye, see you soon!",
		"goodbye":         "Goodbye, see you soon!",
		"merci au revoir": "Merci à vous, au revoir !",
	}
)

// directReply answers greetings, farewells and empty input without
// classification. Only bare phrases qualify: "bonjour, une table pour 2"
// goes through routing.
func directReply(text string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.TrimRight(normalized, "!. ")

	if normalized == "" {
		return "Je n'ai rien reçu. Comment puis-je vous aider ?", true
	}
	if reply, ok := greetings[normalized]; ok {
		return reply, true
	}
	if reply, ok := farewells[normalized]; ok {
		return reply, true
	}
	return "", false
}
