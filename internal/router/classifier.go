// Package router classifies user messages into intents and picks the
// handler that should answer them.
package router

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/soyeahso/maitred/internal/domain"
	"github.com/soyeahso/maitred/internal/handler"
	"github.com/soyeahso/maitred/internal/llm"
	"github.com/soyeahso/maitred/internal/logging"
)

// Confidence levels for the non-LLM paths.
const (
	keywordConfidence = 0.7
	generalConfidence = 0.3
)

const classifyMaxTokens = 200

// Classifier turns a message into a RoutingDecision. The LLM does the
// classification when it can; any failure there falls back to keyword
// matching, so classification itself never fails.
type Classifier struct {
	client llm.Client
	log    *logging.Logger
}

// NewClassifier creates a classifier. A nil client skips straight to the
// keyword fallback.
func NewClassifier(client llm.Client, log *logging.Logger) *Classifier {
	return &Classifier{client: client, log: log.Sub("router")}
}

// Classify decides which intent and handler the message belongs to.
func (c *Classifier) Classify(ctx context.Context, text string, recent []domain.Turn) domain.RoutingDecision {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.RoutingDecision{
			Intent:     domain.IntentGeneral,
			Confidence: generalConfidence,
			Reason:     "empty input",
		}
	}

	if c.client != nil {
		if decision, ok := c.classifyLLM(ctx, trimmed, recent); ok {
			return decision
		}
	}
	return classifyByKeywords(trimmed)
}

type llmDecision struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

func (c *Classifier) classifyLLM(ctx context.Context, text string, recent []domain.Turn) (domain.RoutingDecision, bool) {
	messages := make([]llm.Message, 0, 2)
	if history := FormatHistory(recent); history != "" {
		messages = append(messages, llm.Message{
			Role:    llm.RoleUser,
			Content: "Conversation so far:\n" + history,
		})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: text})

	resp, err := c.client.Complete(ctx, llm.CompletionRequest{
		System:    classifyPrompt,
		Messages:  messages,
		MaxTokens: classifyMaxTokens,
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("llm classification failed, using keywords")
		return domain.RoutingDecision{}, false
	}

	var parsed llmDecision
	if err := json.Unmarshal([]byte(stripCodeFences(resp.Content)), &parsed); err != nil {
		c.log.Warn().Err(err).Str("raw", resp.Content).Msg("unparseable classification, using keywords")
		return domain.RoutingDecision{}, false
	}

	intent := domain.Intent(strings.ToLower(strings.TrimSpace(parsed.Intent)))
	target, known := handlerFor(intent)
	if !known {
		c.log.Warn().Str("intent", string(intent)).Msg("unknown intent from llm, using keywords")
		return domain.RoutingDecision{}, false
	}

	confidence := parsed.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = keywordConfidence
	}
	return domain.RoutingDecision{
		Intent:        intent,
		TargetHandler: target,
		Confidence:    confidence,
		Reason:        parsed.Reason,
	}, true
}

const classifyPrompt = `You classify messages sent to a French restaurant's assistant.

Intents:
- reservation: booking, changing or cancelling a table
- order: ordering food, takeaway, delivery, order status
- menu: dishes, prices, categories, allergens, dietary questions
- info: opening hours, address, phone, directions, parking
- general: greetings, small talk, anything else

Reply with ONLY a JSON object: {"intent": "...", "confidence": 0.0, "reason": "..."}`

// handlerFor maps an intent to the handler registered for it. general has
// no target: the orchestrator owns what "handle generally" means.
func handlerFor(intent domain.Intent) (string, bool) {
	switch intent {
	case domain.IntentReservation:
		return handler.NameReservation, true
	case domain.IntentOrder:
		return handler.NameOrder, true
	case domain.IntentMenu:
		return handler.NameMenu, true
	case domain.IntentInfo:
		return handler.NameFAQ, true
	case domain.IntentGeneral:
		return "", true
	}
	return "", false
}

// stripCodeFences removes a surrounding markdown code fence, with or
// without a language tag.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		// drop the language tag line
		if !strings.ContainsAny(s[:idx], "{}") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// FormatHistory renders recent turns as alternating user/assistant lines.
func FormatHistory(turns []domain.Turn) string {
	if len(turns) == 0 {
		return ""
	}
	var b strings.Builder
	for _, t := range turns {
		b.WriteString("user: ")
		b.WriteString(t.UserText)
		b.WriteString("\nassistant: ")
		b.WriteString(t.Response)
		b.WriteString("\n")
	}
	return b.String()
}
