package handler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/soyeahso/maitred/internal/llm"
)

// Handler names as registered with the registry and targeted by routing.
const (
	NameMenu        = "menu"
	NameReservation = "reservation"
	NameOrder       = "order"
	NameFAQ         = "faq"
)

// Meta keys the orchestrator fills in for each request.
const (
	MetaUserID    = "userId"
	MetaUserName  = "userName"
	MetaHistory   = "history"
	MetaSessionID = "sessionId"
)

const replyMaxTokens = 512

// ask sends a single completion request, folding any conversation history
// from meta in as a leading user message.
func ask(ctx context.Context, client llm.Client, system, text string, meta map[string]string) (string, error) {
	var messages []llm.Message
	if history := meta[MetaHistory]; history != "" {
		messages = append(messages, llm.Message{
			Role:    llm.RoleUser,
			Content: "Conversation so far:\n" + history,
		})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: text})

	resp, err := client.Complete(ctx, llm.CompletionRequest{
		System:    system,
		Messages:  messages,
		MaxTokens: replyMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("completing via %s: %w", client.Name(), err)
	}
	return resp.Content, nil
}

// decodeDoc maps a raw store document onto a typed record.
func decodeDoc[T any](doc map[string]any) (T, error) {
	var out T
	raw, err := json.Marshal(doc)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}
