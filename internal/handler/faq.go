package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/soyeahso/maitred/internal/docstore"
	"github.com/soyeahso/maitred/internal/domain"
	"github.com/soyeahso/maitred/internal/llm"
	"github.com/soyeahso/maitred/internal/logging"
)

// FAQHandler answers practical questions (hours, address, phone) and general
// small talk, grounded on the restaurant_info collection. It is also the
// routing target for messages no specialized handler claims.
type FAQHandler struct {
	client llm.Client
	store  docstore.Store
	log    *logging.Logger
}

// NewFAQ creates the FAQ handler.
func NewFAQ(client llm.Client, store docstore.Store, log *logging.Logger) *FAQHandler {
	return &FAQHandler{client: client, store: store, log: log.Sub("faq")}
}

func (h *FAQHandler) Name() string { return NameFAQ }

func (h *FAQHandler) Respond(ctx context.Context, text string, meta map[string]string) (string, error) {
	docs, err := h.store.Find(ctx, docstore.CollectionInfo, nil)
	if err != nil {
		return "", fmt.Errorf("loading restaurant info: %w", err)
	}

	var info domain.RestaurantInfo
	if len(docs) > 0 {
		if decoded, err := decodeDoc[domain.RestaurantInfo](docs[0]); err == nil {
			info = decoded
		} else {
			h.log.Warn().Err(err).Msg("malformed restaurant info document")
		}
	}

	return ask(ctx, h.client, buildFAQPrompt(info), text, meta)
}

func buildFAQPrompt(info domain.RestaurantInfo) string {
	var b strings.Builder

	b.WriteString("You are the host of a French restaurant, chatting with a customer.\n")
	b.WriteString("Answer practical questions from the facts below and handle greetings and small talk graciously.\n")
	b.WriteString("Reply in the language the customer writes in. Be brief and warm.\n")
	b.WriteString("If asked something the facts do not cover, suggest calling the restaurant.\n\n")

	b.WriteString("## Restaurant\n")
	if info.Name != "" {
		fmt.Fprintf(&b, "Name: %s\n", info.Name)
	}
	if info.Address != "" {
		fmt.Fprintf(&b, "Address: %s\n", info.Address)
	}
	if info.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", info.Phone)
	}
	if info.Hours != "" {
		fmt.Fprintf(&b, "Hours: %s\n", info.Hours)
	}
	return b.String()
}
