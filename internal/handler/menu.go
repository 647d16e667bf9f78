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

// MenuHandler answers questions about dishes, categories, prices, dietary
// constraints and allergens, grounded on the menu in the document store.
type MenuHandler struct {
	client llm.Client
	store  docstore.Store
	log    *logging.Logger
}

// NewMenu creates the menu handler.
func NewMenu(client llm.Client, store docstore.Store, log *logging.Logger) *MenuHandler {
	return &MenuHandler{client: client, store: store, log: log.Sub("menu")}
}

func (h *MenuHandler) Name() string { return NameMenu }

func (h *MenuHandler) Respond(ctx context.Context, text string, meta map[string]string) (string, error) {
	docs, err := h.store.Find(ctx, docstore.CollectionDishes, nil)
	if err != nil {
		return "", fmt.Errorf("loading menu: %w", err)
	}

	dishes := make([]domain.Dish, 0, len(docs))
	for _, doc := range docs {
		dish, err := decodeDoc[domain.Dish](doc)
		if err != nil {
			h.log.Warn().Err(err).Msg("skipping malformed dish")
			continue
		}
		dishes = append(dishes, dish)
	}

	return ask(ctx, h.client, buildMenuPrompt(dishes), text, meta)
}

func buildMenuPrompt(dishes []domain.Dish) string {
	var b strings.Builder

	b.WriteString("You are the menu assistant of a French restaurant.\n")
	b.WriteString("Answer questions about dishes, categories, prices, vegetarian options and allergens using ONLY the menu below.\n")
	b.WriteString("Reply in the language the customer writes in. Keep answers short and warm.\n")
	b.WriteString("If a dish is not on the menu, say so rather than inventing one.\n\n")

	b.WriteString("## Menu\n\n")
	for _, d := range dishes {
		fmt.Fprintf(&b, "- %s (%s) — %.2f EUR", d.Name, d.Category, d.Price)
		if d.IsVegetarian {
			b.WriteString(" [vegetarian]")
		}
		if allergens := dishAllergens(d); len(allergens) > 0 {
			fmt.Fprintf(&b, " allergens: %s", strings.Join(allergens, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func dishAllergens(d domain.Dish) []string {
	var out []string
	for _, ing := range d.Ingredients {
		if ing.IsAllergen && ing.AllergenType != "" {
			out = append(out, ing.AllergenType)
		}
	}
	return out
}
