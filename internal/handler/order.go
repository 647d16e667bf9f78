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

// OrderHandler takes takeaway orders. Dish names recognized in the message
// become a recorded order; anything else goes to the LLM with the menu so it
// can guide the customer.
type OrderHandler struct {
	client llm.Client
	store  docstore.Store
	log    *logging.Logger
}

// NewOrder creates the order handler.
func NewOrder(client llm.Client, store docstore.Store, log *logging.Logger) *OrderHandler {
	return &OrderHandler{client: client, store: store, log: log.Sub("order")}
}

func (h *OrderHandler) Name() string { return NameOrder }

func (h *OrderHandler) Respond(ctx context.Context, text string, meta map[string]string) (string, error) {
	dishes, err := h.loadDishes(ctx)
	if err != nil {
		return "", err
	}

	items := matchDishes(text, dishes)
	if len(items) == 0 {
		return h.guide(ctx, text, meta, dishes)
	}

	total := 0.0
	names := make([]string, 0, len(items))
	for _, d := range items {
		total += d.Price
		names = append(names, d.Name)
	}

	name := meta[MetaUserName]
	if name == "" {
		name = meta[MetaUserID]
	}
	doc := map[string]any{
		"customerName": name,
		"items":        items,
		"orderType":    "takeaway",
		"status":       "pending",
		"totalPrice":   total,
	}
	if _, err := h.store.Insert(ctx, docstore.CollectionOrders, doc); err != nil {
		return "", fmt.Errorf("recording order: %w", err)
	}

	h.log.Info().Int("items", len(items)).Float64("total", total).Msg("order recorded")

	return fmt.Sprintf(
		"Commande enregistrée : %s. Total : %.2f EUR. Elle sera prête dans une vingtaine de minutes !",
		strings.Join(names, ", "), total), nil
}

func (h *OrderHandler) guide(ctx context.Context, text string, meta map[string]string, dishes []domain.Dish) (string, error) {
	var b strings.Builder
	b.WriteString("You are the takeaway order assistant of a French restaurant.\n")
	b.WriteString("Help the customer pick dishes from the menu below, then ask them to confirm by naming the dishes.\n")
	b.WriteString("Reply in the language the customer writes in.\n\n")
	b.WriteString("## Menu\n")
	for _, d := range dishes {
		fmt.Fprintf(&b, "- %s (%s) — %.2f EUR\n", d.Name, d.Category, d.Price)
	}
	return ask(ctx, h.client, b.String(), text, meta)
}

func (h *OrderHandler) loadDishes(ctx context.Context) ([]domain.Dish, error) {
	docs, err := h.store.Find(ctx, docstore.CollectionDishes, nil)
	if err != nil {
		return nil, fmt.Errorf("loading menu: %w", err)
	}

	dishes := make([]domain.Dish, 0, len(docs))
	for _, doc := range docs {
		d, err := decodeDoc[domain.Dish](doc)
		if err != nil {
			h.log.Warn().Err(err).Msg("skipping malformed dish")
			continue
		}
		dishes = append(dishes, d)
	}
	return dishes, nil
}

// matchDishes returns the dishes whose names appear in the message,
// case-insensitively, in menu order.
func matchDishes(text string, dishes []domain.Dish) []domain.Dish {
	lowered := strings.ToLower(text)

	var matched []domain.Dish
	for _, d := range dishes {
		if d.Name != "" && strings.Contains(lowered, strings.ToLower(d.Name)) {
			matched = append(matched, d)
		}
	}
	return matched
}
