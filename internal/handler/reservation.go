package handler

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/soyeahso/maitred/internal/docstore"
	"github.com/soyeahso/maitred/internal/domain"
	"github.com/soyeahso/maitred/internal/llm"
	"github.com/soyeahso/maitred/internal/logging"
)

// ReservationHandler books tables. When a message carries a complete booking
// (party size, date, time) it checks capacity and records the reservation
// directly; otherwise it lets the LLM ask for whatever is missing.
type ReservationHandler struct {
	client llm.Client
	store  docstore.Store
	log    *logging.Logger
}

// NewReservation creates the reservation handler.
func NewReservation(client llm.Client, store docstore.Store, log *logging.Logger) *ReservationHandler {
	return &ReservationHandler{client: client, store: store, log: log.Sub("reservation")}
}

func (h *ReservationHandler) Name() string { return NameReservation }

var (
	guestsPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:personnes?|persons?|people|guests?|couverts?)`)
	datePattern   = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})|(\d{1,2}/\d{1,2}/\d{4})`)
	timePattern   = regexp.MustCompile(`(?i)(\d{1,2})\s*[h:]\s*(\d{2})?`)
)

type bookingRequest struct {
	Guests int
	Date   string
	Time   string
}

func (h *ReservationHandler) Respond(ctx context.Context, text string, meta map[string]string) (string, error) {
	booking, complete := extractBooking(text)
	if !complete {
		return h.clarify(ctx, text, meta)
	}

	table, err := h.findTable(ctx, booking)
	if err != nil {
		return "", err
	}
	if table == nil {
		return fmt.Sprintf(
			"Désolé, nous n'avons pas de table disponible pour %d personnes le %s à %s. Souhaitez-vous essayer un autre horaire ?",
			booking.Guests, booking.Date, booking.Time), nil
	}

	name := meta[MetaUserName]
	if name == "" {
		name = meta[MetaUserID]
	}
	doc := map[string]any{
		"dateTime":     booking.Date + "T" + booking.Time,
		"customerName": name,
		"nbPerson":     booking.Guests,
		"tableId":      table.ID,
	}
	if _, err := h.store.Insert(ctx, docstore.CollectionReservations, doc); err != nil {
		return "", fmt.Errorf("recording reservation: %w", err)
	}

	h.log.Info().Int("guests", booking.Guests).Str("date", booking.Date).
		Str("time", booking.Time).Str("table", table.ID).Msg("reservation confirmed")

	return fmt.Sprintf(
		"Réservation confirmée pour %d personnes le %s à %s. À très bientôt !",
		booking.Guests, booking.Date, booking.Time), nil
}

// clarify hands the message to the LLM with the table inventory so it can
// ask for missing details or handle changes and cancellations.
func (h *ReservationHandler) clarify(ctx context.Context, text string, meta map[string]string) (string, error) {
	tables, err := h.loadTables(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("You are the reservation assistant of a French restaurant.\n")
	b.WriteString("To confirm a booking you need the party size, the date and the time.\n")
	b.WriteString("Ask for whichever of those the customer has not given yet, one question at a time.\n")
	b.WriteString("Reply in the language the customer writes in.\n\n")
	b.WriteString("## Tables\n")
	for _, t := range tables {
		fmt.Fprintf(&b, "- %s: %d seats, %s\n", t.ID, t.NbSeats, t.Location)
	}
	return ask(ctx, h.client, b.String(), text, meta)
}

// findTable returns the smallest free table that fits the party, or nil.
func (h *ReservationHandler) findTable(ctx context.Context, booking bookingRequest) (*domain.Table, error) {
	tables, err := h.loadTables(ctx)
	if err != nil {
		return nil, err
	}

	taken, err := h.tablesTakenAt(ctx, booking.Date+"T"+booking.Time)
	if err != nil {
		return nil, err
	}

	var best *domain.Table
	for i := range tables {
		t := &tables[i]
		if t.NbSeats < booking.Guests || taken[t.ID] {
			continue
		}
		if best == nil || t.NbSeats < best.NbSeats {
			best = t
		}
	}
	return best, nil
}

func (h *ReservationHandler) loadTables(ctx context.Context) ([]domain.Table, error) {
	docs, err := h.store.Find(ctx, docstore.CollectionTables, nil)
	if err != nil {
		return nil, fmt.Errorf("loading tables: %w", err)
	}

	tables := make([]domain.Table, 0, len(docs))
	for _, doc := range docs {
		t, err := decodeDoc[domain.Table](doc)
		if err != nil {
			h.log.Warn().Err(err).Msg("skipping malformed table")
			continue
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func (h *ReservationHandler) tablesTakenAt(ctx context.Context, dateTime string) (map[string]bool, error) {
	docs, err := h.store.Find(ctx, docstore.CollectionReservations, map[string]any{"dateTime": dateTime})
	if err != nil {
		return nil, fmt.Errorf("loading reservations: %w", err)
	}

	taken := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if id, ok := doc["tableId"].(string); ok && id != "" {
			taken[id] = true
		}
	}
	return taken, nil
}

// extractBooking pulls party size, date and time out of free text. The
// booking is complete only when all three are present.
func extractBooking(text string) (bookingRequest, bool) {
	var booking bookingRequest

	if m := guestsPattern.FindStringSubmatch(text); m != nil {
		booking.Guests, _ = strconv.Atoi(m[1])
	}
	if m := datePattern.FindString(text); m != "" {
		booking.Date = normalizeDate(m)
	}
	if m := timePattern.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour < 24 && minute < 60 {
			booking.Time = fmt.Sprintf("%02d:%02d", hour, minute)
		}
	}

	return booking, booking.Guests > 0 && booking.Date != "" && booking.Time != ""
}

// normalizeDate converts DD/MM/YYYY to ISO; ISO input passes through.
func normalizeDate(s string) string {
	if strings.Contains(s, "/") {
		parts := strings.Split(s, "/")
		if len(parts) == 3 {
			day, _ := strconv.Atoi(parts[0])
			month, _ := strconv.Atoi(parts[1])
			return fmt.Sprintf("%s-%02d-%02d", parts[2], month, day)
		}
	}
	return s
}
