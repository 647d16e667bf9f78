package router

import (
	"strings"

	"github.com/soyeahso/maitred/internal/domain"
)

// Keyword sets per intent, French and English. Checked in priority order:
// a message mentioning both a reservation and an order routes to
// reservation.
var keywordSets = []struct {
	intent   domain.Intent
	keywords []string
}{
	{domain.IntentReservation, []string{
		"réserv", "reserv", "book", "booking", "table pour", "table for",
		"annul", "cancel",
	}},
	{domain.IntentOrder, []string{
		"command", "order", "livraison", "delivery", "deliver", "emporter",
		"takeaway", "take away",
	}},
	{domain.IntentMenu, []string{
		"menu", "carte", "plat", "dish", "dessert", "entrée", "starter",
		"végétarien", "vegetarian", "vegan", "allerg", "prix", "price",
	}},
	{domain.IntentInfo, []string{
		"horaire", "hours", "ouvert", "open", "adresse", "address",
		"téléphone", "phone", "où êtes", "where are", "parking",
	}},
}

// classifyByKeywords is the no-LLM fallback. It never fails: nothing
// matching means general.
func classifyByKeywords(text string) domain.RoutingDecision {
	lowered := strings.ToLower(text)

	for _, set := range keywordSets {
		for _, kw := range set.keywords {
			if strings.Contains(lowered, kw) {
				target, _ := handlerFor(set.intent)
				return domain.RoutingDecision{
					Intent:        set.intent,
					TargetHandler: target,
					Confidence:    keywordConfidence,
					Reason:        "keyword: " + kw,
				}
			}
		}
	}

	return domain.RoutingDecision{
		Intent:     domain.IntentGeneral,
		Confidence: generalConfidence,
		Reason:     "no keyword matched",
	}
}
