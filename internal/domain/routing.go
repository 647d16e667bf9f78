package domain

// Intent labels the classified purpose of a user request.
type Intent string

// Known intents, in fallback priority order (highest first).
const (
	IntentReservation Intent = "reservation"
	IntentOrder       Intent = "order"
	IntentMenu        Intent = "menu"
	IntentInfo        Intent = "info"
	IntentGeneral     Intent = "general"
)

// RoutingDecision is the output of intent classification.
// TargetHandler may be empty, meaning "no specialized handler applies";
// the orchestrator then falls back to a direct or default response.
type RoutingDecision struct {
	Intent        Intent  `json:"intent"`
	TargetHandler string  `json:"targetHandler,omitempty"`
	Confidence    float64 `json:"confidence"`
	Reason        string  `json:"reason,omitempty"`
}

// Response is the aggregated, user-facing result of one handled request.
type Response struct {
	Text      string `json:"text"`
	SessionID string `json:"sessionId"`
	Handler   string `json:"handler,omitempty"`
	Intent    Intent `json:"intent"`
}
