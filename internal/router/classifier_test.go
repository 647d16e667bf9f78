package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/maitred/internal/domain"
	"github.com/soyeahso/maitred/internal/handler"
	"github.com/soyeahso/maitred/internal/llm"
	"github.com/soyeahso/maitred/internal/logging"
)

func testClassifier(client llm.Client) *Classifier {
	return NewClassifier(client, logging.New(nil, "silent"))
}

func jsonClient(body string) *llm.MockClient {
	return &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{Content: body}, nil
		},
	}
}

func TestClassifyLLMDecision(t *testing.T) {
	c := testClassifier(jsonClient(`{"intent": "reservation", "confidence": 0.92, "reason": "wants a table"}`))

	d := c.Classify(context.Background(), "a table for two tonight please", nil)
	assert.Equal(t, domain.IntentReservation, d.Intent)
	assert.Equal(t, handler.NameReservation, d.TargetHandler)
	assert.InDelta(t, 0.92, d.Confidence, 0.001)
	assert.Equal(t, "wants a table", d.Reason)
}

func TestClassifyStripsCodeFences(t *testing.T) {
	c := testClassifier(jsonClient("```json\n{\"intent\": \"menu\", \"confidence\": 0.8, \"reason\": \"asks about dishes\"}\n```"))

	d := c.Classify(context.Background(), "do you have vegetarian dishes?", nil)
	assert.Equal(t, domain.IntentMenu, d.Intent)
	assert.Equal(t, handler.NameMenu, d.TargetHandler)
}

func TestClassifyLLMErrorFallsBack(t *testing.T) {
	c := testClassifier(&llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return nil, errors.New("provider down")
		},
	})

	d := c.Classify(context.Background(), "je voudrais réserver une table", nil)
	assert.Equal(t, domain.IntentReservation, d.Intent)
	assert.Equal(t, handler.NameReservation, d.TargetHandler)
}

func TestClassifyGarbageJSONFallsBack(t *testing.T) {
	c := testClassifier(jsonClient("Sure! I'd classify this as a menu question."))

	d := c.Classify(context.Background(), "what's on the menu?", nil)
	assert.Equal(t, domain.IntentMenu, d.Intent)
}

func TestClassifyUnknownIntentFallsBack(t *testing.T) {
	c := testClassifier(jsonClient(`{"intent": "weather", "confidence": 0.9}`))

	d := c.Classify(context.Background(), "I want to order a pizza", nil)
	assert.Equal(t, domain.IntentOrder, d.Intent)
}

func TestClassifyEmptyInput(t *testing.T) {
	c := testClassifier(nil)

	d := c.Classify(context.Background(), "   ", nil)
	assert.Equal(t, domain.IntentGeneral, d.Intent)
}

func TestClassifyNilClientUsesKeywords(t *testing.T) {
	c := testClassifier(nil)

	d := c.Classify(context.Background(), "What are your opening hours?", nil)
	assert.Equal(t, domain.IntentInfo, d.Intent)
	assert.Equal(t, handler.NameFAQ, d.TargetHandler)
}

func TestClassifyPassesHistory(t *testing.T) {
	var sawHistory bool
	client := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			for _, m := range req.Messages {
				if m.Role == llm.RoleUser && len(m.Content) > 0 &&
					m.Content != "and for tomorrow?" {
					sawHistory = true
				}
			}
			return &llm.CompletionResponse{Content: `{"intent": "reservation", "confidence": 0.9}`}, nil
		},
	}
	c := testClassifier(client)

	recent := []domain.Turn{{UserText: "book a table for 2", Response: "For which day?"}}
	d := c.Classify(context.Background(), "and for tomorrow?", recent)
	require.Equal(t, domain.IntentReservation, d.Intent)
	assert.True(t, sawHistory)
}

func TestKeywordPriority(t *testing.T) {
	tests := []struct {
		text   string
		intent domain.Intent
	}{
		{"cancel my reservation for the pasta order", domain.IntentReservation},
		{"I want to order the menu of the day", domain.IntentOrder},
		{"quels plats végétariens avez-vous ?", domain.IntentMenu},
		{"où êtes-vous situés ?", domain.IntentInfo},
		{"bonjour !", domain.IntentGeneral},
		{"", domain.IntentGeneral},
	}
	for _, tt := range tests {
		d := classifyByKeywords(tt.text)
		assert.Equal(t, tt.intent, d.Intent, tt.text)
		if tt.intent == domain.IntentGeneral {
			assert.Empty(t, d.TargetHandler, tt.text)
		} else {
			assert.NotEmpty(t, d.TargetHandler, tt.text)
		}
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{`{"intent": "menu"}`, `{"intent": "menu"}`},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```{\"a\": 1}```", `{"a": 1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.out, stripCodeFences(tt.in), tt.in)
	}
}
