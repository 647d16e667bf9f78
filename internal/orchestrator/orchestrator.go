// Package orchestrator runs the conversation loop: it resolves the user's
// session, classifies the message, invokes the right handler and records
// the turn.
package orchestrator

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/soyeahso/maitred/internal/domain"
	"github.com/soyeahso/maitred/internal/handler"
	"github.com/soyeahso/maitred/internal/hooks"
	"github.com/soyeahso/maitred/internal/logging"
	"github.com/soyeahso/maitred/internal/metrics"
	"github.com/soyeahso/maitred/internal/router"
	"github.com/soyeahso/maitred/internal/session"
)

// Apology returned to the user when a handler fails. The conversation
// continues; the failure is logged and measured, never surfaced as an error.
const Apology = "Désolé, une erreur est survenue. Veuillez réessayer."

// DefaultRequestTimeout bounds a single handler invocation.
const DefaultRequestTimeout = 30 * time.Second

// Request processing states, logged as the request advances.
const (
	stateReceived        = "RECEIVED"
	stateSessionResolved = "SESSION_RESOLVED"
	stateClassified      = "INTENT_CLASSIFIED"
	stateHandlerSelected = "HANDLER_SELECTED"
	stateHandlerInvoked  = "HANDLER_INVOKED"
	stateSessionUpdated  = "SESSION_UPDATED"
	stateFailed          = "FAILED"
)

// Orchestrator ties the session store, classifier and handler registry
// together behind a single Handle call.
type Orchestrator struct {
	sessions   session.Store
	registry   *handler.Registry
	classifier *router.Classifier
	recorder   *metrics.Recorder
	events     *hooks.Manager
	log        *logging.Logger
	timeout    time.Duration
	locks      keyedLocks
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRequestTimeout overrides the per-request handler timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r *metrics.Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithEvents attaches a lifecycle event manager.
func WithEvents(m *hooks.Manager) Option {
	return func(o *Orchestrator) { o.events = m }
}

// New creates an orchestrator.
func New(sessions session.Store, registry *handler.Registry, classifier *router.Classifier, log *logging.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sessions:   sessions,
		registry:   registry,
		classifier: classifier,
		log:        log.Sub("orchestrator"),
		timeout:    DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Handle processes one user message and always produces a user-facing
// response. Handler and classification failures become an apology, not an
// error; only infrastructure problems (an unusable session store) propagate.
func (o *Orchestrator) Handle(ctx context.Context, userID, text, sessionID string) (domain.Response, error) {
	if o.sessions == nil {
		return domain.Response{}, errors.New("orchestrator: no session store")
	}

	o.log.Debug().Str("user", userID).Str("state", stateReceived).Msg("message received")
	o.events.Emit(ctx, hooks.EventMessageReceived, map[string]any{
		"userId": userID, "sessionId": sessionID,
	})

	sess, err := o.resolveSession(ctx, userID, sessionID)
	if err != nil {
		return domain.Response{}, err
	}
	o.log.Debug().Str("state", stateSessionResolved).Str("sessionId", sess.ID).Msg("session resolved")

	// serialize turns within one session
	unlock := o.locks.lock(sess.ID)
	defer unlock()

	if reply, ok := directReply(text); ok {
		return o.finishTurn(ctx, sess, text, reply, "", domain.IntentGeneral)
	}

	decision := o.classifier.Classify(ctx, text, sess.Turns)
	o.log.Debug().Str("state", stateClassified).Str("intent", string(decision.Intent)).
		Str("handler", decision.TargetHandler).Float64("confidence", decision.Confidence).
		Msg("intent classified")

	reply, handlerName := o.invoke(ctx, sess, text, decision)
	return o.finishTurn(ctx, sess, text, reply, handlerName, decision.Intent)
}

// Reset abandons the user's current session and starts a fresh one.
func (o *Orchestrator) Reset(ctx context.Context, userID, sessionID string) (string, error) {
	fresh, err := o.sessions.Reset(userID, sessionID)
	if err != nil {
		return "", err
	}
	o.events.Emit(ctx, hooks.EventSessionReset, map[string]any{
		"userId": userID, "oldSessionId": sessionID, "sessionId": fresh,
	})
	return fresh, nil
}

// resolveSession loads the session, transparently replacing a missing or
// expired one with a fresh session for the user.
func (o *Orchestrator) resolveSession(ctx context.Context, userID, sessionID string) (domain.Session, error) {
	if sessionID != "" {
		sess, err := o.sessions.Get(sessionID)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, session.ErrNotFound) {
			return domain.Session{}, err
		}
		o.log.Debug().Str("sessionId", sessionID).Msg("stale session, starting fresh")
	}

	fresh, err := o.sessions.Create(userID)
	if err != nil {
		return domain.Session{}, err
	}
	o.events.Emit(ctx, hooks.EventSessionCreated, map[string]any{
		"userId": userID, "sessionId": fresh,
	})
	return o.sessions.Get(fresh)
}

// invoke selects the routed handler (or the default when routing found no
// target), runs it under the request timeout, and converts any failure into
// the apology.
func (o *Orchestrator) invoke(ctx context.Context, sess domain.Session, text string, decision domain.RoutingDecision) (reply, handlerName string) {
	h := o.selectHandler(decision.TargetHandler)
	if h == nil {
		return Apology, ""
	}
	o.log.Debug().Str("state", stateHandlerSelected).Str("handler", h.Name()).Msg("handler selected")

	meta := map[string]string{
		handler.MetaUserID:    sess.UserID,
		handler.MetaSessionID: sess.ID,
	}
	if history := router.FormatHistory(sess.Turns); history != "" {
		meta[handler.MetaHistory] = history
	}

	fields := map[string]string{
		"userId":    sess.UserID,
		"intent":    string(decision.Intent),
		"agentName": h.Name(),
		"queryLen":  strconv.Itoa(len(text)),
		"invokedBy": "orchestrator",
	}
	err := o.recorder.Observe(ctx, "handler_invoke", fields, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, o.timeout)
		defer cancel()

		var respondErr error
		reply, respondErr = h.Respond(ctx, text, meta)
		if respondErr == nil {
			metrics.AddField(ctx, "responseLen", strconv.Itoa(len(reply)))
		}
		return respondErr
	})
	if err != nil {
		o.log.Error().Str("state", stateFailed).Str("handler", h.Name()).
			Err(err).Msg("handler failed")
		o.events.Emit(ctx, hooks.EventHandlerFailed, map[string]any{
			"sessionId": sess.ID, "handler": h.Name(), "error": err.Error(),
		})
		return Apology, h.Name()
	}

	o.log.Debug().Str("state", stateHandlerInvoked).Str("handler", h.Name()).Msg("handler responded")
	return reply, h.Name()
}

// selectHandler resolves the target, falling back to the FAQ handler when
// routing produced no target or named an unregistered one.
func (o *Orchestrator) selectHandler(target string) handler.Handler {
	if target != "" {
		h, err := o.registry.Get(target)
		if err == nil {
			return h
		}
		o.log.Warn().Str("handler", target).Err(err).Msg("routed handler unavailable, using default")
	}

	h, err := o.registry.Get(handler.NameFAQ)
	if err != nil {
		o.log.Error().Str("state", stateFailed).Err(err).Msg("default handler unavailable")
		return nil
	}
	return h
}

// finishTurn appends the turn and assembles the response. Failing to append
// (a session swept mid-request) is logged, not surfaced.
func (o *Orchestrator) finishTurn(ctx context.Context, sess domain.Session, text, reply, handlerName string, intent domain.Intent) (domain.Response, error) {
	turn := domain.Turn{
		UserText:  text,
		Response:  reply,
		Handler:   handlerName,
		Timestamp: time.Now().UTC(),
	}
	if err := o.sessions.AppendTurn(sess.ID, turn); err != nil {
		o.log.Warn().Str("sessionId", sess.ID).Err(err).Msg("appending turn failed")
	} else {
		o.log.Debug().Str("state", stateSessionUpdated).Str("sessionId", sess.ID).Msg("turn recorded")
	}

	resp := domain.Response{
		Text:      reply,
		SessionID: sess.ID,
		Handler:   handlerName,
		Intent:    intent,
	}
	o.events.Emit(ctx, hooks.EventResponseReady, map[string]any{
		"sessionId": sess.ID, "handler": handlerName, "intent": string(intent),
	})
	return resp, nil
}
