// Package orchestration turns a natural-language utterance into exactly one
// validated module dispatch, or into a clarification question, or into a
// refusal, never anything in between. It owns the intent resolution state
// machine and the dispatch failure boundary; speech capture, speech
// synthesis, and the GUI shell live outside and only ever see
// ResponseEnvelopes.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jpcaldeira/aura-core/core/capabilities"
	"github.com/jpcaldeira/aura-core/core/events"
	"github.com/jpcaldeira/aura-core/core/intents"
	"github.com/jpcaldeira/aura-core/core/llms"
	"github.com/jpcaldeira/aura-core/core/modules"
	"github.com/jpcaldeira/aura-core/core/sessions"
)

const (
	defaultConfidenceThreshold = 0.5
	defaultRetryLimit          = 2
	defaultHistoryLimit        = 6
)

type Orchestrator struct {
	registry   *capabilities.Registry
	dispatcher *dispatcher
	resolver   resolver
	llm        llm
	session    *sessions.Session

	onEvent      func(events.Event)
	historyLimit int
	chatFallback bool

	closeOnce sync.Once
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	registry := capabilities.NewRegistry()

	o := &Orchestrator{
		registry:   registry,
		dispatcher: newDispatcher(defaultDispatchTimeout),
		resolver: resolver{
			registry:            registry,
			confidenceThreshold: defaultConfidenceThreshold,
			retryLimit:          defaultRetryLimit,
		},
		session:      sessions.New(),
		onEvent:      func(events.Event) {},
		historyLimit: defaultHistoryLimit,
		chatFallback: true,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// RegisterModule registers a functionality module: its capability becomes
// part of the dispatchable catalogue and its handler is bound for dispatch.
// Registration happens at startup, single-threaded, before the first call to
// Process.
func (o *Orchestrator) RegisterModule(handler modules.Handler) error {
	capability := handler.Capability()
	if err := o.registry.Register(capability); err != nil {
		return fmt.Errorf("failed to register module: %w", err)
	}

	o.dispatcher.bind(capability.ModuleID, handler)
	return nil
}

// Capabilities returns the registered capability catalogue.
func (o *Orchestrator) Capabilities() []capabilities.Capability {
	return o.registry.List()
}

// Session returns the conversation session the orchestrator mutates.
func (o *Orchestrator) Session() *sessions.Session {
	return o.session
}

// Reset starts a fresh conversation, dropping the pending clarification and
// recorded turns.
func (o *Orchestrator) Reset() {
	o.session.Reset()
}

// Close idles the orchestrator. Safe to call more than once.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.session.Reset()
	})
}

// Process runs one full orchestration turn and returns its envelope.
//
// Turns against one session are serialized: Process blocks until any
// in-flight turn on the same session resolves. The returned error is non-nil
// only for caller cancellation before dispatch began; every other outcome,
// including all failures, terminates in exactly one envelope.
func (o *Orchestrator) Process(ctx context.Context, utterance string) (ResponseEnvelope, error) {
	release := o.session.Acquire()
	defer release()

	ctx, span := tracer.Start(ctx, "process turn")
	defer span.End()

	o.onEvent(events.NewUtteranceReceived(utterance))

	pending := o.session.Clarification()
	history := o.session.History(o.historyLimit)

	proposal, err := o.llm.propose(ctx, utterance, o.registry.List(), pending, history)
	if err != nil {
		if ctx.Err() != nil {
			return ResponseEnvelope{}, ctx.Err()
		}
		return o.finishTurn(utterance, o.proposalFailure(ctx, err)), nil
	}

	o.onEvent(events.NewIntentProposed(proposal.ModuleID, proposal.Action, proposal.Confidence))

	// Caller cancelled while the backend was thinking: discard the turn
	// cleanly, nothing has been dispatched.
	if ctx.Err() != nil {
		return ResponseEnvelope{}, ctx.Err()
	}

	if proposal.IsNone() && pending == nil {
		return o.finishTurn(utterance, o.converse(ctx, utterance, history)), nil
	}

	result := o.resolver.resolve(o.session, proposal)
	switch result.state {
	case stateAwaitingClarification:
		o.onEvent(events.NewClarificationRequested(result.clarification.Fields, result.clarification.Prompt))
		return o.finishTurn(utterance, clarificationEnvelope(*result.clarification)), nil

	case stateRejected:
		return o.finishTurn(utterance, o.rejection(ctx, result.err)), nil

	case stateResolved:
		o.onEvent(events.NewActionResolved(result.action.ModuleID, result.action.Verb))
		if ctx.Err() != nil {
			// Cancelled after resolution but before dispatch: the resolved
			// action is discarded without reaching its handler.
			return ResponseEnvelope{}, ctx.Err()
		}

		envelope := o.dispatcher.execute(ctx, *result.action)
		if envelope.Status == StatusOK {
			o.onEvent(events.NewDispatchSucceeded(result.action.ModuleID, result.action.Verb))
		} else {
			o.onEvent(events.NewDispatchFailed(result.action.ModuleID, result.action.Verb, envelope.SpokenText))
		}
		return o.finishTurn(utterance, envelope), nil

	default:
		return ResponseEnvelope{}, fmt.Errorf("unknown resolution state %q", result.state)
	}
}

// proposalFailure maps a failed proposal into its envelope: parse failures
// and backend trouble both surface as plain-language failures, never as raw
// backend text.
func (o *Orchestrator) proposalFailure(ctx context.Context, err error) ResponseEnvelope {
	var parseErr *intents.ParseError
	if errors.As(err, &parseErr) {
		logger.WarnContext(ctx, "backend output failed intent parsing",
			"error", parseErr.Err.Error(), "raw", parseErr.Raw)
		o.onEvent(events.NewTurnRejected("unparsable intent"))
		return failedEnvelope(spokenDidNotUnderstand, "the request could not be interpreted")
	}

	logger.ErrorContext(ctx, "intent proposal failed", "error", err.Error())
	o.onEvent(events.NewTurnRejected("backend unavailable"))
	return failedEnvelope(spokenThinkingTrouble, "the language backend is unavailable")
}

func (o *Orchestrator) rejection(ctx context.Context, err error) ResponseEnvelope {
	o.onEvent(events.NewTurnRejected(err.Error()))

	if errors.Is(err, ErrClarificationExhausted) {
		return failedEnvelope(spokenDidNotUnderstand, "clarification attempts exhausted")
	}
	if errors.Is(err, ErrConfirmationDeclined) {
		return failedEnvelope(spokenDeclined, "confirmation declined")
	}

	logger.WarnContext(ctx, "proposal rejected", "error", err.Error())
	return failedEnvelope(spokenCannotDo, "no matching action")
}

// converse handles the no-action path: answer conversationally when a
// prompt-capable backend is available and the fallback is enabled, refuse
// otherwise.
func (o *Orchestrator) converse(ctx context.Context, utterance string, history []llms.Message) ResponseEnvelope {
	if !o.chatFallback {
		o.onEvent(events.NewTurnRejected("no matching action"))
		return failedEnvelope(spokenCannotDo, "no matching action")
	}

	reply, err := o.llm.respond(ctx, utterance, history)
	if err != nil || reply == "" {
		if err != nil {
			logger.WarnContext(ctx, "chat fallback failed", "error", err.Error())
		}
		o.onEvent(events.NewTurnRejected("no matching action"))
		return failedEnvelope(spokenCannotDo, "no matching action")
	}

	o.onEvent(events.NewChatResponded(reply))
	return chatEnvelope(reply)
}

func (o *Orchestrator) finishTurn(utterance string, envelope ResponseEnvelope) ResponseEnvelope {
	o.session.RecordTurn(sessions.TurnRecord{
		Utterance: utterance,
		Status:    string(envelope.Status),
		Reply:     envelope.SpokenText,
	})
	return envelope
}
