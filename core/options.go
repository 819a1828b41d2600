package orchestration

import (
	"context"
	"time"

	"github.com/jpcaldeira/aura-core/core/events"
	"github.com/jpcaldeira/aura-core/core/llms"
	"github.com/jpcaldeira/aura-core/core/sessions"
)

type OrchestratorOption func(*Orchestrator)

// LLM marks a configured backend client. Concrete clients additionally
// satisfy one of the capability interfaces below; the orchestrator picks the
// richest one the client supports.
type LLM interface{}

// LLMWithPrompt is the minimal backend contract: one prompt in, one text
// response out. Any backend implementing it can be substituted without
// touching resolution or dispatch.
type LLMWithPrompt interface {
	LLM
	Prompt(ctx context.Context, prompt string, opts ...llms.PromptOption) (string, error)
}

// LLMWithStructuredPrompt is a backend that can enforce a response schema
// server-side, removing the free-text parsing step from intent proposals.
type LLMWithStructuredPrompt interface {
	LLM
	PromptStructured(ctx context.Context, prompt string, output any, opts ...llms.PromptOption) error
}

func WithLLM(client LLM) OrchestratorOption {
	return func(o *Orchestrator) {
		o.llm.set(client)
	}
}

// WithSession supplies an externally managed conversation session, for hosts
// that idle sessions out or keep one per connection.
func WithSession(session *sessions.Session) OrchestratorOption {
	return func(o *Orchestrator) {
		if session != nil {
			o.session = session
		}
	}
}

// WithConfidenceThreshold sets the confidence below which an irreversible
// action is confirmed with the user before dispatch.
func WithConfidenceThreshold(threshold float64) OrchestratorOption {
	return func(o *Orchestrator) {
		o.resolver.confidenceThreshold = threshold
	}
}

// WithClarificationRetryLimit bounds how many clarification rounds one
// logical command may use before it is rejected.
func WithClarificationRetryLimit(limit int) OrchestratorOption {
	return func(o *Orchestrator) {
		if limit >= 0 {
			o.resolver.retryLimit = limit
		}
	}
}

// WithDispatchTimeout bounds a single module call.
func WithDispatchTimeout(timeout time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if timeout > 0 {
			o.dispatcher.timeout = timeout
		}
	}
}

// WithEventCallback registers an observer for turn-lifecycle events. The
// callback runs inline on the turn's goroutine and must not block.
func WithEventCallback(callback func(events.Event)) OrchestratorOption {
	return func(o *Orchestrator) {
		if callback != nil {
			o.onEvent = callback
		}
	}
}

// WithHistoryLimit caps how many previous turns are offered to the backend
// as conversational context.
func WithHistoryLimit(turns int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.historyLimit = turns
	}
}

// WithChatFallback controls whether an utterance that maps to no registered
// action gets a conversational reply instead of a refusal. Enabled by
// default.
func WithChatFallback(enabled bool) OrchestratorOption {
	return func(o *Orchestrator) {
		o.chatFallback = enabled
	}
}
