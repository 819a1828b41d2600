package events

const (
	KindUtteranceReceived      Kind = "turn.utterance_received"
	KindIntentProposed         Kind = "turn.intent_proposed"
	KindClarificationRequested Kind = "turn.clarification_requested"
	KindActionResolved         Kind = "turn.action_resolved"
	KindDispatchSucceeded      Kind = "turn.dispatch_succeeded"
	KindDispatchFailed         Kind = "turn.dispatch_failed"
	KindChatResponded          Kind = "turn.chat_responded"
	KindTurnRejected           Kind = "turn.rejected"
)

// UtteranceReceived marks the start of a turn.
type UtteranceReceived struct {
	Base
	Utterance string
}

func NewUtteranceReceived(utterance string) UtteranceReceived {
	return UtteranceReceived{Base: NewBase(KindUtteranceReceived), Utterance: utterance}
}

// IntentProposed carries the backend's interpretation of the utterance.
type IntentProposed struct {
	Base
	ModuleID   string
	Verb       string
	Confidence float64
}

func NewIntentProposed(moduleID, verb string, confidence float64) IntentProposed {
	return IntentProposed{
		Base:       NewBase(KindIntentProposed),
		ModuleID:   moduleID,
		Verb:       verb,
		Confidence: confidence,
	}
}

// ClarificationRequested means the turn ended by asking the user for more
// information.
type ClarificationRequested struct {
	Base
	Fields []string
	Prompt string
}

func NewClarificationRequested(fields []string, prompt string) ClarificationRequested {
	return ClarificationRequested{
		Base:   NewBase(KindClarificationRequested),
		Fields: append([]string(nil), fields...),
		Prompt: prompt,
	}
}

// ActionResolved means validation completed and dispatch is about to begin.
type ActionResolved struct {
	Base
	ModuleID string
	Verb     string
}

func NewActionResolved(moduleID, verb string) ActionResolved {
	return ActionResolved{Base: NewBase(KindActionResolved), ModuleID: moduleID, Verb: verb}
}

type DispatchSucceeded struct {
	Base
	ModuleID string
	Verb     string
}

func NewDispatchSucceeded(moduleID, verb string) DispatchSucceeded {
	return DispatchSucceeded{Base: NewBase(KindDispatchSucceeded), ModuleID: moduleID, Verb: verb}
}

type DispatchFailed struct {
	Base
	ModuleID string
	Verb     string
	// Reason is the sanitized failure description, never raw error detail.
	Reason string
}

func NewDispatchFailed(moduleID, verb, reason string) DispatchFailed {
	return DispatchFailed{Base: NewBase(KindDispatchFailed), ModuleID: moduleID, Verb: verb, Reason: reason}
}

// ChatResponded means the turn needed no action and ended with a
// conversational reply.
type ChatResponded struct {
	Base
	Reply string
}

func NewChatResponded(reply string) ChatResponded {
	return ChatResponded{Base: NewBase(KindChatResponded), Reply: reply}
}

// TurnRejected means resolution terminated without a dispatchable action.
type TurnRejected struct {
	Base
	Reason string
}

func NewTurnRejected(reason string) TurnRejected {
	return TurnRejected{Base: NewBase(KindTurnRejected), Reason: reason}
}
