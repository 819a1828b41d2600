package orchestration

import "errors"

var (
	// ErrUnknownAction means a proposal referenced a module/verb pair that is
	// not registered, either hallucinated or no longer available.
	ErrUnknownAction = errors.New("proposal references an unregistered module or verb")

	// ErrClarificationExhausted means the user and the backend failed to
	// produce valid arguments within the clarification retry budget.
	ErrClarificationExhausted = errors.New("clarification retry budget exhausted")

	// ErrConfirmationDeclined means the user answered a confirmation round
	// with an explicit no, cancelling the command.
	ErrConfirmationDeclined = errors.New("user declined the confirmation")

	// ErrDispatchTimeout means a module handler exceeded its per-call time
	// budget and the call was abandoned.
	ErrDispatchTimeout = errors.New("module call exceeded its time budget")

	// ErrNoLLM means no backend client was configured.
	ErrNoLLM = errors.New("no llm client configured")
)
