package orchestration

import (
	"strings"

	"github.com/jpcaldeira/aura-core/core/modules"
	"github.com/jpcaldeira/aura-core/core/sessions"
)

// Status is the terminal outcome of one orchestration turn.
type Status string

const (
	StatusOK                  Status = "ok"
	StatusClarificationNeeded Status = "clarification_needed"
	StatusFailed              Status = "failed"
)

// ResponseEnvelope is the single artifact a turn terminates in. SpokenText is
// written for speech synthesis, DisplayText for GUI rendering; neither ever
// carries raw backend output, stack traces, or credentials.
type ResponseEnvelope struct {
	Status      Status
	Payload     any
	SpokenText  string
	DisplayText string
}

// Canned user-facing phrasings. Failure envelopes speak these rather than
// anything derived from internal error detail.
const (
	spokenCannotDo         = "Sorry, I can't do that."
	spokenDidNotUnderstand = "I couldn't understand that request."
	spokenThinkingTrouble  = "I'm having trouble thinking right now. Try again in a moment."
	spokenDeclined         = "Okay, I won't do that."
	spokenGenericFailure   = "Something went wrong while doing that."
	spokenTimeout          = "That took too long, so I stopped waiting."
)

func okEnvelope(result *modules.Result) ResponseEnvelope {
	envelope := ResponseEnvelope{
		Status:      StatusOK,
		Payload:     result.Payload,
		SpokenText:  result.Spoken,
		DisplayText: result.Display,
	}
	if envelope.SpokenText == "" {
		envelope.SpokenText = "Done."
	}
	if envelope.DisplayText == "" {
		envelope.DisplayText = envelope.SpokenText
	}
	return envelope
}

func chatEnvelope(reply string) ResponseEnvelope {
	return ResponseEnvelope{
		Status:      StatusOK,
		Payload:     reply,
		SpokenText:  reply,
		DisplayText: reply,
	}
}

func clarificationEnvelope(clarification sessions.Clarification) ResponseEnvelope {
	return ResponseEnvelope{
		Status:      StatusClarificationNeeded,
		Payload:     clarification.Prompt,
		SpokenText:  clarification.Prompt,
		DisplayText: clarification.Prompt + "\n(missing: " + strings.Join(clarification.Fields, ", ") + ")",
	}
}

func failedEnvelope(spoken, description string) ResponseEnvelope {
	return ResponseEnvelope{
		Status:      StatusFailed,
		Payload:     description,
		SpokenText:  spoken,
		DisplayText: spoken,
	}
}
