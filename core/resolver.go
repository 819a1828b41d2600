package orchestration

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jpcaldeira/aura-core/core/capabilities"
	"github.com/jpcaldeira/aura-core/core/intents"
	"github.com/jpcaldeira/aura-core/core/sessions"
)

// ResolvedAction is a fully validated, dispatchable action. Its module/verb
// pair always matches a registered capability at resolution time, and every
// required argument is present and valid. Consumed exactly once.
type ResolvedAction struct {
	ModuleID  string
	Verb      string
	Arguments map[string]any
}

// confirmationField is the single clarification field of a confirmation
// round. Continuing the command answers it; anything negative declines it.
const confirmationField = "confirmation"

type resolutionState string

const (
	stateResolved              resolutionState = "resolved"
	stateAwaitingClarification resolutionState = "awaiting_clarification"
	stateRejected              resolutionState = "rejected"
)

type resolution struct {
	state         resolutionState
	action        *ResolvedAction
	clarification *sessions.Clarification
	err           error
}

// resolver validates intent proposals against the registry and drives the
// per-command clarification state machine. It is the only thing that mutates
// the session.
type resolver struct {
	registry            *capabilities.Registry
	confidenceThreshold float64
	retryLimit          int
}

// resolve runs one proposal through Validating and terminates in exactly one
// of Resolved, AwaitingClarification, or Rejected. Any terminal outcome
// clears the session's outstanding clarification.
func (r *resolver) resolve(session *sessions.Session, proposal *intents.Proposal) resolution {
	pending := session.Clarification()

	moduleID, verb := proposal.ModuleID, proposal.Action
	arguments := maps.Clone(proposal.Arguments)
	if arguments == nil {
		arguments = map[string]any{}
	}

	attempts := 0
	confirmed := false
	if pending != nil {
		continuing := proposal.IsNone() || (pending.ModuleID == moduleID && pending.Verb == verb)
		if continuing {
			// Same logical command: merge accumulated arguments under the
			// fresh ones and keep counting against its retry budget.
			moduleID, verb = pending.ModuleID, pending.Verb
			merged := maps.Clone(pending.Arguments)
			if merged == nil {
				merged = map[string]any{}
			}
			maps.Copy(merged, arguments)
			arguments = merged
			attempts = pending.Attempts

			if isConfirmationRound(pending) {
				if declines(arguments[confirmationField]) {
					session.ClearClarification()
					return resolution{state: stateRejected, err: ErrConfirmationDeclined}
				}
				confirmed = true
				delete(arguments, confirmationField)
			}
		}
		// A proposal for a different command abandons the pending one and
		// starts a fresh budget.
	}

	capability := r.registry.Find(moduleID, verb)
	if capability == nil {
		session.ClearClarification()
		return resolution{
			state: stateRejected,
			err:   fmt.Errorf("%w: %s.%s", ErrUnknownAction, moduleID, verb),
		}
	}
	action, _ := capability.Action(verb)

	problems := action.Validate(arguments)
	if len(problems) == 0 {
		if !confirmed && r.needsConfirmation(*capability, proposal) {
			return r.awaitClarification(session, sessions.Clarification{
				ModuleID:  moduleID,
				Verb:      verb,
				Fields:    []string{confirmationField},
				Prompt:    confirmationPrompt(action, arguments),
				Arguments: arguments,
				Attempts:  attempts,
			})
		}

		session.ClearClarification()
		return resolution{
			state:  stateResolved,
			action: &ResolvedAction{ModuleID: moduleID, Verb: verb, Arguments: arguments},
		}
	}

	// Drop invalid values so a corrected one isn't shadowed next round.
	for _, name := range problems {
		delete(arguments, name)
	}

	return r.awaitClarification(session, sessions.Clarification{
		ModuleID:  moduleID,
		Verb:      verb,
		Fields:    problems,
		Prompt:    clarificationPrompt(action, problems),
		Arguments: arguments,
		Attempts:  attempts,
	})
}

// awaitClarification either opens the next clarification round or, once the
// retry budget is spent, rejects the command for good.
func (r *resolver) awaitClarification(session *sessions.Session, clarification sessions.Clarification) resolution {
	if clarification.Attempts >= r.retryLimit {
		session.ClearClarification()
		return resolution{state: stateRejected, err: ErrClarificationExhausted}
	}

	clarification.Attempts++
	session.SetClarification(clarification)
	return resolution{state: stateAwaitingClarification, clarification: &clarification}
}

// needsConfirmation applies the low-confidence policy: an irreversible action
// below the module's threshold is confirmed with the user before dispatch;
// reversible actions proceed regardless.
func (r *resolver) needsConfirmation(capability capabilities.Capability, proposal *intents.Proposal) bool {
	if capability.Reversible {
		return false
	}

	threshold := r.confidenceThreshold
	if capability.MinConfidence > 0 {
		threshold = capability.MinConfidence
	}
	return proposal.Confidence < threshold
}

// isConfirmationRound reports whether the outstanding clarification is asking
// for a go-ahead rather than missing arguments.
func isConfirmationRound(pending *sessions.Clarification) bool {
	return pending != nil && len(pending.Fields) == 1 && pending.Fields[0] == confirmationField
}

// declines reports whether a confirmation answer is an explicit no. An absent
// or unrecognised answer counts as a go-ahead, since the user chose to carry
// the command on instead of changing course.
func declines(answer any) bool {
	switch value := answer.(type) {
	case bool:
		return !value
	case string:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "no", "n", "nope", "false", "cancel", "stop":
			return true
		}
	}
	return false
}

func clarificationPrompt(action capabilities.ActionSpec, fields []string) string {
	described := make([]string, 0, len(fields))
	for _, field := range fields {
		if spec, ok := action.Arguments[field]; ok && spec.Description != "" {
			described = append(described, fmt.Sprintf("the %s", strings.ToLower(spec.Description)))
			continue
		}
		described = append(described, field)
	}
	slices.Sort(described)

	if len(described) == 1 {
		return fmt.Sprintf("I need one more thing: %s. What should it be?", described[0])
	}
	return fmt.Sprintf("I still need a few things: %s. Could you give me those?", strings.Join(described, ", "))
}

func confirmationPrompt(action capabilities.ActionSpec, arguments map[string]any) string {
	description := strings.TrimSuffix(action.Description, ".")
	if description == "" {
		description = "do that"
	}
	return fmt.Sprintf("Just to be sure, you want me to: %s (%s)?", description, renderArguments(arguments))
}
