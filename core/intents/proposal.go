// Package intents holds the intent proposal shape produced by an LLM backend
// and the parsing of backend output into it. Backend output is an untrusted
// boundary: anything that does not decode into the proposal shape fails with
// a typed ParseError, never a best-effort partial proposal.
package intents

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ActionNone is the reserved action the parser prompt instructs the model to
// emit when the utterance maps to no registered action. It routes the turn to
// the conversational fallback instead of a dispatch.
const ActionNone = "none"

// Proposal is the LLM's interpretation of one user utterance. Built fresh per
// turn and never persisted beyond it.
type Proposal struct {
	ModuleID   string         `json:"module"`
	Action     string         `json:"action"`
	Arguments  map[string]any `json:"arguments,omitempty"`
	Confidence float64        `json:"confidence"`

	// Raw is the backend text the proposal was parsed from, kept for
	// diagnostics only.
	Raw string `json:"-"`
}

// IsNone reports whether the proposal declined to pick an action.
func (p Proposal) IsNone() bool {
	return p.Action == "" || strings.EqualFold(p.Action, ActionNone)
}

// ParseError means backend output could not be turned into a Proposal.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse intent proposal: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse decodes free-text backend output into a Proposal. It tolerates a
// markdown code fence around the JSON and accepts either a single object or
// an array of objects, in which case the first element is used.
func Parse(raw string) (*Proposal, error) {
	text := stripFence(strings.TrimSpace(raw))
	if text == "" {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("empty response")}
	}

	var proposal Proposal
	switch text[0] {
	case '[':
		var proposals []Proposal
		if err := json.Unmarshal([]byte(text), &proposals); err != nil {
			return nil, &ParseError{Raw: raw, Err: err}
		}
		if len(proposals) == 0 {
			return nil, &ParseError{Raw: raw, Err: fmt.Errorf("empty intent array")}
		}
		proposal = proposals[0]

	case '{':
		if err := json.Unmarshal([]byte(text), &proposal); err != nil {
			return nil, &ParseError{Raw: raw, Err: err}
		}

	default:
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("response is not JSON")}
	}

	proposal.Raw = raw
	return normalise(&proposal, raw)
}

// normalise applies the shape checks shared by the free-text and structured
// paths: a proposal other than "none" must name both a module and an action,
// and confidence is clamped into [0, 1].
func normalise(proposal *Proposal, raw string) (*Proposal, error) {
	if !proposal.IsNone() && proposal.ModuleID == "" {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("proposal names action %q without a module", proposal.Action)}
	}

	if proposal.Arguments == nil {
		proposal.Arguments = map[string]any{}
	}
	if proposal.Confidence < 0 {
		proposal.Confidence = 0
	} else if proposal.Confidence > 1 {
		proposal.Confidence = 1
	}
	return proposal, nil
}

// FromStructured runs the shared shape checks over a proposal the backend
// produced under schema enforcement.
func FromStructured(proposal Proposal, raw string) (*Proposal, error) {
	proposal.Raw = raw
	return normalise(&proposal, raw)
}

func stripFence(text string) string {
	if !strings.Contains(text, "```") {
		return text
	}

	parts := strings.Split(text, "```")
	if len(parts) < 2 {
		return text
	}
	fenced := parts[1]
	fenced = strings.TrimPrefix(fenced, "json")
	return strings.TrimSpace(fenced)
}
