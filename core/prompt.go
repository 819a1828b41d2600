package orchestration

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jpcaldeira/aura-core/core/capabilities"
	"github.com/jpcaldeira/aura-core/core/sessions"
)

// baseParserPrompt is the backend-independent rule block for intent parsing.
// The capability catalogue is appended per call so the backend only ever sees
// actions that are actually registered.
const baseParserPrompt = `You convert one user request into one executable action.

Respond with ONLY a JSON object of this shape, no prose around it:
{"module": "<module id>", "action": "<action name>", "arguments": {...}, "confidence": <0.0-1.0>}

Rules:
- Pick exactly one action from the catalogue below. Never invent modules or actions.
- Put every argument value the user supplied into "arguments". Omit arguments you do not know; never guess values.
- Dates and times go in one of these layouts: "2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02".
- "confidence" is how certain you are this is what the user wants.
- If the request matches no catalogue action, respond {"action": "none"}.

Action catalogue:
`

const chatSystemPrompt = `You are a friendly desktop assistant. The user's request needed no action, so answer conversationally, in one or two short sentences suitable for being read aloud.`

// parserPrompt renders the system prompt for intent parsing: base rules, the
// capability catalogue, and, when a clarification is outstanding, the
// context needed to merge the user's reply into the pending command.
func parserPrompt(catalogue []capabilities.Capability, pending *sessions.Clarification) string {
	var prompt strings.Builder
	prompt.WriteString(baseParserPrompt)

	for _, capability := range catalogue {
		fmt.Fprintf(&prompt, "\nModule %q: %s.\n", capability.ModuleID, capability.Description)
		for _, verb := range capability.Verbs() {
			action := capability.Actions[verb]
			fmt.Fprintf(&prompt, "- %s: %s", verb, action.Description)
			if len(action.Arguments) > 0 {
				prompt.WriteString(" Arguments: ")
				prompt.WriteString(describeArguments(action))
				prompt.WriteString(".")
			}
			if action.ExampleJSON != "" {
				fmt.Fprintf(&prompt, " Example: %s", action.ExampleJSON)
			}
			prompt.WriteString("\n")
		}
	}

	if pending != nil {
		fmt.Fprintf(&prompt, "\nContext: you are completing the pending command %s.%s. Arguments gathered so far: %s. You asked the user: %q. Interpret their next message as supplying %s, and respond with the full command including the gathered arguments.\n",
			pending.ModuleID, pending.Verb,
			renderArguments(pending.Arguments),
			pending.Prompt,
			strings.Join(pending.Fields, ", "),
		)
	}

	return prompt.String()
}

func describeArguments(action capabilities.ActionSpec) string {
	names := make([]string, 0, len(action.Arguments))
	for name := range action.Arguments {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		spec := action.Arguments[name]
		part := name
		if spec.Required {
			part += " (required)"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}

func renderArguments(arguments map[string]any) string {
	if len(arguments) == 0 {
		return "none"
	}

	names := make([]string, 0, len(arguments))
	for name := range arguments {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%v", name, arguments[name]))
	}
	return strings.Join(parts, ", ")
}
