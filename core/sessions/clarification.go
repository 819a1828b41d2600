package sessions

import "maps"

// Clarification is a request back to the user for the information still
// needed to complete a pending command. The next utterance is merged with it
// instead of being treated as an unrelated fresh command.
type Clarification struct {
	// ModuleID and Verb identify the command being completed.
	ModuleID string
	Verb     string
	// Fields names the missing or invalid arguments, in sorted order.
	Fields []string
	// Prompt is the question asked of the user.
	Prompt string
	// Arguments are the valid argument values accumulated so far.
	Arguments map[string]any
	// Attempts counts how many clarification rounds this command has used.
	Attempts int
}

func (c Clarification) clone() Clarification {
	cloned := c
	cloned.Fields = append([]string(nil), c.Fields...)
	cloned.Arguments = maps.Clone(c.Arguments)
	return cloned
}
