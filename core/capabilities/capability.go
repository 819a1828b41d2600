package capabilities

import (
	"fmt"
	"net/mail"
	"net/url"
	"slices"
	"time"
)

// ArgumentType is the wire type expected for an argument value after JSON
// decoding.
type ArgumentType string

const (
	ArgumentTypeString  ArgumentType = "string"
	ArgumentTypeNumber  ArgumentType = "number"
	ArgumentTypeInteger ArgumentType = "integer"
	ArgumentTypeBoolean ArgumentType = "boolean"
)

// ArgumentFormat is an optional refinement on top of ArgumentType for string
// arguments whose content has to be resolvable before dispatch (an address,
// a URL, a point in time). A value that decodes as a string but fails its
// format check counts as invalid and triggers clarification, not dispatch.
type ArgumentFormat string

const (
	FormatNone     ArgumentFormat = ""
	FormatEmail    ArgumentFormat = "email"
	FormatURL      ArgumentFormat = "url"
	FormatDateTime ArgumentFormat = "datetime"
)

type ArgumentSpec struct {
	Type        ArgumentType
	Format      ArgumentFormat
	Required    bool
	Description string
	// AllowedValues restricts string arguments to a closed set when non-empty.
	AllowedValues []string
}

// ActionSpec describes one verb a module accepts: what it does, an example of
// the JSON the intent parser should emit for it, and the argument schema the
// resolver validates proposals against.
type ActionSpec struct {
	Description string
	ExampleJSON string
	Arguments   map[string]ArgumentSpec
}

// Capability is a module's declared contract: its identity, the verbs it
// accepts, and the argument schema per verb. Registered once at startup and
// immutable afterwards.
type Capability struct {
	ModuleID string
	// Description is a short conversational summary of what the module can
	// do, embedded in the intent parser's system prompt.
	Description string
	// Reversible marks the module's actions as safe to execute without a
	// confirmation round even when the proposal confidence is low.
	Reversible bool
	// MinConfidence overrides the orchestrator-wide confidence threshold for
	// this module when greater than zero.
	MinConfidence float64
	Actions       map[string]ActionSpec
}

// Action returns the spec for the given verb, if the capability declares it.
func (c Capability) Action(verb string) (ActionSpec, bool) {
	spec, ok := c.Actions[verb]
	return spec, ok
}

// Verbs returns the capability's action verbs in sorted order.
func (c Capability) Verbs() []string {
	verbs := make([]string, 0, len(c.Actions))
	for verb := range c.Actions {
		verbs = append(verbs, verb)
	}
	slices.Sort(verbs)
	return verbs
}

// Validate checks the passed arguments against the action's schema and
// returns the names of missing or invalid fields in sorted order. An empty
// result means every required argument is present and every present argument
// is type- and format-valid.
func (a ActionSpec) Validate(arguments map[string]any) []string {
	var problems []string
	for name, spec := range a.Arguments {
		value, ok := arguments[name]
		if !ok || value == nil {
			if spec.Required {
				problems = append(problems, name)
			}
			continue
		}
		if !spec.valid(value) {
			problems = append(problems, name)
		}
	}
	slices.Sort(problems)
	return problems
}

func (s ArgumentSpec) valid(value any) bool {
	switch s.Type {
	case ArgumentTypeString, "":
		text, ok := value.(string)
		if !ok || text == "" {
			return false
		}
		if len(s.AllowedValues) > 0 && !slices.Contains(s.AllowedValues, text) {
			return false
		}
		return s.Format.valid(text)

	case ArgumentTypeNumber:
		switch value.(type) {
		case float64, int:
			return true
		}
		return false

	case ArgumentTypeInteger:
		switch number := value.(type) {
		case int:
			return true
		case float64:
			return number == float64(int64(number))
		}
		return false

	case ArgumentTypeBoolean:
		_, ok := value.(bool)
		return ok

	default:
		return false
	}
}

func (f ArgumentFormat) valid(text string) bool {
	switch f {
	case FormatNone:
		return true

	case FormatEmail:
		address, err := mail.ParseAddress(text)
		return err == nil && address.Address == text

	case FormatURL:
		parsed, err := url.Parse(text)
		return err == nil && parsed.Scheme != "" && parsed.Host != ""

	case FormatDateTime:
		_, err := ParseDateTime(text, time.Local)
		return err == nil

	default:
		return true
	}
}

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDateTime parses the layouts the intent parser is instructed to emit.
// Layouts without an offset are interpreted in the passed location.
func ParseDateTime(text string, location *time.Location) (time.Time, error) {
	if location == nil {
		location = time.Local
	}
	for _, layout := range dateTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, text, location); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date/time %q", text)
}
