// Package gmail declares the email module's capability and maps validated
// actions onto an injected Service. The Service owns everything external:
// Gmail API calls, OAuth tokens, retries.
package gmail

import (
	"context"
	"fmt"
	"strings"

	"github.com/jpcaldeira/aura-core/core/capabilities"
	"github.com/jpcaldeira/aura-core/core/modules"
)

const ModuleID = "gmail"

const defaultSearchLimit = 5

// MessageSummary is a search hit, already stripped to what the assistant may
// speak aloud.
type MessageSummary struct {
	ID      string
	From    string
	Subject string
	Snippet string
}

type Service interface {
	Send(ctx context.Context, to, subject, body string) (messageID string, err error)
	Search(ctx context.Context, query string, limit int) ([]MessageSummary, error)
}

type Module struct {
	service Service
}

func New(service Service) *Module {
	return &Module{service: service}
}

func (m *Module) Capability() capabilities.Capability {
	return capabilities.Capability{
		ModuleID:    ModuleID,
		Description: "send and search email through the user's Gmail account",
		Reversible:  false,
		Actions: map[string]capabilities.ActionSpec{
			"send_email": {
				Description: "Sends an email to a recipient.",
				ExampleJSON: `{"module":"gmail","action":"send_email","arguments":{"to":"someone@example.com","subject":"Running late","body":"I'll be there at 10."}}`,
				Arguments: map[string]capabilities.ArgumentSpec{
					"to":      {Type: capabilities.ArgumentTypeString, Format: capabilities.FormatEmail, Required: true, Description: "Recipient email address"},
					"subject": {Type: capabilities.ArgumentTypeString, Description: "Email subject"},
					"body":    {Type: capabilities.ArgumentTypeString, Required: true, Description: "Email body"},
				},
			},
			"search_email": {
				Description: "Searches the mailbox and summarises the matches.",
				ExampleJSON: `{"module":"gmail","action":"search_email","arguments":{"query":"from:ana","max_results":5}}`,
				Arguments: map[string]capabilities.ArgumentSpec{
					"query":       {Type: capabilities.ArgumentTypeString, Required: true, Description: "Gmail search query"},
					"max_results": {Type: capabilities.ArgumentTypeInteger, Description: "Maximum number of matches to report"},
				},
			},
		},
	}
}

func (m *Module) Handle(ctx context.Context, verb string, arguments map[string]any) (*modules.Result, error) {
	switch verb {
	case "send_email":
		return m.send(ctx, arguments)
	case "search_email":
		return m.search(ctx, arguments)
	default:
		return nil, fmt.Errorf("unsupported verb %q", verb)
	}
}

func (m *Module) send(ctx context.Context, arguments map[string]any) (*modules.Result, error) {
	to := modules.String(arguments, "to")
	subject := modules.StringOr(arguments, "subject", "(no subject)")
	body := modules.String(arguments, "body")

	messageID, err := m.service.Send(ctx, to, subject, body)
	if err != nil {
		return nil, modules.NewError("I couldn't send that email.", err)
	}

	return &modules.Result{
		Payload: messageID,
		Spoken:  fmt.Sprintf("Email sent to %s.", to),
		Display: fmt.Sprintf("Sent %q to %s", subject, to),
	}, nil
}

func (m *Module) search(ctx context.Context, arguments map[string]any) (*modules.Result, error) {
	query := modules.String(arguments, "query")
	limit := modules.Int(arguments, "max_results", defaultSearchLimit)

	matches, err := m.service.Search(ctx, query, limit)
	if err != nil {
		return nil, modules.NewError("I couldn't search your email.", err)
	}

	if len(matches) == 0 {
		return &modules.Result{
			Payload: matches,
			Spoken:  "I didn't find any matching email.",
			Display: "No matches for " + query,
		}, nil
	}

	lines := make([]string, 0, len(matches))
	for _, match := range matches {
		lines = append(lines, fmt.Sprintf("%s: %s", match.From, match.Subject))
	}
	return &modules.Result{
		Payload: matches,
		Spoken:  fmt.Sprintf("I found %d matching emails. The first is from %s about %s.", len(matches), matches[0].From, matches[0].Subject),
		Display: strings.Join(lines, "\n"),
	}, nil
}
