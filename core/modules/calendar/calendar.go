// Package calendar declares the calendar module's capability and maps
// validated actions onto an injected Service. Date/time arguments arrive as
// text in the layouts the intent parser is instructed to emit and are parsed
// in the module's configured timezone.
package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jpcaldeira/aura-core/core/capabilities"
	"github.com/jpcaldeira/aura-core/core/modules"
)

const ModuleID = "calendar"

const (
	defaultEventDuration = time.Hour
	defaultListSpan      = 7 * 24 * time.Hour
	defaultListLimit     = 10
)

type Event struct {
	ID       string
	Title    string
	Start    time.Time
	End      time.Time
	Location string
	Notes    string
}

type Service interface {
	CreateEvent(ctx context.Context, event Event) (eventID string, err error)
	ListEvents(ctx context.Context, from, to time.Time, limit int) ([]Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

type Module struct {
	service  Service
	location *time.Location
}

type Option func(*Module)

// WithLocation sets the timezone naive date/time arguments are interpreted
// in. Defaults to the process-local timezone.
func WithLocation(location *time.Location) Option {
	return func(m *Module) {
		if location != nil {
			m.location = location
		}
	}
}

func New(service Service, opts ...Option) *Module {
	module := &Module{service: service, location: time.Local}
	for _, opt := range opts {
		opt(module)
	}
	return module
}

func (m *Module) Capability() capabilities.Capability {
	return capabilities.Capability{
		ModuleID:    ModuleID,
		Description: "manage the user's calendar: create, list, and delete events",
		Reversible:  false,
		Actions: map[string]capabilities.ActionSpec{
			"create_event": {
				Description: "Creates a calendar event.",
				ExampleJSON: `{"module":"calendar","action":"create_event","arguments":{"title":"Dentist","start":"2026-03-01 14:30","end":"2026-03-01 15:00","location":"Downtown clinic"}}`,
				Arguments: map[string]capabilities.ArgumentSpec{
					"title":       {Type: capabilities.ArgumentTypeString, Required: true, Description: "Event title"},
					"start":       {Type: capabilities.ArgumentTypeString, Format: capabilities.FormatDateTime, Required: true, Description: "Event start date/time"},
					"end":         {Type: capabilities.ArgumentTypeString, Format: capabilities.FormatDateTime, Description: "Event end date/time, defaults to one hour after start"},
					"location":    {Type: capabilities.ArgumentTypeString, Description: "Where the event happens"},
					"description": {Type: capabilities.ArgumentTypeString, Description: "Free-form notes"},
				},
			},
			"list_events": {
				Description: "Lists upcoming events in a date range.",
				ExampleJSON: `{"module":"calendar","action":"list_events","arguments":{"from":"2026-03-01","to":"2026-03-08"}}`,
				Arguments: map[string]capabilities.ArgumentSpec{
					"from":        {Type: capabilities.ArgumentTypeString, Format: capabilities.FormatDateTime, Description: "Range start, defaults to now"},
					"to":          {Type: capabilities.ArgumentTypeString, Format: capabilities.FormatDateTime, Description: "Range end, defaults to a week after the start"},
					"max_results": {Type: capabilities.ArgumentTypeInteger, Description: "Maximum number of events to report"},
				},
			},
			"delete_event": {
				Description: "Deletes a calendar event by its identifier.",
				ExampleJSON: `{"module":"calendar","action":"delete_event","arguments":{"event_id":"EVENT_ID"}}`,
				Arguments: map[string]capabilities.ArgumentSpec{
					"event_id": {Type: capabilities.ArgumentTypeString, Required: true, Description: "Identifier of the event to delete"},
				},
			},
		},
	}
}

func (m *Module) Handle(ctx context.Context, verb string, arguments map[string]any) (*modules.Result, error) {
	switch verb {
	case "create_event":
		return m.createEvent(ctx, arguments)
	case "list_events":
		return m.listEvents(ctx, arguments)
	case "delete_event":
		return m.deleteEvent(ctx, arguments)
	default:
		return nil, fmt.Errorf("unsupported verb %q", verb)
	}
}

func (m *Module) createEvent(ctx context.Context, arguments map[string]any) (*modules.Result, error) {
	start, err := capabilities.ParseDateTime(modules.String(arguments, "start"), m.location)
	if err != nil {
		return nil, modules.NewError("I couldn't understand when that event starts.", err)
	}

	end := start.Add(defaultEventDuration)
	if text := modules.String(arguments, "end"); text != "" {
		end, err = capabilities.ParseDateTime(text, m.location)
		if err != nil {
			return nil, modules.NewError("I couldn't understand when that event ends.", err)
		}
	}
	if !end.After(start) {
		return nil, modules.NewError("That event would end before it starts.", nil)
	}

	event := Event{
		Title:    modules.String(arguments, "title"),
		Start:    start,
		End:      end,
		Location: modules.String(arguments, "location"),
		Notes:    modules.String(arguments, "description"),
	}

	eventID, err := m.service.CreateEvent(ctx, event)
	if err != nil {
		return nil, modules.NewError("I couldn't create that event.", err)
	}

	return &modules.Result{
		Payload: eventID,
		Spoken:  fmt.Sprintf("%s is on your calendar for %s.", event.Title, start.Format("Monday, January 2 at 15:04")),
		Display: fmt.Sprintf("%s  %s - %s", event.Title, start.Format(time.RFC3339), end.Format(time.RFC3339)),
	}, nil
}

func (m *Module) listEvents(ctx context.Context, arguments map[string]any) (*modules.Result, error) {
	from := time.Now().In(m.location)
	if text := modules.String(arguments, "from"); text != "" {
		parsed, err := capabilities.ParseDateTime(text, m.location)
		if err != nil {
			return nil, modules.NewError("I couldn't understand the start of that date range.", err)
		}
		from = parsed
	}

	to := from.Add(defaultListSpan)
	if text := modules.String(arguments, "to"); text != "" {
		parsed, err := capabilities.ParseDateTime(text, m.location)
		if err != nil {
			return nil, modules.NewError("I couldn't understand the end of that date range.", err)
		}
		to = parsed
	}

	limit := modules.Int(arguments, "max_results", defaultListLimit)
	eventsFound, err := m.service.ListEvents(ctx, from, to, limit)
	if err != nil {
		return nil, modules.NewError("I couldn't check your calendar.", err)
	}

	if len(eventsFound) == 0 {
		return &modules.Result{
			Payload: eventsFound,
			Spoken:  "Your calendar is clear for that period.",
			Display: "No events",
		}, nil
	}

	lines := make([]string, 0, len(eventsFound))
	for _, event := range eventsFound {
		lines = append(lines, fmt.Sprintf("%s  %s", event.Start.Format("Mon 02 Jan 15:04"), event.Title))
	}
	return &modules.Result{
		Payload: eventsFound,
		Spoken:  fmt.Sprintf("You have %d events. The next is %s on %s.", len(eventsFound), eventsFound[0].Title, eventsFound[0].Start.Format("Monday at 15:04")),
		Display: strings.Join(lines, "\n"),
	}, nil
}

func (m *Module) deleteEvent(ctx context.Context, arguments map[string]any) (*modules.Result, error) {
	eventID := modules.String(arguments, "event_id")
	if err := m.service.DeleteEvent(ctx, eventID); err != nil {
		return nil, modules.NewError("I couldn't delete that event.", err)
	}

	return &modules.Result{
		Payload: eventID,
		Spoken:  "The event is off your calendar.",
		Display: "Deleted event " + eventID,
	}, nil
}
