package calendar

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jpcaldeira/aura-core/core/modules"
)

type fakeService struct {
	created   *Event
	createErr error

	listed []Event
	from   time.Time
	to     time.Time
	limit  int

	deletedID string
}

func (f *fakeService) CreateEvent(_ context.Context, event Event) (string, error) {
	f.created = &event
	if f.createErr != nil {
		return "", f.createErr
	}
	return "evt-1", nil
}

func (f *fakeService) ListEvents(_ context.Context, from, to time.Time, limit int) ([]Event, error) {
	f.from, f.to, f.limit = from, to, limit
	return f.listed, nil
}

func (f *fakeService) DeleteEvent(_ context.Context, eventID string) error {
	f.deletedID = eventID
	return nil
}

func TestCreateEventParsesTimesInConfiguredLocation(t *testing.T) {
	location, err := time.LoadLocation("Europe/Lisbon")
	if err != nil {
		t.Skipf("timezone database unavailable: %v", err)
	}

	service := &fakeService{}
	module := New(service, WithLocation(location))

	result, err := module.Handle(context.Background(), "create_event", map[string]any{
		"title": "Dentist",
		"start": "2026-03-02 14:30",
	})
	if err != nil {
		t.Fatalf("failed to create event: %v", err)
	}

	if service.created == nil {
		t.Fatal("expected service to receive the event")
	}
	if service.created.Start.Location().String() != "Europe/Lisbon" {
		t.Fatalf("expected start in configured location, got %v", service.created.Start.Location())
	}
	if got := service.created.End.Sub(service.created.Start); got != defaultEventDuration {
		t.Fatalf("expected default duration %v, got %v", defaultEventDuration, got)
	}
	if result.Payload != "evt-1" {
		t.Fatalf("expected event id payload, got %v", result.Payload)
	}
}

func TestCreateEventRejectsInvertedRange(t *testing.T) {
	module := New(&fakeService{})

	_, err := module.Handle(context.Background(), "create_event", map[string]any{
		"title": "Dentist",
		"start": "2026-03-02 14:30",
		"end":   "2026-03-02 14:00",
	})

	var moduleErr *modules.Error
	if !errors.As(err, &moduleErr) {
		t.Fatalf("expected module error for inverted range, got %v", err)
	}
}

func TestListEventsDefaultsRangeAndLimit(t *testing.T) {
	service := &fakeService{listed: []Event{
		{Title: "Standup", Start: time.Now().Add(time.Hour)},
	}}
	module := New(service)

	result, err := module.Handle(context.Background(), "list_events", map[string]any{})
	if err != nil {
		t.Fatalf("failed to list events: %v", err)
	}

	if service.limit != defaultListLimit {
		t.Fatalf("expected default limit %d, got %d", defaultListLimit, service.limit)
	}
	if got := service.to.Sub(service.from); got != defaultListSpan {
		t.Fatalf("expected default span %v, got %v", defaultListSpan, got)
	}
	if !strings.Contains(result.Spoken, "Standup") {
		t.Fatalf("expected spoken summary to name the next event, got %q", result.Spoken)
	}
}

func TestDeleteEventDelegates(t *testing.T) {
	service := &fakeService{}
	module := New(service)

	if _, err := module.Handle(context.Background(), "delete_event", map[string]any{"event_id": "evt-9"}); err != nil {
		t.Fatalf("failed to delete event: %v", err)
	}
	if service.deletedID != "evt-9" {
		t.Fatalf("expected delete for evt-9, got %q", service.deletedID)
	}
}

func TestCreateFailureIsSanitised(t *testing.T) {
	service := &fakeService{createErr: errors.New("googleapi 403: quota project n-1234, token ya29.abc")}
	module := New(service)

	_, err := module.Handle(context.Background(), "create_event", map[string]any{
		"title": "Dentist",
		"start": "2026-03-02 14:30",
	})

	var moduleErr *modules.Error
	if !errors.As(err, &moduleErr) {
		t.Fatalf("expected module error, got %v", err)
	}
	if strings.Contains(moduleErr.Message, "ya29") {
		t.Fatalf("expected sanitized message, got %q", moduleErr.Message)
	}
}
