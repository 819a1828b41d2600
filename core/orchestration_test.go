package orchestration

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/jpcaldeira/aura-core/core/events"
	"github.com/jpcaldeira/aura-core/core/llms"
	"github.com/jpcaldeira/aura-core/core/modules"
)

// scriptedLLM replays canned completions in order and records every prompt
// it was given.
type scriptedLLM struct {
	replies []string
	errs    []error

	prompts []llms.PromptOptions
	inputs  []string
	onCall  func(ctx context.Context)
}

func (s *scriptedLLM) Prompt(ctx context.Context, prompt string, opts ...llms.PromptOption) (string, error) {
	if s.onCall != nil {
		s.onCall(ctx)
	}
	s.prompts = append(s.prompts, llms.Apply(opts))
	s.inputs = append(s.inputs, prompt)

	call := len(s.inputs) - 1
	if call < len(s.errs) && s.errs[call] != nil {
		return "", s.errs[call]
	}
	if call >= len(s.replies) {
		return "", errors.New("scripted llm ran out of replies")
	}
	return s.replies[call], nil
}

// structuredLLM replays canned schema-enforced proposals by decoding them
// straight into the output target.
type structuredLLM struct {
	proposals []string
	calls     int
	prompts   []llms.PromptOptions
}

func (s *structuredLLM) PromptStructured(_ context.Context, _ string, output any, opts ...llms.PromptOption) error {
	s.prompts = append(s.prompts, llms.Apply(opts))
	if s.calls >= len(s.proposals) {
		return errors.New("scripted llm ran out of proposals")
	}
	payload := s.proposals[s.calls]
	s.calls++
	return json.Unmarshal([]byte(payload), output)
}

type eventLog struct {
	kinds []events.Kind
}

func (l *eventLog) record(event events.Event) {
	l.kinds = append(l.kinds, event.Kind())
}

func (l *eventLog) String() string {
	parts := make([]string, 0, len(l.kinds))
	for _, kind := range l.kinds {
		parts = append(parts, string(kind))
	}
	return strings.Join(parts, " ")
}

func newTestOrchestrator(t *testing.T, backend LLM, handlers []modules.Handler, opts ...OrchestratorOption) (*Orchestrator, *eventLog) {
	t.Helper()

	log := &eventLog{}
	opts = append([]OrchestratorOption{
		WithLLM(backend),
		WithEventCallback(log.record),
	}, opts...)

	o := NewOrchestrator(opts...)
	t.Cleanup(o.Close)

	for _, handler := range handlers {
		if err := o.RegisterModule(handler); err != nil {
			t.Fatalf("failed to register module: %s", err.Error())
		}
	}
	return o, log
}

func TestProcessDispatchesResolvedAction(t *testing.T) {
	backend := &scriptedLLM{replies: []string{
		`{"module": "timer", "action": "set_timer", "arguments": {"minutes": 5}, "confidence": 0.95}`,
	}}
	handler := &fakeHandler{
		capability: timerCapability(),
		handle: func(_ context.Context, verb string, arguments map[string]any) (*modules.Result, error) {
			if verb != "set_timer" {
				t.Errorf("unexpected verb %q", verb)
			}
			if got := modules.Int(arguments, "minutes", 0); got != 5 {
				t.Errorf("expected 5 minutes, got %d", got)
			}
			return &modules.Result{Spoken: "Timer set."}, nil
		},
	}

	o, log := newTestOrchestrator(t, backend, []modules.Handler{handler})

	envelope, err := o.Process(context.Background(), "set a timer for five minutes")
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if envelope.Status != StatusOK {
		t.Fatalf("expected ok envelope, got %q (%q)", envelope.Status, envelope.SpokenText)
	}
	if envelope.SpokenText != "Timer set." {
		t.Errorf("unexpected spoken text %q", envelope.SpokenText)
	}

	want := "turn.utterance_received turn.intent_proposed turn.action_resolved turn.dispatch_succeeded"
	if log.String() != want {
		t.Errorf("unexpected event sequence:\n got %s\nwant %s", log.String(), want)
	}

	turns := o.Session().Turns()
	if len(turns) != 1 {
		t.Fatalf("expected one recorded turn, got %d", len(turns))
	}
	if turns[0].Reply != "Timer set." {
		t.Errorf("unexpected recorded reply %q", turns[0].Reply)
	}
}

func TestProcessDispatchesWithStructuredBackend(t *testing.T) {
	backend := &structuredLLM{proposals: []string{
		`{"module": "timer", "action": "set_timer", "arguments": {"minutes": 3}, "confidence": 0.9}`,
	}}
	handler := &fakeHandler{
		capability: timerCapability(),
		handle: func(_ context.Context, verb string, arguments map[string]any) (*modules.Result, error) {
			if got := modules.Int(arguments, "minutes", 0); got != 3 {
				t.Errorf("expected 3 minutes, got %d", got)
			}
			return &modules.Result{Spoken: "Timer set."}, nil
		},
	}

	o, log := newTestOrchestrator(t, backend, []modules.Handler{handler})

	envelope, err := o.Process(context.Background(), "set a timer for three minutes")
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if envelope.Status != StatusOK {
		t.Fatalf("expected ok envelope, got %q (%q)", envelope.Status, envelope.SpokenText)
	}

	want := "turn.utterance_received turn.intent_proposed turn.action_resolved turn.dispatch_succeeded"
	if log.String() != want {
		t.Errorf("unexpected event sequence:\n got %s\nwant %s", log.String(), want)
	}

	if len(backend.prompts) != 1 {
		t.Fatalf("expected one structured prompt, got %d", len(backend.prompts))
	}
	if instructions := backend.prompts[0].Instructions; !strings.Contains(instructions, "timer.set_timer") {
		t.Errorf("expected catalogue in system prompt, got %q", instructions)
	}
}

func TestProcessRefusesUnknownModule(t *testing.T) {
	backend := &scriptedLLM{replies: []string{
		`{"module": "weather", "action": "get_forecast", "arguments": {}, "confidence": 0.9}`,
	}}

	o, log := newTestOrchestrator(t, backend, []modules.Handler{
		&fakeHandler{capability: timerCapability()},
	})

	envelope, err := o.Process(context.Background(), "what's the weather like")
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if envelope.Status != StatusFailed {
		t.Fatalf("expected refusal, got %q", envelope.Status)
	}
	if envelope.SpokenText != spokenCannotDo {
		t.Errorf("expected %q, got %q", spokenCannotDo, envelope.SpokenText)
	}
	if !strings.Contains(log.String(), "turn.rejected") {
		t.Errorf("expected a rejection event, got %s", log.String())
	}
}

func TestProcessClarificationRoundTrip(t *testing.T) {
	backend := &scriptedLLM{replies: []string{
		`{"module": "gmail", "action": "send_email", "arguments": {"to": "ana@example.com"}, "confidence": 0.9}`,
		`{"module": "gmail", "action": "send_email", "arguments": {"body": "Running late, see you at eight."}, "confidence": 0.9}`,
	}}

	var sent map[string]any
	handler := &fakeHandler{
		capability: emailCapability(),
		handle: func(_ context.Context, _ string, arguments map[string]any) (*modules.Result, error) {
			sent = arguments
			return &modules.Result{Spoken: "Email sent to ana@example.com."}, nil
		},
	}

	o, log := newTestOrchestrator(t, backend, []modules.Handler{handler})

	first, err := o.Process(context.Background(), "email ana that I'm running late")
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if first.Status != StatusClarificationNeeded {
		t.Fatalf("expected clarification, got %q (%q)", first.Status, first.SpokenText)
	}
	if !strings.Contains(first.DisplayText, "missing: body") {
		t.Errorf("display text should name the missing field, got %q", first.DisplayText)
	}

	// The follow-up prompt must carry the pending-command context.
	second, err := o.Process(context.Background(), "say running late, see you at eight")
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if !strings.Contains(backend.prompts[1].Instructions, "gmail.send_email") {
		t.Error("second prompt should reference the pending command")
	}
	if second.Status != StatusOK {
		t.Fatalf("expected dispatch, got %q (%q)", second.Status, second.SpokenText)
	}
	if got := modules.String(sent, "to"); got != "ana@example.com" {
		t.Errorf("expected recipient carried across rounds, got %q", got)
	}
	if got := modules.String(sent, "body"); got == "" {
		t.Error("expected body from the clarification reply")
	}

	if !strings.Contains(log.String(), "turn.clarification_requested") {
		t.Errorf("expected a clarification event, got %s", log.String())
	}
}

func TestProcessUnparsableBackendOutput(t *testing.T) {
	backend := &scriptedLLM{replies: []string{
		"Sure! I'd be happy to help you with that.",
	}}

	o, _ := newTestOrchestrator(t, backend, []modules.Handler{
		&fakeHandler{capability: timerCapability()},
	})

	envelope, err := o.Process(context.Background(), "set a timer")
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if envelope.Status != StatusFailed {
		t.Fatalf("expected failed envelope, got %q", envelope.Status)
	}
	if envelope.SpokenText != spokenDidNotUnderstand {
		t.Errorf("expected %q, got %q", spokenDidNotUnderstand, envelope.SpokenText)
	}
	if strings.Contains(envelope.DisplayText, "happy to help") {
		t.Error("raw backend output leaked into the envelope")
	}
}

func TestProcessBackendUnavailable(t *testing.T) {
	backend := &scriptedLLM{errs: []error{errors.New("connection refused")}}

	o, _ := newTestOrchestrator(t, backend, nil)

	envelope, err := o.Process(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if envelope.Status != StatusFailed {
		t.Fatalf("expected failed envelope, got %q", envelope.Status)
	}
	if envelope.SpokenText != spokenThinkingTrouble {
		t.Errorf("expected %q, got %q", spokenThinkingTrouble, envelope.SpokenText)
	}
}

func TestProcessChatFallback(t *testing.T) {
	backend := &scriptedLLM{replies: []string{
		`{"action": "none", "confidence": 0.9}`,
		"You're welcome! Anything else?",
	}}

	o, log := newTestOrchestrator(t, backend, []modules.Handler{
		&fakeHandler{capability: timerCapability()},
	})

	envelope, err := o.Process(context.Background(), "thanks!")
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if envelope.Status != StatusOK {
		t.Fatalf("expected chat reply, got %q (%q)", envelope.Status, envelope.SpokenText)
	}
	if envelope.SpokenText != "You're welcome! Anything else?" {
		t.Errorf("unexpected reply %q", envelope.SpokenText)
	}

	// A chat turn still ends with a terminal event.
	want := "turn.utterance_received turn.intent_proposed turn.chat_responded"
	if log.String() != want {
		t.Errorf("unexpected event sequence:\n got %s\nwant %s", log.String(), want)
	}
}

func TestProcessChatFallbackDisabled(t *testing.T) {
	backend := &scriptedLLM{replies: []string{
		`{"action": "none", "confidence": 0.9}`,
	}}

	o, _ := newTestOrchestrator(t, backend, nil, WithChatFallback(false))

	envelope, err := o.Process(context.Background(), "tell me a joke")
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if envelope.Status != StatusFailed {
		t.Fatalf("expected refusal, got %q", envelope.Status)
	}
	if envelope.SpokenText != spokenCannotDo {
		t.Errorf("expected %q, got %q", spokenCannotDo, envelope.SpokenText)
	}
}

func TestProcessCancelledBeforeDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	backend := &scriptedLLM{
		replies: []string{
			`{"module": "timer", "action": "set_timer", "arguments": {"minutes": 5}, "confidence": 0.9}`,
		},
		// Cancellation lands while the backend is thinking.
		onCall: func(context.Context) { cancel() },
	}
	handler := &fakeHandler{capability: timerCapability()}

	o, _ := newTestOrchestrator(t, backend, []modules.Handler{handler})

	_, err := o.Process(ctx, "set a timer for five minutes")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := handler.calls.Load(); got != 0 {
		t.Errorf("cancelled turn must not dispatch, got %d calls", got)
	}
	if len(o.Session().Turns()) != 0 {
		t.Error("cancelled turn must not be recorded")
	}
}

func TestProcessWithoutBackend(t *testing.T) {
	o, _ := newTestOrchestrator(t, nil, nil)

	envelope, err := o.Process(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if envelope.Status != StatusFailed {
		t.Fatalf("expected failed envelope, got %q", envelope.Status)
	}
	if envelope.SpokenText != spokenThinkingTrouble {
		t.Errorf("expected %q, got %q", spokenThinkingTrouble, envelope.SpokenText)
	}
}

func TestProcessKeepsHistoryForFollowUps(t *testing.T) {
	backend := &scriptedLLM{replies: []string{
		`{"module": "timer", "action": "set_timer", "arguments": {"minutes": 5}, "confidence": 0.9}`,
		`{"action": "none", "confidence": 0.9}`,
		"I just set a five minute timer for you.",
	}}
	handler := &fakeHandler{
		capability: timerCapability(),
		handle: func(context.Context, string, map[string]any) (*modules.Result, error) {
			return &modules.Result{Spoken: "Timer set."}, nil
		},
	}

	o, _ := newTestOrchestrator(t, backend, []modules.Handler{handler})

	if _, err := o.Process(context.Background(), "set a timer for five minutes"); err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if _, err := o.Process(context.Background(), "what did you just do?"); err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}

	// The second proposal call carries the first turn as context.
	messages := backend.prompts[1].Messages
	if len(messages) != 2 {
		t.Fatalf("expected two history messages, got %d", len(messages))
	}
	if messages[0].Role != llms.MessageRoleUser || messages[0].Content != "set a timer for five minutes" {
		t.Errorf("unexpected first history message %+v", messages[0])
	}
	if messages[1].Role != llms.MessageRoleAssistant || messages[1].Content != "Timer set." {
		t.Errorf("unexpected second history message %+v", messages[1])
	}
}
