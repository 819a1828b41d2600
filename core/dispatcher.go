package orchestration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jpcaldeira/aura-core/core/modules"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultDispatchTimeout = 30 * time.Second

// dispatcher invokes module handlers inside a failure boundary: one attempt
// per resolved action, bounded by a per-call timeout, with every failure
// normalized into a sanitized envelope. Full error detail goes to the
// diagnostic logger only.
type dispatcher struct {
	handlers map[string]modules.Handler
	timeout  time.Duration
}

func newDispatcher(timeout time.Duration) *dispatcher {
	return &dispatcher{
		handlers: map[string]modules.Handler{},
		timeout:  timeout,
	}
}

func (d *dispatcher) bind(moduleID string, handler modules.Handler) {
	d.handlers[moduleID] = handler
}

func (d *dispatcher) execute(ctx context.Context, action ResolvedAction) ResponseEnvelope {
	ctx, span := tracer.Start(ctx, "dispatch action")
	defer span.End()
	span.SetAttributes(
		attribute.String("action.module", action.ModuleID),
		attribute.String("action.verb", action.Verb),
	)

	handler, ok := d.handlers[action.ModuleID]
	if !ok {
		// The registry invariant makes this unreachable through resolution;
		// guard anyway so a miswired registration cannot panic a turn.
		err := fmt.Errorf("no handler bound for module %q", action.ModuleID)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return failedEnvelope(spokenCannotDo, "module not available")
	}

	// Caller cancellation is not honored once dispatch begins: the one
	// attempt runs to completion or timeout.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	type outcome struct {
		result *modules.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := handler.Handle(callCtx, action.Verb, action.Arguments)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return d.failure(ctx, action, out.err)
		}
		if out.result == nil {
			out.result = &modules.Result{}
		}
		return okEnvelope(out.result)

	case <-callCtx.Done():
		err := fmt.Errorf("%w: %s.%s after %s", ErrDispatchTimeout, action.ModuleID, action.Verb, d.timeout)
		logger.ErrorContext(ctx, "module call abandoned on timeout",
			"module", action.ModuleID, "verb", action.Verb, "timeout", d.timeout.String())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return failedEnvelope(spokenTimeout, "the action timed out")
	}
}

func (d *dispatcher) failure(ctx context.Context, action ResolvedAction, err error) ResponseEnvelope {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	logger.ErrorContext(ctx, "module call failed",
		"module", action.ModuleID, "verb", action.Verb, "error", err.Error())

	var moduleErr *modules.Error
	if errors.As(err, &moduleErr) && moduleErr.Message != "" {
		return failedEnvelope(moduleErr.Message, moduleErr.Message)
	}
	return failedEnvelope(spokenGenericFailure, "the action failed")
}
