package orchestration

import (
	"context"
	"fmt"

	"github.com/jpcaldeira/aura-core/core/capabilities"
	"github.com/jpcaldeira/aura-core/core/intents"
	"github.com/jpcaldeira/aura-core/core/llms"
	"github.com/jpcaldeira/aura-core/core/sessions"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type llm struct {
	// client is the configured backend implementation (prompt-based or
	// structured).
	client LLM
}

func (runtime *llm) set(client LLM) {
	if runtime == nil {
		return
	}

	runtime.client = client
}

// propose turns one utterance into an intent proposal, embedding the
// capability catalogue and any pending clarification as backend context.
//
// A backend whose output cannot be shaped into a proposal fails with
// *intents.ParseError; transport failures come back as plain wrapped errors.
func (runtime *llm) propose(
	ctx context.Context,
	utterance string,
	catalogue []capabilities.Capability,
	pending *sessions.Clarification,
	history []llms.Message,
) (*intents.Proposal, error) {
	ctx, span := tracer.Start(ctx, "propose intent")
	defer span.End()

	if runtime == nil || runtime.client == nil {
		return nil, ErrNoLLM
	}

	system := parserPrompt(catalogue, pending)
	options := []llms.PromptOption{
		llms.WithSystemPrompt(system),
		llms.WithMessages(history...),
		llms.WithTemperature(0.2),
	}

	switch client := runtime.client.(type) {
	case LLMWithStructuredPrompt:
		var proposal intents.Proposal
		if err := client.PromptStructured(ctx, utterance, &proposal, options...); err != nil {
			err = fmt.Errorf("failed to prompt llm: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		checked, err := intents.FromStructured(proposal, "")
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		span.SetAttributes(
			attribute.String("proposal.module", checked.ModuleID),
			attribute.String("proposal.action", checked.Action),
			attribute.Float64("proposal.confidence", checked.Confidence),
		)
		return checked, nil

	case LLMWithPrompt:
		raw, err := client.Prompt(ctx, utterance, options...)
		if err != nil {
			err = fmt.Errorf("failed to prompt llm: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		proposal, err := intents.Parse(raw)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		span.SetAttributes(
			attribute.String("proposal.module", proposal.ModuleID),
			attribute.String("proposal.action", proposal.Action),
			attribute.Float64("proposal.confidence", proposal.Confidence),
		)
		return proposal, nil

	default:
		return nil, fmt.Errorf("unknown LLM type")
	}
}

// respond generates the conversational reply used when an utterance maps to
// no registered action. Requires a prompt-capable backend.
func (runtime *llm) respond(ctx context.Context, utterance string, history []llms.Message) (string, error) {
	ctx, span := tracer.Start(ctx, "generate chat response")
	defer span.End()

	if runtime == nil || runtime.client == nil {
		return "", ErrNoLLM
	}

	client, ok := runtime.client.(LLMWithPrompt)
	if !ok {
		return "", fmt.Errorf("configured llm cannot generate chat responses")
	}

	reply, err := client.Prompt(ctx, utterance,
		llms.WithSystemPrompt(chatSystemPrompt),
		llms.WithMessages(history...),
	)
	if err != nil {
		err = fmt.Errorf("failed to prompt llm: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return reply, nil
}
