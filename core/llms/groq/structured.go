package groq

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/jpcaldeira/aura-core/core/llms"
	"github.com/jpcaldeira/aura-core/internal/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PromptStructured sends a prompt with a response schema reflected from
// output and decodes the schema-enforced response into it. output must be a
// non-nil pointer to a struct.
func (c *Client) PromptStructured(ctx context.Context, prompt string, output any, opts ...llms.PromptOption) error {
	ctx, span := tracer.Start(ctx, "prompt llm structured")
	defer span.End()
	span.SetAttributes(attribute.String("request.model", c.model))

	outputType := reflect.TypeOf(output)
	if outputType == nil || outputType.Kind() != reflect.Ptr {
		return fmt.Errorf("structured output target must be a pointer, got %T", output)
	}

	// TODO: Implement a custom reflector that only emits the subset of
	// jsonschema groq accepts
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.ReflectFromType(outputType.Elem())

	options := llms.Apply(opts)
	if options.Temperature == nil {
		// Schema-enforced output wants determinism unless told otherwise.
		options.Temperature = utils.Ptr(0.0)
	}
	messages := toMessages(options.Instructions, options.Messages)
	messages = append(messages, message{
		Role:    messageRoleUser,
		Content: prompt,
	})

	body := requestBody{
		Model:       c.model,
		Messages:    messages,
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
		ResponseFormat: &chatResponseFormat{
			Type: "json_schema",
			JSONSchema: &responseJSONSchema{
				Name:   outputType.Elem().Name(),
				Schema: *schema,
				Strict: true,
			},
		},
	}

	if schemaString, err := schema.MarshalJSON(); err == nil {
		span.SetAttributes(attribute.String("request.schema", string(schemaString)))
	}

	content, err := c.complete(ctx, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if split := strings.Split(content, "```"); len(split) > 1 {
		content = strings.TrimSpace(strings.TrimPrefix(split[1], "json"))
	}
	if err := json.Unmarshal([]byte(content), output); err != nil {
		err = fmt.Errorf("error unmarshalling structured response: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

type chatResponseFormat struct {
	Type       string              `json:"type"`
	JSONSchema *responseJSONSchema `json:"json_schema,omitempty"`
}

type responseJSONSchema struct {
	// Name further identifies the schema in the response.
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Schema      jsonschema.Schema `json:"schema"`
	// Strict determines whether the schema is enforced on the generated
	// content.
	Strict bool `json:"strict"`
}
