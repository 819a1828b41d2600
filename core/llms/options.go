package llms

// PromptOptions carries the options shared by every backend's prompt call.
type PromptOptions struct {
	Instructions string
	Messages     []Message
	Temperature  *float64
	MaxTokens    *int
}

// PromptOption is a function that can be used to modify the prompt options.
type PromptOption func(*PromptOptions)

// WithSystemPrompt sets the system instructions for the prompt. Repeating
// this option overwrites the previous instructions.
func WithSystemPrompt(prompt string) PromptOption {
	return func(opts *PromptOptions) {
		opts.Instructions = prompt
	}
}

// WithMessages adds conversational context messages to the prompt. Repeating
// this option sequentially adds more messages.
func WithMessages(messages ...Message) PromptOption {
	return func(opts *PromptOptions) {
		opts.Messages = append(opts.Messages, messages...)
	}
}

// WithTemperature sets the sampling temperature for the prompt.
func WithTemperature(temperature float64) PromptOption {
	return func(opts *PromptOptions) {
		opts.Temperature = &temperature
	}
}

// WithMaxTokens caps the number of tokens the backend may generate.
func WithMaxTokens(maxTokens int) PromptOption {
	return func(opts *PromptOptions) {
		opts.MaxTokens = &maxTokens
	}
}

// Apply folds the passed options into a PromptOptions value.
func Apply(opts []PromptOption) PromptOptions {
	options := PromptOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
