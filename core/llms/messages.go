package llms

// MessageRole describes who a conversation message is from.
type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Message is one entry of conversational context passed to a backend.
type Message struct {
	Role    MessageRole
	Content string
}
