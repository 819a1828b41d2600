package groq

import (
	"github.com/jpcaldeira/aura-core/core/llms"
)

type message struct {
	Role    messageRole `json:"role"`
	Content string      `json:"content"`
}

type messageRole string

const (
	messageRoleSystem    messageRole = "system"
	messageRoleUser      messageRole = "user"
	messageRoleAssistant messageRole = "assistant"
)

func toMessages(instructions string, context []llms.Message) []message {
	messages := []message{}
	if instructions != "" {
		messages = append(messages, message{
			Role:    messageRoleSystem,
			Content: instructions,
		})
	}
	for _, entry := range context {
		role := messageRoleUser
		switch entry.Role {
		case llms.MessageRoleAssistant:
			role = messageRoleAssistant
		case llms.MessageRoleSystem:
			role = messageRoleSystem
		}
		if entry.Content == "" {
			continue
		}
		messages = append(messages, message{Role: role, Content: entry.Content})
	}
	return messages
}
