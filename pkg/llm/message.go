package llm

// Role defines message roles in a conversation.
type Role string

const (
	// RoleSystem is for system instructions.
	RoleSystem Role = "system"

	// RoleUser is for user messages.
	RoleUser Role = "user"

	// RoleAssistant is for assistant responses.
	RoleAssistant Role = "assistant"
)

// Message represents a chat message in a conversation.
type Message struct {
	// Role identifies the message sender.
	Role Role

	// Content is the text content of the message.
	Content string

	// Images holds raw encoded image bytes (JPEG or PNG) for multimodal
	// messages. How they go over the wire depends on the vendor.
	Images [][]byte
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewImageMessage creates a user message with an attached image.
func NewImageMessage(content string, images ...[]byte) Message {
	return Message{Role: RoleUser, Content: content, Images: images}
}
