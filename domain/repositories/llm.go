package repositories

import "context"

// Role defines the type of message sender.
type Role string

const (
	SystemRole    Role = "system"
	UserRole      Role = "user"
	AssistantRole Role = "assistant"
)

// ChatMessage is a single message in a chat-completion request.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatResult is the model's reply with its provenance.
type ChatResult struct {
	Content string
	Vendor  string
	Model   string
}

// ChatCompletion abstracts any chat/LLM provider used by the planning stage.
// Implementations must support a deterministic stub mode when no credentials
// are configured and the debug flag is set.
type ChatCompletion interface {
	Chat(ctx context.Context, messages []ChatMessage, temperature float64) (ChatResult, error)
}
