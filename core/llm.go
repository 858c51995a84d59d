package core

import "context"

type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

// LLMService is any service that can draft lesson plans and hold a chat.
type LLMService interface {
	// GenerateLessonPlan drafts a plan from a free-form prompt. The result
	// is plain text with any code fences already stripped.
	GenerateLessonPlan(ctx context.Context, prompt string) (string, error)
	Chat(ctx context.Context, messages []ChatMessage) (string, error)
}
