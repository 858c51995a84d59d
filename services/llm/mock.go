package llmsvc

import (
	"context"

	"github.com/mwalimu/somo/core"
)

// ServiceMock returns canned completions; for tests and local dev without an
// API key.
type ServiceMock struct {
	GenerateResult string
	ChatResult     string
	Err            error

	Prompts []string
}

var _ core.LLMService = (*ServiceMock)(nil)

func (svc *ServiceMock) GenerateLessonPlan(_ context.Context, prompt string) (string, error) {
	svc.Prompts = append(svc.Prompts, prompt)
	return svc.GenerateResult, svc.Err
}

func (svc *ServiceMock) Chat(_ context.Context, messages []core.ChatMessage) (string, error) {
	if len(messages) > 0 {
		svc.Prompts = append(svc.Prompts, messages[len(messages)-1].Content)
	}
	return svc.ChatResult, svc.Err
}
