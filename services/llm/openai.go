package llmsvc

import (
	"context"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/pkg/errors"

	"github.com/mwalimu/somo/core"
)

const lessonPlannerPrompt = "You are a primary school lesson planner. Follow the user's instructions below."

type openAIService struct {
	client openai.Client
	model  openai.ChatModel
	logger core.Logger
}

var _ core.LLMService = (*openAIService)(nil)

func NewOpenAIService(conf *core.Config, logger core.Logger) *openAIService {
	return &openAIService{
		client: openai.NewClient(option.WithAPIKey(conf.OpenAI.APIKey)),
		model:  openai.ChatModel(conf.OpenAI.Model),
		logger: logger,
	}
}

func (svc *openAIService) GenerateLessonPlan(ctx context.Context, prompt string) (string, error) {
	resp, err := svc.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: svc.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(lessonPlannerPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.7),
		MaxTokens:   openai.Int(1500),
	})
	if err != nil {
		return "", errors.Wrap(err, "creating chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion")
	}
	return stripCodeFences(resp.Choices[0].Message.Content), nil
}

func (svc *openAIService) Chat(ctx context.Context, messages []core.ChatMessage) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case "assistant":
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	resp, err := svc.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    svc.model,
		Messages: msgs,
	})
	if err != nil {
		return "", errors.Wrap(err, "creating chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

// stripCodeFences drops ```json fences the model wraps structured output in.
func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
