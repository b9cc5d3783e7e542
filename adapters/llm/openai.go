package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"go.uber.org/zap"

	"github.com/be-capable/realdog-server/domain"
	"github.com/be-capable/realdog-server/domain/repositories"
	"github.com/be-capable/realdog-server/internal/config"
)

// OpenAIChat is the primary chat-completion client for the planning stage.
// It works against api.openai.com or any compatible gateway via BaseURL.
type OpenAIChat struct {
	client *openai.Client
	cfg    config.LLMConfig
	logger *zap.Logger
}

// NewOpenAIChat creates a chat client from explicit configuration.
func NewOpenAIChat(cfg config.LLMConfig, logger *zap.Logger) (*OpenAIChat, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("chat completion api key: %w", domain.ErrConfigurationMissing)
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")))
	}
	client := openai.NewClient(opts...)
	return &OpenAIChat{client: &client, cfg: cfg, logger: logger}, nil
}

var _ repositories.ChatCompletion = (*OpenAIChat)(nil)

// Chat performs one non-streaming completion with the configured timeout.
func (c *OpenAIChat) Chat(ctx context.Context, messages []repositories.ChatMessage, temperature float64) (repositories.ChatResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.cfg.Model),
		Temperature: param.NewOpt(temperature),
		Messages:    convertMessages(messages),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return repositories.ChatResult{}, fmt.Errorf("chat completion: %w", domain.ErrUpstreamTimeout)
		}
		c.logger.Error("chat completion failed", zap.String("model", c.cfg.Model), zap.Error(err))
		return repositories.ChatResult{}, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return repositories.ChatResult{}, fmt.Errorf("chat completion: %w", domain.ErrUpstreamEmpty)
	}

	return repositories.ChatResult{
		Content: strings.TrimSpace(resp.Choices[0].Message.Content),
		Vendor:  "openai",
		Model:   c.cfg.Model,
	}, nil
}

func convertMessages(messages []repositories.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case repositories.SystemRole:
			out = append(out, openai.SystemMessage(m.Content))
		case repositories.AssistantRole:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
