package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/be-capable/realdog-server/domain"
	"github.com/be-capable/realdog-server/domain/repositories"
	"github.com/be-capable/realdog-server/internal/config"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiChat implements the chat-completion interface on Google's Gemini
// API, selectable via LLM_PROVIDER=gemini.
type GeminiChat struct {
	client *genai.Client
	cfg    config.LLMConfig
	logger *zap.Logger
}

// NewGeminiChat creates a Gemini-backed chat client.
func NewGeminiChat(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (*GeminiChat, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini api key: %w", domain.ErrConfigurationMissing)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	return &GeminiChat{client: client, cfg: cfg, logger: logger}, nil
}

var _ repositories.ChatCompletion = (*GeminiChat)(nil)

// geminiRole maps a chat role onto the genai.Role the SDK expects.
func geminiRole(role repositories.Role) genai.Role {
	if role == repositories.AssistantRole {
		return genai.RoleModel
	}
	return genai.RoleUser
}

func (g *GeminiChat) Chat(ctx context.Context, messages []repositories.ChatMessage, temperature float64) (repositories.ChatResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	var contents []*genai.Content
	for _, m := range messages {
		// Gemini has no separate system role; system prompts lead as user
		// content, matching the order they were given.
		contents = append(contents, genai.NewContentFromText(m.Content, geminiRole(m.Role)))
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(temperature)),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return repositories.ChatResult{}, fmt.Errorf("gemini chat: %w", domain.ErrUpstreamTimeout)
		}
		g.logger.Error("gemini chat failed", zap.String("model", g.cfg.Model), zap.Error(err))
		return repositories.ChatResult{}, fmt.Errorf("gemini chat: %w", err)
	}

	var text strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			text.WriteString(part.Text)
		}
	}
	content := strings.TrimSpace(text.String())
	if content == "" {
		return repositories.ChatResult{}, fmt.Errorf("gemini chat: %w", domain.ErrUpstreamEmpty)
	}

	return repositories.ChatResult{
		Content: content,
		Vendor:  "gemini",
		Model:   g.cfg.Model,
	}, nil
}
