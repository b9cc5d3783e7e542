package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/genai"

	"github.com/be-capable/realdog-server/domain"
	"github.com/be-capable/realdog-server/domain/repositories"
	"github.com/be-capable/realdog-server/internal/config"
)

func TestNewGeminiChatRequiresAPIKey(t *testing.T) {
	_, err := NewGeminiChat(context.Background(), config.LLMConfig{}, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfigurationMissing)
}

func TestGeminiRoleMapping(t *testing.T) {
	assert.Equal(t, genai.Role(genai.RoleModel), geminiRole(repositories.AssistantRole))
	assert.Equal(t, genai.Role(genai.RoleUser), geminiRole(repositories.UserRole))
	assert.Equal(t, genai.Role(genai.RoleUser), geminiRole(repositories.SystemRole))
}
