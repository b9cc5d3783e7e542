package llm

import (
	"context"
	"encoding/json"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/be-capable/realdog-server/domain/repositories"
)

// StubChat returns a fixed, well-formed planning payload so the full
// translation pipeline can run offline. The payload carries fields for both
// the interpretation schema and the synthesis-plan schema; each caller picks
// out the keys it understands.
type StubChat struct {
	logger *zap.Logger
}

func NewStubChat(logger *zap.Logger) *StubChat {
	return &StubChat{logger: logger}
}

var _ repositories.ChatCompletion = (*StubChat)(nil)

type stubPayload struct {
	MeaningText  string  `json:"meaningText"`
	DogEventType string  `json:"dogEventType"`
	StateType    *string `json:"stateType"`
	ContextType  *string `json:"contextType"`
	Confidence   float64 `json:"confidence"`
	BarkType     string  `json:"barkType"`
	Intensity    float64 `json:"intensity"`
	DogText      string  `json:"dogText"`
	Transcript   string  `json:"transcript"`
}

func (s *StubChat) Chat(_ context.Context, messages []repositories.ChatMessage, _ float64) (repositories.ChatResult, error) {
	var joined strings.Builder
	for _, m := range messages {
		joined.WriteString(m.Content)
		joined.WriteByte('\n')
	}
	zh := containsHan(joined.String())

	payload := stubPayload{
		MeaningText:  "I'm barking: I want your attention.",
		DogEventType: "OTHER",
		Confidence:   0.2,
		BarkType:     "BARK",
		Intensity:    0.8,
		DogText:      "Woooof!",
		Transcript:   "Woof!",
	}
	if zh {
		payload.MeaningText = "我在叫：我想引起你的注意。"
		payload.Transcript = "汪汪"
	}

	content, err := json.Marshal(payload)
	if err != nil {
		return repositories.ChatResult{}, err
	}

	s.logger.Debug("llm stub response served", zap.Bool("zh", zh))
	return repositories.ChatResult{
		Content: string(content),
		Vendor:  "stub",
		Model:   "stub",
	}, nil
}

func containsHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
