package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/be-capable/realdog-server/domain"
	"github.com/be-capable/realdog-server/domain/entities"
	"github.com/be-capable/realdog-server/domain/repositories"
	"github.com/be-capable/realdog-server/internal/config"
)

const synthUID = "real-dog"

// VolcengineTTS implements SpeechSynthesizer against the Volcengine HTTP
// TTS endpoint. When stub mode is active and credentials are absent it
// returns a tiny fixed payload so the pipeline can run offline.
type VolcengineTTS struct {
	cfg    config.TTSConfig
	stub   bool
	client *http.Client
	logger *zap.Logger
}

var _ repositories.SpeechSynthesizer = (*VolcengineTTS)(nil)

// NewVolcengineTTS creates a new Volcengine TTS adapter.
func NewVolcengineTTS(cfg config.TTSConfig, stubActive bool, logger *zap.Logger) *VolcengineTTS {
	return &VolcengineTTS{
		cfg:    cfg,
		stub:   stubActive,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type volcRequest struct {
	App     volcApp     `json:"app"`
	User    volcUser    `json:"user"`
	Audio   volcAudio   `json:"audio"`
	Request volcReqMeta `json:"request"`
}

type volcApp struct {
	AppID   string `json:"appid"`
	Token   string `json:"token"`
	Cluster string `json:"cluster"`
}

type volcUser struct {
	UID string `json:"uid"`
}

type volcAudio struct {
	VoiceType   string  `json:"voice_type"`
	Encoding    string  `json:"encoding"`
	SpeedRatio  float64 `json:"speed_ratio"`
	VolumeRatio float64 `json:"volume_ratio"`
	PitchRatio  float64 `json:"pitch_ratio"`
}

type volcReqMeta struct {
	ReqID     string `json:"reqid"`
	Text      string `json:"text"`
	Operation string `json:"operation"`
}

type volcResponse struct {
	Code    *int   `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

func (v *VolcengineTTS) Synthesize(ctx context.Context, text, locale, voiceHint string) (repositories.SynthesisResult, error) {
	if !v.cfg.Configured() {
		if v.stub {
			return repositories.SynthesisResult{
				Bytes:  []byte{1, 2, 3, 4},
				Format: v.encoding(),
				Vendor: "stub",
				Model:  "stub",
			}, nil
		}
		return repositories.SynthesisResult{}, fmt.Errorf("volcengine tts credentials: %w", domain.ErrConfigurationMissing)
	}

	voiceType := voiceHint
	if voiceType == "" {
		voiceType = v.pickVoiceType(locale)
	}
	if voiceType == "" {
		return repositories.SynthesisResult{}, fmt.Errorf("volcengine tts voice type: %w", domain.ErrConfigurationMissing)
	}

	ctx, cancel := context.WithTimeout(ctx, v.cfg.Timeout)
	defer cancel()

	reqID := uuid.New().String()
	payload := volcRequest{
		App:  volcApp{AppID: v.cfg.AppID, Token: v.cfg.Token, Cluster: v.cfg.Cluster},
		User: volcUser{UID: synthUID},
		Audio: volcAudio{
			VoiceType:   voiceType,
			Encoding:    string(v.encoding()),
			SpeedRatio:  1.0,
			VolumeRatio: 1.0,
			PitchRatio:  1.0,
		},
		Request: volcReqMeta{ReqID: reqID, Text: text, Operation: "query"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return repositories.SynthesisResult{}, fmt.Errorf("marshal tts request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return repositories.SynthesisResult{}, fmt.Errorf("build tts request: %w", err)
	}
	// Vendor quirk: semicolon between scheme and token.
	req.Header.Set("Authorization", "Bearer; "+v.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return repositories.SynthesisResult{}, fmt.Errorf("volcengine tts: %w", domain.ErrUpstreamTimeout)
		}
		return repositories.SynthesisResult{}, fmt.Errorf("volcengine tts request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return repositories.SynthesisResult{}, fmt.Errorf("read tts response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		v.logger.Error("tts vendor returned non-200",
			zap.Int("status", resp.StatusCode),
			zap.String("req_id", reqID))
		return repositories.SynthesisResult{}, fmt.Errorf("volcengine tts status %d: %w", resp.StatusCode, domain.ErrUpstreamMalformed)
	}

	var parsed volcResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return repositories.SynthesisResult{}, fmt.Errorf("decode tts response: %w", domain.ErrUpstreamMalformed)
	}
	if parsed.Code != nil && !vendorCodeOK(*parsed.Code) {
		v.logger.Error("tts vendor error",
			zap.Int("code", *parsed.Code),
			zap.String("message", parsed.Message),
			zap.String("req_id", reqID))
		return repositories.SynthesisResult{}, fmt.Errorf("volcengine tts code %d: %w", *parsed.Code, domain.ErrUpstreamMalformed)
	}
	if strings.TrimSpace(parsed.Data) == "" {
		return repositories.SynthesisResult{}, fmt.Errorf("volcengine tts audio: %w", domain.ErrUpstreamEmpty)
	}

	audio, err := base64.StdEncoding.DecodeString(parsed.Data)
	if err != nil {
		return repositories.SynthesisResult{}, fmt.Errorf("decode tts audio: %w", domain.ErrUpstreamMalformed)
	}

	return repositories.SynthesisResult{
		Bytes:  audio,
		Format: v.encoding(),
		Vendor: "volcengine",
		Model:  voiceType,
	}, nil
}

// vendorCodeOK accepts the status codes Volcengine uses for success across
// API revisions.
func vendorCodeOK(code int) bool {
	return code == 3000 || code == 0 || code == 1000
}

func (v *VolcengineTTS) encoding() entities.AudioFormat {
	if v.cfg.Encoding == string(entities.FormatWAV) {
		return entities.FormatWAV
	}
	return entities.FormatMP3
}

func (v *VolcengineTTS) pickVoiceType(locale string) string {
	if locale == "" || strings.HasPrefix(locale, "zh") {
		return v.cfg.VoiceZh
	}
	return v.cfg.VoiceEn
}
