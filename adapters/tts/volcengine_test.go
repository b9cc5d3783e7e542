package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/be-capable/realdog-server/domain"
	"github.com/be-capable/realdog-server/domain/entities"
	"github.com/be-capable/realdog-server/internal/config"
)

func testTTSConfig(url string) config.TTSConfig {
	return config.TTSConfig{
		URL:      url,
		AppID:    "app",
		Token:    "token",
		Cluster:  "cluster",
		VoiceZh:  "voice-zh",
		VoiceEn:  "voice-en",
		Encoding: "mp3",
		Timeout:  2 * time.Second,
	}
}

func TestVolcengineTTSSynthesize(t *testing.T) {
	audio := []byte("fake-mp3-bytes")
	var gotAuth string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		code := 3000
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": code,
			"data": base64.StdEncoding.EncodeToString(audio),
		})
	}))
	defer server.Close()

	tts := NewVolcengineTTS(testTTSConfig(server.URL), false, zaptest.NewLogger(t))
	result, err := tts.Synthesize(context.Background(), "过来", "zh-CN", "")
	require.NoError(t, err)

	assert.Equal(t, audio, result.Bytes)
	assert.Equal(t, entities.FormatMP3, result.Format)
	assert.Equal(t, "volcengine", result.Vendor)
	assert.Equal(t, "voice-zh", result.Model)
	assert.Equal(t, "Bearer; token", gotAuth)

	reqMeta := gotBody["request"].(map[string]interface{})
	assert.Equal(t, "过来", reqMeta["text"])
	assert.Equal(t, "query", reqMeta["operation"])
	assert.NotEmpty(t, reqMeta["reqid"])
	audioMeta := gotBody["audio"].(map[string]interface{})
	assert.Equal(t, "voice-zh", audioMeta["voice_type"])
	assert.Equal(t, "mp3", audioMeta["encoding"])
}

func TestVolcengineTTSVoiceSelection(t *testing.T) {
	tests := []struct {
		name      string
		locale    string
		voiceHint string
		want      string
	}{
		{"chinese locale", "zh-CN", "", "voice-zh"},
		{"english locale", "en-US", "", "voice-en"},
		{"empty locale defaults to zh", "", "", "voice-zh"},
		{"hint wins", "en-US", "voice-custom", "voice-custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var body map[string]interface{}
				json.NewDecoder(r.Body).Decode(&body)
				voice := body["audio"].(map[string]interface{})["voice_type"]
				assert.Equal(t, tt.want, voice)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"code": 0,
					"data": base64.StdEncoding.EncodeToString([]byte("x")),
				})
			}))
			defer server.Close()

			tts := NewVolcengineTTS(testTTSConfig(server.URL), false, zaptest.NewLogger(t))
			_, err := tts.Synthesize(context.Background(), "hi", tt.locale, tt.voiceHint)
			require.NoError(t, err)
		})
	}
}

func TestVolcengineTTSVendorError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code":    4001,
			"message": "quota exceeded",
		})
	}))
	defer server.Close()

	tts := NewVolcengineTTS(testTTSConfig(server.URL), false, zaptest.NewLogger(t))
	_, err := tts.Synthesize(context.Background(), "hi", "zh-CN", "")
	require.ErrorIs(t, err, domain.ErrUpstreamMalformed)
}

func TestVolcengineTTSEmptyAudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 3000,
			"data": "",
		})
	}))
	defer server.Close()

	tts := NewVolcengineTTS(testTTSConfig(server.URL), false, zaptest.NewLogger(t))
	_, err := tts.Synthesize(context.Background(), "hi", "zh-CN", "")
	require.ErrorIs(t, err, domain.ErrUpstreamEmpty)
}

func TestVolcengineTTSTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	cfg := testTTSConfig(server.URL)
	cfg.Timeout = 50 * time.Millisecond
	tts := NewVolcengineTTS(cfg, false, zaptest.NewLogger(t))
	_, err := tts.Synthesize(context.Background(), "hi", "zh-CN", "")
	require.ErrorIs(t, err, domain.ErrUpstreamTimeout)
}

func TestVolcengineTTSMissingCredentials(t *testing.T) {
	cfg := config.TTSConfig{URL: "http://localhost", Timeout: time.Second}
	tts := NewVolcengineTTS(cfg, false, zaptest.NewLogger(t))
	_, err := tts.Synthesize(context.Background(), "hi", "zh-CN", "")
	require.ErrorIs(t, err, domain.ErrConfigurationMissing)
}

func TestVolcengineTTSStubMode(t *testing.T) {
	cfg := config.TTSConfig{URL: "http://localhost", Encoding: "wav", Timeout: time.Second}
	tts := NewVolcengineTTS(cfg, true, zaptest.NewLogger(t))
	result, err := tts.Synthesize(context.Background(), "hi", "zh-CN", "")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, result.Bytes)
	assert.Equal(t, entities.FormatWAV, result.Format)
	assert.Equal(t, "stub", result.Vendor)
}
