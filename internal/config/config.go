package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// OutputMode selects how dog audio is produced on the synthesize path.
type OutputMode string

const (
	// OutputSynthetic uses the procedural synthesizer only.
	OutputSynthetic OutputMode = "synthetic"
	// OutputRemote tries the remote speech-synthesis vendor first, falling
	// back to the procedural synthesizer on failure.
	OutputRemote OutputMode = "remote"
)

// ASRConfig configures the vendor streaming transcription session.
type ASRConfig struct {
	WSURL    string
	AppID    string
	Token    string
	Cluster  string
	UID      string
	Workflow string
	Timeout  time.Duration
}

// Configured reports whether all vendor credentials are present.
func (c ASRConfig) Configured() bool {
	return c.AppID != "" && c.Token != "" && c.Cluster != ""
}

// LLMConfig configures the chat-completion (planning) stage.
type LLMConfig struct {
	Provider string // "openai", "gemini" or "stub"
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

func (c LLMConfig) Configured() bool {
	return c.APIKey != "" && c.Model != ""
}

// TTSConfig configures the remote speech-synthesis vendor.
type TTSConfig struct {
	URL      string
	AppID    string
	Token    string
	Cluster  string
	VoiceZh  string
	VoiceEn  string
	Encoding string // "mp3" or "wav"
	Timeout  time.Duration
}

func (c TTSConfig) Configured() bool {
	return c.AppID != "" && c.Token != "" && c.Cluster != ""
}

// StorageConfig configures S3-compatible object storage.
type StorageConfig struct {
	Bucket        string
	Region        string
	Endpoint      string
	Prefix        string
	PublicBaseURL string
}

func (c StorageConfig) Configured() bool {
	return c.Bucket != ""
}

// MongoConfig configures the task/event store.
type MongoConfig struct {
	URI      string
	Database string
}

// Config is the explicit configuration object handed to constructors. Tests
// build their own instances; nothing reads the environment past Load.
type Config struct {
	Port       string
	Env        string
	JWTSecret  string
	StubMode   bool
	OutputMode OutputMode

	ASR       ASRConfig
	GoogleSTT bool
	LLM       LLMConfig
	TTS       TTSConfig
	Storage   StorageConfig
	Mongo     MongoConfig
}

// StubActive reports whether deterministic offline substitutes may be used.
// Stub mode never activates in production.
func (c Config) StubActive() bool {
	return c.StubMode && c.Env != "production"
}

// Load builds a Config from the environment. Call godotenv.Load first if a
// .env file should be honored.
func Load() Config {
	cfg := Config{
		Port:      envOr("PORT", "8080"),
		Env:       envOr("APP_ENV", "development"),
		JWTSecret: envOr("JWT_SECRET", "realdog-dev-secret"),
		StubMode:  envBool("AI_STUB_MODE", false),
		ASR: ASRConfig{
			WSURL:    envOr("ASR_WS_URL", "wss://openspeech.bytedance.com/api/v2/asr"),
			AppID:    os.Getenv("ASR_APP_ID"),
			Token:    os.Getenv("ASR_ACCESS_TOKEN"),
			Cluster:  os.Getenv("ASR_CLUSTER"),
			UID:      envOr("ASR_UID", "real-dog"),
			Workflow: envOr("ASR_WORKFLOW", "audio_in,resample,partition,vad,fe,decode,itn,nlu_punctuate"),
			Timeout:  envDuration("ASR_TIMEOUT", 30*time.Second),
		},
		GoogleSTT: envBool("GOOGLE_STT_FALLBACK", false),
		LLM: LLMConfig{
			Provider: envOr("LLM_PROVIDER", "openai"),
			APIKey:   os.Getenv("LLM_API_KEY"),
			BaseURL:  strings.TrimRight(os.Getenv("LLM_API_BASE"), "/"),
			Model:    envOr("LLM_MODEL", "gpt-4o-mini"),
			Timeout:  envDuration("LLM_TIMEOUT", 25*time.Second),
		},
		TTS: TTSConfig{
			URL:      envOr("TTS_HTTP_URL", "https://openspeech.bytedance.com/api/v1/tts"),
			AppID:    os.Getenv("TTS_APP_ID"),
			Token:    os.Getenv("TTS_ACCESS_TOKEN"),
			Cluster:  os.Getenv("TTS_CLUSTER"),
			VoiceZh:  envOr("TTS_VOICE_TYPE_ZH", os.Getenv("TTS_VOICE_TYPE")),
			VoiceEn:  envOr("TTS_VOICE_TYPE_EN", os.Getenv("TTS_VOICE_TYPE")),
			Encoding: envOr("TTS_ENCODING", "mp3"),
			Timeout:  envDuration("TTS_TIMEOUT", 30*time.Second),
		},
		Storage: StorageConfig{
			Bucket:        os.Getenv("S3_BUCKET"),
			Region:        os.Getenv("S3_REGION"),
			Endpoint:      os.Getenv("S3_ENDPOINT"),
			Prefix:        envOr("S3_PREFIX", "uploads"),
			PublicBaseURL: strings.TrimRight(os.Getenv("S3_PUBLIC_BASE_URL"), "/"),
		},
		Mongo: MongoConfig{
			URI:      os.Getenv("MONGODB_URI"),
			Database: envOr("MONGODB_DATABASE", "realdog"),
		},
	}

	if envOr("DOG_AUDIO_OUTPUT_MODE", "synthetic") == string(OutputRemote) {
		cfg.OutputMode = OutputRemote
	} else {
		cfg.OutputMode = OutputSynthetic
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
