package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, OutputSynthetic, cfg.OutputMode)
	assert.Equal(t, 30*time.Second, cfg.ASR.Timeout)
	assert.Equal(t, 25*time.Second, cfg.LLM.Timeout)
	assert.False(t, cfg.ASR.Configured())
	assert.False(t, cfg.TTS.Configured())
	assert.False(t, cfg.Storage.Configured())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "production")
	t.Setenv("ASR_APP_ID", "app")
	t.Setenv("ASR_ACCESS_TOKEN", "token")
	t.Setenv("ASR_CLUSTER", "cluster")
	t.Setenv("ASR_TIMEOUT", "10s")
	t.Setenv("DOG_AUDIO_OUTPUT_MODE", "remote")
	t.Setenv("S3_BUCKET", "realdog-audio")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.True(t, cfg.ASR.Configured())
	assert.Equal(t, 10*time.Second, cfg.ASR.Timeout)
	assert.Equal(t, OutputRemote, cfg.OutputMode)
	assert.True(t, cfg.Storage.Configured())
}

func TestStubNeverActiveInProduction(t *testing.T) {
	cfg := Config{StubMode: true, Env: "production"}
	assert.False(t, cfg.StubActive())

	cfg.Env = "development"
	assert.True(t, cfg.StubActive())

	cfg.StubMode = false
	assert.False(t, cfg.StubActive())
}
