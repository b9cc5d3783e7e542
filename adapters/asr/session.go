package asr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/be-capable/realdog-server/domain"
	"github.com/be-capable/realdog-server/domain/repositories"
	"github.com/be-capable/realdog-server/internal/config"
)

// SessionState tracks where a transcription exchange is in its lifecycle.
type SessionState int

const (
	StateConnecting SessionState = iota
	StateConfigSent
	StateStreaming
	StateCompleted
	StateFailed
	StateTimedOut
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConfigSent:
		return "config_sent"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// FrameConn is one binary-frame connection to the vendor. Exactly one
// session owns a connection; frame exchange is strictly sequential.
type FrameConn interface {
	WriteFrame(data []byte) error
	ReadFrame() ([]byte, error)
	Close() error
}

// Dialer opens frame connections. Injected so the send/ack pairing can be
// tested without a network.
type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header) (FrameConn, error)
}

type wsDialer struct{}

func (wsDialer) Dial(ctx context.Context, url string, header http.Header) (FrameConn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}
	return &wsFrameConn{conn: conn}, nil
}

type wsFrameConn struct {
	conn *websocket.Conn
}

func (c *wsFrameConn) WriteFrame(data []byte) error {
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (c *wsFrameConn) ReadFrame() ([]byte, error) {
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if messageType == websocket.BinaryMessage {
			return data, nil
		}
	}
}

func (c *wsFrameConn) Close() error {
	return c.conn.Close()
}

// VendorTranscriber drives the vendor's binary streaming protocol: one
// control frame, then chunked audio frames, each awaiting a single server
// frame before the next send.
type VendorTranscriber struct {
	cfg    config.ASRConfig
	stub   bool
	dialer Dialer
	logger *zap.Logger
}

// NewVendorTranscriber creates a transcriber with the real websocket dialer.
func NewVendorTranscriber(cfg config.ASRConfig, stubMode bool, logger *zap.Logger) *VendorTranscriber {
	return &VendorTranscriber{cfg: cfg, stub: stubMode, dialer: wsDialer{}, logger: logger}
}

// NewVendorTranscriberWithDialer is the test seam.
func NewVendorTranscriberWithDialer(cfg config.ASRConfig, stubMode bool, dialer Dialer, logger *zap.Logger) *VendorTranscriber {
	return &VendorTranscriber{cfg: cfg, stub: stubMode, dialer: dialer, logger: logger}
}

var _ repositories.SpeechToText = (*VendorTranscriber)(nil)

// Transcribe runs one full session. A single deadline guards the whole
// exchange; on expiry the socket is forcibly closed.
func (t *VendorTranscriber) Transcribe(ctx context.Context, req repositories.TranscriptionRequest) (repositories.TranscriptResult, error) {
	if !t.cfg.Configured() {
		if t.stub {
			return stubTranscript(req.Locale), nil
		}
		return repositories.TranscriptResult{}, fmt.Errorf("transcription vendor credentials: %w", domain.ErrConfigurationMissing)
	}

	reqID := req.CorrelationID
	if reqID == "" {
		reqID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	t.logger.Debug("asr session start",
		zap.String("reqid", reqID),
		zap.Int("audioBytes", len(req.Audio)),
		zap.String("format", string(req.Format)))

	header := http.Header{}
	header.Set("Authorization", "Bearer; "+t.cfg.Token)

	conn, err := t.dialer.Dial(ctx, t.cfg.WSURL, header)
	if err != nil {
		t.logger.Error("asr dial failed", zap.String("reqid", reqID), zap.Error(err))
		return repositories.TranscriptResult{}, &domain.ProtocolError{Op: "dial", Err: err}
	}

	type outcome struct {
		lastFrame []byte
		err       error
	}
	done := make(chan outcome, 1)
	go func() {
		last, err := t.exchange(conn, reqID, req)
		done <- outcome{lastFrame: last, err: err}
	}()

	var last []byte
	select {
	case <-ctx.Done():
		// Force the blocked read/write to fail, then drain the goroutine.
		conn.Close()
		<-done
		t.logger.Warn("asr session timed out", zap.String("reqid", reqID), zap.String("state", StateTimedOut.String()))
		return repositories.TranscriptResult{}, fmt.Errorf("transcription session: %w", domain.ErrUpstreamTimeout)
	case out := <-done:
		conn.Close()
		if out.err != nil {
			return repositories.TranscriptResult{}, out.err
		}
		last = out.lastFrame
	}

	decoded := DecodeServerFrame(last)
	text := ExtractTranscript(decoded)
	if text == "" {
		// Non-speech audio is a valid outcome, not a failure.
		t.logger.Warn("asr empty transcript", zap.String("reqid", reqID))
	}

	var raw json.RawMessage
	if payload, ok := decoded.(map[string]interface{}); ok {
		raw, _ = json.Marshal(payload)
	}
	return repositories.TranscriptResult{
		Text:   text,
		Vendor: "volcengine",
		Model:  "asr/v2",
		Raw:    raw,
	}, nil
}

// exchange performs the sequential frame protocol: control frame, one ack,
// then audio chunks each followed by exactly one server frame. Returns the
// last server frame received.
func (t *VendorTranscriber) exchange(conn FrameConn, reqID string, req repositories.TranscriptionRequest) ([]byte, error) {
	state := StateConnecting

	control, err := EncodeControlFrame(t.controlPayload(reqID, req))
	if err != nil {
		return nil, &domain.ProtocolError{Op: "encode control frame", Err: err}
	}
	if err := conn.WriteFrame(control); err != nil {
		return nil, &domain.ProtocolError{Op: "send control frame", Err: err}
	}
	state = StateConfigSent

	// The vendor rejects audio sent before the handshake ack.
	last, err := conn.ReadFrame()
	if err != nil {
		return nil, &domain.ProtocolError{Op: "await config ack", Err: err}
	}

	state = StateStreaming
	chunks := SplitChunks(req.Audio, req.Format)
	for i, chunk := range chunks {
		frame, err := EncodeAudioFrame(chunk, i == len(chunks)-1)
		if err != nil {
			return nil, &domain.ProtocolError{Op: "encode audio frame", Err: err}
		}
		if err := conn.WriteFrame(frame); err != nil {
			return nil, &domain.ProtocolError{Op: "send audio frame", Err: err}
		}
		last, err = conn.ReadFrame()
		if err != nil {
			return nil, &domain.ProtocolError{Op: "await audio ack", Err: err}
		}
	}

	state = StateCompleted
	t.logger.Debug("asr sent all chunks",
		zap.String("reqid", reqID),
		zap.Int("chunkCount", len(chunks)),
		zap.String("state", state.String()))
	return last, nil
}

func (t *VendorTranscriber) controlPayload(reqID string, req repositories.TranscriptionRequest) map[string]interface{} {
	sampleRate := req.SampleRateHz
	if sampleRate == 0 {
		sampleRate = 16000
	}
	bits := req.BitsPerSample
	if bits == 0 {
		bits = 16
	}
	channels := req.Channels
	if channels == 0 {
		channels = 1
	}
	return map[string]interface{}{
		"app": map[string]interface{}{
			"appid":   t.cfg.AppID,
			"token":   t.cfg.Token,
			"cluster": t.cfg.Cluster,
		},
		"user": map[string]interface{}{
			"uid": t.cfg.UID,
		},
		"request": map[string]interface{}{
			"reqid":           reqID,
			"nbest":           1,
			"workflow":        t.cfg.Workflow,
			"show_language":   false,
			"show_utterances": false,
			"result_type":     "full",
			"sequence":        1,
		},
		"audio": map[string]interface{}{
			"format":   string(req.Format),
			"rate":     sampleRate,
			"bits":     bits,
			"channel":  channels,
			"codec":    "raw",
			"language": asrLanguage(req.Locale),
		},
	}
}

func asrLanguage(locale string) string {
	switch {
	case locale == "":
		return "zh-CN"
	case strings.HasPrefix(locale, "zh"):
		return "zh-CN"
	case strings.HasPrefix(locale, "en"):
		return "en-US"
	default:
		return locale
	}
}

// stubTranscript is the deterministic offline substitute, keyed by locale.
// Indistinguishable from a real result except for its provenance.
func stubTranscript(locale string) repositories.TranscriptResult {
	text := "woof"
	if asrLanguage(locale) == "zh-CN" {
		text = "汪汪"
	}
	return repositories.TranscriptResult{
		Text:   text,
		Vendor: "stub",
		Model:  "stub",
		Raw:    json.RawMessage(`{"stub":true}`),
	}
}
