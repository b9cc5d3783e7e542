package asr

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/be-capable/realdog-server/domain"
	"github.com/be-capable/realdog-server/domain/entities"
	"github.com/be-capable/realdog-server/domain/repositories"
	"github.com/be-capable/realdog-server/internal/config"
)

// fakeFrameConn replays one scripted server frame per read and records every
// frame written, so the strict send/ack pairing is observable.
type fakeFrameConn struct {
	mu        sync.Mutex
	written   [][]byte
	responses [][]byte
	closed    chan struct{}
	closeOnce sync.Once
	blockRead bool
}

func newFakeFrameConn(responses [][]byte) *fakeFrameConn {
	return &fakeFrameConn{responses: responses, closed: make(chan struct{})}
}

func (c *fakeFrameConn) WriteFrame(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.closed:
		return errors.New("connection closed")
	default:
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	c.written = append(c.written, cp)
	return nil
}

func (c *fakeFrameConn) ReadFrame() ([]byte, error) {
	if c.blockRead {
		<-c.closed
		return nil, errors.New("connection closed")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.responses) == 0 {
		return nil, errors.New("no more frames")
	}
	frame := c.responses[0]
	c.responses = c.responses[1:]
	return frame, nil
}

func (c *fakeFrameConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

type fakeDialer struct {
	conn    *fakeFrameConn
	dialErr error
	header  http.Header
	url     string
}

func (d *fakeDialer) Dial(ctx context.Context, url string, header http.Header) (FrameConn, error) {
	d.url = url
	d.header = header
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	return d.conn, nil
}

func testASRConfig() config.ASRConfig {
	return config.ASRConfig{
		WSURL:    "wss://example.test/api/v2/asr",
		AppID:    "app-1",
		Token:    "token-1",
		Cluster:  "cluster-1",
		UID:      "real-dog",
		Workflow: "audio_in,decode",
		Timeout:  30 * time.Second,
	}
}

func ackFrame(t *testing.T) []byte {
	return makeServerFrame(t, msgServerAck, []byte(`{}`), true, true)
}

func resultFrame(t *testing.T, text string) []byte {
	return makeServerFrame(t, msgServerFullResponse, []byte(`{"result":[{"text":"`+text+`"}]}`), true, true)
}

func TestVendorTranscriberHappyPath(t *testing.T) {
	// 2.5 wav chunks: control + ack, then 3 audio frames each acked.
	audio := make([]byte, ChunkSizeWAV*2+100)
	responses := [][]byte{
		ackFrame(t),
		ackFrame(t),
		ackFrame(t),
		resultFrame(t, "good boy"),
	}
	conn := newFakeFrameConn(responses)
	dialer := &fakeDialer{conn: conn}
	tr := NewVendorTranscriberWithDialer(testASRConfig(), false, dialer, zaptest.NewLogger(t))

	result, err := tr.Transcribe(context.Background(), repositories.TranscriptionRequest{
		Audio:  audio,
		Format: entities.FormatWAV,
		Locale: "en-US",
	})
	require.NoError(t, err)
	assert.Equal(t, "good boy", result.Text)
	assert.Equal(t, "volcengine", result.Vendor)

	// One control frame then one frame per chunk, last one flagged.
	require.Len(t, conn.written, 4)
	assert.Equal(t, byte(msgFullClientRequest<<4|flagNone), conn.written[0][1])
	assert.Equal(t, byte(msgAudioOnlyRequest<<4|flagNone), conn.written[1][1])
	assert.Equal(t, byte(msgAudioOnlyRequest<<4|flagNone), conn.written[2][1])
	assert.Equal(t, byte(msgAudioOnlyRequest<<4|flagLastChunk), conn.written[3][1])

	assert.Equal(t, "Bearer; token-1", dialer.header.Get("Authorization"))
}

func TestVendorTranscriberEmptyTranscriptIsNotAnError(t *testing.T) {
	conn := newFakeFrameConn([][]byte{
		ackFrame(t),
		makeServerFrame(t, msgServerFullResponse, []byte(`{"result":[]}`), true, true),
	})
	tr := NewVendorTranscriberWithDialer(testASRConfig(), false, &fakeDialer{conn: conn}, zaptest.NewLogger(t))

	result, err := tr.Transcribe(context.Background(), repositories.TranscriptionRequest{
		Audio:  []byte{1, 2, 3},
		Format: entities.FormatWAV,
	})
	require.NoError(t, err)
	assert.Equal(t, "", result.Text)
}

func TestVendorTranscriberEmptyAudioSendsLastChunk(t *testing.T) {
	// Even with no audio the session must send one last-flagged frame so the
	// vendor finalizes the utterance.
	conn := newFakeFrameConn([][]byte{
		ackFrame(t),
		resultFrame(t, ""),
	})
	tr := NewVendorTranscriberWithDialer(testASRConfig(), false, &fakeDialer{conn: conn}, zaptest.NewLogger(t))

	_, err := tr.Transcribe(context.Background(), repositories.TranscriptionRequest{
		Audio:  nil,
		Format: entities.FormatWAV,
	})
	require.NoError(t, err)
	require.Len(t, conn.written, 2)
	assert.Equal(t, byte(msgAudioOnlyRequest<<4|flagLastChunk), conn.written[1][1])
}

func TestVendorTranscriberDialFailure(t *testing.T) {
	dialer := &fakeDialer{dialErr: errors.New("connection refused")}
	tr := NewVendorTranscriberWithDialer(testASRConfig(), false, dialer, zaptest.NewLogger(t))

	_, err := tr.Transcribe(context.Background(), repositories.TranscriptionRequest{
		Audio:  []byte{1},
		Format: entities.FormatWAV,
	})
	var protoErr *domain.ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, "dial", protoErr.Op)
}

func TestVendorTranscriberAckFailureAbortsStreaming(t *testing.T) {
	// Server never acks the config frame: no audio may be sent.
	conn := newFakeFrameConn(nil)
	tr := NewVendorTranscriberWithDialer(testASRConfig(), false, &fakeDialer{conn: conn}, zaptest.NewLogger(t))

	_, err := tr.Transcribe(context.Background(), repositories.TranscriptionRequest{
		Audio:  make([]byte, ChunkSizeWAV),
		Format: entities.FormatWAV,
	})
	var protoErr *domain.ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Len(t, conn.written, 1, "only the control frame may be sent before the ack")
}

func TestVendorTranscriberTimeout(t *testing.T) {
	cfg := testASRConfig()
	cfg.Timeout = 50 * time.Millisecond
	conn := newFakeFrameConn(nil)
	conn.blockRead = true
	tr := NewVendorTranscriberWithDialer(cfg, false, &fakeDialer{conn: conn}, zaptest.NewLogger(t))

	start := time.Now()
	_, err := tr.Transcribe(context.Background(), repositories.TranscriptionRequest{
		Audio:  []byte{1, 2, 3},
		Format: entities.FormatWAV,
	})
	require.ErrorIs(t, err, domain.ErrUpstreamTimeout)
	assert.Less(t, time.Since(start), 5*time.Second, "timeout must force-close the socket")

	select {
	case <-conn.closed:
	default:
		t.Fatal("socket left open after timeout")
	}
}

func TestVendorTranscriberMissingCredentials(t *testing.T) {
	tr := NewVendorTranscriberWithDialer(config.ASRConfig{Timeout: time.Second}, false, &fakeDialer{}, zaptest.NewLogger(t))
	_, err := tr.Transcribe(context.Background(), repositories.TranscriptionRequest{
		Audio:  []byte{1},
		Format: entities.FormatWAV,
	})
	require.ErrorIs(t, err, domain.ErrConfigurationMissing)
}

func TestVendorTranscriberStubMode(t *testing.T) {
	tr := NewVendorTranscriberWithDialer(config.ASRConfig{}, true, &fakeDialer{}, zaptest.NewLogger(t))

	zh, err := tr.Transcribe(context.Background(), repositories.TranscriptionRequest{Locale: "zh-CN"})
	require.NoError(t, err)
	assert.Equal(t, "汪汪", zh.Text)
	assert.Equal(t, "stub", zh.Vendor)

	en, err := tr.Transcribe(context.Background(), repositories.TranscriptionRequest{Locale: "en-US"})
	require.NoError(t, err)
	assert.Equal(t, "woof", en.Text)

	// No locale resolves to zh-CN for recognition.
	none, err := tr.Transcribe(context.Background(), repositories.TranscriptionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "汪汪", none.Text)
}
