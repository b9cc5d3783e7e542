package asr

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/be-capable/realdog-server/domain/entities"
)

// makeServerFrame builds a synthetic vendor frame the way the server would.
func makeServerFrame(t *testing.T, messageType byte, payload []byte, compress, jsonSerialized bool) []byte {
	t.Helper()

	var prefix []byte
	switch messageType {
	case msgServerFullResponse:
		prefix = []byte{0, 0, 0, 1} // sequence number
	case msgServerError, msgServerAck:
		prefix = []byte{0, 0, 0, 0, 0, 0, 0, 0} // code + size
	}

	body := payload
	compression := byte(0)
	if compress {
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		_, err := w.Write(payload)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		body = buf.Bytes()
		compression = compressionGzip
	}
	serialization := byte(0)
	if jsonSerialized {
		serialization = serializationJSON
	}

	frame := []byte{
		protocolVersion<<4 | headerSizeWords,
		messageType << 4,
		serialization<<4 | compression,
		0x00,
	}
	frame = append(frame, prefix...)
	frame = append(frame, body...)
	return frame
}

func TestEncodeControlFrameLayout(t *testing.T) {
	cfg := map[string]interface{}{"request": map[string]interface{}{"reqid": "r-1"}}
	frame, err := EncodeControlFrame(cfg)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(frame), 8)
	assert.Equal(t, byte(protocolVersion<<4|headerSizeWords), frame[0])
	assert.Equal(t, byte(msgFullClientRequest<<4|flagNone), frame[1])
	assert.Equal(t, byte(serializationJSON<<4|compressionGzip), frame[2])
	assert.Equal(t, byte(0x00), frame[3])

	payloadLen := binary.BigEndian.Uint32(frame[4:8])
	assert.Equal(t, int(payloadLen), len(frame)-8)

	r, err := gzip.NewReader(bytes.NewReader(frame[8:]))
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(r).Decode(&decoded))
	assert.Equal(t, "r-1", decoded["request"].(map[string]interface{})["reqid"])
}

func TestEncodeAudioFrameFlags(t *testing.T) {
	frame, err := EncodeAudioFrame([]byte{1, 2, 3}, false)
	require.NoError(t, err)
	assert.Equal(t, byte(msgAudioOnlyRequest<<4|flagNone), frame[1])

	last, err := EncodeAudioFrame([]byte{1, 2, 3}, true)
	require.NoError(t, err)
	assert.Equal(t, byte(msgAudioOnlyRequest<<4|flagLastChunk), last[1])
}

func TestDecodeServerFrameRoundTrip(t *testing.T) {
	payload := []byte(`{"result":[{"text":"woof woof"}]}`)

	tests := []struct {
		name        string
		messageType byte
		compress    bool
	}{
		{"full response gzip", msgServerFullResponse, true},
		{"full response plain", msgServerFullResponse, false},
		{"error frame gzip", msgServerError, true},
		{"ack frame gzip", msgServerAck, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := makeServerFrame(t, tt.messageType, payload, tt.compress, true)
			decoded := DecodeServerFrame(frame)
			require.NotNil(t, decoded)
			assert.Equal(t, "woof woof", ExtractTranscript(decoded))
		})
	}
}

func TestDecodeServerFrameRawPayload(t *testing.T) {
	raw := []byte{0xde, 0xad, 0xbe, 0xef}
	frame := makeServerFrame(t, msgServerFullResponse, raw, true, false)
	decoded := DecodeServerFrame(frame)
	require.NotNil(t, decoded)
	assert.Equal(t, raw, decoded.([]byte))
}

func TestDecodeServerFrameInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"nil", nil},
		{"short", []byte{0x11, 0x90, 0x11}},
		{"below minimum frame length", make([]byte, minFrameLen-1)},
		{"unknown message type", makeServerFrame(t, 0b0011, []byte("{}"), true, true)},
		{"truncated error frame", []byte{0x11, msgServerError << 4, 0x11, 0x00, 0, 0, 0, 0}},
		{"garbage gzip", append([]byte{0x11, msgServerFullResponse << 4, 0x11, 0x00, 0, 0, 0, 1}, 0xff)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, DecodeServerFrame(tt.raw))
		})
	}
}

func TestDecodeServerFrameBadJSON(t *testing.T) {
	frame := makeServerFrame(t, msgServerFullResponse, []byte("not json"), true, true)
	assert.Nil(t, DecodeServerFrame(frame))
}

func TestSplitChunksCompleteness(t *testing.T) {
	for _, format := range []entities.AudioFormat{entities.FormatWAV, entities.FormatMP3} {
		for _, n := range []int{0, 1, 6399, 6400, 6401, 20001} {
			audio := make([]byte, n)
			for i := range audio {
				audio[i] = byte(i)
			}
			chunks := SplitChunks(audio, format)

			rejoined := make([]byte, 0, len(audio))
			for i, c := range chunks {
				require.LessOrEqual(t, len(c), ChunkSize(format))
				if i < len(chunks)-1 {
					require.Equal(t, ChunkSize(format), len(c))
				}
				rejoined = append(rejoined, c...)
			}
			assert.Equal(t, audio, rejoined, "format=%s n=%d", format, n)
		}
	}
}

func TestSplitChunksEmptyAudio(t *testing.T) {
	// One empty chunk, so the session still sends a last-flagged audio frame.
	for _, format := range []entities.AudioFormat{entities.FormatWAV, entities.FormatMP3} {
		chunks := SplitChunks(nil, format)
		require.Len(t, chunks, 1)
		assert.Empty(t, chunks[0])
	}
}

func TestChunkSizePolicy(t *testing.T) {
	assert.Equal(t, 6400, ChunkSize(entities.FormatWAV))
	assert.Equal(t, 10000, ChunkSize(entities.FormatMP3))
}

func TestExtractTranscriptSearchOrder(t *testing.T) {
	tests := []struct {
		name    string
		payload interface{}
		want    string
	}{
		{"top level text", map[string]interface{}{"text": "hello"}, "hello"},
		{
			"result text",
			map[string]interface{}{"result": []interface{}{map[string]interface{}{"text": "bark"}}},
			"bark",
		},
		{
			"alternatives text",
			map[string]interface{}{"result": []interface{}{map[string]interface{}{
				"text":         "  ",
				"alternatives": []interface{}{map[string]interface{}{"text": "howl"}},
			}}},
			"howl",
		},
		{"missing fields", map[string]interface{}{"result": []interface{}{}}, ""},
		{"nil payload", nil, ""},
		{"raw bytes", []byte{1, 2}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTranscript(tt.payload))
		})
	}
}
