package asr

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/be-capable/realdog-server/domain/entities"
)

// Wire layout of the vendor transcription protocol. Every frame starts with
// a 4-byte header followed by a 4-byte big-endian payload length and the
// payload itself.
//
//	byte 0: protocol version (high nibble) | header size in 4-byte words (low nibble)
//	byte 1: message type (high nibble) | type-specific flags (low nibble)
//	byte 2: serialization method (high nibble) | compression method (low nibble)
//	byte 3: reserved
const (
	protocolVersion = 0b0001
	headerSizeWords = 0b0001

	msgFullClientRequest  = 0b0001
	msgAudioOnlyRequest   = 0b0010
	msgServerFullResponse = 0b1001
	msgServerError        = 0b1011
	msgServerAck          = 0b1111

	flagNone      = 0b0000
	flagLastChunk = 0b0010

	serializationJSON = 0b0001
	compressionGzip   = 0b0001

	// A server frame shorter than this cannot carry a header plus length.
	minFrameLen = 8
)

// Chunk sizes match the vendor's recommended frame duration per container.
const (
	ChunkSizeWAV = 6400
	ChunkSizeMP3 = 10000
)

// ChunkSize returns the audio chunk size for the given container.
func ChunkSize(format entities.AudioFormat) int {
	if format == entities.FormatMP3 {
		return ChunkSizeMP3
	}
	return ChunkSizeWAV
}

// SplitChunks slices audio into sequential chunks per the sizing policy. The
// final chunk may be shorter; concatenating all chunks reproduces the input.
// Empty audio yields a single empty chunk so the session can still send one
// last-flagged frame.
func SplitChunks(audio []byte, format entities.AudioFormat) [][]byte {
	if len(audio) == 0 {
		return [][]byte{{}}
	}
	size := ChunkSize(format)
	var chunks [][]byte
	for off := 0; off < len(audio); off += size {
		end := off + size
		if end > len(audio) {
			end = len(audio)
		}
		chunks = append(chunks, audio[off:end])
	}
	return chunks
}

// EncodeControlFrame serializes cfg to JSON, gzip-compresses it and wraps it
// as a full client request frame. Pure function.
func EncodeControlFrame(cfg interface{}) ([]byte, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal control payload: %w", err)
	}
	return encodeFrame(msgFullClientRequest, flagNone, raw)
}

// EncodeAudioFrame gzip-compresses one audio chunk and wraps it as an
// audio-only request frame, setting the last-chunk flag when asked.
func EncodeAudioFrame(chunk []byte, isLastChunk bool) ([]byte, error) {
	flags := byte(flagNone)
	if isLastChunk {
		flags = flagLastChunk
	}
	return encodeFrame(msgAudioOnlyRequest, flags, chunk)
}

func encodeFrame(messageType, flags byte, payload []byte) ([]byte, error) {
	compressed, err := gzipBytes(payload)
	if err != nil {
		return nil, fmt.Errorf("compress payload: %w", err)
	}
	frame := make([]byte, 0, 8+len(compressed))
	frame = append(frame,
		protocolVersion<<4|headerSizeWords,
		messageType<<4|flags,
		serializationJSON<<4|compressionGzip,
		0x00,
	)
	frame = binary.BigEndian.AppendUint32(frame, uint32(len(compressed)))
	frame = append(frame, compressed...)
	return frame, nil
}

// DecodeServerFrame parses a frame received from the vendor. JSON payloads
// come back as map[string]interface{}, anything else as []byte. Structurally
// invalid input yields nil, never an error: callers must treat nil as "no
// usable payload".
func DecodeServerFrame(raw []byte) interface{} {
	if len(raw) < minFrameLen {
		return nil
	}
	headerBytes := int(raw[0]&0x0f) * 4
	messageType := raw[1] >> 4
	serialization := raw[2] >> 4
	compression := raw[2] & 0x0f
	if headerBytes <= 0 || len(raw) < headerBytes {
		return nil
	}
	payload := raw[headerBytes:]

	// Full responses carry a 4-byte sequence number; error and ack frames
	// carry an 8-byte code+size prefix when present.
	switch messageType {
	case msgServerFullResponse:
		if len(payload) < 4 {
			return nil
		}
		payload = payload[4:]
	case msgServerError, msgServerAck:
		if len(payload) < 8 {
			return nil
		}
		payload = payload[8:]
	default:
		return nil
	}

	if compression == compressionGzip {
		decompressed, err := gunzipBytes(payload)
		if err != nil {
			return nil
		}
		payload = decompressed
	}

	if serialization == serializationJSON {
		var out map[string]interface{}
		if err := json.Unmarshal(payload, &out); err != nil {
			return nil
		}
		return out
	}
	return payload
}

// ExtractTranscript pulls the first non-empty transcript out of a decoded
// server payload: top-level text, result[].text, then
// result[].alternatives[].text. Absence yields an empty string.
func ExtractTranscript(decoded interface{}) string {
	payload, ok := decoded.(map[string]interface{})
	if !ok {
		return ""
	}
	if text := trimmedString(payload["text"]); text != "" {
		return text
	}
	results, _ := payload["result"].([]interface{})
	for _, r := range results {
		entry, ok := r.(map[string]interface{})
		if !ok {
			continue
		}
		if text := trimmedString(entry["text"]); text != "" {
			return text
		}
		alternatives, _ := entry["alternatives"].([]interface{})
		for _, a := range alternatives {
			alt, ok := a.(map[string]interface{})
			if !ok {
				continue
			}
			if text := trimmedString(alt["text"]); text != "" {
				return text
			}
		}
	}
	return ""
}

func trimmedString(v interface{}) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzipBytes(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
