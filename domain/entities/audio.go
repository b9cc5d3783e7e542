package entities

import (
	"fmt"
	"strings"
)

// AudioFormat is a supported input/output audio container.
type AudioFormat string

const (
	FormatWAV AudioFormat = "wav"
	FormatMP3 AudioFormat = "mp3"
)

// ContentType returns the MIME type for the format.
func (f AudioFormat) ContentType() string {
	if f == FormatMP3 {
		return "audio/mpeg"
	}
	return "audio/wav"
}

// DetectAudioFormat resolves the declared content type or filename extension
// to a supported format. Anything else is rejected before any network call.
func DetectAudioFormat(contentType, filename string) (AudioFormat, error) {
	mime := strings.ToLower(strings.TrimSpace(contentType))
	name := strings.ToLower(strings.TrimSpace(filename))
	switch {
	case strings.Contains(mime, "wav"), strings.HasSuffix(name, ".wav"):
		return FormatWAV, nil
	case strings.Contains(mime, "mpeg"), strings.HasSuffix(name, ".mp3"):
		return FormatMP3, nil
	}
	return "", fmt.Errorf("unsupported audio format %q (%q): upload wav or mp3", contentType, filename)
}
