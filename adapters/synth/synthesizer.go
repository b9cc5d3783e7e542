// Package synth produces procedural dog vocalizations as 16-bit PCM WAV.
// It is the offline output path: no credentials, no network, deterministic
// length for a given vocalization type.
package synth

import (
	"encoding/binary"
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/be-capable/realdog-server/domain/entities"
	"github.com/be-capable/realdog-server/domain/repositories"
)

// SampleRate is the output rate for all synthetic vocalizations.
const SampleRate = 22050

// Duration returns the clip length in seconds for a vocalization type.
func Duration(vocalization entities.VocalizationType) float64 {
	switch vocalization {
	case entities.VocalizationHowl:
		return 1.2
	case entities.VocalizationWhine:
		return 0.9
	case entities.VocalizationGrowl:
		return 0.8
	default:
		return 0.6
	}
}

// Synthesizer renders a vocalization plan into a mono WAV clip.
type Synthesizer struct {
	logger *zap.Logger
}

func NewSynthesizer(logger *zap.Logger) *Synthesizer {
	return &Synthesizer{logger: logger}
}

// Render produces the waveform for the plan's vocalization type and
// intensity. Intensity is clamped to an audible floor so even a zero-energy
// plan yields sound.
func (s *Synthesizer) Render(vocalization entities.VocalizationType, intensity float64) []byte {
	dur := Duration(vocalization)
	n := int(SampleRate * dur)
	if n < 1 {
		n = 1
	}
	amp := math.Max(0.1, math.Min(1, intensity))

	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		t := float64(i) / SampleRate
		r := t / dur

		var env float64
		switch vocalization {
		case entities.VocalizationHowl, entities.VocalizationWhine:
			env = math.Sin(math.Min(math.Pi, r*math.Pi))
		case entities.VocalizationGrowl:
			env = math.Exp(-t * 1.8)
		default:
			env = math.Exp(-t * 6.0)
		}

		f := 500.0
		switch vocalization {
		case entities.VocalizationHowl:
			f = 220 + 80*math.Sin(2*math.Pi*t*0.8)
		case entities.VocalizationWhine:
			f = 850 + 300*math.Sin(2*math.Pi*t*2.2)
		case entities.VocalizationGrowl:
			f = 120 + 40*math.Sin(2*math.Pi*t*1.2)
		case entities.VocalizationBark:
			f = 520 - 220*r
		}

		noiseLevel := 0.15
		if vocalization == entities.VocalizationGrowl {
			noiseLevel = 0.35
		}
		sine := math.Sin(2 * math.Pi * f * t)
		noise := (rand.Float64()*2 - 1) * noiseLevel
		y := (sine + noise) * env * amp

		clipped := math.Max(-1, math.Min(1, y))
		samples[i] = int16(math.Floor(clipped * 32767))
	}

	s.logger.Debug("synthetic vocalization rendered",
		zap.String("type", string(vocalization)),
		zap.Int("samples", n))
	return EncodeWAVPCM16(samples, SampleRate)
}

// Synthesize wraps Render in the result shape remote vendors return, so the
// synthetic path can stand in for them on the output-audio stage.
func (s *Synthesizer) Synthesize(vocalization entities.VocalizationType, intensity float64) repositories.SynthesisResult {
	return repositories.SynthesisResult{
		Bytes:  s.Render(vocalization, intensity),
		Format: entities.FormatWAV,
		Vendor: "synthetic",
		Model:  "procedural/v1",
	}
}

// EncodeWAVPCM16 wraps mono 16-bit little-endian samples in a 44-byte RIFF
// header.
func EncodeWAVPCM16(samples []int16, sampleRate int) []byte {
	dataLen := len(samples) * 2
	buf := make([]byte, 44+dataLen)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16) // PCM chunk size
	binary.LittleEndian.PutUint16(buf[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(buf[22:24], 1)  // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2)) // byte rate
	binary.LittleEndian.PutUint16(buf[32:34], 2)                    // block align
	binary.LittleEndian.PutUint16(buf[34:36], 16)                   // bits per sample
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))

	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[44+i*2:], uint16(s))
	}
	return buf
}
