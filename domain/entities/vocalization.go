package entities

import "strings"

// VocalizationType classifies a dog vocalization.
type VocalizationType string

const (
	VocalizationBark  VocalizationType = "BARK"
	VocalizationHowl  VocalizationType = "HOWL"
	VocalizationWhine VocalizationType = "WHINE"
	VocalizationGrowl VocalizationType = "GROWL"
	VocalizationOther VocalizationType = "OTHER"
)

// NormalizeVocalizationType maps a free-form string from a model response to
// one of the known types. Anything unrecognized becomes OTHER.
func NormalizeVocalizationType(s string) VocalizationType {
	switch VocalizationType(strings.ToUpper(strings.TrimSpace(s))) {
	case VocalizationBark:
		return VocalizationBark
	case VocalizationHowl:
		return VocalizationHowl
	case VocalizationWhine:
		return VocalizationWhine
	case VocalizationGrowl:
		return VocalizationGrowl
	default:
		return VocalizationOther
	}
}

// TranslationPlan is the structured output of the planning stage on the
// human-to-dog path.
type TranslationPlan struct {
	VocalizationType VocalizationType `json:"vocalizationType"`
	Intensity        float64          `json:"intensity"`
	OutputText       string           `json:"outputText"`
	Transcript       string           `json:"transcript"`
}

// ClampIntensity keeps the plan's intensity inside [0,1].
func (p *TranslationPlan) ClampIntensity() {
	if p.Intensity < 0 {
		p.Intensity = 0
	}
	if p.Intensity > 1 {
		p.Intensity = 1
	}
}
