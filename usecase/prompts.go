package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/be-capable/realdog-server/domain/entities"
)

// localeIsZh treats anything outside the zh family as English. An absent
// locale resolves to English here even though ASR and voice selection default
// to Chinese without one.
func localeIsZh(locale string) bool {
	return strings.HasPrefix(locale, "zh")
}

// nonSpeechSentinel stands in for an empty transcript on the interpret path
// so the planning stage still has something to reason about.
func nonSpeechSentinel(locale string) string {
	if localeIsZh(locale) {
		return "（无人声，纯狗叫声，请根据上下文推断）"
	}
	return "(no speech detected, pure dog vocalization, infer from context)"
}

// defaultGreeting replaces an empty transcript on the synthesize path.
func defaultGreeting(locale string) string {
	if localeIsZh(locale) {
		return "你好"
	}
	return "Hello"
}

// fallbackMeaningText is the interpretation served when every model stage
// failed. Callers pair it with OTHER and a 0.2 confidence.
func fallbackMeaningText(locale string) string {
	if localeIsZh(locale) {
		return "我在叫，但我也不太确定我想表达什么。可能是想引起你的注意。"
	}
	return "I'm making noise, but I'm not sure what I mean. Maybe I'm trying to get your attention."
}

// defaultPlan is the vocalization plan used when transcription or planning
// failed outright.
func defaultPlan(transcript string) entities.TranslationPlan {
	return entities.TranslationPlan{
		VocalizationType: entities.VocalizationOther,
		Intensity:        0.6,
		OutputText:       "Woof!",
		Transcript:       transcript,
	}
}

func interpretPrompt(locale, transcript, petName, breedID, contextNote string) string {
	var lines []string
	if localeIsZh(locale) {
		lines = []string{
			"你是一位专业的犬类行为专家和“狗语翻译官”。",
			"任务：根据这段狗叫的转写与上下文，推测这只狗想要表达的具体含义。",
			"输出：必须是纯 JSON，不能包含 markdown 或多余解释。",
			"JSON 字段说明：",
			"- meaningText: (字符串) 用第一人称（如“我好开心”、“别过来”）翻译出的狗的心声，要生动、符合场景。",
			"- dogEventType: (枚举) 吠叫类型，选其一：BARK(普通叫), HOWL(嚎叫), WHINE(呜咽), GROWL(低吼), OTHER(其他)。",
			"- stateType: (字符串或 null) 狗的状态标签。",
			"- contextType: (字符串或 null) 场景标签。",
			"- confidence: (数字) 0到1之间的置信度。",
		}
		if petName != "" || breedID != "" {
			lines = append(lines, fmt.Sprintf("宠物信息：name=%s, breedId=%s", petName, breedID))
		}
		if contextNote != "" {
			lines = append(lines, "用户场景补充："+contextNote)
		}
		lines = append(lines, "狗叫转写："+transcript)
	} else {
		lines = []string{
			`You are a professional canine behaviorist and "Dog Translator".`,
			"Task: From this transcription of a dog vocalization and the context, deduce the dog's specific intent.",
			"Output: MUST be pure JSON with no markdown or extra explanation.",
			"JSON Fields:",
			`- meaningText: (string) The translation of the dog's inner thoughts in first person (e.g., "I'm so happy", "Stay away"), lively and context-aware.`,
			"- dogEventType: (enum) One of: BARK, HOWL, WHINE, GROWL, OTHER.",
			"- stateType: (string or null) A state label for the dog.",
			"- contextType: (string or null) A scene label.",
			"- confidence: (number) 0 to 1.",
		}
		if petName != "" || breedID != "" {
			lines = append(lines, fmt.Sprintf("Pet context: name=%s, breedId=%s", petName, breedID))
		}
		if contextNote != "" {
			lines = append(lines, "User context: "+contextNote)
		}
		lines = append(lines, "Vocalization transcript: "+transcript)
	}
	return strings.Join(lines, "\n")
}

func planSystemPrompt(locale string) string {
	if localeIsZh(locale) {
		return strings.Join([]string{
			"你是 RealDog 的“人话→狗叫规划器”。",
			"输入是用户说的话 transcript（已经是文本），你需要生成狗能理解的“发声计划”。",
			"只输出 JSON，不要 markdown。",
			`JSON schema: {"transcript": string, "barkType":"BARK"|"HOWL"|"WHINE"|"GROWL"|"OTHER","intensity":number,"dogText":string}`,
			"intensity 取 0~1，小数。",
			"dogText 用于生成“狗叫音频”的提示词，应该像狗叫（短、拟声、带情绪）。",
		}, "\n")
	}
	return strings.Join([]string{
		"You are RealDog human-to-dog vocalization planner.",
		"Input is a transcript (text). You must generate a dog vocalization plan.",
		"Output JSON only, no markdown.",
		`JSON schema: {"transcript": string, "barkType":"BARK"|"HOWL"|"WHINE"|"GROWL"|"OTHER","intensity":number,"dogText":string}`,
		"intensity is 0~1 float. dogText should be short onomatopoeia with emotion.",
	}, "\n")
}

func planUserPrompt(locale, style, transcript string) string {
	if style == "" {
		style = "default"
	}
	if localeIsZh(locale) {
		return fmt.Sprintf("风格：%s\ntranscript：%s", style, transcript)
	}
	return fmt.Sprintf("Style: %s\ntranscript: %s", style, transcript)
}

// extractJSON pulls the first '{' through the last '}' span out of a model
// reply and unmarshals it into v. Models wrap JSON in prose or code fences
// often enough that strict parsing is not an option.
func extractJSON(content string, v interface{}) error {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("no JSON object in model reply")
	}
	return json.Unmarshal([]byte(trimmed[start:end+1]), v)
}
