package tts

import (
	"regexp"
	"strings"
)

// Chinese punctuation confuses the neural voices, which were trained on
// western sentence breaks. Collapse it to period-like pauses before
// synthesis.
var zhPunctReplacer = strings.NewReplacer(
	"，", ". ",
	"。", ". ",
	"！", "! ",
	"？", "? ",
	"——", ". ",
	"“", `"`,
	"”", `"`,
	"‘", "'",
	"’", "'",
	"~", ". ",
	"～", ". ",
	"：", ". ",
	"……", ". ",
	"...", ". ",
	"、", ". ",
)

var decimalPoint = regexp.MustCompile(`(\d)\.(\d)`)

// FixChinesePunctuation rewrites full-width punctuation to ASCII breaks
// and reads decimal points as 点 so "3.14" is spoken naturally.
func FixChinesePunctuation(text string) string {
	text = zhPunctReplacer.Replace(text)
	return decimalPoint.ReplaceAllString(text, "${1}点${2}")
}

// isChineseModel reports whether a voice model identifier targets
// Mandarin (e.g. "zh_CN-huayan-medium").
func isChineseModel(model string) bool {
	return strings.HasPrefix(model, "zh_CN") || strings.HasPrefix(model, "zh-")
}
