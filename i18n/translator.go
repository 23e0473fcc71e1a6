package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for diagnostic codes.
// data provides values to embed in the message (for example "field", "min",
// "max" or "got"); placeholders are written as {name}.
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var dictionaries = map[string]map[string]string{
	"en": {
		"required":       "field {field} is required",
		"invalid_type":   "field {field} must be {expected}, got {got}",
		"too_short":      "field {field} must be at least {min} characters",
		"too_long":       "field {field} must be at most {max} characters",
		"too_small":      "field {field} must be >= {min}",
		"too_big":        "field {field} must be <= {max}",
		"pattern":        "field {field} does not match pattern {pattern}",
		"invalid_enum":   "field {field} must be one of {values}",
		"too_few_items":  "field {field} must contain at least {min} items",
		"too_many_items": "field {field} must contain at most {max} items",
		"unknown_key":    "field {field} is not declared by the template",
		"not_annotation": "field {field} is not an annotation field",
		"path_not_found": "field {field} cannot be reached in the document",
	},
	"zh": {
		"required":       "字段 {field} 为必填项",
		"invalid_type":   "字段 {field} 应为 {expected}，实际为 {got}",
		"too_short":      "字段 {field} 长度不能少于 {min} 个字符",
		"too_long":       "字段 {field} 长度不能超过 {max} 个字符",
		"too_small":      "字段 {field} 不能小于 {min}",
		"too_big":        "字段 {field} 不能大于 {max}",
		"pattern":        "字段 {field} 不符合格式 {pattern}",
		"invalid_enum":   "字段 {field} 必须是 {values} 之一",
		"too_few_items":  "字段 {field} 至少需要 {min} 项",
		"too_many_items": "字段 {field} 最多只能有 {max} 项",
		"unknown_key":    "字段 {field} 未在模板中声明",
		"not_annotation": "字段 {field} 不是标注字段",
		"path_not_found": "字段 {field} 在文档中不存在",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := dictionaries[t.lang][code]
	if !ok {
		return code
	}
	return expand(msg, data)
}

func expand(msg string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"zh").
func SetLanguage(lang string) {
	if _, ok := dictionaries[lang]; !ok {
		lang = "en"
	}
	mu.Lock()
	currentTranslator = dictTranslator{lang: lang}
	mu.Unlock()
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
