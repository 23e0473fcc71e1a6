package i18n

import "testing"

func TestTranslator_DefaultAndChinese(t *testing.T) {
	// default is en
	if msg := T("required", map[string]string{"field": "title"}); msg != "field title is required" {
		t.Fatalf("unexpected english message %q", msg)
	}

	SetLanguage("zh")
	if msg := T("required", map[string]string{"field": "title"}); msg != "字段 title 为必填项" {
		t.Fatalf("expected chinese message, got %q", msg)
	}

	// unknown languages fall back to en
	SetLanguage("xx")
	if msg := T("too_big", map[string]string{"field": "基准刑_月", "max": "11"}); msg != "field 基准刑_月 must be <= 11" {
		t.Fatalf("unexpected fallback message %q", msg)
	}
	SetLanguage("en")
}

func TestTranslator_UnknownCodeEchoesCode(t *testing.T) {
	if msg := T("no_such_code", nil); msg != "no_such_code" {
		t.Fatalf("expected code echo, got %q", msg)
	}
}

type upper struct{}

func (upper) Message(code string, _ map[string]string) string { return "X:" + code }

func TestSetTranslator(t *testing.T) {
	SetTranslator(upper{})
	if msg := T("required", nil); msg != "X:required" {
		t.Fatalf("custom translator not used: %q", msg)
	}
	SetTranslator(nil)
	if msg := T("required", map[string]string{"field": "a"}); msg != "field a is required" {
		t.Fatalf("nil translator should restore default, got %q", msg)
	}
}
