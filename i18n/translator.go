package i18n

import (
	"strings"
	"sync/atomic"
)

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected", "got" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	var msg string
	switch t.lang {
	case "ja":
		switch code {
		case "type_mismatch":
			msg = "型が一致しません"
		case "missing_field":
			msg = "必須フィールドがありません"
		case "version_mismatch":
			msg = "バージョンが一致しません"
		case "malformed_input":
			msg = "入力を解析できません"
		case "sink_fault":
			msg = "出力先への書き込みに失敗しました"
		case "unsupported":
			msg = "サポートされていません"
		case "duplicate_key":
			msg = "キーが重複しています"
		}
	default: // "en"
		switch code {
		case "type_mismatch":
			msg = "type mismatch"
		case "missing_field":
			msg = "required field missing"
		case "version_mismatch":
			msg = "version mismatch"
		case "malformed_input":
			msg = "malformed input"
		case "sink_fault":
			msg = "output sink failed"
		case "unsupported":
			msg = "unsupported"
		case "duplicate_key":
			msg = "duplicate key"
		}
	}
	if msg == "" {
		msg = code
	}
	return withDetails(msg, data)
}

// withDetails appends expected/got/key details in a stable order.
func withDetails(msg string, data map[string]string) string {
	if len(data) == 0 {
		return msg
	}
	var parts []string
	for _, k := range []string{"key", "expected", "got"} {
		if v, ok := data[k]; ok && v != "" {
			parts = append(parts, k+" "+v)
		}
	}
	if len(parts) == 0 {
		return msg
	}
	return msg + " (" + strings.Join(parts, ", ") + ")"
}

// current holds the active Translator. It is meant to be chosen once at
// startup; swaps are atomic so concurrent T calls never race with them.
var current atomic.Pointer[holder]

type holder struct{ tr Translator }

func init() { current.Store(&holder{tr: dictTranslator{lang: "en"}}) }

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	current.Store(&holder{tr: dictTranslator{lang: lang}})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). A nil tr restores the English dictionary.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	current.Store(&holder{tr: tr})
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return current.Load().tr.Message(code, data) }
