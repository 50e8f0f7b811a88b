package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type Language struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

var languages = []Language{
	{Code: "ko", Label: "한국어"},
	{Code: "en", Label: "English"},
	{Code: "ja", Label: "日本語"},
	{Code: "es", Label: "Español"},
	{Code: "pt", Label: "Português"},
}

// Languages returns the demo languages in menu order.
func Languages() []Language {
	return append([]Language(nil), languages...)
}

func SupportedLanguage(code string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, l := range languages {
		if l.Code == code {
			return true
		}
	}
	return false
}

// LanguageLabel names code in its own language. Codes outside the menu fall
// back to CLDR data; unparseable codes are returned unchanged.
func LanguageLabel(code string) string {
	code = strings.TrimSpace(code)
	for _, l := range languages {
		if strings.EqualFold(l.Code, code) {
			return l.Label
		}
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	name := display.Self.Name(tag)
	if name == "" {
		return code
	}
	return cases.Title(tag).String(name)
}
