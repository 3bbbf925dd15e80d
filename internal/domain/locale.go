package domain

import "strings"

// Locale is a supported display language.
type Locale string

const (
	LocaleSR Locale = "sr"
	LocaleEN Locale = "en"
	LocaleRU Locale = "ru"

	// DefaultLocale is what every published LocalizedText must carry.
	DefaultLocale = LocaleSR
)

// SupportedLocales in fallback-table order.
var SupportedLocales = []Locale{LocaleSR, LocaleEN, LocaleRU}

func (l Locale) Supported() bool {
	for _, s := range SupportedLocales {
		if l == s {
			return true
		}
	}
	return false
}

// LocalizedText stores one label per supported locale. Legacy holds text
// written before per-locale fields existed and is the last fallback.
type LocalizedText struct {
	SR     string `bson:"sr,omitempty" json:"sr,omitempty"`
	EN     string `bson:"en,omitempty" json:"en,omitempty"`
	RU     string `bson:"ru,omitempty" json:"ru,omitempty"`
	Legacy string `bson:"legacy,omitempty" json:"legacy,omitempty"`
}

// Get returns the raw value stored for a locale, without any fallback.
func (t LocalizedText) Get(l Locale) string {
	switch l {
	case LocaleSR:
		return t.SR
	case LocaleEN:
		return t.EN
	case LocaleRU:
		return t.RU
	}
	return ""
}

// Published reports whether the default-locale value is present.
func (t LocalizedText) Published() bool {
	return strings.TrimSpace(t.Get(DefaultLocale)) != ""
}

// IsZero reports whether no value at all is stored.
func (t LocalizedText) IsZero() bool {
	return t.SR == "" && t.EN == "" && t.RU == "" && t.Legacy == ""
}
