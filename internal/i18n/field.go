// Package i18n resolves per-locale entity fields with a fixed fallback order.
package i18n

import (
	"alcyxob/coaching-plans/internal/domain"
	"strings"

	"github.com/spf13/cast"
)

// FieldSource exposes an entity's flat fields, e.g. "name_en" or the legacy "name".
type FieldSource interface {
	LocalizedField(key string) (string, bool)
}

// ResolveField returns entity[base_locale], falling back to entity[base_<default>],
// then to the bare legacy entity[base], then to "". Blank values count as missing.
func ResolveField(entity FieldSource, base string, locale domain.Locale) string {
	if entity == nil {
		return ""
	}
	keys := [...]string{
		base + "_" + string(locale),
		base + "_" + string(domain.DefaultLocale),
		base,
	}
	for _, k := range keys {
		if v, ok := entity.LocalizedField(k); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Fields is a flat string record.
type Fields map[string]string

func (f Fields) LocalizedField(key string) (string, bool) {
	v, ok := f[key]
	return v, ok
}

// Document is a raw store record (e.g. a decoded bson.M). Non-string
// scalar values are coerced; values that cannot be coerced are treated as missing.
type Document map[string]any

func (d Document) LocalizedField(key string) (string, bool) {
	raw, ok := d[key]
	if !ok || raw == nil {
		return "", false
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		return "", false
	}
	return s, true
}

// Text exposes a domain.LocalizedText under a base field name, so that
// Text{Base: "name", Value: ex.Name} answers "name_en", "name_sr", "name".
type Text struct {
	Base  string
	Value domain.LocalizedText
}

func (t Text) LocalizedField(key string) (string, bool) {
	if key == t.Base {
		return t.Value.Legacy, t.Value.Legacy != ""
	}
	suffix, ok := strings.CutPrefix(key, t.Base+"_")
	if !ok {
		return "", false
	}
	v := t.Value.Get(domain.Locale(suffix))
	return v, v != ""
}

// Resolve is the shorthand for resolving a LocalizedText value directly.
func Resolve(text domain.LocalizedText, locale domain.Locale) string {
	return ResolveField(Text{Base: "value", Value: text}, "value", locale)
}
