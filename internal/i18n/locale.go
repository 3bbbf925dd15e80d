package i18n

import (
	"alcyxob/coaching-plans/internal/domain"
	"strings"
)

// ParseLocale normalises "en", "EN-us", "ru_RU" or an Accept-Language header
// to a supported locale. Anything unrecognised becomes the default locale.
func ParseLocale(raw string) domain.Locale {
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if i := strings.IndexByte(tag, ';'); i >= 0 {
			tag = tag[:i]
		}
		if i := strings.IndexAny(tag, "-_"); i >= 0 {
			tag = tag[:i]
		}
		l := domain.Locale(strings.ToLower(tag))
		if l.Supported() {
			return l
		}
	}
	return domain.DefaultLocale
}
