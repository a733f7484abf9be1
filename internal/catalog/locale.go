package catalog

import "strings"

// Locales maps a locale to the course API base URL serving it. Callers only
// ever pick from configured URLs, never from request input.
type Locales struct {
	urls          map[string]string
	defaultLocale string
}

// NewLocales builds a resolver. defaultLocale must be a key of urls.
func NewLocales(urls map[string]string, defaultLocale string) *Locales {
	cp := make(map[string]string, len(urls))
	for k, v := range urls {
		cp[strings.ToLower(k)] = v
	}
	return &Locales{urls: cp, defaultLocale: strings.ToLower(defaultLocale)}
}

// BaseURL returns the base URL for locale, falling back to the default
// locale for empty or unknown values. Region suffixes ("en-US") match their
// language ("en").
func (l *Locales) BaseURL(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if u, ok := l.urls[locale]; ok {
		return u
	}
	if lang, _, found := strings.Cut(locale, "-"); found {
		if u, ok := l.urls[lang]; ok {
			return u
		}
	}
	return l.urls[l.defaultLocale]
}
