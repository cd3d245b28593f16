// Package i18n holds the console's message catalogues.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var embedded embed.FS

type catalogue map[string]string

// Bundle is a set of flat key → message catalogues, one per language.
type Bundle struct {
	catalogues map[string]catalogue
	fallback   string
	// languages lists the supported languages with the fallback first; matcher indexes follow it.
	languages []string
	matcher   language.Matcher
}

// Default loads the embedded catalogues with Japanese as fallback.
func Default() (*Bundle, error) {
	return Load(embedded, "locales", "ja", []string{"ja", "en"})
}

// Load reads <dir>/<lang>.yaml for every supported language. Only the fallback catalogue is
// mandatory; a missing catalogue for another language falls back key by key.
func Load(fsys fs.FS, dir string, fallback string, supported []string) (*Bundle, error) {
	languages := []string{fallback}
	for _, l := range supported {
		if l != fallback {
			languages = append(languages, l)
		}
	}

	b := &Bundle{
		catalogues: make(map[string]catalogue, len(languages)),
		fallback:   fallback,
		languages:  languages,
	}
	tags := make([]language.Tag, 0, len(languages))
	for _, l := range languages {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("i18n: language %q: %w", l, err)
		}
		tags = append(tags, tag)

		raw, err := fs.ReadFile(fsys, path.Join(dir, l+".yaml"))
		if err != nil {
			if l == fallback {
				return nil, fmt.Errorf("i18n: load fallback locale %s: %w", l, err)
			}
			continue
		}
		var c catalogue
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("i18n: decode %s: %w", l, err)
		}
		b.catalogues[l] = c
	}
	b.matcher = language.NewMatcher(tags)
	return b, nil
}

// Supported lists the configured languages, sorted.
func (b *Bundle) Supported() []string {
	out := append([]string(nil), b.languages...)
	sort.Strings(out)
	return out
}

// Fallback returns the configured fallback language.
func (b *Bundle) Fallback() string { return b.fallback }

// T returns the message for key in lang, then in the fallback language, then key itself.
func (b *Bundle) T(lang, key string) string {
	if v, ok := b.catalogues[lang][key]; ok {
		return v
	}
	if v, ok := b.catalogues[b.fallback][key]; ok {
		return v
	}
	return key
}

// Tf formats the message for key with args.
func (b *Bundle) Tf(lang, key string, args ...any) string {
	return fmt.Sprintf(b.T(lang, key), args...)
}

// Resolve picks the best supported language for an Accept-Language header. Entries with
// q=0 are ignored; no usable match yields the fallback.
func (b *Bundle) Resolve(acceptLang string) string {
	prefs, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(prefs) == 0 {
		return b.fallback
	}
	_, index, confidence := b.matcher.Match(prefs...)
	if confidence == language.No {
		return b.fallback
	}
	return b.languages[index]
}
