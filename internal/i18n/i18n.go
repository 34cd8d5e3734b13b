// Package i18n is the message catalog used for user-facing text such as
// tag-set change comments. Messages are keyed by (message id, plural count,
// locale) and loaded from the YAML files embedded under locales/.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/localwiki/wikitags/internal/tagset"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Catalog holds every loaded translation.
type Catalog struct {
	bundle   *goi18n.Bundle
	fallback language.Tag
	shipped  []language.Tag
}

// Load parses the embedded locale files. defaultLocale is used whenever a
// request names no supported language; it must be one of the shipped locales.
func Load(defaultLocale string) (*Catalog, error) {
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("i18n.Load: default locale %q: %w", defaultLocale, err)
	}

	bundle := goi18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	files, err := fs.Glob(localeFS, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("i18n.Load: %w", err)
	}
	shipped := make([]language.Tag, 0, len(files))
	for _, f := range files {
		buf, err := localeFS.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("i18n.Load: read %s: %w", f, err)
		}
		mf, err := bundle.ParseMessageFileBytes(buf, path.Base(f))
		if err != nil {
			return nil, fmt.Errorf("i18n.Load: parse %s: %w", f, err)
		}
		shipped = append(shipped, mf.Tag)
	}

	// The bundle always lists its default language, so check the parsed files.
	if !slices.Contains(shipped, tag) {
		return nil, fmt.Errorf("i18n.Load: no messages for default locale %q", defaultLocale)
	}
	return &Catalog{bundle: bundle, fallback: tag, shipped: shipped}, nil
}

// Languages returns the locales that have a message file.
func (c *Catalog) Languages() []language.Tag {
	return slices.Clone(c.shipped)
}

// For returns a Localizer for the first supported locale in prefs. Each pref
// may be a language tag or a raw Accept-Language header value.
func (c *Catalog) For(prefs ...string) *Localizer {
	return &Localizer{l: goi18n.NewLocalizer(c.bundle, append(prefs, c.fallback.String())...)}
}

// Messages returns the tag-set message source for a locale preference.
func (c *Catalog) Messages(locale string) tagset.Messages {
	return c.For(locale)
}

// Localizer renders messages for one resolved locale.
type Localizer struct {
	l *goi18n.Localizer
}

// Localize renders message id. count picks the plural form; data fills the
// template. An unknown id renders as the id itself.
func (l *Localizer) Localize(id string, count int, data map[string]any) string {
	msg, err := l.l.Localize(&goi18n.LocalizeConfig{
		MessageID:    id,
		PluralCount:  count,
		TemplateData: data,
	})
	if err != nil {
		return id
	}
	return msg
}
