// Package i18n renders user-facing strings through golang.org/x/text.
// Message keys are the English format strings; each embedded locale file
// maps them to a translation.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the locale the message keys are written in.
const BaseLocale = "en-US"

//go:embed locales/*.yaml
var embeddedLocales embed.FS

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Bundle is a set of locale catalogs registered with an x/text catalog.
type Bundle struct {
	builder *catalog.Builder
	tags    []language.Tag
	matcher language.Matcher
}

var (
	defaultOnce   sync.Once
	defaultBundle *Bundle
)

// Default returns the bundle built from the embedded locale files.
func Default() *Bundle {
	defaultOnce.Do(func() {
		b, err := LoadFromFS(embeddedLocales)
		if err != nil {
			panic(fmt.Sprintf("i18n: embedded catalogs: %v", err))
		}
		defaultBundle = b
	})
	return defaultBundle
}

// LoadFromFS reads every locales/*.yaml file in fsys.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	sort.Strings(paths)

	base := language.MustParse(BaseLocale)
	b := &Bundle{
		builder: catalog.NewBuilder(catalog.Fallback(base)),
		tags:    []language.Tag{base},
	}

	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		if err := b.add(p, file); err != nil {
			return nil, err
		}
	}

	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

func (b *Bundle) add(p string, file catalogFile) error {
	locale := strings.TrimSpace(file.Locale)
	if locale == "" {
		return fmt.Errorf("catalog %s: locale is required", p)
	}
	if want := strings.TrimSuffix(path.Base(p), path.Ext(p)); locale != want {
		return fmt.Errorf("catalog %s: locale %q must match file name %q", p, locale, want)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("catalog %s: %w", p, err)
	}

	keys := make([]string, 0, len(file.Messages))
	for k := range file.Messages {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("catalog %s: blank message key", p)
		}
		if err := b.builder.SetString(tag, k, file.Messages[k]); err != nil {
			return fmt.Errorf("catalog %s: key %q: %w", p, k, err)
		}
	}

	if tag != b.tags[0] {
		b.tags = append(b.tags, tag)
	}
	return nil
}

// Locales lists the locales the bundle can render, base locale first.
func (b *Bundle) Locales() []string {
	out := make([]string, len(b.tags))
	for i, t := range b.tags {
		out[i] = t.String()
	}
	return out
}

// Printer renders messages for one locale.
type Printer struct {
	locale string
	p      *message.Printer
}

// Printer returns a printer for the closest supported match to locale.
// Unknown or malformed locales fall back to BaseLocale.
func (b *Bundle) Printer(locale string) *Printer {
	tag := b.tags[0]
	if want, err := language.Parse(strings.TrimSpace(locale)); err == nil {
		_, idx, conf := b.matcher.Match(want)
		if conf != language.No {
			tag = b.tags[idx]
		}
	}
	return &Printer{
		locale: tag.String(),
		p:      message.NewPrinter(tag, message.Catalog(b.builder)),
	}
}

// NewPrinter returns a printer from the default bundle.
func NewPrinter(locale string) *Printer {
	return Default().Printer(locale)
}

// Locale is the locale the printer resolved to.
func (p *Printer) Locale() string {
	return p.locale
}

// Sprintf formats the message registered under key.
func (p *Printer) Sprintf(key string, args ...any) string {
	return p.p.Sprintf(key, args...)
}
