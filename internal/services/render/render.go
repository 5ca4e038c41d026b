// Package render turns engine outcomes into user-facing text using per-locale message catalogs.
package render

import (
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/mcoot/killergame/internal/model"
)

// DefaultLocale is used when no locale is configured, and for keys a catalog lacks
const DefaultLocale = "en"

var (
	// ErrUnknownLocale is returned by New for a locale without a catalog
	ErrUnknownLocale = errors.New("unknown locale")

	// ErrUnknownKey is returned when no catalog defines the message key
	ErrUnknownKey = errors.New("unknown message key")
)

//go:embed catalogs/*.yaml
var catalogFS embed.FS

// catalog is the on-disk shape of a locale file
type catalog struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Renderer renders message keys for one locale
type Renderer struct {
	locale    string
	templates map[model.MessageKey]*template.Template
}

// Locales returns the locales with an embedded catalog
func Locales() []string {
	entries, err := catalogFS.ReadDir("catalogs")
	if err != nil {
		return nil
	}
	var locales []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".yaml"); ok {
			locales = append(locales, name)
		}
	}
	sort.Strings(locales)
	return locales
}

// New creates a Renderer for the locale. Keys missing from the locale fall back to DefaultLocale.
func New(locale string) (*Renderer, error) {
	if locale == "" {
		locale = DefaultLocale
	}

	templates, err := loadCatalog(DefaultLocale)
	if err != nil {
		return nil, err
	}
	if locale != DefaultLocale {
		overrides, err := loadCatalog(locale)
		if err != nil {
			return nil, err
		}
		for key, tmpl := range overrides {
			templates[key] = tmpl
		}
	}

	return &Renderer{locale: locale, templates: templates}, nil
}

func loadCatalog(locale string) (map[model.MessageKey]*template.Template, error) {
	data, err := catalogFS.ReadFile("catalogs/" + locale + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLocale, locale)
	}

	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse %s catalog: %w", locale, err)
	}

	templates := make(map[model.MessageKey]*template.Template, len(c.Messages))
	for key, text := range c.Messages {
		tmpl, err := template.New(key).Option("missingkey=zero").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse %s message %q: %w", locale, key, err)
		}
		templates[model.MessageKey(key)] = tmpl
	}
	return templates, nil
}

// Locale returns the renderer's locale
func (r *Renderer) Locale() string {
	return r.locale
}

// Render renders the message for key with the given parameters.
// Missing parameters render as empty strings.
func (r *Renderer) Render(key model.MessageKey, params map[string]string) (string, error) {
	tmpl, ok := r.templates[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if params == nil {
		params = map[string]string{}
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, params); err != nil {
		return "", fmt.Errorf("render %s: %w", key, err)
	}
	return sb.String(), nil
}

// RenderOutcome renders the text of an outcome
func (r *Renderer) RenderOutcome(o model.Outcome) (string, error) {
	return r.Render(o.Key, o.Params)
}
