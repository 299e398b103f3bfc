package i18n

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
)

// ErrUnknownLanguage is returned when a language code is not part of the registry.
var ErrUnknownLanguage = errors.New("unknown language")

// Registry is the ordered list of supported languages and the default one.
type Registry struct {
	Languages       []string
	DefaultLanguage string
}

func NewRegistry(languages []string, defaultLanguage string) (*Registry, error) {
	if len(languages) == 0 {
		return nil, errors.New("at least one language is required")
	}

	seen := make(map[string]bool, len(languages))
	for _, lang := range languages {
		if _, err := language.Parse(lang); err != nil {
			return nil, fmt.Errorf("invalid language code %q: %w", lang, err)
		}
		if seen[lang] {
			return nil, fmt.Errorf("duplicate language %q", lang)
		}
		seen[lang] = true
	}

	if defaultLanguage == "" {
		defaultLanguage = languages[0]
	}
	if !seen[defaultLanguage] {
		return nil, fmt.Errorf("default language %q: %w", defaultLanguage, ErrUnknownLanguage)
	}

	return &Registry{
		Languages:       append([]string(nil), languages...),
		DefaultLanguage: defaultLanguage,
	}, nil
}

// Has reports whether lang is a supported language.
func (r *Registry) Has(lang string) bool {
	for _, l := range r.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// Resolve returns lang when supported and the default language otherwise.
func (r *Registry) Resolve(lang string) string {
	if r.Has(lang) {
		return lang
	}
	return r.DefaultLanguage
}
