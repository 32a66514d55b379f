// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package i18n provides the Arabic/English message catalog used for API
// error messages and language negotiation.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/text/language"
)

//go:embed locales
var localesFS embed.FS

// Language codes.
const (
	LangEnglish = "en"
	LangArabic  = "ar"
)

// SupportedLanguages lists the supported languages. The first entry is the
// default used when negotiation finds no match.
var SupportedLanguages = []string{LangEnglish, LangArabic}

// Message represents a single translatable message.
type Message struct {
	ID          string `json:"id"`
	Message     string `json:"message"`
	Translation string `json:"translation"`
}

// MessageFile represents the structure of a messages JSON file.
type MessageFile struct {
	Language string    `json:"language"`
	Messages []Message `json:"messages"`
}

// Catalog holds all translations for all supported languages.
type Catalog struct {
	translations map[string]map[string]string // lang -> key -> translation
	matcher      language.Matcher
	supported    []language.Tag
	defaultLang  string
}

var (
	catalog     *Catalog
	catalogErr  error
	catalogOnce sync.Once
)

// Init loads the embedded catalog. It is safe to call more than once;
// T and MatchLanguage call it implicitly.
func Init(logger *slog.Logger) error {
	catalogOnce.Do(func() {
		catalog, catalogErr = loadCatalog()
	})
	if catalogErr == nil && logger != nil {
		logger.Debug("i18n initialized", "languages", SupportedLanguages)
	}
	return catalogErr
}

func loadCatalog() (*Catalog, error) {
	c := &Catalog{
		translations: make(map[string]map[string]string, len(SupportedLanguages)),
		defaultLang:  SupportedLanguages[0],
	}

	for _, lang := range SupportedLanguages {
		c.supported = append(c.supported, language.MustParse(lang))
		if err := c.loadLanguage(lang); err != nil {
			return nil, fmt.Errorf("failed to load language %s: %w", lang, err)
		}
	}
	c.matcher = language.NewMatcher(c.supported)
	return c, nil
}

func (c *Catalog) loadLanguage(lang string) error {
	path := fmt.Sprintf("locales/%s/messages.json", lang)
	data, err := localesFS.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var msgFile MessageFile
	if err := json.Unmarshal(data, &msgFile); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	c.translations[lang] = make(map[string]string, len(msgFile.Messages))
	for _, msg := range msgFile.Messages {
		c.translations[lang][msg.ID] = msg.Translation
	}
	return nil
}

func loaded() *Catalog {
	if err := Init(nil); err != nil {
		return nil
	}
	return catalog
}

// T translates a message key to the specified language, falling back to the
// default language and then to the key itself.
func T(lang, key string, args ...any) string {
	c := loaded()
	if c == nil {
		return key
	}

	translation, ok := c.translations[lang][key]
	if !ok {
		translation, ok = c.translations[c.defaultLang][key]
		if !ok {
			return key
		}
	}

	if len(args) > 0 {
		return fmt.Sprintf(translation, args...)
	}
	return translation
}

// MatchLanguage finds the best supported language for an Accept-Language
// header or a bare language code.
func MatchLanguage(acceptLang string) string {
	c := loaded()
	if c == nil {
		return SupportedLanguages[0]
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(tags) == 0 {
		tag, err := language.Parse(acceptLang)
		if err != nil {
			return c.defaultLang
		}
		tags = []language.Tag{tag}
	}

	_, idx, confidence := c.matcher.Match(tags...)
	if confidence == language.No || idx < 0 || idx >= len(c.supported) {
		return c.defaultLang
	}
	return SupportedLanguages[idx]
}
