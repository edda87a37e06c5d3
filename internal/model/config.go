// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Config holds long-lived user preferences, persisted under the "config"
// collection independently of any thread.
type Config struct {
	Language  string `json:"language"`
	ImageSize string `json:"imageSize"`
	Quality   string `json:"quality"`
	Style     string `json:"style"`
}

// DefaultConfig returns the preferences used before the user changes any.
func DefaultConfig() Config {
	return Config{
		Language:  "en-IN",
		ImageSize: "1024x1024",
		Quality:   "standard",
		Style:     "vivid",
	}
}

// Language is a selectable spoken language.
type Language struct {
	Code        string
	DisplayName string
}

// Languages lists the supported spoken languages.
var Languages = []Language{
	{"en-IN", "English (Indian)"},
	{"en-US", "English (United States)"},
	{"en-UK", "English (United Kingdom)"},
	{"hi-IN", "Hindi"},
	{"ur-IN", "Urdu"},
	{"ar-EG", "Arabic"},
	{"tr-TR", "Turkish"},
}

// ErrInvalidPreference is wrapped by every preference validation failure.
var ErrInvalidPreference = errors.New("invalid preference")

// ParseLanguage parses code as a BCP 47 tag. Well-formed tags with a
// subtag the registry does not know (such as the "UK" region) are accepted.
func ParseLanguage(code string) (language.Tag, error) {
	tag, err := language.Parse(code)
	if err != nil {
		var verr language.ValueError
		if errors.As(err, &verr) {
			return tag, nil
		}
		return language.Und, fmt.Errorf("%w: language %q: %v", ErrInvalidPreference, code, err)
	}
	return tag, nil
}

// ValidateLanguage checks that code is a well-formed tag and one of the
// supported languages.
func ValidateLanguage(code string) error {
	if _, err := ParseLanguage(code); err != nil {
		return err
	}
	for _, l := range Languages {
		if strings.EqualFold(l.Code, code) {
			return nil
		}
	}
	return fmt.Errorf("%w: unsupported language %q", ErrInvalidPreference, code)
}

// BaseLanguage returns the ISO 639 base of code ("hi" for "hi-IN"), or
// "en" when code cannot be parsed.
func BaseLanguage(code string) string {
	tag, err := ParseLanguage(code)
	if err != nil {
		return "en"
	}
	base, _ := tag.Base()
	return base.String()
}

// Validate checks every field of the preferences.
func (c Config) Validate() error {
	if err := ValidateLanguage(c.Language); err != nil {
		return err
	}
	if !contains(ImageSizes, c.ImageSize) {
		return fmt.Errorf("%w: image size %q (want one of %s)", ErrInvalidPreference, c.ImageSize, strings.Join(ImageSizes, ", "))
	}
	if !contains(ImageQualities, c.Quality) {
		return fmt.Errorf("%w: quality %q (want one of %s)", ErrInvalidPreference, c.Quality, strings.Join(ImageQualities, ", "))
	}
	if !contains(ImageStyles, c.Style) {
		return fmt.Errorf("%w: style %q (want one of %s)", ErrInvalidPreference, c.Style, strings.Join(ImageStyles, ", "))
	}
	return nil
}

// Set updates the preference named key. Keys match the JSON field names.
func (c *Config) Set(key, value string) error {
	next := *c
	switch key {
	case "language":
		next.Language = value
	case "imageSize", "image_size":
		next.ImageSize = value
	case "quality":
		next.Quality = value
	case "style":
		next.Style = value
	default:
		return fmt.Errorf("%w: unknown key %q", ErrInvalidPreference, key)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Get returns the preference named key.
func (c Config) Get(key string) (string, error) {
	switch key {
	case "language":
		return c.Language, nil
	case "imageSize", "image_size":
		return c.ImageSize, nil
	case "quality":
		return c.Quality, nil
	case "style":
		return c.Style, nil
	default:
		return "", fmt.Errorf("%w: unknown key %q", ErrInvalidPreference, key)
	}
}
