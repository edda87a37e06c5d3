// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
	"sort"
)

// =============================================================================
// CAPABILITY VARIANT
// =============================================================================

// Capability is the tagged variant every catalog entry carries. It is fixed
// when the catalog is built so callers branch on it instead of testing
// names against lists.
type Capability int

const (
	// TextModel streams a text reply.
	TextModel Capability = iota
	// ImageModel returns a single generated image.
	ImageModel
)

// String returns the persisted name of the capability.
func (c Capability) String() string {
	switch c {
	case TextModel:
		return "text"
	case ImageModel:
		return "image"
	default:
		return fmt.Sprintf("capability(%d)", int(c))
	}
}

// =============================================================================
// MODEL INFO
// =============================================================================

// ModelInfo is one entry in the model catalog.
type ModelInfo struct {
	// Name is the identifier sent to the backend.
	Name string `json:"name"`

	// DisplayName is the human-readable label.
	DisplayName string `json:"text"`

	// Provider is the upstream vendor (google, openai, mistral).
	Provider string `json:"provider"`

	Capability Capability `json:"-"`

	// Special marks premium models shown with a badge.
	Special bool `json:"isSpecial,omitempty"`
}

// IsImage reports whether the model generates images.
func (m ModelInfo) IsImage() bool {
	return m.Capability == ImageModel
}

// ErrUnknownModel is returned by Lookup for names outside the catalog.
var ErrUnknownModel = errors.New("unknown model")

// =============================================================================
// CATALOG
// =============================================================================

var catalog = []ModelInfo{
	{Name: "gemini-2.5-pro", DisplayName: "Gemini 2.5 Pro", Provider: "google", Capability: TextModel, Special: true},
	{Name: "gemini-2.5-flash-lite", DisplayName: "Gemini 2.5 Flash Lite", Provider: "google", Capability: TextModel},
	{Name: "gemini-2.5-flash", DisplayName: "Gemini 2.5 Flash", Provider: "google", Capability: TextModel},
	{Name: "gemini-2.0-flash", DisplayName: "Gemini 2.0 Flash", Provider: "google", Capability: TextModel},
	{Name: "gpt-4.1-mini", DisplayName: "GPT-4.1 mini", Provider: "openai", Capability: TextModel},
	{Name: "gpt-4o", DisplayName: "GPT-4o", Provider: "openai", Capability: TextModel},
	{Name: "gpt-4o-mini", DisplayName: "GPT-4o mini", Provider: "openai", Capability: TextModel},
	{Name: "mistral-large-latest", DisplayName: "Mistral Large", Provider: "mistral", Capability: TextModel},
	{Name: "mistral-medium-latest", DisplayName: "Mistral Medium", Provider: "mistral", Capability: TextModel},
	{Name: "mistral-small-latest", DisplayName: "Mistral Small", Provider: "mistral", Capability: TextModel},
	{Name: "dall-e-3", DisplayName: "DALL-E 3", Provider: "openai", Capability: ImageModel},
}

var catalogIndex = func() map[string]ModelInfo {
	idx := make(map[string]ModelInfo, len(catalog))
	for _, m := range catalog {
		idx[m.Name] = m
	}
	return idx
}()

// Lookup returns the catalog entry for name.
func Lookup(name string) (ModelInfo, error) {
	m, ok := catalogIndex[name]
	if !ok {
		return ModelInfo{}, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	return m, nil
}

// Models returns the catalog in display order.
func Models() []ModelInfo {
	out := make([]ModelInfo, len(catalog))
	copy(out, catalog)
	return out
}

// ModelsByCapability returns the catalog entries with capability c.
func ModelsByCapability(c Capability) []ModelInfo {
	var out []ModelInfo
	for _, m := range catalog {
		if m.Capability == c {
			out = append(out, m)
		}
	}
	return out
}

// ModelNames returns every model name, sorted.
func ModelNames() []string {
	names := make([]string, 0, len(catalog))
	for _, m := range catalog {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}

// =============================================================================
// IMAGE OPTIONS
// =============================================================================

// Image generation options accepted by the backend.
var (
	ImageSizes     = []string{"1024x1024", "1024x1792", "1792x1024"}
	ImageQualities = []string{"standard", "hd"}
	ImageStyles    = []string{"vivid", "natural"}
)

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
