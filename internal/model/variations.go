// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
)

// Variation is a persona preset. The backend owns the system prompt; the
// client sends only Code and uses the generation defaults for ModelConfig.
type Variation struct {
	Code        string
	DisplayName string
	Description string
	Category    string
	Temperature float64
	MaxTokens   int
}

// ErrUnknownVariation is returned by LookupVariation for unknown codes.
var ErrUnknownVariation = errors.New("unknown variation")

const defaultTemperature = 0.6

var variations = []Variation{
	{"normal", "Normal", "A normal and helpful assistant.", "general", 0.6, 3000},
	{"developer", "Developer", "Assists with coding, debugging, and software development best practices.", "general", 0.5, 3000},
	{"snarky", "Snarky Bot", "Snarky is sarcastic, funny and informative bot.", "funny", 0.8, 3000},
	{"grammar-corrector", "Grammar Corrector", "Corrects grammar, improves sentence structure, and enhances vocabulary.", "general", 0.3, 3000},
	{"doctor", "Doctor", "Provides medical advice, conventional treatments, and alternative remedies.", "general", 0.4, 3000},
	{"teacher", "Teacher", "Explains concepts in an easy-to-understand manner.", "general", 0.5, 3000},
	{"historian", "Historian", "Analyzes and explains historical events and their impact.", "general", 0.6, 3000},
	{"chef", "Chef", "Suggests healthy and easy-to-make recipes.", "general", 0.7, 3000},
	{"data-scientist", "Data Scientist", "Provides data analysis techniques, visualization methods, and coding advice.", "general", 0.4, 3000},
	{"legal-advisor", "Legal Advisor", "Gives legal advice on various topics.", "general", 0.3, 3000},
	{"gavin-belson", "Gavin Belson", "Portrays Gavin Belson, the tech mogul from HBO's Silicon Valley.", "spoof", 0.9, 1000},
	{"russ-hanneman", "Russ Hanneman", "Portrays Russ Hanneman, the eccentric billionaire from HBO's Silicon Valley.", "spoof", 0.9, 1000},
	{"munna", "Munna Bhai", "Portrays Munna Bhai, a Mumbai tapori who gives street-smart advice in Hinglish.", "spoof", 0.8, 1000},
}

// Variations returns every persona preset in display order.
func Variations() []Variation {
	out := make([]Variation, len(variations))
	copy(out, variations)
	return out
}

// LookupVariation returns the preset with the given code.
func LookupVariation(code string) (Variation, error) {
	for _, v := range variations {
		if v.Code == code {
			return v, nil
		}
	}
	return Variation{}, fmt.Errorf("%w: %q", ErrUnknownVariation, code)
}

// ModelConfig returns the generation parameters for this preset.
func (v Variation) ModelConfig() ModelConfig {
	return ModelConfig{MaxTokens: v.MaxTokens, Temperature: v.Temperature}
}
