// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// models_cmd.go - The "models" command.
package cli

import (
	"fmt"
	"io"

	"github.com/abdulsamad/polychat/internal/model"
	"github.com/abdulsamad/polychat/internal/util"
)

type modelJSON struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Provider    string `json:"provider"`
	Kind        string `json:"kind"`
	Special     bool   `json:"special,omitempty"`
}

type variationJSON struct {
	Code        string  `json:"code"`
	DisplayName string  `json:"display_name"`
	Description string  `json:"description"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// HandleModels prints the model catalog and the variations.
func HandleModels(w io.Writer, args Args) error {
	if args.JSON {
		out := struct {
			Models     []modelJSON     `json:"models"`
			Variations []variationJSON `json:"variations"`
		}{}
		for _, m := range model.Models() {
			out.Models = append(out.Models, modelJSON{
				Name: m.Name, DisplayName: m.DisplayName, Provider: m.Provider,
				Kind: m.Capability.String(), Special: m.Special,
			})
		}
		for _, v := range model.Variations() {
			out.Variations = append(out.Variations, variationJSON{
				Code: v.Code, DisplayName: v.DisplayName, Description: v.Description,
				Temperature: v.Temperature, MaxTokens: v.MaxTokens,
			})
		}
		return writeJSON(w, out)
	}

	fmt.Fprintln(w, TitleStyle.Render("Models"))
	for _, m := range model.Models() {
		badge := ""
		if m.Special {
			badge = activeColor.Sprint(" *")
		}
		def := ""
		if m.Name == model.DefaultModel {
			def = mutedColor.Sprint(" (default)")
		}
		fmt.Fprintf(w, "  %s %s %s%s%s\n",
			idColor.Sprint(util.PadRight(m.Name, 24)),
			util.PadRight(m.DisplayName, 22),
			mutedColor.Sprint(util.PadRight(m.Provider+"/"+m.Capability.String(), 14)),
			badge, def)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render("Variations"))
	for _, v := range model.Variations() {
		fmt.Fprintf(w, "  %s %s %s\n",
			idColor.Sprint(util.PadRight(v.Code, 14)),
			util.PadRight(v.DisplayName, 14),
			mutedColor.Sprint(v.Description))
	}
	return nil
}
