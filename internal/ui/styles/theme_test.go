// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTheme_ForcedModes(t *testing.T) {
	dark := NewTheme(ModeDark)
	assert.True(t, dark.IsDark)

	light := NewTheme("LIGHT")
	assert.False(t, light.IsDark)
}

func TestGlamourStyle(t *testing.T) {
	theme := NewTheme(ModeDark)
	switch theme.GlamourStyle() {
	case "dark", "notty":
	default:
		t.Fatalf("unexpected style %q", theme.GlamourStyle())
	}

	theme = NewTheme(ModeLight)
	assert.Contains(t, []string{"light", "notty"}, theme.GlamourStyle())
}

func TestSetSize(t *testing.T) {
	theme := NewTheme(ModeDark)
	theme.SetSize(120, 40)
	assert.Equal(t, 120, theme.Width)
	assert.Equal(t, 40, theme.Height)
}

func TestStatusRenderersKeepIndicators(t *testing.T) {
	cases := map[string]string{
		RenderSuccess("saved"): StatusIndicators.Success,
		RenderError("failed"):  StatusIndicators.Error,
		RenderWarning("slow"):  StatusIndicators.Warning,
		RenderInfo("note"):     StatusIndicators.Info,
	}
	for out, indicator := range cases {
		assert.True(t, strings.Contains(out, indicator), out)
	}
}
