// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the polychat TUI.

All colors use Lip Gloss AdaptiveColor so the palette follows the
terminal background. The theme can be forced to dark or light from the
[ui] theme setting.

# Color System (colors.go)

  - Purple: assistant messages and selections
  - Cyan: brand, info, user highlights
  - Emerald: success, active thread marker
  - Amber: warnings, loading state
  - Rose: errors and destructive confirmations

# Theme System (theme.go)

	theme := styles.NewTheme("auto")
	theme.SetSize(width, height)
	header := theme.Header.Render("polychat")

# Accessibility

Status messages always carry an ASCII indicator ([OK], [X], [!], [i]) in
addition to color.
*/
package styles
