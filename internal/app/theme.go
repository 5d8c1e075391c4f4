package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// StudioTheme provides a custom theme for the application. Neutral grays
// keep the UI from tinting the photo being judged.
type StudioTheme struct{}

var _ fyne.Theme = (*StudioTheme)(nil)

func (t *StudioTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 0x00, G: 0x96, B: 0x88, A: 0xFF} // Teal accent
	case theme.ColorNameBackground:
		return color.NRGBA{R: 0x26, G: 0x26, B: 0x26, A: 0xFF} // Neutral dark surround
	case theme.ColorNameSelection:
		return color.NRGBA{R: 0x00, G: 0x96, B: 0x88, A: 0x60}
	default:
		return theme.DefaultTheme().Color(name, theme.VariantDark)
	}
}

func (t *StudioTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *StudioTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *StudioTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameScrollBar:
		return 14 // Wider scrollbar for easier grabbing
	default:
		return theme.DefaultTheme().Size(name)
	}
}
