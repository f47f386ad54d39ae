package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// CourseSetterTheme provides a custom theme for the application.
type CourseSetterTheme struct{}

var _ fyne.Theme = (*CourseSetterTheme)(nil)

func (t *CourseSetterTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 0xA0, G: 0x33, B: 0xF0, A: 0xFF} // Control marker violet
	case theme.ColorNameSelection:
		return color.NRGBA{R: 0xFF, G: 0xE4, B: 0x00, A: 0x80} // Route yellow
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *CourseSetterTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *CourseSetterTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *CourseSetterTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameScrollBar:
		return 16 // Wider scrollbar, the canvas gets large with big maps
	default:
		return theme.DefaultTheme().Size(name)
	}
}
