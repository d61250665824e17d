package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// Swatch renders text on a background of the given hex color.
func Swatch(text, color string) string {
	return lipgloss.NewStyle().Background(lipgloss.Color(color)).Render(text)
}

// cell is two spaces wide so the grid renders roughly square in most
// terminal fonts.
const cellBlock = "  "

func renderCell(color string, underCursor bool) string {
	if underCursor {
		return lipgloss.NewStyle().
			Background(lipgloss.Color(color)).
			Foreground(lipgloss.Color(contrastColor(color))).
			Render("[]")
	}
	return Swatch(cellBlock, color)
}

// contrastColor picks black or white for legibility over a hex background.
func contrastColor(hex string) string {
	if len(hex) != 7 {
		return "#000000"
	}
	var r, g, b int
	for i, target := range []*int{&r, &g, &b} {
		hi := hexDigit(hex[1+i*2])
		lo := hexDigit(hex[2+i*2])
		*target = hi<<4 | lo
	}
	// Integer luma approximation.
	if (299*r+587*g+114*b)/1000 > 128 {
		return "#000000"
	}
	return "#ffffff"
}

func hexDigit(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	default:
		return 0
	}
}
