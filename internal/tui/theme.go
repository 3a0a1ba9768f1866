package tui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Colors adapt to light and dark terminals. Faint text only on dark ones;
// it tends to vanish on light backgrounds.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorMuted      = ac("240", "243")
	colorAccent     = ac("27", "62")
	colorAccentFg   = ac("255", "235")
	colorSelectedBg = ac("#e9e9e9", "#262626")
	colorSelectedFg = ac("235", "255")
	colorDone       = ac("246", "241")
	colorWarn       = ac("160", "203")
	colorDrop       = ac("27", "75")
)

type styles struct {
	header    lipgloss.Style
	headerTag lipgloss.Style
	row       lipgloss.Style
	selected  lipgloss.Style
	done      lipgloss.Style
	glyph     lipgloss.Style
	dragged   lipgloss.Style
	dropLine  lipgloss.Style
	dropChild lipgloss.Style
	status    lipgloss.Style
	warn      lipgloss.Style
	prompt    lipgloss.Style
}

func newStyles() styles {
	muted := lipgloss.NewStyle().Foreground(colorMuted)
	if lipgloss.HasDarkBackground() {
		muted = muted.Faint(true)
	}
	return styles{
		header:    lipgloss.NewStyle().Bold(true),
		headerTag: lipgloss.NewStyle().Foreground(colorAccentFg).Background(colorAccent).Padding(0, 1),
		row:       lipgloss.NewStyle(),
		selected:  lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true),
		done:      lipgloss.NewStyle().Foreground(colorDone).Strikethrough(true),
		glyph:     muted,
		dragged:   muted.Italic(true),
		dropLine:  lipgloss.NewStyle().Foreground(colorDrop).Bold(true),
		dropChild: lipgloss.NewStyle().Foreground(colorDrop).Underline(true),
		status:    muted,
		warn:      lipgloss.NewStyle().Foreground(colorWarn),
		prompt:    lipgloss.NewStyle().Foreground(colorAccent).Bold(true),
	}
}

// applyColorProfilePreference honors NO_COLOR and otherwise trusts
// TERM/COLORTERM when they claim more than termenv detected.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	profile := termenv.ColorProfile()
	term := strings.ToLower(os.Getenv("TERM"))
	colorterm := strings.ToLower(os.Getenv("COLORTERM"))
	switch {
	case strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit"):
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	case strings.Contains(term, "256color"):
		if profile == termenv.Ascii || profile == termenv.ANSI {
			profile = termenv.ANSI256
		}
	}
	lipgloss.SetColorProfile(profile)
}

// applyThemePreference: NESTDO_THEME=light|dark wins, then the COLORFGBG
// hint ("fg;bg").
func applyThemePreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("NESTDO_THEME"))) {
	case "light":
		lipgloss.SetHasDarkBackground(false)
		return
	case "dark":
		lipgloss.SetHasDarkBackground(true)
		return
	}
	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			lipgloss.SetHasDarkBackground(bg < 7)
		}
	}
}

func markdownStyle() string {
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}
