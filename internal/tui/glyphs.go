package tui

import (
	"os"
	"strings"
	"sync"
)

// Some terminal fonts render box-drawing and triangle glyphs poorly, so the
// row affordances come in a Unicode and an ASCII set.

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

// applyGlyphPreference reads NESTDO_GLYPHS=unicode|ascii. Unknown values are
// ignored.
func applyGlyphPreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("NESTDO_GLYPHS"))) {
	case "", "unicode", "utf8":
		setGlyphs(glyphSetUnicode)
	case "ascii":
		setGlyphs(glyphSetASCII)
	}
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphSet {
	glyphsMu.RLock()
	defer glyphsMu.RUnlock()
	return currentGlyphs
}

func glyphTwistyCollapsed() string {
	if glyphs() == glyphSetASCII {
		return ">"
	}
	return "▸"
}

func glyphTwistyExpanded() string {
	if glyphs() == glyphSetASCII {
		return "v"
	}
	return "▾"
}

func glyphCheckbox(done bool) string {
	switch {
	case !done:
		return "[ ]"
	case glyphs() == glyphSetASCII:
		return "[x]"
	default:
		return "[✓]"
	}
}

func glyphDirty() string {
	if glyphs() == glyphSetASCII {
		return "*"
	}
	return "•"
}

func glyphHRule() string {
	if glyphs() == glyphSetASCII {
		return "-"
	}
	return "─"
}
