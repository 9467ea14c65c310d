// Package epic maps epic labels to display colors. The mapping is a pure
// function of the label and theme mode, so the same label lands on the
// same palette slot across runs and across processes without any stored
// assignment table.
package epic

import "unicode/utf16"

// Color is the styling triple for an epic chip.
type Color struct {
	Background string `json:"background"`
	Text       string `json:"text"`
	Dot        string `json:"dot"`
}

// paletteSize is the number of slots per theme mode.
const paletteSize = 10

// lightPalette holds the chip colors for the light theme. Slot order is
// significant: changing it reassigns every existing epic.
var lightPalette = [paletteSize]Color{
	{Background: "#f3e8ff", Text: "#7e22ce", Dot: "#a855f7"}, // purple
	{Background: "#dbeafe", Text: "#1d4ed8", Dot: "#3b82f6"}, // blue
	{Background: "#d1fae5", Text: "#047857", Dot: "#10b981"}, // emerald
	{Background: "#fef3c7", Text: "#b45309", Dot: "#f59e0b"}, // amber
	{Background: "#ffe4e6", Text: "#be123c", Dot: "#f43f5e"}, // rose
	{Background: "#cffafe", Text: "#0e7490", Dot: "#06b6d4"}, // cyan
	{Background: "#ffedd5", Text: "#c2410c", Dot: "#f97316"}, // orange
	{Background: "#ccfbf1", Text: "#0f766e", Dot: "#14b8a6"}, // teal
	{Background: "#e0e7ff", Text: "#4338ca", Dot: "#6366f1"}, // indigo
	{Background: "#fce7f3", Text: "#be185d", Dot: "#ec4899"}, // pink
}

// darkPalette holds the chip colors for the dark theme. Backgrounds carry
// a 30% alpha channel so chips sit on dark surfaces.
var darkPalette = [paletteSize]Color{
	{Background: "#581c874d", Text: "#d8b4fe", Dot: "#c084fc"}, // purple
	{Background: "#1e3a8a4d", Text: "#93c5fd", Dot: "#60a5fa"}, // blue
	{Background: "#064e3b4d", Text: "#6ee7b7", Dot: "#34d399"}, // emerald
	{Background: "#78350f4d", Text: "#fcd34d", Dot: "#fbbf24"}, // amber
	{Background: "#8813374d", Text: "#fda4af", Dot: "#fb7185"}, // rose
	{Background: "#164e634d", Text: "#67e8f9", Dot: "#22d3ee"}, // cyan
	{Background: "#7c2d124d", Text: "#fdba74", Dot: "#fb923c"}, // orange
	{Background: "#134e4a4d", Text: "#5eead4", Dot: "#2dd4bf"}, // teal
	{Background: "#312e814d", Text: "#a5b4fc", Dot: "#818cf8"}, // indigo
	{Background: "#8318434d", Text: "#f9a8d4", Dot: "#f472b6"}, // pink
}

// ColorFor returns the styling triple for an epic label in the given theme
// mode. The slot is chosen by a stable polynomial hash of the label, so no
// persisted assignment table is needed.
func ColorFor(label string, dark bool) Color {
	idx := hashLabel(label) % paletteSize
	if dark {
		return darkPalette[idx]
	}
	return lightPalette[idx]
}

// hashLabel computes the polynomial rolling hash h = h*31 + u over the
// UTF-16 code units of the label, wrapping at 32 bits, and returns its
// absolute value. Hashing code units rather than bytes or runes keeps the
// slot assignment identical to the values other clients of the palette
// compute, and is deterministic for arbitrary Unicode input.
func hashLabel(label string) int {
	var h int32
	for _, u := range utf16.Encode([]rune(label)) {
		h = h*31 + int32(u)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return int(v)
}
