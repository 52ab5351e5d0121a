package domain

import "fmt"

// Color identifies a player's pieces and the cells they occupy.
type Color int8

const (
	// NoColor marks an empty board cell.
	NoColor Color = iota
	Blue
	Yellow
	Red
	Green
)

// NumColors is the number of player colors in a match.
const NumColors = 4

// TurnOrder is the fixed order in which colors take turns.
var TurnOrder = [NumColors]Color{Blue, Yellow, Red, Green}

var colorNames = map[Color]string{
	NoColor: "none",
	Blue:    "blue",
	Yellow:  "yellow",
	Red:     "red",
	Green:   "green",
}

// rgba values used by the original WebGL client.
var colorRGBA = map[Color][4]float32{
	Blue:   {0, 0, 1, 1},
	Yellow: {1, 1, 0, 1},
	Red:    {1, 0, 0, 1},
	Green:  {0, 1, 0, 1},
}

func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether c is one of the four player colors.
func (c Color) Valid() bool {
	return c >= Blue && c <= Green
}

// Index returns the 0-based turn order index of a player color, or -1.
func (c Color) Index() int {
	if !c.Valid() {
		return -1
	}
	return int(c - Blue)
}

// RGBA returns the render color for c. Rendering only; never compare on it.
func (c Color) RGBA() [4]float32 {
	return colorRGBA[c]
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, ok := ParseColor(string(text))
	if !ok && string(text) != colorNames[NoColor] {
		return fmt.Errorf("domain: unknown color %q", text)
	}
	*c = parsed
	return nil
}

// ParseColor maps a color name back to its Color.
func ParseColor(name string) (Color, bool) {
	for c, n := range colorNames {
		if n == name && c.Valid() {
			return c, true
		}
	}
	return NoColor, false
}
