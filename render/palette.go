package render

import (
	"fmt"
	"strconv"
)

type RGB struct{ R, G, B uint8 }

var Palette = [10]RGB{
	{0x4C, 0xAF, 0x50},
	{0x21, 0x96, 0xF3},
	{0xFF, 0xC1, 0x07},
	{0x9C, 0x27, 0xB0},
	{0xFF, 0x98, 0x00},
	{0x00, 0xBC, 0xD4},
	{0x8B, 0xC3, 0x4A},
	{0xFF, 0x57, 0x22},
	{0x60, 0x7D, 0x8B},
	{0x79, 0x55, 0x48},
}

var FoodColor = RGB{0xFF, 0x33, 0x33}

// HeadShade is how much darker a head is than its body, per channel.
const HeadShade = 30

func SnakeColor(id uint) RGB {
	return Palette[id%uint(len(Palette))]
}

func HeadColor(id uint) RGB {
	return SnakeColor(id).Darken(HeadShade)
}

// Darken lowers every channel by n, stopping at zero.
func (c RGB) Darken(n uint8) RGB {
	sub := func(v uint8) uint8 {
		if v < n {
			return 0
		}
		return v - n
	}
	return RGB{sub(c.R), sub(c.G), sub(c.B)}
}

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func ParseHex(s string) (RGB, error) {
	if len(s) != 7 || s[0] != '#' {
		return RGB{}, fmt.Errorf("render: bad colour %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("render: bad colour %q: %w", s, err)
	}
	return RGB{uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
}

// Cube maps c to the nearest entry of the 6×6×6 colour cube of a
// 256-colour terminal, returned as a palette index (16..231).
func (c RGB) Cube() int {
	level := func(v uint8) int {
		if v < 48 {
			return 0
		}
		if v < 115 {
			return 1
		}
		return (int(v)-35)/40
	}
	return 16 + 36*level(c.R) + 6*level(c.G) + level(c.B)
}
