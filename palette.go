// palette.go - color PROM and char-lookup PROM decoding.
//
// Mirrors the Namco hardware's resistor-weighted color synthesis: each
// color PROM byte packs three bits of red, three of green, two of blue,
// each bit contributing a fixed weight toward the final 8-bit channel.
package main

import (
	"fmt"
	"image/color"
)

const (
	colorPROMSize  = 32
	charPaletteLen = 4
)

var (
	redWeights   = [3]byte{0x21, 0x47, 0x97}
	greenWeights = [3]byte{0x21, 0x47, 0x97}
	blueWeights  = [2]byte{0x51, 0xAE}
)

// DecodeColor converts one color-PROM byte into an RGBA color using
// bit-weighted additive synthesis: bits 0-2 select red weights, bits 3-5
// select green weights, bits 6-7 select blue weights.
func DecodeColor(b byte) color.RGBA {
	r := weighSum(b, 0, redWeights[:])
	g := weighSum(b, 3, greenWeights[:])
	bl := weighSum(b, 6, blueWeights[:])
	return color.RGBA{R: r, G: g, B: bl, A: 0xFF}
}

func weighSum(b byte, shift int, weights []byte) byte {
	var sum int
	for i, w := range weights {
		if b&(1<<(shift+i)) != 0 {
			sum += int(w)
		}
	}
	if sum > 0xFF {
		sum = 0xFF
	}
	return byte(sum)
}

// BuildColors decodes a 32-byte color PROM into its 32 RGBA entries.
func BuildColors(colorPROM [colorPROMSize]byte) [colorPROMSize]color.RGBA {
	var colors [colorPROMSize]color.RGBA
	for i, b := range colorPROM {
		colors[i] = DecodeColor(b)
	}
	return colors
}

// BuildPalettes reads four consecutive char-lookup-PROM bytes per palette
// entry, each indexing the color table, producing len(lookupPROM)/4
// 4-color palettes.
func BuildPalettes(lookupPROM []byte, colors [colorPROMSize]color.RGBA) ([][charPaletteLen]color.RGBA, error) {
	if len(lookupPROM)%charPaletteLen != 0 {
		return nil, fmt.Errorf("char lookup PROM length %d not a multiple of %d", len(lookupPROM), charPaletteLen)
	}
	palettes := make([][charPaletteLen]color.RGBA, len(lookupPROM)/charPaletteLen)
	for p := range palettes {
		base := p * charPaletteLen
		for i := 0; i < charPaletteLen; i++ {
			idx := lookupPROM[base+i] % colorPROMSize
			palettes[p][i] = colors[idx]
		}
	}
	return palettes, nil
}
