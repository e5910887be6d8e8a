package main

import (
	"image/color"
	"testing"
)

// Property 1: decode_color matches the bit-weighted formula for every byte.
func TestDecodeColorAllBytes(t *testing.T) {
	for i := 0; i < 256; i++ {
		b := byte(i)
		want := color.RGBA{
			R: weighSum(b, 0, redWeights[:]),
			G: weighSum(b, 3, greenWeights[:]),
			B: weighSum(b, 6, blueWeights[:]),
			A: 0xFF,
		}
		got := DecodeColor(b)
		if got != want {
			t.Fatalf("DecodeColor(0x%02X) = %+v, want %+v", b, got, want)
		}
	}
}

// Property 2: each palette's i-th entry equals colors[prom[slice_base+i]].
func TestBuildPalettesIndexing(t *testing.T) {
	var colorProm [colorPROMSize]byte
	for i := range colorProm {
		colorProm[i] = byte(i * 7)
	}
	colors := BuildColors(colorProm)

	lookup := make([]byte, 64*charPaletteLen)
	for i := range lookup {
		lookup[i] = byte((i*3 + 1) % colorPROMSize)
	}

	palettes, err := BuildPalettes(lookup, colors)
	if err != nil {
		t.Fatalf("BuildPalettes: %v", err)
	}
	if len(palettes) != len(lookup)/charPaletteLen {
		t.Fatalf("len(palettes) = %d, want %d", len(palettes), len(lookup)/charPaletteLen)
	}
	for p := range palettes {
		for i := 0; i < charPaletteLen; i++ {
			want := colors[lookup[p*charPaletteLen+i]]
			if palettes[p][i] != want {
				t.Errorf("palette %d entry %d = %+v, want %+v", p, i, palettes[p][i], want)
			}
		}
	}
}

func TestBuildPalettesRejectsBadLength(t *testing.T) {
	var colors [colorPROMSize]color.RGBA
	_, err := BuildPalettes(make([]byte, 5), colors)
	if err == nil {
		t.Fatal("expected error for non-multiple-of-4 PROM length")
	}
}
