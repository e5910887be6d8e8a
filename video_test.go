package main

import "testing"

// S2: VRAM tile codes 0x40..0x43 / attrs 0x8440..0x8443 land in the
// playfield's top-right four cells and match RenderTile(1..4, 0) exactly.
func TestComposeFramePlayfieldTopRight(t *testing.T) {
	bus := NewGalagaBus()
	for i, code := range []byte{0x01, 0x02, 0x03, 0x04} {
		addr := uint16(playfieldStart + i)
		if err := bus.Write8(1, vramTileStart+addr, code); err != nil {
			t.Fatalf("write tile code: %v", err)
		}
		if err := bus.Write8(1, vramAttrStart+addr, 0x00); err != nil {
			t.Fatalf("write attr: %v", err)
		}
	}

	rom := make([]byte, tileCount*tileROMBytes)
	for i := range rom {
		rom[i] = byte(i * 17)
	}
	tiles := NewTileRenderer(rom, testPalettes())
	video := NewVideoHardware(bus, tiles, nil)

	frame := video.ComposeFrame()
	if frame == nil {
		t.Fatal("ComposeFrame returned nil")
	}

	for k, tileIdx := range []int{1, 2, 3, 4} {
		col := (29 - k/playfieldRows) % tileGridCols
		row := (2 + k%playfieldRows) % tileGridRows
		want := tiles.RenderTile(tileIdx, 0)
		for py := 0; py < tileSize; py++ {
			for px := 0; px < tileSize; px++ {
				got := video.frame.RGBAAt(col*tileSize+px, row*tileSize+py)
				if got != want[py*tileSize+px] {
					t.Fatalf("tile %d pixel (%d,%d) = %+v, want %+v", tileIdx, px, py, got, want[py*tileSize+px])
				}
			}
		}
	}
}

func TestComposeFrameProducesBMPHeader(t *testing.T) {
	bus := NewGalagaBus()
	tiles := NewTileRenderer(make([]byte, tileCount*tileROMBytes), testPalettes())
	var rendered []byte
	video := NewVideoHardware(bus, tiles, func(b []byte) { rendered = b })

	out := video.ComposeFrame()
	if len(out) < 2 || out[0] != 'B' || out[1] != 'M' {
		t.Fatalf("expected BMP magic, got %v", out[:2])
	}
	if len(rendered) != len(out) {
		t.Fatal("onRender callback did not receive the encoded frame")
	}
}
