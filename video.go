// video.go - tile-map walk and frame composition for the Galaga PCB.
//
// Five VRAM regions are visited each VBLANK and blitted into a 288x224
// frame buffer: the 28x32 playfield and four 32-tile border strips. The
// exact screen placement of "row"/"column" in the distilled hardware
// description is under-specified (see DESIGN.md for the derived mapping);
// what's load-bearing is the scan order and source addresses below, which
// follow the spec text exactly.
package main

import (
	"bytes"
	"image"
	"image/color"

	"golang.org/x/image/bmp"
)

const (
	FrameWidth  = 288
	FrameHeight = 224

	tileGridCols = FrameWidth / tileSize  // 36
	tileGridRows = FrameHeight / tileSize // 28

	playfieldStart = 0x040
	playfieldEnd   = 0x3BF
	playfieldCols  = 28
	playfieldRows  = 32

	stripLen = 32
)

// VideoHardware walks VRAM through a bus view and composes a frame each
// VBLANK using the immutable palette/tile tables built at startup.
type VideoHardware struct {
	bus    *GalagaBus
	tiles  *TileRenderer
	frame  *image.RGBA
	onRend func([]byte)
}

// NewVideoHardware constructs the composer. tiles must already be built
// from the decoded color/palette PROMs.
func NewVideoHardware(bus *GalagaBus, tiles *TileRenderer, onRender func([]byte)) *VideoHardware {
	return &VideoHardware{
		bus:    bus,
		tiles:  tiles,
		frame:  image.NewRGBA(image.Rect(0, 0, FrameWidth, FrameHeight)),
		onRend: onRender,
	}
}

// ComposeFrame walks the five VRAM regions in spec order, blits each
// tile, encodes the result as BMP, and hands the bytes to the render sink.
func (v *VideoHardware) ComposeFrame() []byte {
	v.composePlayfield()
	v.composeStrip(0x3DF, 0, true)
	v.composeStrip(0x3FF, 1, true)
	v.composeStrip(0x01F, tileGridRows-2, true)
	v.composeStrip(0x03F, tileGridRows-1, true)

	var buf bytes.Buffer
	if err := bmp.Encode(&buf, v.frame); err != nil {
		return nil
	}
	out := buf.Bytes()
	if v.onRend != nil {
		v.onRend(out)
	}
	return out
}

func (v *VideoHardware) composePlayfield() {
	for i := playfieldStart; i <= playfieldEnd; i++ {
		k := i - playfieldStart
		col := (29 - k/playfieldRows) % tileGridCols
		row := (2 + k%playfieldRows) % tileGridRows

		tileByte, _ := v.bus.Read8(1, uint16(0x8000+i))
		attrByte, _ := v.bus.Read8(1, uint16(0x8400+i))
		tileIdx := int(tileByte & 0x7F)
		attr := int(attrByte & 0x3F)

		v.blit(col, row, v.tiles.RenderTile(tileIdx, attr))
	}
}

// composeStrip walks `stripLen` descending addresses starting at
// startAddr, placing them left-to-right on the given output row.
func (v *VideoHardware) composeStrip(startAddr, row int, descending bool) {
	for k := 0; k < stripLen; k++ {
		addr := startAddr - k
		if addr < 0 {
			break
		}
		tileByte, _ := v.bus.Read8(1, uint16(0x8000+addr))
		attrByte, _ := v.bus.Read8(1, uint16(0x8400+addr))
		tileIdx := int(tileByte & 0x7F)
		attr := int(attrByte & 0x3F)
		v.blit(k%tileGridCols, row, v.tiles.RenderTile(tileIdx, attr))
	}
}

func (v *VideoHardware) blit(col, row int, pixels [tileSize * tileSize]color.RGBA) {
	baseX, baseY := col*tileSize, row*tileSize
	for py := 0; py < tileSize; py++ {
		for px := 0; px < tileSize; px++ {
			v.frame.SetRGBA(baseX+px, baseY+py, pixels[py*tileSize+px])
		}
	}
}
