package vicii

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// ScreenWidth/VisibleHeight/FirstVisibleLine describe the visible PAL
// display window: the first visible raster line is 51, and 200 lines
// are visible.
const (
	ScreenWidth      = 320
	VisibleHeight    = 200
	FirstVisibleLine = 51
)

// Frame holds one rendered field as C64 colour indices (0..15).
type Frame struct {
	Pixels [VisibleHeight][ScreenWidth]byte
}

func NewFrame() *Frame {
	return &Frame{}
}

// Palette is the standard 16-colour C64 palette (Pepto's widely used
// measured values), used only to export frames as host-displayable
// images; the emulation core itself works entirely in colour indices.
var Palette = color.Palette{
	color.RGBA{0x00, 0x00, 0x00, 0xFF}, // black
	color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}, // white
	color.RGBA{0x68, 0x37, 0x2B, 0xFF}, // red
	color.RGBA{0x70, 0xA4, 0xB2, 0xFF}, // cyan
	color.RGBA{0x6F, 0x3D, 0x86, 0xFF}, // purple
	color.RGBA{0x58, 0x8D, 0x43, 0xFF}, // green
	color.RGBA{0x35, 0x28, 0x79, 0xFF}, // blue
	color.RGBA{0xB8, 0xC7, 0x6F, 0xFF}, // yellow
	color.RGBA{0x6F, 0x4F, 0x25, 0xFF}, // orange
	color.RGBA{0x43, 0x39, 0x00, 0xFF}, // brown
	color.RGBA{0x9A, 0x67, 0x59, 0xFF}, // light red
	color.RGBA{0x44, 0x44, 0x44, 0xFF}, // dark grey
	color.RGBA{0x6C, 0x6C, 0x6C, 0xFF}, // grey
	color.RGBA{0x9A, 0xD2, 0x84, 0xFF}, // light green
	color.RGBA{0x6C, 0x5E, 0xB5, 0xFF}, // light blue
	color.RGBA{0x95, 0x95, 0x95, 0xFF}, // light grey
}

// toPaletted builds an image.Paletted copy of the frame, copying each row
// of Frame.Pixels (already one index per pixel) straight into its buffer.
func (f *Frame) toPaletted() *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, ScreenWidth, VisibleHeight), Palette)
	for y := 0; y < VisibleHeight; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+ScreenWidth], f.Pixels[y][:])
	}
	return img
}

// ToRGBA renders the frame as a host-displayable image, scaled by an
// integer factor applied equally to both axes, so the C64's non-square
// pixel aspect is not corrected (a factor of 1 returns it at native
// 320x200). Uses x/image/draw rather than a
// hand-rolled nearest-neighbour loop.
func (f *Frame) ToRGBA(scale int) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	src := f.toPaletted()
	dst := image.NewRGBA(image.Rect(0, 0, ScreenWidth*scale, VisibleHeight*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
