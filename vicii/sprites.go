package vicii

const (
	numSprites     = 8
	spriteHeight   = 21
	spriteRowBytes = 3
	spriteWidth    = 24
)

// RenderSpritesScanline overlays up to 8 hardware sprites onto the
// current scanline's framebuffer row. spriteData[n] holds 63 bytes (21
// rows of 3 bytes) of pre-fetched sprite pattern data for sprite n.
// Sprites are drawn in reverse numerical order so low-numbered sprites
// win when they overlap.
func (c *Chip) RenderSpritesScanline(spriteData [numSprites][]byte) {
	row, visible := c.visibleRow()
	if !visible {
		return
	}

	var spritePixelMask [ScreenWidth]byte

	for n := numSprites - 1; n >= 0; n-- {
		if !c.spriteEnabled(n) {
			continue
		}
		y := int(c.Registers[n*2+1])
		expandY := c.spriteYExpanded(n)
		h := spriteHeight
		if expandY {
			h = spriteHeight * 2
		}
		raster := int(c.Raster)
		if raster < y || raster >= y+h {
			continue
		}
		srcRow := raster - y
		if expandY {
			srcRow /= 2
		}
		if srcRow > spriteHeight-1 {
			srcRow = spriteHeight - 1
		}

		data := spriteData[n]
		if len(data) < (srcRow+1)*spriteRowBytes {
			continue
		}
		rowBytes := data[srcRow*spriteRowBytes : srcRow*spriteRowBytes+spriteRowBytes]

		originX := int(c.spriteX(n)) - 24
		expandX := c.spriteXExpanded(n)
		xWidth := 1
		if expandX {
			xWidth = 2
		}

		pixels := c.spritePixels(n, rowBytes)
		for idx, px := range pixels {
			if !px.opaque {
				continue
			}
			for rep := 0; rep < xWidth; rep++ {
				x := originX + idx*xWidth + rep
				if x < 0 || x >= ScreenWidth {
					continue
				}
				if c.lineForeground[x] {
					c.Registers[RegSpriteSBColl] |= 1 << uint(n)
				}
				if spritePixelMask[x] != 0 {
					c.Registers[RegSpriteSSColl] |= spritePixelMask[x] | (1 << uint(n))
				}
				spritePixelMask[x] |= 1 << uint(n)

				if c.spritePriorityBehind(n) && c.lineForeground[x] {
					continue
				}
				c.Frame.Pixels[row][x] = px.color & 0x0F
			}
		}
	}
}

type spritePixel struct {
	opaque bool
	color  byte
}

// spritePixels expands one sprite row's 24 bits of pattern data into 24
// hires-resolution pixel cells, whether the sprite is hires or
// multicolour (multicolour bit-pairs are replicated across 2 cells each
// so both forms occupy the same 24-cell baseline before X-expansion).
func (c *Chip) spritePixels(n int, rowBytes []byte) [spriteWidth]spritePixel {
	var out [spriteWidth]spritePixel
	individual := c.Registers[RegSprite0Color+n] & 0x0F

	if !c.spriteMulticolor(n) {
		for i := 0; i < spriteWidth; i++ {
			byteIdx := i / 8
			bitIdx := uint(7 - i%8)
			set := rowBytes[byteIdx]&(1<<bitIdx) != 0
			out[i] = spritePixel{opaque: set, color: individual}
		}
		return out
	}

	mc0 := c.Registers[RegSpriteMulti0] & 0x0F
	mc1 := c.Registers[RegSpriteMulti1] & 0x0F
	for pair := 0; pair < 12; pair++ {
		byteIdx := pair / 4
		bitOffset := uint(6 - 2*(pair%4))
		bits := (rowBytes[byteIdx] >> bitOffset) & 0x03
		var px spritePixel
		switch bits {
		case 0:
			px = spritePixel{opaque: false}
		case 1:
			px = spritePixel{opaque: true, color: mc0}
		case 2:
			px = spritePixel{opaque: true, color: individual}
		case 3:
			px = spritePixel{opaque: true, color: mc1}
		}
		out[pair*2] = px
		out[pair*2+1] = px
	}
	return out
}

func (c *Chip) spriteEnabled(n int) bool  { return c.Registers[RegSpriteEnable]&(1<<uint(n)) != 0 }
func (c *Chip) spriteYExpanded(n int) bool {
	return c.Registers[RegSpriteYExpand]&(1<<uint(n)) != 0
}
func (c *Chip) spriteXExpanded(n int) bool {
	return c.Registers[RegSpriteXExpand]&(1<<uint(n)) != 0
}
func (c *Chip) spriteMulticolor(n int) bool {
	return c.Registers[RegSpriteMColor]&(1<<uint(n)) != 0
}
func (c *Chip) spritePriorityBehind(n int) bool {
	return c.Registers[RegSpritePriority]&(1<<uint(n)) != 0
}

func (c *Chip) spriteX(n int) uint16 {
	x := uint16(c.Registers[n*2])
	if c.Registers[RegSpriteXMSB]&(1<<uint(n)) != 0 {
		x |= 0x100
	}
	return x
}
