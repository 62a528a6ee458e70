package vicii

// Chip is the VIC-II register file and renderer state. It owns the
// framebuffer but not the data it renders from: StepScanline and
// RenderSpritesScanline take screen RAM, colour RAM, character/bitmap
// data and sprite data as pre-fetched slices supplied by the scheduler.
type Chip struct {
	Registers [regWindowSize]byte

	Raster    uint16
	TotalLines uint16

	Frame *Frame

	lineForeground [ScreenWidth]bool
}

// NewPAL returns a chip configured for PAL timing: 312 raster lines,
// 200 visible lines starting at line 51.
func NewPAL() *Chip {
	return &Chip{TotalLines: 312, Frame: NewFrame()}
}

// NewNTSC returns a chip configured for NTSC timing: 263 raster lines.
func NewNTSC() *Chip {
	return &Chip{TotalLines: 263, Frame: NewFrame()}
}

// AdvanceScanline increments the raster counter, wrapping at the
// region's total line count, and runs the raster-compare check.
func (c *Chip) AdvanceScanline() {
	c.Raster++
	if c.Raster >= c.TotalLines {
		c.Raster = 0
	}
	if c.Raster == c.rasterCompare() {
		c.Registers[RegInterrupt] |= 0x01
	}
	c.updateIRQFlag()
}

func (c *Chip) visibleRow() (int, bool) {
	if c.Raster < FirstVisibleLine || c.Raster >= FirstVisibleLine+VisibleHeight {
		return 0, false
	}
	return int(c.Raster - FirstVisibleLine), true
}

func (c *Chip) setPixel(row, x int, color byte, isForeground bool) {
	if x < 0 || x >= ScreenWidth {
		return
	}
	c.Frame.Pixels[row][x] = color & 0x0F
	c.lineForeground[x] = isForeground
}
