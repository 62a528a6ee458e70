package vicii

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardTextScanline(t *testing.T) {
	c := NewPAL()
	c.Registers[RegControl1] = ctrl1DEN // DEN=1, BMM=0, ECM=0
	c.Registers[RegControl2] = 0        // MCM=0
	c.Registers[RegBgColor0] = 6
	c.Raster = 51

	chars := make([]byte, 2048)
	chars[1*8+0] = 0x80 // code 1, line 0: top bit set
	screenRAM := make([]byte, 1000)
	screenRAM[0] = 1
	colorRAM := make([]byte, 1000)
	colorRAM[0] = 1

	c.StepScanline(chars, screenRAM, colorRAM)

	assert.Equal(t, byte(1), c.Frame.Pixels[0][0])
	assert.Equal(t, byte(6), c.Frame.Pixels[0][1])
}

func TestDENOffFillsBackground(t *testing.T) {
	c := NewPAL()
	c.Registers[RegControl1] = 0 // DEN=0
	c.Registers[RegBgColor0] = 3
	c.Raster = 51

	c.StepScanline(nil, nil, nil)
	assert.Equal(t, byte(3), c.Frame.Pixels[0][0])
	assert.Equal(t, byte(3), c.Frame.Pixels[0][319])
}

func TestOutsideVisibleWindowNoOp(t *testing.T) {
	c := NewPAL()
	c.Raster = 10
	before := *c.Frame
	c.StepScanline(nil, nil, nil)
	assert.Equal(t, before, *c.Frame)
}

func TestSpriteSpriteCollisionClearsOnRead(t *testing.T) {
	c := NewPAL()
	c.Registers[RegControl1] = ctrl1DEN
	c.Registers[RegBgColor0] = 0
	c.Raster = 51
	c.StepScanline(make([]byte, 2048), make([]byte, 1000), make([]byte, 1000))

	c.Registers[RegSpriteEnable] = 0x03 // sprites 0 and 1
	c.Registers[0] = 24                 // sprite 0 X -> screen X 0
	c.Registers[1] = 51                 // sprite 0 Y
	c.Registers[2] = 24                 // sprite 1 X -> screen X 0
	c.Registers[3] = 51                 // sprite 1 Y

	var data [8][]byte
	rowData := make([]byte, 63)
	rowData[0] = 0x80 // first pixel set
	data[0] = rowData
	data[1] = append([]byte(nil), rowData...)

	c.RenderSpritesScanline(data)

	coll := c.Read(RegSpriteSSColl)
	assert.Equal(t, byte(0b00000011), coll)
	assert.Equal(t, byte(0), c.Read(RegSpriteSSColl))
}

func TestRasterCompareSetsIRQFlag(t *testing.T) {
	c := NewPAL()
	c.Registers[RegRaster] = 100
	c.Registers[RegInterruptMask] = 0x01
	c.Raster = 99

	c.AdvanceScanline()
	assert.Equal(t, uint16(100), c.Raster)
	assert.NotZero(t, c.Registers[RegInterrupt]&0x01)
	assert.True(t, c.IRQActive())
}

func TestWritingInterruptFlagClearsIt(t *testing.T) {
	c := NewPAL()
	c.Registers[RegInterruptMask] = 0x01
	c.Registers[RegInterrupt] = 0x81
	c.Write(RegInterrupt, 0x01)
	assert.Equal(t, byte(0), c.Registers[RegInterrupt]&0x0F)
	assert.False(t, c.IRQActive())
}

func TestControl1ReadMirrorsRasterBit8(t *testing.T) {
	c := NewPAL()
	c.Raster = 0x1FF
	v := c.Read(RegControl1)
	require.NotZero(t, v&0x80)
}

func TestUnmappedOffsetReadsFF(t *testing.T) {
	c := NewPAL()
	assert.Equal(t, byte(0xFF), c.Read(0x30))
}
