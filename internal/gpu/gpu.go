// Package gpu implements the pixel-pipeline PPU: the mode state machine
// (OAM scan / pixel transfer / HBlank / VBlank), STAT/LYC interrupt
// generation, background/window/sprite scanline compositing into an RGB
// framebuffer, and the CGB color-palette extension.
package gpu

import (
	"bytes"
	"encoding/gob"
)

// InterruptRequester requests an IF bit (0:VBlank, 1:STAT).
type InterruptRequester func(bit int)

const (
	ScreenWidth  = 160
	ScreenHeight = 144

	dotsPerLine  = 456
	oamDots      = 80
	transferDots = 172
)

// LineRegs is a snapshot of the registers in effect when pixel transfer
// begins for a given line, captured once per line so later register writes
// on the same line don't retroactively change a scanline already rendered.
type LineRegs struct {
	LCDC, SCX, SCY, WX, WY, BGP, OBP0, OBP1 byte
	WinLine                                 byte
}

// GPU owns VRAM/OAM, the LCDC/STAT/scroll/palette registers, and the
// RGB framebuffer produced by scanline rendering.
type GPU struct {
	vram [2][0x2000]byte // bank 0 always; bank 1 used in CGB mode
	oam  [0xA0]byte

	lcdc byte // FF40
	stat byte // FF41
	scy  byte // FF42
	scx  byte // FF43
	ly   byte // FF44
	lyc  byte // FF45
	bgp  byte // FF47
	obp0 byte // FF48
	obp1 byte // FF49
	wy   byte // FF4A
	wx   byte // FF4B

	cgb     bool
	vbk     byte // FF4F: VRAM bank select (bit0)
	bcps    byte // FF68: BG palette index/auto-increment
	ocps    byte // FF6A: OBJ palette index/auto-increment
	bgPal   [64]byte
	objPal  [64]byte

	dot            int
	winLineCounter byte
	windowHitFrame bool
	modeCaptured   bool // whether this line's mode-3 snapshot has been taken

	lineRegs [154]LineRegs
	fb       [ScreenWidth * ScreenHeight]uint32

	req InterruptRequester
}

func New(req InterruptRequester) *GPU { return &GPU{req: req} }

// SetCGBMode toggles the color-variant extensions (second VRAM bank,
// BCPS/BCPD/OCPS/OCPD palette RAM, CGB-attribute BG/window rendering).
func (g *GPU) SetCGBMode(on bool) { g.cgb = on }
func (g *GPU) CGBMode() bool      { return g.cgb }

// CPURead returns bytes for VRAM, OAM, and PPU IO registers. 0xFF for others.
func (g *GPU) CPURead(addr uint16) byte {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if (g.stat&0x03) == 3 && g.lcdEnabled() {
			return 0xFF
		}
		return g.vram[g.vramBank()][addr-0x8000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		m := g.stat & 0x03
		if (m == 2 || m == 3) && g.lcdEnabled() {
			return 0xFF
		}
		return g.oam[addr-0xFE00]
	case addr == 0xFF40:
		return g.lcdc
	case addr == 0xFF41:
		return 0x80 | (g.stat & 0x7F)
	case addr == 0xFF42:
		return g.scy
	case addr == 0xFF43:
		return g.scx
	case addr == 0xFF44:
		return g.ly
	case addr == 0xFF45:
		return g.lyc
	case addr == 0xFF47:
		return g.bgp
	case addr == 0xFF48:
		return g.obp0
	case addr == 0xFF49:
		return g.obp1
	case addr == 0xFF4A:
		return g.wy
	case addr == 0xFF4B:
		return g.wx
	case addr == 0xFF4F:
		if !g.cgb {
			return 0xFF
		}
		return 0xFE | g.vbk
	case addr == 0xFF68:
		return g.bcps
	case addr == 0xFF69:
		return g.readPalette(g.bgPal[:], g.bcps)
	case addr == 0xFF6A:
		return g.ocps
	case addr == 0xFF6B:
		return g.readPalette(g.objPal[:], g.ocps)
	default:
		return 0xFF
	}
}

// CPUWrite handles writes to VRAM, OAM, and PPU IO registers.
func (g *GPU) CPUWrite(addr uint16, value byte) {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if (g.stat&0x03) == 3 && g.lcdEnabled() {
			return
		}
		g.vram[g.vramBank()][addr-0x8000] = value
	case addr >= 0xFE00 && addr <= 0xFE9F:
		m := g.stat & 0x03
		if (m == 2 || m == 3) && g.lcdEnabled() {
			return
		}
		g.oam[addr-0xFE00] = value
	case addr == 0xFF40:
		prev := g.lcdc
		g.lcdc = value
		if (g.lcdc&0x80) == 0 && (prev&0x80) != 0 {
			g.ly = 0
			g.dot = 0
			g.setMode(0)
			g.updateLYC()
		} else if (g.lcdc&0x80) != 0 && (prev&0x80) == 0 {
			g.ly = 0
			g.dot = 0
			g.winLineCounter = 0
			g.windowHitFrame = false
			g.modeCaptured = false
			g.setMode(2)
			g.updateLYC()
		}
	case addr == 0xFF41:
		g.stat = (g.stat & 0x07) | (value & 0x78)
	case addr == 0xFF42:
		g.scy = value
	case addr == 0xFF43:
		g.scx = value
	case addr == 0xFF44:
		g.ly = 0
		g.dot = 0
		g.updateLYC()
		if g.lcdEnabled() {
			g.setMode(2)
		}
	case addr == 0xFF45:
		g.lyc = value
		g.updateLYC()
	case addr == 0xFF47:
		g.bgp = value
	case addr == 0xFF48:
		g.obp0 = value
	case addr == 0xFF49:
		g.obp1 = value
	case addr == 0xFF4A:
		g.wy = value
	case addr == 0xFF4B:
		g.wx = value
	case addr == 0xFF4F:
		if g.cgb {
			g.vbk = value & 0x01
		}
	case addr == 0xFF68:
		g.bcps = value & 0xBF
	case addr == 0xFF69:
		g.writePalette(g.bgPal[:], &g.bcps, value)
	case addr == 0xFF6A:
		g.ocps = value & 0xBF
	case addr == 0xFF6B:
		g.writePalette(g.objPal[:], &g.ocps, value)
	}
}

func (g *GPU) vramBank() int {
	if g.cgb {
		return int(g.vbk)
	}
	return 0
}

func (g *GPU) readPalette(pal []byte, cps byte) byte {
	return pal[cps&0x3F]
}

func (g *GPU) writePalette(pal []byte, cps *byte, value byte) {
	idx := *cps & 0x3F
	pal[idx] = value
	if *cps&0x80 != 0 {
		*cps = (*cps &^ 0x3F) | ((idx + 1) & 0x3F) | 0x80
	}
}

// WriteVRAMByte implements dma.VRAMWriter for HDMA transfers; it always
// targets the CGB-selected VRAM bank, bypassing the mode-3 access lock
// since HDMA runs during HBlank/outside active rendering.
func (g *GPU) WriteVRAMByte(addr uint16, v byte) {
	if addr < 0x8000 || addr > 0x9FFF {
		return
	}
	g.vram[g.vramBank()][addr-0x8000] = v
}

// WriteOAMByte implements dma.OAMWriter for the OAM DMA engine.
func (g *GPU) WriteOAMByte(index int, v byte) {
	if index < 0 || index >= len(g.oam) {
		return
	}
	g.oam[index] = v
}

func (g *GPU) lcdEnabled() bool { return g.lcdc&0x80 != 0 }

// Tick advances the PPU by the given number of dots, rendering each
// scanline's pixels exactly once, at the moment mode 3 begins.
func (g *GPU) Tick(cycles int) {
	if cycles <= 0 {
		return
	}
	for i := 0; i < cycles; i++ {
		if !g.lcdEnabled() {
			continue
		}
		g.dot++

		var mode byte
		if g.ly >= 144 {
			mode = 1
		} else {
			switch {
			case g.dot < oamDots:
				mode = 2
			case g.dot < oamDots+transferDots:
				mode = 3
			default:
				mode = 0
			}
		}
		if mode == 3 && !g.modeCaptured {
			g.captureLine()
			g.modeCaptured = true
		}
		g.setMode(mode)

		if g.dot >= dotsPerLine {
			g.dot = 0
			g.modeCaptured = false
			g.ly++
			if g.ly == 144 {
				g.windowHitFrame = false
				g.winLineCounter = 0
				if g.req != nil {
					g.req(0)
				}
				if g.stat&(1<<4) != 0 && g.req != nil {
					g.req(1)
				}
			} else if g.ly > 153 {
				g.ly = 0
			}
			g.updateLYC()
			if g.ly >= 144 {
				g.setMode(1)
			} else {
				g.setMode(2)
			}
		}
	}
}

// captureLine snapshots the registers in effect for the current line and
// renders it into the framebuffer. Runs once, at mode-3 entry.
func (g *GPU) captureLine() {
	ly := int(g.ly)
	if ly >= len(g.lineRegs) {
		return
	}
	windowVisibleThisLine := g.lcdc&0x20 != 0 && g.wy <= g.ly && g.wx <= 166
	lr := LineRegs{
		LCDC: g.lcdc, SCX: g.scx, SCY: g.scy, WX: g.wx, WY: g.wy,
		BGP: g.bgp, OBP0: g.obp0, OBP1: g.obp1,
		WinLine: g.winLineCounter,
	}
	g.lineRegs[ly] = lr
	if windowVisibleThisLine {
		g.windowHitFrame = true
		g.winLineCounter++
	}
	g.renderScanline(ly, lr)
}

// LineRegs returns the register snapshot captured for line ly (for tests
// and for renderers that want to inspect the window-line counter).
func (g *GPU) LineRegs(ly int) LineRegs {
	if ly < 0 || ly >= len(g.lineRegs) {
		return LineRegs{}
	}
	return g.lineRegs[ly]
}

func (g *GPU) setMode(mode byte) {
	prev := g.stat & 0x03
	if prev == mode {
		return
	}
	g.stat = (g.stat &^ 0x03) | (mode & 0x03)
	switch mode {
	case 0:
		if g.stat&(1<<3) != 0 && g.req != nil {
			g.req(1)
		}
	case 2:
		if g.stat&(1<<5) != 0 && g.req != nil {
			g.req(1)
		}
	}
}

func (g *GPU) updateLYC() {
	if g.ly == g.lyc {
		g.stat |= 1 << 2
		if g.stat&(1<<6) != 0 && g.req != nil {
			g.req(1)
		}
	} else {
		g.stat &^= 1 << 2
	}
}

// Framebuffer returns the packed 0xRRGGBB pixel buffer, row-major,
// ScreenWidth x ScreenHeight.
func (g *GPU) Framebuffer() []uint32 { return g.fb[:] }

func (g *GPU) BGP() byte  { return g.bgp }
func (g *GPU) OBP0() byte { return g.obp0 }
func (g *GPU) OBP1() byte { return g.obp1 }
func (g *GPU) LCDC() byte { return g.lcdc }
func (g *GPU) SCY() byte  { return g.scy }
func (g *GPU) SCX() byte  { return g.scx }
func (g *GPU) WY() byte   { return g.wy }
func (g *GPU) WX() byte   { return g.wx }

// Mode returns the current STAT mode (0:HBlank, 1:VBlank, 2:OAM, 3:Transfer),
// used by the MMU's Tick to pace HBlank-timed HDMA transfers.
func (g *GPU) Mode() byte { return g.stat & 0x03 }

type gpuState struct {
	VRAM0, VRAM1         [0x2000]byte
	OAM                  [0xA0]byte
	LCDC, STAT, SCY, SCX byte
	LY, LYC              byte
	BGP, OBP0, OBP1      byte
	WY, WX               byte
	CGB                  bool
	VBK, BCPS, OCPS      byte
	BGPal, OBJPal        [64]byte
	Dot                  int
	WinLineCounter       byte
}

func (g *GPU) SaveState() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(gpuState{
		VRAM0: g.vram[0], VRAM1: g.vram[1], OAM: g.oam,
		LCDC: g.lcdc, STAT: g.stat, SCY: g.scy, SCX: g.scx,
		LY: g.ly, LYC: g.lyc, BGP: g.bgp, OBP0: g.obp0, OBP1: g.obp1,
		WY: g.wy, WX: g.wx, CGB: g.cgb, VBK: g.vbk, BCPS: g.bcps, OCPS: g.ocps,
		BGPal: g.bgPal, OBJPal: g.objPal, Dot: g.dot, WinLineCounter: g.winLineCounter,
	})
	return buf.Bytes()
}

func (g *GPU) LoadState(data []byte) {
	var s gpuState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	g.vram[0], g.vram[1] = s.VRAM0, s.VRAM1
	g.oam = s.OAM
	g.lcdc, g.stat, g.scy, g.scx = s.LCDC, s.STAT, s.SCY, s.SCX
	g.ly, g.lyc, g.bgp, g.obp0, g.obp1 = s.LY, s.LYC, s.BGP, s.OBP0, s.OBP1
	g.wy, g.wx, g.cgb, g.vbk, g.bcps, g.ocps = s.WY, s.WX, s.CGB, s.VBK, s.BCPS, s.OCPS
	g.bgPal, g.objPal = s.BGPal, s.OBJPal
	g.dot, g.winLineCounter = s.Dot, s.WinLineCounter
}
