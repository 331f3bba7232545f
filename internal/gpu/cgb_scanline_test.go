package gpu

import "testing"

type fakeBankedVRAM struct{ v0, v1 [0x2000]byte }

func (f *fakeBankedVRAM) Read(addr uint16) byte { return 0 }
func (f *fakeBankedVRAM) ReadBank(bank int, addr uint16) byte {
	if addr < 0x8000 || addr >= 0xA000 {
		return 0
	}
	off := addr - 0x8000
	if bank == 0 {
		return f.v0[off]
	}
	return f.v1[off]
}

func TestCGB_BG_Attrs_Flips_Bank_Palette(t *testing.T) {
	var v fakeBankedVRAM
	v.v0[0x0010+0] = 0xF0
	v.v0[0x0010+1] = 0x00
	v.v1[0x0010+14] = 0x0F
	v.v1[0x0010+15] = 0x00
	v.v0[0x1800+0] = 0x01
	v.v1[0x1C00+0] = 0x80 | 0x40 | 0x20 | 0x10 | 0x05

	ci, pal, pri := RenderBGScanlineCGB(&v, 0x9800, 0x9C00, true, 0, 0, 0)
	if !pri[0] {
		t.Fatalf("priority not set")
	}
	if pal[0] != 5 {
		t.Fatalf("palette got %d want 5", pal[0])
	}
	if ci[0] == 0 {
		t.Fatalf("unexpected ci 0 at first pixel")
	}
}

func TestCGB_Window_Basic(t *testing.T) {
	var v fakeBankedVRAM
	v.v0[0x0020+0] = 0xFF
	v.v0[0x0020+1] = 0x00
	v.v0[0x1800+0] = 0x02
	v.v1[0x1C00+0] = 0x00
	ci, pal, pri := RenderWindowScanlineCGB(&v, 0x9800, 0x9C00, true, 0, 0)
	if pal[0] != 0 || pri[0] {
		t.Fatalf("unexpected pal/pri %d/%v", pal[0], pri[0])
	}
	if ci[0] == 0 {
		t.Fatalf("ci should be nonzero")
	}
}

func TestGPUCGBPaletteRAMReadWrite(t *testing.T) {
	g := New(nil)
	g.SetCGBMode(true)
	g.CPUWrite(0xFF68, 0x80) // BCPS: index 0, auto-increment
	g.CPUWrite(0xFF69, 0xFF) // low byte
	g.CPUWrite(0xFF69, 0x7F) // high byte -> auto-incremented index now 2
	if g.bgPal[0] != 0xFF || g.bgPal[1] != 0x7F {
		t.Fatalf("BG palette RAM not written: %02X %02X", g.bgPal[0], g.bgPal[1])
	}
	if g.bcps&0x3F != 2 {
		t.Fatalf("BCPS auto-increment got index %d want 2", g.bcps&0x3F)
	}
}
