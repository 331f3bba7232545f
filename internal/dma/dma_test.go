package dma

import "testing"

type fakeMem struct{ b [0x10000]byte }

func (f *fakeMem) Read(addr uint16) byte { return f.b[addr] }

type fakeOAM struct{ b [0xA0]byte }

func (o *fakeOAM) WriteOAMByte(i int, v byte) { o.b[i] = v }

func TestOAMDMACopies160BytesFromSourcePage(t *testing.T) {
	mem := &fakeMem{}
	for i := 0; i < 0xA0; i++ {
		mem.b[0x8000+i] = byte(i + 1)
	}
	oam := &fakeOAM{}
	e := New()
	e.Trigger(0x80, mem, oam)
	for i := 0; i < 0xA0; i++ {
		if oam.b[i] != byte(i+1) {
			t.Fatalf("oam[%d] = %d, want %d", i, oam.b[i], i+1)
		}
	}
}

type fakeVRAM struct{ b [0x4000]byte }

func (v *fakeVRAM) WriteVRAMByte(addr uint16, val byte) { v.b[addr-0x8000] = val }

func TestHDMAGeneralPurposeCopiesWholeBlock(t *testing.T) {
	mem := &fakeMem{}
	for i := 0; i < 32; i++ {
		mem.b[0x4000+i] = byte(i)
	}
	vram := &fakeVRAM{}
	h := NewHDMA()
	h.WriteSrcHigh(0x40)
	h.WriteSrcLow(0x00)
	h.WriteDstHigh(0x00)
	h.WriteDstLow(0x00)
	h.WriteControl(0x01) // length = (1+1)*16 = 32, general purpose
	h.RunGeneralPurpose(mem, vram)
	if h.Active {
		t.Fatalf("expected transfer to complete")
	}
	for i := 0; i < 32; i++ {
		if vram.b[i] != byte(i) {
			t.Fatalf("vram[%d] = %d, want %d", i, vram.b[i], i)
		}
	}
}

func TestHDMAHBlankPacedCopiesOneChunkPerCall(t *testing.T) {
	mem := &fakeMem{}
	vram := &fakeVRAM{}
	h := NewHDMA()
	h.WriteControl(0x81) // bit7 set: HBlank-paced, length=32
	h.RunHBlankChunk(mem, vram)
	if !h.Active {
		t.Fatalf("expected transfer still active after one 16-byte chunk of 32")
	}
	h.RunHBlankChunk(mem, vram)
	if h.Active {
		t.Fatalf("expected transfer complete after second chunk")
	}
}
