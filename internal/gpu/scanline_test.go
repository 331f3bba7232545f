package gpu

import "testing"

func TestScanlineFetcherSCXOffsetAndTileWrap(t *testing.T) {
	mapBase := uint16(0x9800)
	mem := mockVRAM{}
	fineY := byte(0)
	for tile := 0; tile < 32; tile++ {
		mem[mapBase+uint16(tile)] = byte(tile)
		base := uint16(0x8000+tile*16) + uint16(fineY)*2
		lo := byte(tile)
		hi := ^byte(tile)
		mem[base] = lo
		mem[base+1] = hi
	}
	out := RenderBGScanlineUsingFetcher(mem, mapBase, true, 5, 0, 0)
	lo0, hi0 := byte(0), ^byte(0)
	for i := 0; i < 3; i++ {
		b := 2 - byte(i)
		want := ((hi0>>b)&1)<<1 | ((lo0 >> b) & 1)
		if out[i] != want {
			t.Fatalf("px %d got %d want %d", i, out[i], want)
		}
	}
	lo1, hi1 := byte(1), ^byte(1)
	for i := 0; i < 8; i++ {
		b := 7 - byte(i)
		want := ((hi1>>b)&1)<<1 | ((lo1 >> b) & 1)
		if out[3+i] != want {
			t.Fatalf("tile1 px %d got %d want %d", i, out[3+i], want)
		}
	}
}

func TestScanlineFetcherSCYRowSelectAndMapWrap(t *testing.T) {
	mapBase := uint16(0x9800)
	mem := mockVRAM{}
	fineY := byte(3)
	mem[mapBase+32+0] = 0
	mem[mapBase+32+1] = 1
	base0 := uint16(0x8000+0*16) + uint16(fineY)*2
	mem[base0] = 0x12
	mem[base0+1] = 0x34
	base1 := uint16(0x8000+1*16) + uint16(fineY)*2
	mem[base1] = 0x56
	mem[base1+1] = 0x78
	out := RenderBGScanlineUsingFetcher(mem, mapBase, true, 0, 11, 0)
	lo0, hi0 := byte(0x12), byte(0x34)
	for i := 0; i < 8; i++ {
		b := 7 - byte(i)
		want := ((hi0>>b)&1)<<1 | ((lo0 >> b) & 1)
		if out[i] != want {
			t.Fatalf("tile0 px %d got %d want %d", i, out[i], want)
		}
	}
	lo1, hi1 := byte(0x56), byte(0x78)
	for i := 0; i < 8; i++ {
		b := 7 - byte(i)
		want := ((hi1>>b)&1)<<1 | ((lo1 >> b) & 1)
		if out[8+i] != want {
			t.Fatalf("tile1 px %d got %d want %d", i, out[8+i], want)
		}
	}
}

func TestWindowScanlineFetcherWXAndTiles(t *testing.T) {
	mem := mockVRAM{}
	mapBase := uint16(0x9800)
	mem[mapBase+0] = 0
	mem[mapBase+1] = 1
	fineY := byte(2)
	base0 := uint16(0x8000) + 0*16 + uint16(fineY)*2
	mem[base0] = 0xAA
	mem[base0+1] = 0x0F
	base1 := uint16(0x8000) + 1*16 + uint16(fineY)*2
	mem[base1] = 0x55
	mem[base1+1] = 0xF0
	out := RenderWindowScanlineUsingFetcher(mem, mapBase, true, 20, fineY)
	for x := 0; x < 20; x++ {
		if out[x] != 0 {
			t.Fatalf("pre-window px %d = %d, want 0", x, out[x])
		}
	}
	lo0, hi0 := byte(0xAA), byte(0x0F)
	for i := 0; i < 8; i++ {
		b := 7 - byte(i)
		want := ((hi0>>b)&1)<<1 | ((lo0 >> b) & 1)
		if out[20+i] != want {
			t.Fatalf("tile0 px %d got %d want %d", i, out[20+i], want)
		}
	}
	lo1, hi1 := byte(0x55), byte(0xF0)
	for i := 0; i < 8; i++ {
		b := 7 - byte(i)
		want := ((hi1>>b)&1)<<1 | ((lo1 >> b) & 1)
		if out[28+i] != want {
			t.Fatalf("tile1 px %d got %d want %d", i, out[28+i], want)
		}
	}
}
