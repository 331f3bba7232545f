package gpu

// BankedVRAMReader is the CGB-aware VRAM surface: tile map reads go through
// bank 0, a parallel attribute map in bank 1 selects the palette, bank, and
// flip/priority bits for each tile, and tile data is read from the bank that
// attribute selects.
type BankedVRAMReader interface {
	ReadBank(bank int, addr uint16) byte
}

// RenderBGScanlineCGB renders a BG scanline honoring CGB tile attributes:
// per-tile palette (bits 0-2), bank select (bit 4), horizontal/vertical
// flip (bits 5/6), and BG-priority-over-sprite (bit 7).
func RenderBGScanlineCGB(mem BankedVRAMReader, mapBase, attrBase uint16, tileData8000 bool, scx, scy, ly byte) (ci [160]byte, pal [160]byte, pri [160]bool) {
	bgY := uint16(ly) + uint16(scy)
	fineY := byte(bgY & 7)
	mapY := (bgY >> 3) & 31

	startX := uint16(scx)
	tileX := (startX >> 3) & 31
	fineX := int(startX & 7)

	x := 0
	first := true
	for x < 160 {
		mapOff := mapY*32 + tileX
		tileNum := mem.ReadBank(0, mapBase+mapOff)
		attr := mem.ReadBank(1, attrBase+mapOff)
		bank := int((attr >> 4) & 1)
		tilePal := attr & 0x07
		tilePri := attr&0x80 != 0
		row := fineY
		if attr&0x40 != 0 {
			row = 7 - fineY
		}

		var base uint16
		if tileData8000 {
			base = 0x8000 + uint16(tileNum)*16 + uint16(row)*2
		} else {
			base = 0x9000 + uint16(int8(tileNum))*16 + uint16(row)*2
		}
		lo := mem.ReadBank(bank, base)
		hi := mem.ReadBank(bank, base+1)

		start := 0
		if first {
			start = fineX
		}
		for px := start; px < 8 && x < 160; px++ {
			col := px
			if attr&0x20 != 0 {
				col = 7 - px
			}
			bit := 7 - byte(col)
			v := ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
			ci[x] = v
			pal[x] = tilePal
			pri[x] = tilePri
			x++
		}
		first = false
		tileX = (tileX + 1) & 31
	}
	return
}

// RenderWindowScanlineCGB is the window analog of RenderBGScanlineCGB.
func RenderWindowScanlineCGB(mem BankedVRAMReader, mapBase, attrBase uint16, tileData8000 bool, wxStart int, winLine byte) (ci [160]byte, pal [160]byte, pri [160]bool) {
	if wxStart >= 160 {
		return
	}
	if wxStart < 0 {
		wxStart = 0
	}
	mapY := (uint16(winLine) >> 3) & 31
	fineY := winLine & 7
	tileX := uint16(0)

	x := wxStart
	for x < 160 {
		mapOff := mapY*32 + tileX
		tileNum := mem.ReadBank(0, mapBase+mapOff)
		attr := mem.ReadBank(1, attrBase+mapOff)
		bank := int((attr >> 4) & 1)
		tilePal := attr & 0x07
		tilePri := attr&0x80 != 0
		row := fineY
		if attr&0x40 != 0 {
			row = 7 - fineY
		}

		var base uint16
		if tileData8000 {
			base = 0x8000 + uint16(tileNum)*16 + uint16(row)*2
		} else {
			base = 0x9000 + uint16(int8(tileNum))*16 + uint16(row)*2
		}
		lo := mem.ReadBank(bank, base)
		hi := mem.ReadBank(bank, base+1)

		for px := 0; px < 8 && x < 160; px++ {
			col := px
			if attr&0x20 != 0 {
				col = 7 - px
			}
			bit := 7 - byte(col)
			v := ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
			ci[x] = v
			pal[x] = tilePal
			pri[x] = tilePri
			x++
		}
		tileX = (tileX + 1) & 31
	}
	return
}
