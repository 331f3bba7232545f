package gpu

// Sprite is one OAM entry decoded against a scanline, with X/Y already
// translated into screen space (OAM's raw Y-16/X-8 offsets applied).
type Sprite struct {
	X, Y     int
	Tile     byte
	Attr     byte
	OAMIndex int
}

// ScanOAM selects up to 10 sprites intersecting scanline ly, scanned in
// OAM order (lowest index first), matching hardware's per-line sprite cap.
func ScanOAM(oam *[0xA0]byte, ly int, tall bool) []Sprite {
	height := 8
	if tall {
		height = 16
	}
	var out []Sprite
	for i := 0; i < 40 && len(out) < 10; i++ {
		base := i * 4
		y := int(oam[base]) - 16
		x := int(oam[base+1]) - 8
		tile := oam[base+2]
		attr := oam[base+3]
		if ly >= y && ly < y+height {
			out = append(out, Sprite{X: x, Y: y, Tile: tile, Attr: attr, OAMIndex: i})
		}
	}
	return out
}

// spritePixel is the per-column result of sprite-layer resolution: which
// sprite won the pixel (nil if none), and its decoded color index.
type spritePixel struct {
	sprite *Sprite
	ci     byte
}

// resolveSpriteLine decides, for each of 160 columns, which sprite (if
// any) is visible at that column, honoring transparency, BG-priority, and
// DMG overlap priority (lowest X first, ties broken by lowest OAM index).
func resolveSpriteLine(mem VRAMReader, sprites []Sprite, ly byte, bgci [160]byte, tall bool) [160]spritePixel {
	var out [160]spritePixel
	height := 8
	if tall {
		height = 16
	}

	for i := range sprites {
		s := &sprites[i]
		row := int(ly) - s.Y
		if row < 0 || row >= height {
			continue
		}
		if s.Attr&0x40 != 0 {
			row = height - 1 - row
		}
		tile := s.Tile
		if tall {
			if row >= 8 {
				tile |= 0x01
			} else {
				tile &^= 0x01
			}
			row %= 8
		}
		base := uint16(0x8000) + uint16(tile)*16 + uint16(row)*2
		lo := mem.Read(base)
		hi := mem.Read(base + 1)

		for px := 0; px < 8; px++ {
			sx := s.X + px
			if sx < 0 || sx >= 160 {
				continue
			}
			col := px
			if s.Attr&0x20 != 0 {
				col = 7 - px
			}
			bit := 7 - byte(col)
			ci := ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
			if ci == 0 {
				continue
			}
			if s.Attr&0x80 != 0 && bgci[sx] != 0 {
				continue
			}
			cur := out[sx].sprite
			if cur == nil || s.X < cur.X || (s.X == cur.X && s.OAMIndex < cur.OAMIndex) {
				out[sx] = spritePixel{sprite: s, ci: ci}
			}
		}
	}
	return out
}

// ComposeSpriteLine renders the sprite layer for scanline ly into 160 color
// indices (0 = transparent), given the already-rendered BG color indices
// for priority resolution.
func ComposeSpriteLine(mem VRAMReader, sprites []Sprite, ly byte, bgci [160]byte, tall bool) [160]byte {
	var out [160]byte
	resolved := resolveSpriteLine(mem, sprites, ly, bgci, tall)
	for x := 0; x < 160; x++ {
		if resolved[x].sprite != nil {
			out[x] = resolved[x].ci
		}
	}
	return out
}
