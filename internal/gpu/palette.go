package gpu

// dmgShades are the classic four-shade green-tinted DMG palette, packed as
// 0xRRGGBB, lightest (shade 0) to darkest (shade 3).
var dmgShades = [4]uint32{
	0xE0F8D0,
	0x88C070,
	0x346856,
	0x081820,
}

// applyDMGPalette maps a 2-bit color index through a BGP/OBP palette byte
// (2 bits per shade) to the final displayed shade.
func applyDMGPalette(ci, palReg byte) uint32 {
	shade := (palReg >> (ci * 2)) & 0x03
	return dmgShades[shade]
}

// cgbColor555 unpacks a little-endian RGB555 palette entry (as stored by
// BCPD/OCPD) into a packed 0xRRGGBB color, replicating the top 3 bits into
// the low bits per channel for even 8-bit coverage.
func cgbColor555(lo, hi byte) uint32 {
	v := uint16(lo) | uint16(hi)<<8
	r5 := byte(v & 0x1F)
	g5 := byte((v >> 5) & 0x1F)
	b5 := byte((v >> 10) & 0x1F)
	expand := func(c5 byte) uint32 {
		c8 := (uint32(c5) << 3) | (uint32(c5) >> 2)
		return c8
	}
	return expand(r5)<<16 | expand(g5)<<8 | expand(b5)
}

func (g *GPU) cgbBGColor(palette, ci byte) uint32 {
	off := int(palette)*8 + int(ci)*2
	return cgbColor555(g.bgPal[off], g.bgPal[off+1])
}

func (g *GPU) cgbOBJColor(palette, ci byte) uint32 {
	off := int(palette)*8 + int(ci)*2
	return cgbColor555(g.objPal[off], g.objPal[off+1])
}
