package cart

import (
	"encoding/binary"
	"errors"
	"strings"
)

const (
	headerStart = 0x0100
	headerEnd   = 0x014F
)

var nintendoLogo = [48]byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B, 0x03, 0x73, 0x00, 0x83, 0x00, 0x0C, 0x00, 0x0D,
	0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E, 0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99,
	0xBB, 0xBB, 0x67, 0x63, 0x6E, 0x0E, 0xEC, 0xCC, 0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

type Header struct {
	Title          string // (trimmed ASCII)
	CGBFlag        byte   // 0x0143
	NewLicensee    string // 0x0144-0x0145 (ASCII), if old==0x33
	SGBFlag        byte   // 0x0146
	CartType       byte   // 0x0147
	ROMSizeCode    byte   // 0x0148
	RAMSizeCode    byte   // 0x0149
	Destination    byte   // 0x014A
	OldLicensee    byte   // 0x014B
	ROMVersion     byte   // 0x014C
	HeaderChecksum byte   // 0x014D
	GlobalChecksum uint16 // 0x014E-0x014F

	// Decoded helpers (for logs)
	ROMSizeBytes int
	ROMBanks     int
	RAMSizeBytes int
	CartTypeStr  string
}

// cartClass classifies a header's CartType byte by the one thing the rest of
// this package cares about: which bank-switching scheme (if any) the
// cartridge needs, and whether it exposes external RAM at all. header.go and
// cart.go both read from this single table instead of restating the
// type-code groupings twice.
type cartClass struct {
	mbc    int // 0 = unbanked, 1/3/5 = MBC1/MBC3/MBC5
	hasRAM bool
	name   string
}

var cartClasses = map[byte]cartClass{
	0x00: {0, false, "ROM ONLY"},
	0x08: {0, true, "ROM+RAM"},
	0x09: {0, true, "ROM+RAM+BATTERY"},
	0x01: {1, false, "MBC1"},
	0x02: {1, true, "MBC1+RAM"},
	0x03: {1, true, "MBC1+RAM+BATTERY"},
	0x0F: {3, false, "MBC3+TIMER+BATTERY"},
	0x10: {3, true, "MBC3+TIMER+RAM+BATTERY"},
	0x11: {3, false, "MBC3"},
	0x12: {3, true, "MBC3+RAM"},
	0x13: {3, true, "MBC3+RAM+BATTERY"},
	0x19: {5, false, "MBC5"},
	0x1A: {5, true, "MBC5+RAM"},
	0x1B: {5, true, "MBC5+RAM+BATTERY"},
	0x1C: {5, false, "MBC5+RUMBLE"},
	0x1D: {5, true, "MBC5+RUMBLE+RAM"},
	0x1E: {5, true, "MBC5+RUMBLE+RAM+BATTERY"},
}

func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) < headerEnd+1 {
		return nil, errors.New("ROM too small to contain header")
	}

	for i := 0; i < 48; i++ {
		if rom[0x0104+i] != nintendoLogo[i] {
			// Some homebrew/test ROMs skip the logo; don't fail on it.
			break
		}
	}

	rawTitle := rom[0x0134:0x0144]
	title := strings.TrimRight(string(rawTitle), "\x00")

	h := &Header{
		Title:          title,
		CGBFlag:        rom[0x0143],
		NewLicensee:    string(rom[0x0144:0x0146]),
		SGBFlag:        rom[0x0146],
		CartType:       rom[0x0147],
		ROMSizeCode:    rom[0x0148],
		RAMSizeCode:    rom[0x0149],
		Destination:    rom[0x014A],
		OldLicensee:    rom[0x014B],
		ROMVersion:     rom[0x014C],
		HeaderChecksum: rom[0x014D],
		GlobalChecksum: binary.BigEndian.Uint16(rom[0x014E:0x0150]),
	}

	h.ROMSizeBytes, h.ROMBanks = decodeROMSize(h.ROMSizeCode)
	h.RAMSizeBytes = decodeRAMSize(h.RAMSizeCode)
	h.CartTypeStr = cartTypeString(h.CartType)

	return h, nil
}

func HeaderChecksumOK(rom []byte) bool {
	if len(rom) < 0x014E {
		return false
	}
	var sum byte = 0
	for addr := 0x0134; addr <= 0x014C; addr++ {
		sum = sum - rom[addr] - 1
	}
	return sum == rom[0x014D]
}

// oddballROMBanks covers the three non-power-of-two size codes a handful of
// real cartridges use; every other code follows the doubling formula below.
var oddballROMBanks = map[byte]int{0x52: 72, 0x53: 80, 0x54: 96}

// decodeROMSize derives bank count from the size code per spec: standard
// codes 0x00-0x08 double the bank count per step (2, 4, 8, ... 512 banks of
// 16KiB), exactly mirroring how the real cartridge size field is defined.
func decodeROMSize(code byte) (sizeBytes, banks int) {
	if b, ok := oddballROMBanks[code]; ok {
		return b * 16 * 1024, b
	}
	if code > 0x08 {
		return 0, 0
	}
	banks = 2 << code
	return banks * 16 * 1024, banks
}

// ramSizeTable indexes directly by RAMSizeCode; code 0x01 (an obsolete 2KiB
// size on real hardware, unused by any cart this package supports) maps to 0,
// and its slot is kept only so the codes after it index correctly.
var ramSizeTable = [6]int{0, 0, 8 * 1024, 32 * 1024, 128 * 1024, 64 * 1024}

func decodeRAMSize(code byte) int {
	if int(code) < len(ramSizeTable) {
		return ramSizeTable[code]
	}
	return 0
}

// HasRAM reports whether the cart type code advertises external RAM, per
// spec: ram_enabled may only be set for a RAM-bearing type code.
func (h *Header) HasRAM() bool {
	return cartClasses[h.CartType].hasRAM
}

func cartTypeString(code byte) string {
	if c, ok := cartClasses[code]; ok {
		return c.name
	}
	return "Other/unknown"
}
