// Package cart parses the cartridge header and implements the memory bank
// controllers (MBCs) that arbitrate ROM/RAM bank switching.
package cart

import "errors"

// ErrUnsupportedCartridge is returned by New when the header's type code
// is outside the set this core implements.
var ErrUnsupportedCartridge = errors.New("cart: unsupported cartridge type")

// ErrROMTooSmall is returned by New when the header's advertised bank count
// exceeds the size of the supplied ROM image.
var ErrROMTooSmall = errors.New("cart: rom image smaller than header's advertised size")

// Cartridge is the minimal interface the MMU needs for ROM/RAM banking.
type Cartridge interface {
	// Read returns a byte for ROM (0x0000-0x7FFF) and external RAM (0xA000-0xBFFF).
	Read(addr uint16) byte
	// Write handles MBC control writes (0x0000-0x7FFF) and external RAM writes (0xA000-0xBFFF).
	Write(addr uint16, value byte)
	// SaveState/LoadState serialize banking registers and external RAM for save states.
	SaveState() []byte
	LoadState(data []byte)
}

// BatteryBacked is implemented by cartridges whose external RAM should be
// persisted to a host-side save file between sessions.
type BatteryBacked interface {
	SaveRAM() []byte
	LoadRAM(data []byte)
}

// Options controls how permissive New is about cartridge types.
type Options struct {
	// AllowExtendedMappers permits MBC3/MBC5 type codes in addition to the
	// spec-mandated no-MBC/MBC1 set. Off by default.
	AllowExtendedMappers bool
}

// New parses the ROM header and constructs the matching Cartridge
// implementation, or an error if the cartridge type is unsupported or the
// ROM image is smaller than the header claims.
func New(rom []byte) (Cartridge, error) {
	return NewWithOptions(rom, Options{})
}

func NewWithOptions(rom []byte, opts Options) (Cartridge, error) {
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, err
	}
	if len(rom) < h.ROMBanks*0x4000 {
		return nil, ErrROMTooSmall
	}
	class, known := cartClasses[h.CartType]
	if !known {
		return nil, ErrUnsupportedCartridge
	}
	switch class.mbc {
	case 0:
		return NewROMOnly(rom, h), nil
	case 1:
		return NewMBC1(rom, h), nil
	case 3:
		if !opts.AllowExtendedMappers {
			return nil, ErrUnsupportedCartridge
		}
		return NewMBC3(rom, h), nil
	case 5:
		if !opts.AllowExtendedMappers {
			return nil, ErrUnsupportedCartridge
		}
		return NewMBC5(rom, h), nil
	default:
		return nil, ErrUnsupportedCartridge
	}
}

// bankBits returns ceil(log2(maxBanks)), the number of bits a bank-select
// write is masked to per the header's advertised bank count.
func bankBits(maxBanks int) uint {
	if maxBanks <= 1 {
		return 0
	}
	bits := uint(0)
	for (1 << bits) < maxBanks {
		bits++
	}
	return bits
}

func bankMask(maxBanks int) byte {
	bits := bankBits(maxBanks)
	if bits >= 8 {
		return 0xFF
	}
	return byte(1<<bits) - 1
}
