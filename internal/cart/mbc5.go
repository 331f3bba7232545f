package cart

import (
	"bytes"
	"encoding/gob"
)

// MBC5 supports up to 8MB ROM and 128KB RAM via a full 9-bit ROM bank number
// and a 4-bit RAM bank number, both masked to the cartridge's advertised
// bank counts. Unlike MBC1/MBC3, bank 0 is a valid switchable-area selection.
type MBC5 struct {
	rom []byte
	ram []byte

	romMask uint16
	ramMask byte

	romBank    uint16
	ramBank    byte
	ramEnabled bool
}

func NewMBC5(rom []byte, h *Header) *MBC5 {
	m := &MBC5{rom: rom, romMask: 0x1FF}
	if h.ROMBanks > 0 {
		bits := bankBits(h.ROMBanks)
		if bits >= 9 {
			m.romMask = 0x1FF
		} else if bits == 0 {
			m.romMask = 0
		} else {
			m.romMask = uint16(1<<bits) - 1
		}
	}
	if h.HasRAM() && h.RAMSizeBytes > 0 {
		m.ram = make([]byte, h.RAMSizeBytes)
		m.ramMask = bankMask(h.RAMSizeBytes / 0x2000)
	}
	m.romBank = 1
	return m
}

func (m *MBC5) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		if int(addr) < len(m.rom) {
			return m.rom[addr]
		}
		return 0xFF
	case addr < 0x8000:
		bank := int(m.romBank & m.romMask)
		off := bank*0x4000 + int(addr-0x4000)
		if off >= 0 && off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		rb := int(m.ramBank & m.ramMask)
		off := rb*0x2000 + int(addr-0xA000)
		if off >= 0 && off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *MBC5) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr < 0x3000:
		m.romBank = (m.romBank & 0x100) | uint16(value)
	case addr < 0x4000:
		if value&0x01 != 0 {
			m.romBank = (m.romBank & 0x0FF) | 0x100
		} else {
			m.romBank &^= 0x100
		}
	case addr < 0x6000:
		m.ramBank = value & 0x0F
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		rb := int(m.ramBank & m.ramMask)
		off := rb*0x2000 + int(addr-0xA000)
		if off >= 0 && off < len(m.ram) {
			m.ram[off] = value
		}
	}
}

func (m *MBC5) SaveRAM() []byte {
	if len(m.ram) == 0 {
		return nil
	}
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	return out
}

func (m *MBC5) LoadRAM(data []byte) {
	if len(m.ram) == 0 || len(data) == 0 {
		return
	}
	copy(m.ram, data)
}

type mbc5State struct {
	RomBank    uint16
	RamBank    byte
	RamEnabled bool
	RAM        []byte
}

func (m *MBC5) SaveState() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(mbc5State{
		RomBank:    m.romBank,
		RamBank:    m.ramBank,
		RamEnabled: m.ramEnabled,
		RAM:        m.ram,
	})
	return buf.Bytes()
}

func (m *MBC5) LoadState(data []byte) {
	var s mbc5State
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	m.romBank = s.RomBank
	m.ramBank = s.RamBank
	m.ramEnabled = s.RamEnabled
	if len(s.RAM) > 0 {
		copy(m.ram, s.RAM)
	}
}
