package cart

import (
	"bytes"
	"encoding/gob"
)

// MBC3 implements ROM/RAM banking. RTC registers are accepted by the RAM
// bank select range (0x08-0x0C) but latch to RAM bank 0, since the clock
// itself is outside this core's scope.
//
//   - 0000-1FFF: RAM enable (0x0A in low nibble)
//   - 2000-3FFF: ROM bank, 7 bits (0 maps to 1)
//   - 4000-5FFF: RAM bank (0-3) or RTC register select (08-0C, ignored)
//   - 6000-7FFF: latch clock (ignored, no RTC)
//   - A000-BFFF: external RAM when enabled and present
type MBC3 struct {
	rom []byte
	ram []byte

	romMask byte
	ramMask byte

	ramEnabled bool
	romBank    byte
	ramBank    byte
}

func NewMBC3(rom []byte, h *Header) *MBC3 {
	m := &MBC3{rom: rom, romMask: bankMask(h.ROMBanks)}
	if h.HasRAM() && h.RAMSizeBytes > 0 {
		m.ram = make([]byte, h.RAMSizeBytes)
		m.ramMask = bankMask(h.RAMSizeBytes / 0x2000)
	}
	m.romBank = 1
	return m
}

func (m *MBC3) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		if int(addr) < len(m.rom) {
			return m.rom[addr]
		}
		return 0xFF
	case addr < 0x8000:
		bank := int(m.romBank & m.romMask)
		if bank == 0 {
			bank = 1
		}
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

func (m *MBC3) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr < 0x4000:
		v := value & 0x7F
		if v == 0 {
			v = 1
		}
		m.romBank = v
	case addr < 0x6000:
		if value <= 0x03 {
			m.ramBank = value & 0x03
		} else {
			m.ramBank = 0
		}
	case addr < 0x8000:
		_ = value
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

func (m *MBC3) SaveRAM() []byte {
	if len(m.ram) == 0 {
		return nil
	}
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	return out
}

func (m *MBC3) LoadRAM(data []byte) {
	if len(m.ram) == 0 || len(data) == 0 {
		return
	}
	copy(m.ram, data)
}

type mbc3State struct {
	RamEnabled bool
	RomBank    byte
	RamBank    byte
	RAM        []byte
}

func (m *MBC3) SaveState() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(mbc3State{
		RamEnabled: m.ramEnabled,
		RomBank:    m.romBank,
		RamBank:    m.ramBank,
		RAM:        m.ram,
	})
	return buf.Bytes()
}

func (m *MBC3) LoadState(data []byte) {
	var s mbc3State
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	m.ramEnabled = s.RamEnabled
	m.romBank = s.RomBank
	m.ramBank = s.RamBank
	if len(s.RAM) > 0 {
		copy(m.ram, s.RAM)
	}
}
