package cart

import "testing"

func TestMBC5_ROMBankingIncludingBankZero(t *testing.T) {
	rom := buildROM("TEST", 0x19, 0x04, 0x00, 512*1024) // MBC5, 32 banks
	for bank := 0; bank < 32; bank++ {
		rom[bank*0x4000] = byte(bank)
	}
	m := NewMBC5(rom, mustHeader(t, rom))

	if got := m.Read(0x4000); got != 0x01 {
		t.Fatalf("default bank1 read got %02X want 01", got)
	}
	m.Write(0x2000, 0x00) // unlike MBC1/MBC3, bank 0 is a valid selection
	if got := m.Read(0x4000); got != 0x00 {
		t.Fatalf("bank0 read got %02X want 00", got)
	}
	m.Write(0x2000, 0x0A)
	if got := m.Read(0x4000); got != 0x0A {
		t.Fatalf("bank select got %02X want 0A", got)
	}
}

func TestMBC5_MasksBankNumberToAdvertisedBits(t *testing.T) {
	rom := buildROM("TEST", 0x19, 0x01, 0x00, 64*1024) // 4 banks -> 2 bits
	for bank := 0; bank < 4; bank++ {
		rom[bank*0x4000] = byte(0x30 + bank)
	}
	m := NewMBC5(rom, mustHeader(t, rom))

	m.Write(0x2000, 0x0F) // masked to 0b011 = 3
	if got := m.Read(0x4000); got != 0x33 {
		t.Fatalf("masked bank read got %02X want %02X (bank 3)", got, 0x33)
	}
}

func TestMBC5_HighBankBit(t *testing.T) {
	rom := buildROM("TEST", 0x19, 0x08, 0x00, 8*1024*1024) // 512 banks, needs bit 8
	rom[256*0x4000] = 0xAB
	m := NewMBC5(rom, mustHeader(t, rom))

	m.Write(0x2000, 0x00) // low 8 bits = 0
	m.Write(0x3000, 0x01) // bit 8 set -> bank 256
	if got := m.Read(0x4000); got != 0xAB {
		t.Fatalf("bank 256 read got %02X want AB", got)
	}
}

func TestMBC5_RAMBanking(t *testing.T) {
	rom := buildROM("TEST", 0x1B, 0x01, 0x03, 64*1024) // MBC5+RAM+BATTERY, 32KiB RAM
	m := NewMBC5(rom, mustHeader(t, rom))

	m.Write(0x0000, 0x0A)
	m.Write(0x4000, 0x01)
	m.Write(0xA000, 0x55)
	if got := m.Read(0xA000); got != 0x55 {
		t.Fatalf("RAM bank1 RW failed: got %02X", got)
	}
}
