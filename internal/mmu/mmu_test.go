package mmu

import (
	"testing"

	"github.com/tanagra-dev/pocketcore/internal/cart"
	"github.com/tanagra-dev/pocketcore/internal/irq"
)

func newTestMMU(t *testing.T) *MMU {
	t.Helper()
	rom := make([]byte, 0x8000)
	rom[0x0104] = 0xCE // Nintendo logo checksum bytes are not validated here
	c := cart.NewROMOnly(rom, nil)
	return New(c, false)
}

func TestMMU_WorkingRAMAndEchoShadow(t *testing.T) {
	m := newTestMMU(t)
	m.Write(0xC002, 0x2B)
	if got := m.Read(0xC002); got != 0x2B {
		t.Fatalf("WRAM read = %02X, want 2B", got)
	}
	if got := m.Read(0xE002); got != 0x2B {
		t.Fatalf("echo shadow read at E002 = %02X, want 2B", got)
	}
	m.Write(0xD5F0, 0x2B)
	if got := m.Read(0xF5F0); got != 0x2B {
		t.Fatalf("echo shadow read at F5F0 = %02X, want 2B", got)
	}
}

func TestMMU_EchoWriteVisibleThroughWRAM(t *testing.T) {
	m := newTestMMU(t)
	m.Write(0xE010, 0x9A)
	if got := m.Read(0xC010); got != 0x9A {
		t.Fatalf("WRAM read after echo write = %02X, want 9A", got)
	}
}

func TestMMU_UnusableRegionReadsFF(t *testing.T) {
	m := newTestMMU(t)
	if got := m.Read(0xFEEE); got != 0xFF {
		t.Fatalf("unusable region read = %02X, want FF", got)
	}
}

func TestMMU_HighRAMAndInterruptRegisters(t *testing.T) {
	m := newTestMMU(t)
	m.Write(0xFF80, 0xBB)
	if got := m.Read(0xFF80); got != 0xBB {
		t.Fatalf("HRAM read = %02X, want BB", got)
	}
	m.Write(0xFFFF, 0x1F)
	if got := m.Read(0xFFFF); got != 0x1F {
		t.Fatalf("IE read = %02X, want 1F", got)
	}
	m.Write(0xFF0F, 0xFF)
	if got := m.Read(0xFF0F); got != 0xFF {
		t.Fatalf("IF read = %02X, want FF (upper bits fold to 1)", got)
	}
}

func TestMMU_BootROMOverlayDisabledByFF50(t *testing.T) {
	m := newTestMMU(t)
	boot := make([]byte, 0x100)
	boot[0] = 0xAF
	m.SetBootROM(boot)
	if got := m.Read(0x0000); got != 0xAF {
		t.Fatalf("boot ROM overlay read = %02X, want AF", got)
	}
	m.Write(0xFF50, 0x01)
	romByte := m.Read(0x0000)
	if romByte == 0xAF {
		t.Fatalf("boot ROM overlay still active after FF50 write")
	}
}

func TestMMU_OAMDMATransfersFromWRAM(t *testing.T) {
	m := newTestMMU(t)
	for i := 0; i < 0xA0; i++ {
		m.Write(0xC100+uint16(i), byte(i))
	}
	m.Write(0xFF46, 0xC1)
	for i := 0; i < 0xA0; i++ {
		if got := m.Read(0xFE00 + uint16(i)); got != byte(i) {
			t.Fatalf("OAM[%d] = %02X, want %02X", i, got, byte(i))
		}
	}
}

func TestMMU_JoypadSelectAndActiveLowReadout(t *testing.T) {
	m := newTestMMU(t)
	m.SetJoypadState(JoypA | JoypUp)
	m.Write(0xFF00, 0x10) // select buttons (P15 low)
	if got := m.Read(0xFF00) & 0x0F; got != 0x0E {
		t.Fatalf("buttons readout = %04b, want 1110 (A pressed)", got)
	}
	m.Write(0xFF00, 0x20) // select d-pad (P14 low)
	if got := m.Read(0xFF00) & 0x0F; got != 0x0B {
		t.Fatalf("dpad readout = %04b, want 1011 (Up pressed)", got)
	}
}

func TestMMU_JoypadEdgeRequestsInterrupt(t *testing.T) {
	m := newTestMMU(t)
	m.irq.Enabled = 0x1F
	m.Write(0xFF00, 0x20)
	m.SetJoypadState(JoypDown)
	if bit, ok := m.irq.Highest(); !ok || bit != irq.Joypad {
		t.Fatalf("expected joypad interrupt pending, ok=%v bit=%d", ok, bit)
	}
}

func TestMMU_SerialWriteCompletesImmediatelyAndRequestsInterrupt(t *testing.T) {
	m := newTestMMU(t)
	m.irq.Enabled = 0x1F
	m.Write(0xFF01, 'A')
	m.Write(0xFF02, 0x81)
	if m.Read(0xFF02)&0x80 != 0 {
		t.Fatalf("SC start bit should clear after immediate completion")
	}
	if bit, ok := m.irq.Highest(); !ok || bit != irq.Serial {
		t.Fatalf("expected serial interrupt pending, ok=%v bit=%d", ok, bit)
	}
}

func TestMMU_SaveStateRoundTrip(t *testing.T) {
	m := newTestMMU(t)
	m.Write(0xC000, 0x42)
	m.Write(0xFF05, 0x10)
	m.Write(0xFFFF, 0x1F)
	data := m.SaveState()

	m2 := newTestMMU(t)
	m2.LoadState(data)
	if got := m2.Read(0xC000); got != 0x42 {
		t.Fatalf("WRAM not restored: got %02X", got)
	}
	if got := m2.Read(0xFF05); got != 0x10 {
		t.Fatalf("TIMA not restored: got %02X", got)
	}
	if got := m2.Read(0xFFFF); got != 0x1F {
		t.Fatalf("IE not restored: got %02X", got)
	}
}
