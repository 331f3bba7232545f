package machine

import (
	"bytes"
	"testing"
)

func testROM() []byte {
	rom := make([]byte, 0x8000)
	title := []byte("TESTROM")
	copy(rom[0x0134:], title)
	rom[0x0147] = 0x00 // ROM only
	rom[0x0148] = 0x00 // 32KB, 2 banks
	rom[0x0149] = 0x00 // no RAM
	return rom
}

func TestMachine_LoadROMAndStepAdvancesPC(t *testing.T) {
	m := New()
	if err := m.LoadROM(testROM()); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	startPC := m.CPU().PC
	cyc := m.Step()
	if cyc <= 0 {
		t.Fatalf("Step returned non-positive cycle count: %d", cyc)
	}
	if m.CPU().PC == startPC {
		t.Fatalf("PC did not advance after Step")
	}
}

func TestMachine_SkipBIOSAppliesPostBootDefaults(t *testing.T) {
	m := New()
	if err := m.LoadROM(testROM()); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	m.SkipBIOS()
	if m.CPU().PC != 0x0100 {
		t.Fatalf("PC after SkipBIOS = %04X, want 0100", m.CPU().PC)
	}
	if got := m.MMU().Read(0xFF40); got != 0x91 {
		t.Fatalf("LCDC default = %02X, want 91", got)
	}
}

func TestMachine_LoadBIOSStartsAtZero(t *testing.T) {
	m := New()
	if err := m.LoadROM(testROM()); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	boot := make([]byte, 0x100)
	boot[0] = 0x00 // NOP
	if err := m.LoadBIOS(boot); err != nil {
		t.Fatalf("LoadBIOS: %v", err)
	}
	if m.CPU().PC != 0x0000 {
		t.Fatalf("PC after LoadBIOS = %04X, want 0000", m.CPU().PC)
	}
	m.Step()
	if m.CPU().PC != 0x0001 {
		t.Fatalf("PC after stepping boot NOP = %04X, want 0001", m.CPU().PC)
	}
}

func TestMachine_StepUntilNextFrameProducesFullFramebuffer(t *testing.T) {
	m := New()
	if err := m.LoadROM(testROM()); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	m.StepUntilNextFrame()
	fb := m.Framebuffer()
	if len(fb) != ScreenWidth*ScreenHeight {
		t.Fatalf("framebuffer length = %d, want %d", len(fb), ScreenWidth*ScreenHeight)
	}
}

func TestMachine_SerialWriterReceivesBytes(t *testing.T) {
	m := New()
	if err := m.LoadROM(testROM()); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	var buf bytes.Buffer
	m.SetSerialWriter(&buf)
	m.MMU().Write(0xFF01, 'X')
	m.MMU().Write(0xFF02, 0x81)
	if buf.String() != "X" {
		t.Fatalf("serial sink got %q, want %q", buf.String(), "X")
	}
}

func TestMachine_StepUntilNextAudioBufferReturnsMatchedChannels(t *testing.T) {
	m := New()
	if err := m.LoadROM(testROM()); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	left, right := m.StepUntilNextAudioBuffer()
	if len(left) == 0 || len(left) != len(right) {
		t.Fatalf("expected matched non-empty channels, got %d/%d", len(left), len(right))
	}
}
