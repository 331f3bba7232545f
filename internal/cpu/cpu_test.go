package cpu

import (
	"testing"

	"github.com/tanagra-dev/pocketcore/internal/irq"
)

// fakeBus is a flat 64KiB address space plus an irq.Controller, just enough
// surface for exercising the opcode table without an internal/mmu import.
type fakeBus struct {
	mem [0x10000]byte
	ctl irq.Controller
}

func (f *fakeBus) Read(addr uint16) byte     { return f.mem[addr] }
func (f *fakeBus) Write(addr uint16, v byte) { f.mem[addr] = v }
func (f *fakeBus) IRQ() *irq.Controller      { return &f.ctl }

func newCPUWithROM(code []byte) *CPU {
	b := &fakeBus{}
	copy(b.mem[0:], code)
	return New(b)
}

func TestCPU_NopAndPC(t *testing.T) {
	c := newCPUWithROM([]byte{0x00}) // NOP
	if cycles := c.Step(); cycles != 4 {
		t.Fatalf("NOP cycles got %d want 4", cycles)
	}
	if c.PC != 1 {
		t.Fatalf("PC after NOP got %#04x want 0x0001", c.PC)
	}
}

func TestCPU_LD_A_d8_And_XOR_A(t *testing.T) {
	c := newCPUWithROM([]byte{0x3E, 0x12, 0xAF}) // LD A,0x12; XOR A
	c.Step()
	if c.A != 0x12 {
		t.Fatalf("A after LD got %02x want 12", c.A)
	}
	c.Step()
	if c.A != 0x00 {
		t.Fatalf("A after XOR got %02x want 00", c.A)
	}
	if (c.F & 0x80) == 0 {
		t.Fatalf("Z flag not set after XOR A")
	}
}

func TestCPU_LD_a16_A_and_LD_A_a16(t *testing.T) {
	prog := []byte{0x3E, 0x77, 0xEA, 0x00, 0xC0, 0x3E, 0x00, 0xFA, 0x00, 0xC0}
	c := newCPUWithROM(prog)
	c.Step() // LD A,77
	c.Step() // LD (C000),A
	if a := c.bus.Read(0xC000); a != 0x77 {
		t.Fatalf("mem at C000 got %02x want 77", a)
	}
	c.Step() // LD A,00
	c.Step() // LD A,(C000)
	if c.A != 0x77 {
		t.Fatalf("A after LD A,(C000) got %02x want 77", c.A)
	}
}

func TestCPU_JP_and_JR(t *testing.T) {
	b := &fakeBus{}
	b.mem[0x0000] = 0xC3
	b.mem[0x0001] = 0x10
	b.mem[0x0002] = 0x00
	b.mem[0x0010] = 0x18
	b.mem[0x0011] = 0xFE
	c := New(b)
	cycles := c.Step() // JP
	if cycles != 16 || c.PC != 0x0010 {
		t.Fatalf("JP cycles=%d PC=%#04x want cycles=16 PC=0x0010", cycles, c.PC)
	}
	pcBefore := c.PC
	c.Step() // JR -2
	if c.PC != pcBefore {
		t.Fatalf("JR -2 PC got %#04x want %#04x", c.PC, pcBefore)
	}
}

func TestCPU_INC_B_Flags(t *testing.T) {
	c := newCPUWithROM([]byte{0x04, 0x04}) // INC B twice
	c.B = 0x0F
	c.F = 0x10 // carry set initially
	c.Step()
	if c.B != 0x10 {
		t.Fatalf("INC B result got %02x want 10", c.B)
	}
	if (c.F & 0x20) == 0 {
		t.Fatalf("INC B should set H flag")
	}
	if (c.F & 0x10) == 0 {
		t.Fatalf("INC B should preserve C flag")
	}
	c.B = 0xFF
	c.Step()
	if c.B != 0x00 || (c.F&0x80) == 0 {
		t.Fatalf("INC B to 0 should set Z flag, B=%02x, F=%02x", c.B, c.F)
	}
}

func TestCPU_LD_16bit_and_LDH(t *testing.T) {
	prog := []byte{
		0x21, 0x00, 0xC0, // LD HL, C000
		0x36, 0x5A, // LD (HL), 5A
		0x3E, 0x00, // LD A, 00
		0xF0, 0x00, // LD A, (FF00+0)
		0xE0, 0x01, // LD (FF00+1), A
	}
	c := newCPUWithROM(prog)
	c.bus.Write(0xFF00, 0xA7)

	for i := 0; i < 5; i++ {
		c.Step()
	}
	if v := c.bus.Read(0xC000); v != 0x5A {
		t.Fatalf("mem C000 got %02x want 5A", v)
	}
	if v := c.bus.Read(0xFF01); v != c.A {
		t.Fatalf("LDH (FF00+1),A expected write to FF01 with A=%02x got %02x", c.A, v)
	}
}

func TestCPU_CALL_RET(t *testing.T) {
	b := &fakeBus{}
	b.mem[0x0000] = 0xCD
	b.mem[0x0001] = 0x05
	b.mem[0x0002] = 0x00
	b.mem[0x0005] = 0xC9 // RET
	c := New(b)
	c.Step() // CALL
	if c.PC != 0x0005 {
		t.Fatalf("PC after CALL got %04x want 0005", c.PC)
	}
	retCycles := c.Step()
	if c.PC != 0x0003 || retCycles != 16 {
		t.Fatalf("RET did not return to 0003; PC=%04x cyc=%d", c.PC, retCycles)
	}
}

func TestCPU_EIDelayedEnable(t *testing.T) {
	// EI; NOP; NOP -- IME should only become true after the NOP following EI.
	c := newCPUWithROM([]byte{0xFB, 0x00, 0x00})
	c.Step() // EI
	if c.IME {
		t.Fatalf("IME set immediately after EI, should be delayed")
	}
	c.Step() // NOP (delay consumed here)
	if !c.IME {
		t.Fatalf("IME should be enabled after the instruction following EI")
	}
}

func TestCPU_InterruptServicing(t *testing.T) {
	c := newCPUWithROM([]byte{0x00, 0x00, 0x00})
	c.IME = true
	c.bus.IRQ().Enabled = 0xFF
	c.bus.IRQ().Request(irq.VBlank)
	cycles := c.Step()
	if cycles != 20 {
		t.Fatalf("interrupt service cycles got %d want 20", cycles)
	}
	if c.PC != irq.Vector(irq.VBlank) {
		t.Fatalf("PC got %#04x want vblank vector %#04x", c.PC, irq.Vector(irq.VBlank))
	}
	if c.IME {
		t.Fatalf("IME should be cleared while servicing an interrupt")
	}
	if c.bus.IRQ().Pending() != 0 {
		t.Fatalf("IF should be acked after dispatch")
	}
}

func TestCPU_HaltWakesOnPendingInterruptEvenWithIMEOff(t *testing.T) {
	c := newCPUWithROM([]byte{0x76, 0x00}) // HALT; NOP
	c.Step()                               // HALT
	if !c.halted {
		t.Fatalf("expected halted after HALT opcode")
	}
	c.bus.IRQ().Enabled = 0xFF
	c.bus.IRQ().Request(irq.Timer)
	cycles := c.Step()
	if c.halted {
		t.Fatalf("should wake from HALT once a source is pending")
	}
	if cycles != 4 {
		t.Fatalf("post-wake cycles got %d want 4 (NOP executes, not serviced, IME off)", cycles)
	}
}

func TestCPU_AtEndOfBIOS(t *testing.T) {
	c := newCPUWithROM(nil)
	c.PC = 0x00FE
	if c.AtEndOfBIOS() {
		t.Fatalf("should not report end of BIOS before reaching 0x0100")
	}
	c.PC = 0x0100
	if !c.AtEndOfBIOS() {
		t.Fatalf("should report end of BIOS at 0x0100")
	}
}

func TestCPU_CB_BitResSet(t *testing.T) {
	c := newCPUWithROM([]byte{0xCB, 0x7F, 0xCB, 0xBF, 0xCB, 0xFF}) // BIT 7,A; RES 7,A; SET 7,A
	c.A = 0x80
	c.Step() // BIT 7,A -> Z should clear since bit is 1
	if (c.F & flagZ) != 0 {
		t.Fatalf("BIT 7,A on 0x80 should clear Z")
	}
	c.Step() // RES 7,A
	if c.A != 0x00 {
		t.Fatalf("RES 7,A got %02x want 00", c.A)
	}
	c.Step() // SET 7,A
	if c.A != 0x80 {
		t.Fatalf("SET 7,A got %02x want 80", c.A)
	}
}
