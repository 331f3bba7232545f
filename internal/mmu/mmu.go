// Package mmu arbitrates the CPU-visible 16-bit address space, fanning reads
// and writes out to the cartridge, GPU, timer, DMA engines, interrupt
// controller, APU, joypad, and serial port it wires together.
package mmu

import (
	"bytes"
	"encoding/gob"
	"io"

	"github.com/tanagra-dev/pocketcore/internal/apu"
	"github.com/tanagra-dev/pocketcore/internal/cart"
	"github.com/tanagra-dev/pocketcore/internal/dma"
	"github.com/tanagra-dev/pocketcore/internal/gpu"
	"github.com/tanagra-dev/pocketcore/internal/irq"
	"github.com/tanagra-dev/pocketcore/internal/timer"
)

// Joypad button bitmasks for SetJoypadState. Bits set mean "pressed".
const (
	JoypRight     = 1 << 0
	JoypLeft      = 1 << 1
	JoypUp        = 1 << 2
	JoypDown      = 1 << 3
	JoypA         = 1 << 4
	JoypB         = 1 << 5
	JoypSelectBtn = 1 << 6
	JoypStart     = 1 << 7
)

// MMU wires CPU-visible address space to cartridge, WRAM, HRAM, and the
// subsystem packages. Satisfies internal/cpu's Bus interface.
type MMU struct {
	cart  cart.Cartridge
	gpu   *gpu.GPU
	apu   *apu.APU
	timer *timer.Timer
	oam   *dma.Engine
	hdma  *dma.HDMA
	irq   irq.Controller

	// Work RAM (WRAM) 8 KiB at 0xC000-0xDFFF; Echo 0xE000-0xFDFF mirrors
	// 0xC000-0xDDFF.
	wram [0x2000]byte

	// High RAM (HRAM) 0xFF80-0xFFFE (127 bytes).
	hram [0x7F]byte

	joypSelect byte
	joypad     byte
	joypLower4 byte

	sb byte      // FF01 data
	sc byte      // FF02 control (bit7 start, bit0 clock source; completes immediately)
	sw io.Writer // optional sink for serial output, e.g. blargg-style PASS/FAIL dumps

	bootROM     []byte
	bootEnabled bool

	cgb         bool
	key1Armed   bool
	doubleSpeed bool
}

// New constructs an MMU around the given cartridge. cgb selects whether the
// GPU's CGB palette/tile-attribute extensions and the HDMA controller are
// active; when false they stay present but inert.
func New(c cart.Cartridge, cgb bool) *MMU {
	m := &MMU{
		cart: c,
		oam:  dma.New(),
		hdma: dma.NewHDMA(),
		apu:  apu.New(48000),
		cgb:  cgb,
	}
	m.gpu = gpu.New(func(bit int) { m.irq.Request(bit) })
	m.gpu.SetCGBMode(cgb)
	m.timer = timer.New(func() { m.irq.Request(irq.Timer) })
	return m
}

// GPU, APU, Cart expose the wired subsystems for the orchestrator and for
// host-side rendering/audio adapters.
func (m *MMU) GPU() *gpu.GPU        { return m.gpu }
func (m *MMU) APU() *apu.APU        { return m.apu }
func (m *MMU) Cart() cart.Cartridge { return m.cart }

// IRQ returns the interrupt controller, satisfying internal/cpu's Bus
// interface.
func (m *MMU) IRQ() *irq.Controller { return &m.irq }

// SetSerialWriter sets a sink that receives bytes written via the serial
// port; SC's start bit is serviced immediately (no cable emulation).
func (m *MMU) SetSerialWriter(w io.Writer) { m.sw = w }

// SetBootROM loads a boot ROM to be mapped at 0x0000-0x00FF until disabled
// by a non-zero write to FF50.
func (m *MMU) SetBootROM(data []byte) {
	m.bootROM = nil
	m.bootEnabled = false
	if len(data) >= 0x100 {
		m.bootROM = make([]byte, 0x100)
		copy(m.bootROM, data[:0x100])
		m.bootEnabled = true
	}
}

// DisableBootROM forces the boot-ROM overlay off, for callers that skip
// straight to cartridge execution.
func (m *MMU) DisableBootROM() { m.bootEnabled = false }

// SetJoypadState sets which buttons are currently pressed (Joyp* mask).
func (m *MMU) SetJoypadState(mask byte) {
	m.joypad = mask
	m.updateJoypadIRQ()
}

// Tick advances the timer and GPU by the given number of CPU cycles; the
// orchestrator calls this once per instruction alongside the APU's own Step.
// OAM DMA is not ticked here (it completes on the FF46 write itself);
// HBlank-paced HDMA chunks are pumped on HBlank entry.
func (m *MMU) Tick(cycles int) {
	prevMode := m.gpu.Mode()
	m.timer.Tick(cycles)
	m.gpu.Tick(cycles)
	if m.cgb && m.hdma.Active {
		if mode := m.gpu.Mode(); mode == 0 && prevMode != 0 {
			m.hdma.RunHBlankChunk(m, m.gpu)
		}
	}
}

func (m *MMU) Read(addr uint16) byte {
	switch {
	case addr < 0x8000:
		if m.bootEnabled && addr < 0x0100 {
			return m.bootROM[addr]
		}
		return m.cart.Read(addr)
	case addr >= 0x8000 && addr <= 0x9FFF:
		return m.gpu.CPURead(addr)
	case addr >= 0xA000 && addr <= 0xBFFF:
		return m.cart.Read(addr)
	case addr >= 0xC000 && addr <= 0xDFFF:
		return m.wram[addr-0xC000]
	case addr >= 0xE000 && addr <= 0xFDFF:
		return m.wram[addr-0x2000-0xC000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		return m.gpu.CPURead(addr)
	case addr >= 0xFEA0 && addr <= 0xFEFF:
		return 0xFF
	case addr == 0xFF00:
		return m.readJoyp()
	case addr == 0xFF01:
		return m.sb
	case addr == 0xFF02:
		return 0x7E | (m.sc & 0x81)
	case addr == 0xFF04:
		return m.timer.ReadDIV()
	case addr == 0xFF05:
		return m.timer.ReadTIMA()
	case addr == 0xFF06:
		return m.timer.ReadTMA()
	case addr == 0xFF07:
		return m.timer.ReadTAC()
	case addr == 0xFF0F:
		return m.irq.ReadIF()
	case addr >= 0xFF10 && addr <= 0xFF3F:
		return m.apu.CPURead(addr)
	case addr == 0xFF46:
		return m.oam.LastTrigger()
	case addr >= 0xFF40 && addr <= 0xFF4B:
		return m.gpu.CPURead(addr)
	case addr == 0xFF4D:
		return m.readKEY1()
	case addr == 0xFF4F:
		return m.gpu.CPURead(addr)
	case addr == 0xFF50:
		return 0xFF
	case addr == 0xFF51, addr == 0xFF52, addr == 0xFF53, addr == 0xFF54:
		return 0xFF
	case addr == 0xFF55:
		return m.hdma.ReadControl()
	case addr == 0xFF68, addr == 0xFF69, addr == 0xFF6A, addr == 0xFF6B:
		return m.gpu.CPURead(addr)
	case addr >= 0xFF80 && addr <= 0xFFFE:
		return m.hram[addr-0xFF80]
	case addr == 0xFFFF:
		return m.irq.ReadIE()
	default:
		return 0xFF
	}
}

func (m *MMU) Write(addr uint16, value byte) {
	switch {
	case addr < 0x8000:
		m.cart.Write(addr, value)
	case addr >= 0x8000 && addr <= 0x9FFF:
		m.gpu.CPUWrite(addr, value)
	case addr >= 0xA000 && addr <= 0xBFFF:
		m.cart.Write(addr, value)
	case addr >= 0xC000 && addr <= 0xDFFF:
		m.wram[addr-0xC000] = value
	case addr >= 0xE000 && addr <= 0xFDFF:
		m.wram[addr-0x2000-0xC000] = value
	case addr >= 0xFE00 && addr <= 0xFE9F:
		m.gpu.CPUWrite(addr, value)
	case addr >= 0xFEA0 && addr <= 0xFEFF:
		// unusable region, writes ignored
	case addr == 0xFF00:
		m.joypSelect = value & 0x30
		m.updateJoypadIRQ()
	case addr == 0xFF01:
		m.sb = value
	case addr == 0xFF02:
		m.sc = value & 0x81
		if m.sc&0x80 != 0 {
			if m.sw != nil {
				_, _ = m.sw.Write([]byte{m.sb})
			}
			m.irq.Request(irq.Serial)
			m.sc &^= 0x80
		}
	case addr == 0xFF04:
		m.timer.WriteDIV(value)
	case addr == 0xFF05:
		m.timer.WriteTIMA(value)
	case addr == 0xFF06:
		m.timer.WriteTMA(value)
	case addr == 0xFF07:
		m.timer.WriteTAC(value)
	case addr == 0xFF0F:
		m.irq.WriteIF(value)
	case addr >= 0xFF10 && addr <= 0xFF3F:
		m.apu.CPUWrite(addr, value)
	case addr == 0xFF46:
		m.oam.Trigger(value, m, m.gpu)
	case addr >= 0xFF40 && addr <= 0xFF4B:
		m.gpu.CPUWrite(addr, value)
	case addr == 0xFF4D:
		m.writeKEY1(value)
	case addr == 0xFF4F:
		m.gpu.CPUWrite(addr, value)
	case addr == 0xFF50:
		if value != 0x00 {
			m.bootEnabled = false
		}
	case addr == 0xFF51:
		if m.cgb {
			m.hdma.WriteSrcHigh(value)
		}
	case addr == 0xFF52:
		if m.cgb {
			m.hdma.WriteSrcLow(value)
		}
	case addr == 0xFF53:
		if m.cgb {
			m.hdma.WriteDstHigh(value)
		}
	case addr == 0xFF54:
		if m.cgb {
			m.hdma.WriteDstLow(value)
		}
	case addr == 0xFF55:
		if m.cgb {
			m.hdma.WriteControl(value)
			m.hdma.RunGeneralPurpose(m, m.gpu)
		}
	case addr == 0xFF68, addr == 0xFF69, addr == 0xFF6A, addr == 0xFF6B:
		m.gpu.CPUWrite(addr, value)
	case addr >= 0xFF80 && addr <= 0xFFFE:
		m.hram[addr-0xFF80] = value
	case addr == 0xFFFF:
		m.irq.WriteIE(value)
	}
}

func (m *MMU) readJoyp() byte {
	res := byte(0xC0 | (m.joypSelect & 0x30) | 0x0F)
	if m.joypSelect&0x10 == 0 {
		if m.joypad&JoypRight != 0 {
			res &^= 0x01
		}
		if m.joypad&JoypLeft != 0 {
			res &^= 0x02
		}
		if m.joypad&JoypUp != 0 {
			res &^= 0x04
		}
		if m.joypad&JoypDown != 0 {
			res &^= 0x08
		}
	}
	if m.joypSelect&0x20 == 0 {
		if m.joypad&JoypA != 0 {
			res &^= 0x01
		}
		if m.joypad&JoypB != 0 {
			res &^= 0x02
		}
		if m.joypad&JoypSelectBtn != 0 {
			res &^= 0x04
		}
		if m.joypad&JoypStart != 0 {
			res &^= 0x08
		}
	}
	return res
}

// updateJoypadIRQ recomputes JOYP's lower 4 bits (active-low) and raises IF
// bit 4 on any 1->0 transition, matching real hardware's edge-triggered
// joypad interrupt.
func (m *MMU) updateJoypadIRQ() {
	newLower := byte(0x0F)
	if m.joypSelect&0x10 == 0 {
		if m.joypad&JoypRight != 0 {
			newLower &^= 0x01
		}
		if m.joypad&JoypLeft != 0 {
			newLower &^= 0x02
		}
		if m.joypad&JoypUp != 0 {
			newLower &^= 0x04
		}
		if m.joypad&JoypDown != 0 {
			newLower &^= 0x08
		}
	}
	if m.joypSelect&0x20 == 0 {
		if m.joypad&JoypA != 0 {
			newLower &^= 0x01
		}
		if m.joypad&JoypB != 0 {
			newLower &^= 0x02
		}
		if m.joypad&JoypSelectBtn != 0 {
			newLower &^= 0x04
		}
		if m.joypad&JoypStart != 0 {
			newLower &^= 0x08
		}
	}
	falling := m.joypLower4 &^ newLower
	if falling != 0 {
		m.irq.Request(irq.Joypad)
	}
	m.joypLower4 = newLower
}

// readKEY1/writeKEY1 implement FF4D: bit7 reports the current speed, bit0
// is the armed-for-switch flag a STOP instruction consults and clears.
func (m *MMU) readKEY1() byte {
	res := byte(0x7E)
	if m.doubleSpeed {
		res |= 0x80
	}
	if m.key1Armed {
		res |= 0x01
	}
	return res
}

func (m *MMU) writeKEY1(value byte) {
	if !m.cgb {
		return
	}
	m.key1Armed = value&0x01 != 0
}

// SpeedSwitchArmed reports whether FF4D's armed bit is set, for the
// orchestrator to consult when the CPU executes STOP.
func (m *MMU) SpeedSwitchArmed() bool { return m.key1Armed }

// DoubleSpeed reports the current CPU clock multiplier selection.
func (m *MMU) DoubleSpeed() bool { return m.doubleSpeed }

// CommitSpeedSwitch toggles the double-speed flag and disarms FF4D; called
// by the orchestrator once per armed STOP instruction.
func (m *MMU) CommitSpeedSwitch() {
	m.doubleSpeed = !m.doubleSpeed
	m.key1Armed = false
}

type mmuState struct {
	WRAM        [0x2000]byte
	HRAM        [0x7F]byte
	JoypSel     byte
	Joypad      byte
	JoypL4      byte
	SB, SC      byte
	BootEnabled bool
	CGB         bool
	Key1Armed   bool
	DoubleSpeed bool
}

// SaveState serializes WRAM/HRAM/joypad/serial/boot-overlay state plus every
// wired sub-component's own SaveState, in a fixed order LoadState expects.
func (m *MMU) SaveState() []byte {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	_ = enc.Encode(mmuState{
		WRAM: m.wram, HRAM: m.hram,
		JoypSel: m.joypSelect, Joypad: m.joypad, JoypL4: m.joypLower4,
		SB: m.sb, SC: m.sc, BootEnabled: m.bootEnabled,
		CGB: m.cgb, Key1Armed: m.key1Armed, DoubleSpeed: m.doubleSpeed,
	})
	_ = enc.Encode(m.irq)
	_ = enc.Encode(m.timer.SaveState())
	_ = enc.Encode(m.oam.SaveState())
	_ = enc.Encode(m.hdma.SaveState())
	_ = enc.Encode(m.gpu.SaveState())
	_ = enc.Encode(m.apu.SaveState())
	if cs, ok := m.cart.(interface{ SaveState() []byte }); ok {
		_ = enc.Encode(cs.SaveState())
	} else {
		_ = enc.Encode([]byte(nil))
	}
	return buf.Bytes()
}

func (m *MMU) LoadState(data []byte) {
	dec := gob.NewDecoder(bytes.NewReader(data))
	var s mmuState
	if err := dec.Decode(&s); err != nil {
		return
	}
	m.wram, m.hram = s.WRAM, s.HRAM
	m.joypSelect, m.joypad, m.joypLower4 = s.JoypSel, s.Joypad, s.JoypL4
	m.sb, m.sc, m.bootEnabled = s.SB, s.SC, s.BootEnabled
	m.cgb, m.key1Armed, m.doubleSpeed = s.CGB, s.Key1Armed, s.DoubleSpeed

	var ic irq.Controller
	if err := dec.Decode(&ic); err == nil {
		m.irq = ic
	}
	var b []byte
	if err := dec.Decode(&b); err == nil {
		m.timer.LoadState(b)
	}
	if err := dec.Decode(&b); err == nil {
		m.oam.LoadState(b)
	}
	if err := dec.Decode(&b); err == nil {
		m.hdma.LoadState(b)
	}
	if err := dec.Decode(&b); err == nil {
		m.gpu.LoadState(b)
	}
	if err := dec.Decode(&b); err == nil {
		m.apu.LoadState(b)
	}
	if err := dec.Decode(&b); err == nil {
		if cs, ok := m.cart.(interface{ LoadState([]byte) }); ok {
			cs.LoadState(b)
		}
	}
}
