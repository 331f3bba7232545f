// Package machine orchestrates the CPU, MMU, and APU into a runnable Game
// Boy: loading a cartridge (and optional boot ROM), stepping one instruction
// or a full frame at a time, and exposing the framebuffer/audio/joypad
// surfaces a host presentation layer needs.
package machine

import (
	"errors"
	"io"

	"github.com/tanagra-dev/pocketcore/internal/cart"
	"github.com/tanagra-dev/pocketcore/internal/cpu"
	"github.com/tanagra-dev/pocketcore/internal/mmu"
)

// ErrNoCartridge is returned by operations that require a cartridge to
// already be loaded via LoadROM.
var ErrNoCartridge = errors.New("machine: no cartridge loaded")

// Screen dimensions of the DMG/CGB LCD.
const (
	ScreenWidth  = 160
	ScreenHeight = 144
)

// cyclesPerFrame is the DMG dot count per frame (154 scanlines * 456 dots),
// expressed in the same CPU-cycle units internal/gpu's Tick consumes.
const cyclesPerFrame = 70224

// audioFrameRate is the stereo sample rate internal/apu is constructed with;
// kept in step with apu.New's default so StepUntilNextAudioBuffer's target
// buffer size lines up with one video frame's worth of audio.
const audioFrameRate = 48000

// targetAudioFrames is roughly one 59.7Hz video frame's worth of stereo
// samples at audioFrameRate.
const targetAudioFrames = audioFrameRate / 60

// Mode selects DMG or CGB behavior. CGB unlocks the GPU's second VRAM bank,
// BG/OBJ palette RAM, the HDMA controller, and the double-speed switch; in
// DMG mode all of those stay inert.
type Mode int

const (
	DMG Mode = iota
	CGB
)

// SpeedSwitch mirrors FF4D (KEY1): Armed is set by a CGB game writing bit0
// before executing STOP; DoubleSpeed reflects the currently active clock
// multiplier. Always zero-valued in DMG mode.
type SpeedSwitch struct {
	Armed       bool
	DoubleSpeed bool
}

// Machine wires a CPU and MMU together and drives them forward in lockstep.
type Machine struct {
	Mode        Mode
	SpeedSwitch SpeedSwitch

	mmu  *mmu.MMU
	cpu  *cpu.CPU
	cart cart.Cartridge

	frameCycles int
}

// New constructs an unloaded Machine; call LoadROM before Step.
func New() *Machine {
	return &Machine{}
}

// LoadROM parses the cartridge header, constructs the matching MBC, and
// wires a fresh CPU/MMU pair around it. The cartridge's CGB-support flag
// selects Mode. Commercial mapper types beyond the base spec (MBC3/MBC5)
// are accepted here since a general-purpose machine is exactly the caller
// SPEC_FULL carves out as allowed to opt into them.
func (m *Machine) LoadROM(rom []byte) error {
	h, err := cart.ParseHeader(rom)
	if err != nil {
		return err
	}
	c, err := cart.NewWithOptions(rom, cart.Options{AllowExtendedMappers: true})
	if err != nil {
		return err
	}
	m.cart = c
	if h.CGBFlag == 0x80 || h.CGBFlag == 0xC0 {
		m.Mode = CGB
	} else {
		m.Mode = DMG
	}
	m.mmu = mmu.New(c, m.Mode == CGB)
	m.cpu = cpu.New(m.mmu)
	m.cpu.ResetNoBoot()
	m.applyPostBootIODefaults()
	m.frameCycles = 0
	m.SpeedSwitch = SpeedSwitch{}
	return nil
}

// LoadBIOS loads a boot ROM over the cartridge's first 256 bytes and resets
// the CPU to the boot entry point (PC=0x0000), overriding LoadROM's
// post-boot register defaults until the boot ROM itself hands off control.
func (m *Machine) LoadBIOS(bios []byte) error {
	if m.mmu == nil {
		return ErrNoCartridge
	}
	m.mmu.SetBootROM(bios)
	m.cpu.SetSP(0xFFFE)
	m.cpu.SetPC(0x0000)
	m.cpu.IME = false
	return nil
}

// SkipBIOS disables any loaded boot ROM overlay and resets the CPU straight
// to the documented DMG post-boot register state.
func (m *Machine) SkipBIOS() {
	m.mmu.DisableBootROM()
	m.cpu.ResetNoBoot()
	m.applyPostBootIODefaults()
}

// applyPostBootIODefaults mirrors the real boot ROM's final register writes,
// matching the defaults the teacher's cpurunner pokes in by hand when
// skipping the boot ROM.
func (m *Machine) applyPostBootIODefaults() {
	m.mmu.Write(0xFF00, 0xCF)
	m.mmu.Write(0xFF05, 0x00)
	m.mmu.Write(0xFF06, 0x00)
	m.mmu.Write(0xFF07, 0x00)
	m.mmu.Write(0xFF40, 0x91)
	m.mmu.Write(0xFF42, 0x00)
	m.mmu.Write(0xFF43, 0x00)
	m.mmu.Write(0xFF45, 0x00)
	m.mmu.Write(0xFF47, 0xFC)
	m.mmu.Write(0xFF48, 0xFF)
	m.mmu.Write(0xFF49, 0xFF)
	m.mmu.Write(0xFF4A, 0x00)
	m.mmu.Write(0xFF4B, 0x00)
	m.mmu.Write(0xFFFF, 0x00)
}

// SetSerialWriter attaches a sink for bytes written to the serial port,
// e.g. to capture blargg-style test ROM PASS/FAIL output.
func (m *Machine) SetSerialWriter(w io.Writer) { m.mmu.SetSerialWriter(w) }

// SetJoypadState sets which buttons are currently pressed, using the
// mmu.Joyp* bitmask constants.
func (m *Machine) SetJoypadState(mask byte) { m.mmu.SetJoypadState(mask) }

// Framebuffer returns the packed 0xRRGGBB pixel buffer, row-major,
// ScreenWidth x ScreenHeight.
func (m *Machine) Framebuffer() []uint32 { return m.mmu.GPU().Framebuffer() }

// CPU exposes the CPU for diagnostics/tracing callers (trace dumps, test
// harnesses); not part of the steady-state run loop.
func (m *Machine) CPU() *cpu.CPU { return m.cpu }

// MMU exposes the MMU for diagnostics and for internal/present's audio/video
// adapters.
func (m *Machine) MMU() *mmu.MMU { return m.mmu }

// Step executes exactly one CPU instruction (servicing a pending interrupt
// first if one is latched), then fans its cycle cost out to the timer, DMA,
// GPU, and APU in that order, matching spec.md's control-flow description
// and original_source/src/emulator.rs's sync function. In double-speed CGB
// mode the CPU consumes cycles twice as fast as real time but the other
// subsystems still tick at the normal rate, so their cycle cost is halved;
// sub-instruction accuracy of that halving is explicitly out of scope (see
// SPEC_FULL §8).
func (m *Machine) Step() int {
	cyc := m.cpu.Step()
	if m.cpu.AtEndOfBIOS() {
		m.mmu.DisableBootROM()
	}
	tickCycles := cyc
	if m.SpeedSwitch.DoubleSpeed {
		tickCycles = cyc / 2
	}
	m.mmu.Tick(tickCycles)
	m.mmu.APU().Step(tickCycles)
	m.maybeCommitSpeedSwitch()
	m.frameCycles += tickCycles
	return cyc
}

// maybeCommitSpeedSwitch checks whether the CPU just executed a STOP while
// FF4D's armed bit was set, and if so flips the active clock speed. STOP's
// halt-with-no-wake-source behavior is otherwise unmodeled (see
// internal/cpu's documented HALT/STOP simplifications).
func (m *Machine) maybeCommitSpeedSwitch() {
	stopped := m.cpu.JustExecutedStop()
	if m.Mode != CGB || !m.mmu.SpeedSwitchArmed() || !stopped {
		return
	}
	m.mmu.CommitSpeedSwitch()
	m.SpeedSwitch.DoubleSpeed = m.mmu.DoubleSpeed()
	m.SpeedSwitch.Armed = false
}

// StepUntilNextFrame runs instructions until a full frame's worth of GPU
// dots has elapsed, leaving any overshoot cycles carried into the next
// frame's budget.
func (m *Machine) StepUntilNextFrame() {
	for m.frameCycles < cyclesPerFrame {
		m.Step()
	}
	m.frameCycles -= cyclesPerFrame
}

// StepUntilNextAudioBuffer runs instructions until roughly one video
// frame's worth of stereo audio is buffered, then drains and returns it as
// separate left/right channels normalized to [-1, 1].
func (m *Machine) StepUntilNextAudioBuffer() ([]float32, []float32) {
	a := m.mmu.APU()
	for a.StereoAvailable() < targetAudioFrames {
		m.Step()
	}
	interleaved := a.PullStereo(targetAudioFrames)
	n := len(interleaved) / 2
	left := make([]float32, n)
	right := make([]float32, n)
	for i := 0; i < n; i++ {
		left[i] = float32(interleaved[2*i]) / 32768
		right[i] = float32(interleaved[2*i+1]) / 32768
	}
	return left, right
}
