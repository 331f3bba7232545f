package apu

import "testing"

func TestAPU_NR52PowerBitReflectsEnableWrite(t *testing.T) {
	a := New(48000)
	a.CPUWrite(0xFF26, 0x00) // power off
	if v := a.CPURead(0xFF26) & 0x80; v != 0 {
		t.Fatalf("NR52 power bit got %02x want cleared", v)
	}
	a.CPUWrite(0xFF26, 0x80) // power on
	if v := a.CPURead(0xFF26) & 0x80; v == 0 {
		t.Fatalf("NR52 power bit should be set after re-enabling")
	}
}

func TestAPU_WaveRAMReadback(t *testing.T) {
	a := New(48000)
	a.CPUWrite(0xFF30, 0xAB)
	if got := a.CPURead(0xFF30); got != 0xAB {
		t.Fatalf("wave RAM byte 0 got %02x want AB", got)
	}
}

func TestAPU_StepProducesStereoFrames(t *testing.T) {
	a := New(48000)
	a.CPUWrite(0xFF12, 0xF0) // CH1 envelope, DAC on
	a.CPUWrite(0xFF14, 0x80) // trigger CH1
	a.Step(cpuHz / 100)      // ~10ms of CPU cycles
	if a.StereoAvailable() == 0 {
		t.Fatalf("expected some buffered stereo frames after stepping")
	}
}

func TestAPU_SaveStateRoundTrip(t *testing.T) {
	a := New(48000)
	a.CPUWrite(0xFF24, 0x77)
	a.CPUWrite(0xFF25, 0xF3)
	data := a.SaveState()

	b := New(48000)
	b.LoadState(data)
	if b.CPURead(0xFF24) != 0x77 || b.CPURead(0xFF25) != 0xF3 {
		t.Fatalf("mixer registers not restored: NR50=%02x NR51=%02x", b.CPURead(0xFF24), b.CPURead(0xFF25))
	}
}
