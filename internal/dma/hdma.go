package dma

import (
	"bytes"
	"encoding/gob"
)

// VRAMWriter receives HDMA bytes, destined for VRAM at the CGB's currently
// selected bank.
type VRAMWriter interface {
	WriteVRAMByte(addr uint16, v byte)
}

// Mode selects general-purpose (immediate) vs HBlank-paced HDMA transfer.
type Mode int

const (
	GeneralPurpose Mode = iota
	HBlankPaced
)

// HDMA models the CGB FF51-FF55 VRAM DMA controller. Inert (Active always
// false) unless explicitly driven in CGB mode by the orchestrator.
type HDMA struct {
	srcHi, srcLo byte // FF51/FF52
	dstHi, dstLo byte // FF53/FF54

	Active      bool
	mode        Mode
	lengthBytes int
	src, dst    uint16
	copied      int
}

func NewHDMA() *HDMA { return &HDMA{} }

func (h *HDMA) WriteSrcHigh(v byte) { h.srcHi = v }
func (h *HDMA) WriteSrcLow(v byte)  { h.srcLo = v & 0xF0 }
func (h *HDMA) WriteDstHigh(v byte) { h.dstHi = v & 0x1F }
func (h *HDMA) WriteDstLow(v byte)  { h.dstLo = v & 0xF0 }

// WriteControl (FF55) starts a transfer: bits 0-6 encode (length/16)-1,
// bit 7 selects HBlank-paced (1) vs general-purpose (0).
func (h *HDMA) WriteControl(v byte) {
	if h.Active && v&0x80 == 0 {
		h.Active = false
		return
	}
	h.src = uint16(h.srcHi)<<8 | uint16(h.srcLo)
	h.dst = 0x8000 | uint16(h.dstHi)<<8 | uint16(h.dstLo)
	h.lengthBytes = (int(v&0x7F) + 1) * 16
	h.copied = 0
	if v&0x80 != 0 {
		h.mode = HBlankPaced
		h.Active = true
	} else {
		h.mode = GeneralPurpose
		h.Active = true
	}
}

// ReadControl reports remaining length and active/inactive state.
func (h *HDMA) ReadControl() byte {
	if !h.Active {
		return 0xFF
	}
	remaining := (h.lengthBytes - h.copied) / 16
	return byte(remaining - 1)
}

// RunGeneralPurpose copies the whole remaining block immediately; call only
// when mode == GeneralPurpose.
func (h *HDMA) RunGeneralPurpose(mem Reader, vram VRAMWriter) {
	if !h.Active || h.mode != GeneralPurpose {
		return
	}
	for h.copied < h.lengthBytes {
		vram.WriteVRAMByte(h.dst, mem.Read(h.src))
		h.src++
		h.dst++
		h.copied++
	}
	h.Active = false
}

// RunHBlankChunk copies one 16-byte chunk; call once per HBlank entry when
// mode == HBlankPaced.
func (h *HDMA) RunHBlankChunk(mem Reader, vram VRAMWriter) {
	if !h.Active || h.mode != HBlankPaced {
		return
	}
	for i := 0; i < 16 && h.copied < h.lengthBytes; i++ {
		vram.WriteVRAMByte(h.dst, mem.Read(h.src))
		h.src++
		h.dst++
		h.copied++
	}
	if h.copied >= h.lengthBytes {
		h.Active = false
	}
}

type hdmaState struct {
	SrcHi, SrcLo, DstHi, DstLo byte
	Active                     bool
	Mode                       Mode
	LengthBytes                int
	Src, Dst                   uint16
	Copied                     int
}

func (h *HDMA) SaveState() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(hdmaState{
		SrcHi: h.srcHi, SrcLo: h.srcLo, DstHi: h.dstHi, DstLo: h.dstLo,
		Active: h.Active, Mode: h.mode, LengthBytes: h.lengthBytes,
		Src: h.src, Dst: h.dst, Copied: h.copied,
	})
	return buf.Bytes()
}

func (h *HDMA) LoadState(data []byte) {
	var s hdmaState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	h.srcHi, h.srcLo, h.dstHi, h.dstLo = s.SrcHi, s.SrcLo, s.DstHi, s.DstLo
	h.Active, h.mode, h.lengthBytes = s.Active, s.Mode, s.LengthBytes
	h.src, h.dst, h.copied = s.Src, s.Dst, s.Copied
}
