package cart

// ROMOnly implements every unbanked cartridge shape: plain ROM (type 0x00)
// and the ROM+RAM / ROM+RAM+BATTERY variants (0x08/0x09), whose external RAM
// has no bank-select register and no enable gate the way the MBCs' does —
// it's just a flat window at 0xA000-0xBFFF sized off the header.
type ROMOnly struct {
	rom     []byte
	ram     []byte
	battery bool
}

func NewROMOnly(rom []byte, h *Header) *ROMOnly {
	c := &ROMOnly{rom: rom}
	if h != nil && h.HasRAM() && h.RAMSizeBytes > 0 {
		c.ram = make([]byte, h.RAMSizeBytes)
		c.battery = h.CartType == 0x09
	}
	return c
}

func (c *ROMOnly) Read(addr uint16) byte {
	switch {
	case addr < 0x8000:
		if int(addr) < len(c.rom) {
			return c.rom[addr]
		}
		return 0xFF
	case addr >= 0xA000 && addr <= 0xBFFF:
		if len(c.ram) == 0 {
			return 0xFF
		}
		return c.ram[int(addr-0xA000)%len(c.ram)]
	default:
		return 0xFF
	}
}

func (c *ROMOnly) Write(addr uint16, value byte) {
	if addr >= 0xA000 && addr <= 0xBFFF && len(c.ram) > 0 {
		c.ram[int(addr-0xA000)%len(c.ram)] = value
	}
	// 0x0000-0x7FFF writes are ignored: no bank-select registers exist here.
}

// SaveState round-trips external RAM contents; there are no banking
// registers to persist since this cartridge shape has none.
func (c *ROMOnly) SaveState() []byte {
	if len(c.ram) == 0 {
		return nil
	}
	out := make([]byte, len(c.ram))
	copy(out, c.ram)
	return out
}

func (c *ROMOnly) LoadState(data []byte) {
	if len(c.ram) == 0 || len(data) == 0 {
		return
	}
	copy(c.ram, data)
}

// SaveRAM/LoadRAM implement BatteryBacked by copying external RAM out and in.
// They are no-ops for 0x00, which has no RAM; for 0x08 they copy the RAM just
// as for 0x09, since the battery flag is not consulted.
func (c *ROMOnly) SaveRAM() []byte     { return c.SaveState() }
func (c *ROMOnly) LoadRAM(data []byte) { c.LoadState(data) }
