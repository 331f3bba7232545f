// Command gbview is the interactive front-end: load a ROM, optionally a
// boot ROM, and either watch it run in an ebiten window or render a fixed
// number of frames headlessly to a PNG/CRC32 for scripted screenshot tests.
package main

import (
	"crypto/crc32"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"strconv"

	"github.com/tanagra-dev/pocketcore/internal/cart"
	"github.com/tanagra-dev/pocketcore/internal/machine"
	"github.com/tanagra-dev/pocketcore/internal/present"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM (.gb/.gbc)")
	bootPath := flag.String("bootrom", "", "optional boot ROM")
	scale := flag.Int("scale", 3, "window scale factor")
	title := flag.String("title", "pocketcore", "window title")
	savePath := flag.String("save", "", "battery RAM save file path (loaded at start, written at exit, if the cartridge is battery-backed)")
	headless := flag.Bool("headless", false, "run without opening a window")
	frames := flag.Int("frames", 60, "frames to run in -headless mode before dumping output")
	outPNG := flag.String("outpng", "", "in -headless mode, write the final frame as a PNG here")
	expect := flag.String("expect", "", "in -headless mode, fail (exit 1) unless the final frame's CRC32 matches this hex value")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("-rom is required")
	}
	rom, err := os.ReadFile(*romPath)
	if err != nil {
		log.Fatalf("read rom: %v", err)
	}
	h, err := cart.ParseHeader(rom)
	if err != nil {
		log.Fatalf("parse header: %v", err)
	}
	log.Printf("loaded %q type=%s romBanks=%d ramBytes=%d cgb=%02X", h.Title, h.CartTypeStr, h.ROMBanks, h.RAMSizeBytes, h.CGBFlag)

	m := machine.New()
	if err := m.LoadROM(rom); err != nil {
		log.Fatalf("load rom: %v", err)
	}

	if *bootPath != "" {
		boot, err := os.ReadFile(*bootPath)
		if err != nil {
			log.Fatalf("read bootrom: %v", err)
		}
		if err := m.LoadBIOS(boot); err != nil {
			log.Fatalf("load bootrom: %v", err)
		}
	} else {
		m.SkipBIOS()
	}

	bb, battery := m.MMU().Cart().(cart.BatteryBacked)
	if battery && *savePath != "" {
		if data, err := os.ReadFile(*savePath); err == nil {
			bb.LoadRAM(data)
			log.Printf("loaded battery RAM from %s", *savePath)
		}
	}

	if *headless {
		runHeadless(m, *frames, *outPNG, *expect)
	} else {
		a := present.New(m, *scale, *title)
		if err := a.Run(); err != nil {
			log.Printf("run: %v", err)
		}
	}

	if battery && *savePath != "" {
		if err := os.WriteFile(*savePath, bb.SaveRAM(), 0o644); err != nil {
			log.Printf("write battery RAM: %v", err)
		} else {
			log.Printf("wrote battery RAM to %s", *savePath)
		}
	}
}

// runHeadless steps the machine frame-by-frame with no window, then emits
// a CRC32 of the final framebuffer (and optionally a PNG), exiting non-zero
// if -expect was given and doesn't match.
func runHeadless(m *machine.Machine, frames int, outPNG, expect string) {
	for i := 0; i < frames; i++ {
		m.StepUntilNextFrame()
	}

	fb := m.Framebuffer()
	img := image.NewRGBA(image.Rect(0, 0, machine.ScreenWidth, machine.ScreenHeight))
	for i, px := range fb {
		o := i * 4
		img.Pix[o+0] = byte(px >> 16)
		img.Pix[o+1] = byte(px >> 8)
		img.Pix[o+2] = byte(px)
		img.Pix[o+3] = 0xFF
	}

	sum := crc32.ChecksumIEEE(img.Pix)
	got := fmt.Sprintf("%08x", sum)
	fmt.Printf("frames=%d crc32=%s\n", frames, got)

	if outPNG != "" {
		f, err := os.Create(outPNG)
		if err != nil {
			log.Fatalf("create outpng: %v", err)
		}
		defer f.Close()
		if err := png.Encode(f, img); err != nil {
			log.Fatalf("encode png: %v", err)
		}
	}

	if expect != "" {
		if _, err := strconv.ParseUint(expect, 16, 32); err != nil {
			log.Fatalf("-expect is not valid hex: %v", err)
		}
		if got != expect {
			fmt.Printf("CRC mismatch: got %s, want %s\n", got, expect)
			os.Exit(1)
		}
	}
}
