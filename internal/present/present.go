// Package present adapts internal/machine's framebuffer/audio/joypad
// surfaces to an on-screen ebiten window and speaker output. It is the one
// place in this module that imports github.com/hajimehoshi/ebiten/v2; the
// core packages stay free of any rendering or audio-driver dependency.
package present

import (
	"encoding/binary"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/tanagra-dev/pocketcore/internal/machine"
	"github.com/tanagra-dev/pocketcore/internal/mmu"
)

const audioSampleRate = 48000

// Adapter implements ebiten.Game around a machine.Machine: each Update steps
// the machine one video frame and samples the keyboard into the joypad
// register; each Draw blits the core framebuffer into an ebiten.Image.
type Adapter struct {
	m     *machine.Machine
	scale int
	title string

	tex *ebiten.Image
	rgb []byte // scratch RGBA conversion buffer, reused across frames

	audioCtx    *audio.Context
	audioPlayer *audio.Player

	paused bool
}

// New constructs a windowed adapter around m. scale multiplies the native
// 160x144 resolution for the window size; title sets the window title.
func New(m *machine.Machine, scale int, title string) *Adapter {
	if scale <= 0 {
		scale = 1
	}
	a := &Adapter{
		m:     m,
		scale: scale,
		title: title,
		tex:   ebiten.NewImage(machine.ScreenWidth, machine.ScreenHeight),
		rgb:   make([]byte, machine.ScreenWidth*machine.ScreenHeight*4),
	}
	a.audioCtx = audio.NewContext(audioSampleRate)
	player, err := a.audioCtx.NewPlayer(&apuStream{m: m})
	if err == nil {
		a.audioPlayer = player
		a.audioPlayer.SetBufferSize(40 * time.Millisecond)
		a.audioPlayer.Play()
	}
	return a
}

// Run opens the window and blocks until it's closed.
func (a *Adapter) Run() error {
	ebiten.SetWindowSize(machine.ScreenWidth*a.scale, machine.ScreenHeight*a.scale)
	ebiten.SetWindowTitle(a.title)
	return ebiten.RunGame(a)
}

// Update advances the machine by one video frame and refreshes joypad state
// from the keyboard, matching the teacher's ebitenapp.go key layout
// (arrows, Z=A, X=B, Enter=Start, Right-Shift=Select).
func (a *Adapter) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}
	a.m.SetJoypadState(a.pollJoypad())
	if !a.paused {
		a.m.StepUntilNextFrame()
	}
	return nil
}

func (a *Adapter) pollJoypad() byte {
	var mask byte
	if ebiten.IsKeyPressed(ebiten.KeyRight) {
		mask |= mmu.JoypRight
	}
	if ebiten.IsKeyPressed(ebiten.KeyLeft) {
		mask |= mmu.JoypLeft
	}
	if ebiten.IsKeyPressed(ebiten.KeyUp) {
		mask |= mmu.JoypUp
	}
	if ebiten.IsKeyPressed(ebiten.KeyDown) {
		mask |= mmu.JoypDown
	}
	if ebiten.IsKeyPressed(ebiten.KeyZ) {
		mask |= mmu.JoypA
	}
	if ebiten.IsKeyPressed(ebiten.KeyX) {
		mask |= mmu.JoypB
	}
	if ebiten.IsKeyPressed(ebiten.KeyEnter) {
		mask |= mmu.JoypStart
	}
	if ebiten.IsKeyPressed(ebiten.KeyShiftRight) {
		mask |= mmu.JoypSelectBtn
	}
	return mask
}

// Draw blits the core's packed 0xRRGGBB framebuffer into the window,
// scaled up by a.scale.
func (a *Adapter) Draw(screen *ebiten.Image) {
	fb := a.m.Framebuffer()
	for i, px := range fb {
		a.rgb[i*4+0] = byte(px >> 16)
		a.rgb[i*4+1] = byte(px >> 8)
		a.rgb[i*4+2] = byte(px)
		a.rgb[i*4+3] = 0xFF
	}
	a.tex.WritePixels(a.rgb)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(a.scale), float64(a.scale))
	screen.DrawImage(a.tex, op)
}

// Layout reports the fixed internal resolution scaled by a.scale.
func (a *Adapter) Layout(outsideWidth, outsideHeight int) (int, int) {
	return machine.ScreenWidth * a.scale, machine.ScreenHeight * a.scale
}

// apuStream adapts internal/apu's stereo int16 sample queues to the
// io.Reader ebiten/v2/audio.Context.NewPlayer expects: little-endian
// interleaved 16-bit stereo frames.
type apuStream struct {
	m *machine.Machine
}

func (s *apuStream) Read(p []byte) (int, error) {
	if len(p) < 4 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	maxFrames := len(p) / 4
	frames := s.m.MMU().APU().PullStereo(maxFrames)
	n := 0
	for i := 0; i+1 < len(frames) && n+3 < len(p); i += 2 {
		binary.LittleEndian.PutUint16(p[n:], uint16(frames[i]))
		binary.LittleEndian.PutUint16(p[n+2:], uint16(frames[i+1]))
		n += 4
	}
	if n == 0 {
		// Nothing buffered yet: return silence rather than stalling the
		// player, matching the teacher's apuStream underrun fallback.
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	return n, nil
}
