// This file is part of Mal-80.
//
// Mal-80 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Mal-80 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Mal-80.  If not, see <https://www.gnu.org/licenses/>.

// Package sdlplay is the SDL implementation of the gui.GUI interface: a
// green-on-black rendition of the 64x16 character screen, host keyboard
// translation into the 8x8 matrix, and queued audio output for the 1-bit
// sound line.
package sdlplay

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/harrowm/mal-80/curated"
	"github.com/harrowm/mal-80/gui"
)

// Screen geometry. 64x16 character cells of 6x12 pixels; a character
// glyph occupies the top 8 rows of its cell, the rest is inter-line gap.
// Semigraphic cells divide into 2x3 blocks of 3x4 pixels.
const (
	charsPerLine = 64
	charLines    = 16
	cellWidth    = 6
	cellHeight   = 12

	screenWidth  = charsPerLine * cellWidth
	screenHeight = charLines * cellHeight

	pixelDepth = 4
)

// phosphor green on black.
var (
	colorOn  = [pixelDepth]uint8{0x40, 0xff, 0x40, 0xff}
	colorOff = [pixelDepth]uint8{0x00, 0x00, 0x00, 0xff}
)

// sentinel error.
const SDLError = "sdlplay: %v"

// SdlPlay is an SDL window showing the TRS-80 screen.
type SdlPlay struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture

	pixels []byte

	snd *sound

	// bookkeeping for host keys that map through a synthetic shift state
	keys keyboardState

	running bool
}

// NewSdlPlay is the preferred method of initialisation for the SdlPlay
// type. scale multiplies the native 384x192 resolution.
func NewSdlPlay(title string, scale int) (*SdlPlay, error) {
	if scale < 1 {
		scale = 3
	}

	scr := &SdlPlay{
		pixels:  make([]byte, screenWidth*screenHeight*pixelDepth),
		running: true,
	}

	err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO)
	if err != nil {
		return nil, curated.Errorf(SDLError, err)
	}

	scr.window, err = sdl.CreateWindow(title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(screenWidth*scale), int32(screenHeight*scale),
		sdl.WINDOW_SHOWN)
	if err != nil {
		return nil, curated.Errorf(SDLError, err)
	}

	scr.renderer, err = sdl.CreateRenderer(scr.window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		return nil, curated.Errorf(SDLError, err)
	}

	// pixel-perfect scaling
	sdl.SetHint(sdl.HINT_RENDER_SCALE_QUALITY, "nearest")

	scr.texture, err = scr.renderer.CreateTexture(
		uint32(sdl.PIXELFORMAT_ABGR8888),
		int(sdl.TEXTUREACCESS_STREAMING),
		screenWidth, screenHeight)
	if err != nil {
		return nil, curated.Errorf(SDLError, err)
	}

	// audio failure is not fatal: the machine runs silently
	scr.snd = newSound()

	return scr, nil
}

// Update implements the hardware.AudioMixer interface, feeding the 1-bit
// sound line to the audio device. A no-op when audio is unavailable.
func (scr *SdlPlay) Update(soundBit bool, ticks int, active bool) {
	scr.snd.Update(soundBit, ticks, active)
}

// FlushAudio queues the samples accumulated during the frame. Call once
// per rendered frame in normal speed mode.
func (scr *SdlPlay) FlushAudio() {
	scr.snd.Flush()
}

// ClearAudio discards buffered and queued samples. Call when leaving
// turbo mode so stale silence does not play ahead of live audio.
func (scr *SdlPlay) ClearAudio() {
	scr.snd.Clear()
}

// Render implements the gui.GUI interface.
func (scr *SdlPlay) Render(src gui.VideoSource) {
	for line := 0; line < charLines; line++ {
		for col := 0; col < charsPerLine; col++ {
			code := src.VRAMByte(uint16(line*charsPerLine + col))
			scr.drawCell(col, line, code)
		}
	}

	_ = scr.texture.Update(nil, scr.pixels, screenWidth*pixelDepth)
	_ = scr.renderer.Clear()
	_ = scr.renderer.Copy(scr.texture, nil, nil)
	scr.renderer.Present()
}

// drawCell renders one character cell into the pixel buffer.
func (scr *SdlPlay) drawCell(col int, line int, code uint8) {
	px := col * cellWidth
	py := line * cellHeight

	// semigraphics: 2x3 blocks of 3x4 pixels, bit 0 top-left
	if code&0x80 != 0 {
		for blockRow := 0; blockRow < 3; blockRow++ {
			for blockCol := 0; blockCol < 2; blockCol++ {
				on := code>>(blockRow*2+blockCol)&0x01 != 0
				for y := 0; y < 4; y++ {
					for x := 0; x < 3; x++ {
						scr.setPixel(px+blockCol*3+x, py+blockRow*4+y, on)
					}
				}
			}
		}
		return
	}

	for row := 0; row < cellHeight; row++ {
		pattern := uint8(0x00)
		if row < glyphRows {
			pattern = charPattern(code, row)
		}
		for x := 0; x < cellWidth; x++ {
			scr.setPixel(px+x, py+row, pattern>>(5-x)&0x01 != 0)
		}
	}
}

func (scr *SdlPlay) setPixel(x int, y int, on bool) {
	i := (y*screenWidth + x) * pixelDepth
	c := &colorOff
	if on {
		c = &colorOn
	}
	copy(scr.pixels[i:i+pixelDepth], c[:])
}

// SetTitle implements the gui.GUI interface.
func (scr *SdlPlay) SetTitle(title string) {
	scr.window.SetTitle(title)
}

// Destroy implements the gui.GUI interface.
func (scr *SdlPlay) Destroy() {
	if scr.snd != nil {
		scr.snd.destroy()
	}
	if scr.texture != nil {
		scr.texture.Destroy()
	}
	if scr.renderer != nil {
		scr.renderer.Destroy()
	}
	if scr.window != nil {
		scr.window.Destroy()
	}
	sdl.Quit()
}
