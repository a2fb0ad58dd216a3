// Package synth provides generated render and audio inputs, used to drive
// the recorder without a host renderer.
package synth

import (
	"context"
	"sync"

	"github.com/eleven-am/movierec/internal/domain"
)

// Pattern renders a color gradient with a bar sweeping left to right. With
// Alpha set the gradient fades out towards the bottom of the frame.
type Pattern struct {
	Width  int
	Height int
	Alpha  bool

	// Async completes captures on another goroutine, the way a GPU readback
	// resolves on a later frame.
	Async bool

	mu    sync.Mutex
	frame int
}

func (p *Pattern) OutputWidth() int  { return p.Width }
func (p *Pattern) OutputHeight() int { return p.Height }
func (p *Pattern) Transparent() bool { return p.Alpha }

func (p *Pattern) Capture(ctx context.Context, done func(domain.Readback)) {
	p.mu.Lock()
	n := p.frame
	p.frame++
	p.mu.Unlock()

	if !p.Async {
		done(p.Render(n))
		return
	}
	go func() {
		if err := ctx.Err(); err != nil {
			done(domain.Readback{Width: p.Width, Height: p.Height, Err: err})
			return
		}
		done(p.Render(n))
	}()
}

// Render draws frame n.
func (p *Pattern) Render(n int) domain.Readback {
	format := domain.PixelRGB24
	if p.Alpha {
		format = domain.PixelRGBA
	}
	bpp := format.BytesPerPixel()
	data := make([]byte, p.Width*p.Height*bpp)

	barWidth := p.Width / 16
	if barWidth < 1 {
		barWidth = 1
	}
	barX := 0
	if p.Width > 0 {
		barX = (n * 4) % p.Width
	}

	for y := 0; y < p.Height; y++ {
		row := y * p.Width * bpp
		for x := 0; x < p.Width; x++ {
			px := data[row+x*bpp:]
			if x >= barX && x < barX+barWidth {
				px[0], px[1], px[2] = 255, 255, 255
			} else {
				px[0] = byte(x * 255 / max(p.Width-1, 1))
				px[1] = byte(y * 255 / max(p.Height-1, 1))
				px[2] = byte(n)
			}
			if p.Alpha {
				px[3] = 255 - byte(y*255/max(p.Height-1, 1))
			}
		}
	}

	return domain.Readback{Width: p.Width, Height: p.Height, Data: data}
}
