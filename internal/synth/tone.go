package synth

import (
	"math"
	"sync"
)

// Tone is a sine wave audio input. Every Drain returns one video frame's
// worth of interleaved samples.
type Tone struct {
	Rate      int
	Channels  int
	Frequency float64
	FrameRate float64
	Preserve  bool

	mu      sync.Mutex
	frames  int
	emitted int
}

func NewTone(rate, channels int, frameRate float64) *Tone {
	return &Tone{
		Rate:      rate,
		Channels:  channels,
		Frequency: 440,
		FrameRate: frameRate,
		Preserve:  true,
	}
}

func (t *Tone) SampleRate() int     { return t.Rate }
func (t *Tone) ChannelCount() int   { return t.Channels }
func (t *Tone) PreserveAudio() bool { return t.Preserve }

// Drain returns the samples between the previous frame and this one. The
// per-frame count is rounded so that the total never drifts from the
// sample rate.
func (t *Tone) Drain() []float32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.FrameRate <= 0 || t.Rate <= 0 || t.Channels <= 0 {
		return nil
	}

	t.frames++
	target := int(math.Round(float64(t.frames) * float64(t.Rate) / t.FrameRate))
	count := target - t.emitted
	if count <= 0 {
		return nil
	}

	out := make([]float32, count*t.Channels)
	for i := 0; i < count; i++ {
		v := float32(0.2 * math.Sin(2*math.Pi*t.Frequency*float64(t.emitted+i)/float64(t.Rate)))
		for c := 0; c < t.Channels; c++ {
			out[i*t.Channels+c] = v
		}
	}
	t.emitted = target
	return out
}
