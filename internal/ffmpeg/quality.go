package ffmpeg

import "github.com/eleven-am/movierec/internal/domain"

type crfRange struct {
	low, medium, high int
}

var crfRanges = map[string]crfRange{
	CodecH264: {low: 28, medium: 23, high: 18},
	CodecVP9:  {low: 40, medium: 33, high: 24},
	CodecVP8:  {low: 30, medium: 16, high: 8},
}

// CRF maps a bitrate mode to the constant rate factor of a codec. Unknown
// codecs use the H.264 scale.
func CRF(codec string, mode domain.BitrateMode) int {
	r, ok := crfRanges[codec]
	if !ok {
		r = crfRanges[CodecH264]
	}
	switch mode {
	case domain.BitrateLow:
		return r.low
	case domain.BitrateHigh:
		return r.high
	default:
		return r.medium
	}
}

// Bitrate estimates a target bitrate in bits per second from the pixel rate.
// Variable frame rate tracks are estimated at 30 frames per second.
func Bitrate(width, height int, frameRate domain.MediaRational, mode domain.BitrateMode) int {
	fps := frameRate.Float64()
	if fps <= 0 {
		fps = 30
	}

	bitsPerPixel := 0.1
	switch mode {
	case domain.BitrateLow:
		bitsPerPixel = 0.05
	case domain.BitrateHigh:
		bitsPerPixel = 0.2
	}

	return int(float64(width*height) * fps * bitsPerPixel)
}
