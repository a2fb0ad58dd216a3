package domain

import "github.com/google/uuid"

type FrameRateMode string

const (
	FrameRateConstant FrameRateMode = "constant"
	FrameRateVariable FrameRateMode = "variable"
)

type OutputFormat string

const (
	FormatMP4  OutputFormat = "mp4"
	FormatWebM OutputFormat = "webm"
	FormatMOV  OutputFormat = "mov"
)

// Extension returns the file extension without the leading dot.
func (f OutputFormat) Extension() string {
	return string(f)
}

type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

type BitrateMode int

const (
	BitrateLow BitrateMode = iota
	BitrateMedium
	BitrateHigh
)

func (m BitrateMode) String() string {
	switch m {
	case BitrateLow:
		return "low"
	case BitrateMedium:
		return "medium"
	case BitrateHigh:
		return "high"
	default:
		return "unknown"
	}
}

type ColorDefinition int

const (
	ColorRec709 ColorDefinition = iota
	ColorRec601
	ColorRec2020
)

type PixelFormat string

const (
	PixelRGB24 PixelFormat = "rgb24"
	PixelRGBA  PixelFormat = "rgba"
)

// BytesPerPixel returns the packed size of one pixel.
func (p PixelFormat) BytesPerPixel() int {
	if p == PixelRGBA {
		return 4
	}
	return 3
}

// Session is one bounded recording episode. The host owns it and advances
// RecorderTime before each RecordFrame; the recorder only clears Recording
// when BeginRecording fails.
type Session struct {
	ID            string
	FrameRateMode FrameRateMode
	FrameRate     float64
	RecorderTime  float64
	Recording     bool
}

func NewSession(mode FrameRateMode, frameRate float64) *Session {
	return &Session{
		ID:            uuid.New().String(),
		FrameRateMode: mode,
		FrameRate:     frameRate,
		Recording:     true,
	}
}

type VideoTrackAttributes struct {
	FrameRate    MediaRational
	Width        uint32
	Height       uint32
	IncludeAlpha bool
	BitrateMode  BitrateMode
}

type AudioTrackAttributes struct {
	SampleRate   MediaRational
	ChannelCount uint16
	Language     string
}

// Readback is the result of one pixel capture. Err is set when the host
// could not read the rendered image back.
type Readback struct {
	Width  int
	Height int
	Data   []byte
	Err    error
}
