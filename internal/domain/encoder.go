package domain

import "context"

// EncoderSettings is the subset of recorder settings a backend needs to
// answer capability queries.
type EncoderSettings struct {
	Format          OutputFormat
	Preset          int
	Quality         Quality
	ColorDefinition ColorDefinition
	CustomOptions   string
}

// Preset is one codec choice offered by a backend for a format.
type Preset struct {
	Name         string
	Codec        string
	Profile      string
	Transparency bool
}

// CustomPresetName marks the preset whose codec options come from
// EncoderSettings.CustomOptions.
const CustomPresetName = "Custom"

// Backend writes one container format. Capability queries are answered
// before anything is constructed; Open builds a single encoder instance from
// an ordered attribute list.
type Backend interface {
	Name() string
	Formats() []OutputFormat
	SupportsFormat(format OutputFormat) bool
	SupportsResolution(settings EncoderSettings, width, height int) (ok bool, errMsg string, warnMsg string)
	SupportsVFR(settings EncoderSettings) (bool, string)
	SupportsTransparency(settings EncoderSettings) (bool, string)
	PixelFormat(alpha bool) PixelFormat
	Presets() []Preset
	Open(ctx context.Context, path string, attrs []Attribute) (Instance, error)
}

// Instance is one live encoder writing one output file.
type Instance interface {
	AddFrame(frame Readback, t MediaTime) error
	AddSamples(samples []float32) error
	Close() error
}

// EncoderHandle identifies a slot of the encoder arena. The zero value is
// not bound to anything.
type EncoderHandle struct {
	Index      int
	Generation uint32
}

func (h EncoderHandle) IsZero() bool {
	return h.Generation == 0
}

const (
	LabelVideoAttributes = "VideoAttributes"
	LabelAudioAttributes = "AudioAttributes"
	LabelCodecFormat     = "CodecFormat"
	LabelColorDefinition = "ColorDefinition"
	LabelCustomOptions   = "CustomOptions"
)

type Attribute interface {
	Label() string
}

type VideoTrackAttribute struct {
	Name  string
	Value VideoTrackAttributes
}

func (a VideoTrackAttribute) Label() string { return a.Name }

type AudioTrackAttribute struct {
	Name  string
	Value AudioTrackAttributes
}

func (a AudioTrackAttribute) Label() string { return a.Name }

type IntAttribute struct {
	Name  string
	Value int
}

func (a IntAttribute) Label() string { return a.Name }

type StringAttribute struct {
	Name  string
	Value string
}

func (a StringAttribute) Label() string { return a.Name }
