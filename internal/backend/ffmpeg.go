// Package backend holds the encoder backends the recorder can drive. Each
// FFmpeg value writes one container format through an external ffmpeg
// process.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/eleven-am/movierec/internal/domain"
	"github.com/eleven-am/movierec/internal/ffmpeg"
	"github.com/eleven-am/movierec/internal/mux"
)

var (
	ErrMissingVideoAttributes = errors.New("backend: video track attributes are required")
	ErrVariableFrameRate      = errors.New("backend: variable frame rate is not supported")
)

// FFmpegOptions configures the ffmpeg backends.
type FFmpegOptions struct {
	// Binary is the ffmpeg executable. Default: "ffmpeg" from PATH.
	Binary string

	// HWAccel selects the H.264 encoder. Nil means libx264.
	HWAccel *domain.HWAccelConfig

	// Encoders is the set of encoder names the local ffmpeg supports. When
	// nil every preset is assumed available.
	Encoders map[string]bool

	Logger hclog.Logger
}

// FFmpeg records one output format by piping raw frames into an ffmpeg
// process. Frames carry no timestamps on the pipe; the container is paced by
// the constant frame rate given at Open, so SupportsVFR is always false and
// AddFrame ignores its media time.
type FFmpeg struct {
	format   domain.OutputFormat
	binary   string
	builder  *ffmpeg.CommandBuilder
	encoders map[string]bool
	logger   hclog.Logger
}

func NewFFmpeg(format domain.OutputFormat, opts FFmpegOptions) *FFmpeg {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &FFmpeg{
		format:   format,
		binary:   opts.Binary,
		builder:  ffmpeg.NewCommandBuilder(opts.HWAccel),
		encoders: opts.Encoders,
		logger:   logger.Named("ffmpeg-" + string(format)),
	}
}

// All returns one backend per format the ffmpeg backend knows.
func All(opts FFmpegOptions) []domain.Backend {
	return []domain.Backend{
		NewFFmpeg(domain.FormatMP4, opts),
		NewFFmpeg(domain.FormatWebM, opts),
		NewFFmpeg(domain.FormatMOV, opts),
	}
}

func (b *FFmpeg) Name() string {
	return "ffmpeg-" + string(b.format)
}

func (b *FFmpeg) Formats() []domain.OutputFormat {
	if !b.SupportsFormat(b.format) {
		return nil
	}
	return []domain.OutputFormat{b.format}
}

// SupportsFormat reports whether format is this backend's format and at
// least one of its presets has an encoder in the local ffmpeg build.
func (b *FFmpeg) SupportsFormat(format domain.OutputFormat) bool {
	if format != b.format {
		return false
	}
	for _, p := range b.Presets() {
		if p.Name != domain.CustomPresetName && b.available(p) {
			return true
		}
	}
	return false
}

func (b *FFmpeg) Presets() []domain.Preset {
	presets := formatPresets[b.format]
	out := make([]domain.Preset, len(presets))
	copy(out, presets)
	return out
}

func (b *FFmpeg) SupportsResolution(settings domain.EncoderSettings, width, height int) (bool, string, string) {
	if width <= 0 || height <= 0 {
		return false, fmt.Sprintf("The recording resolution %dx%d is invalid.", width, height), ""
	}

	preset, err := b.preset(settings.Preset)
	if err != nil {
		return false, err.Error(), ""
	}
	if preset.Name == domain.CustomPresetName {
		return true, "", ""
	}

	if subsampled(preset.Codec) && (width%2 != 0 || height%2 != 0) {
		return false, fmt.Sprintf("The %s codec requires even dimensions, got %dx%d.", preset.Name, width, height), ""
	}
	if limit, ok := maxDimension[preset.Codec]; ok && (width > limit || height > limit) {
		return false, fmt.Sprintf("The %s codec does not support resolutions above %dx%d, got %dx%d.", preset.Name, limit, limit, width, height), ""
	}

	var warning string
	if limit, ok := slowDimension[preset.Codec]; ok && (width > limit || height > limit) {
		warning = fmt.Sprintf("Encoding %dx%d with %s may be slower than real time.", width, height, preset.Name)
	}
	return true, "", warning
}

func (b *FFmpeg) SupportsVFR(settings domain.EncoderSettings) (bool, string) {
	return false, fmt.Sprintf("The %s format does not support variable frame rate with the FFmpeg backend. Use a constant frame rate instead.", b.format)
}

func (b *FFmpeg) SupportsTransparency(settings domain.EncoderSettings) (bool, string) {
	preset, err := b.preset(settings.Preset)
	if err != nil {
		return false, err.Error()
	}
	if !preset.Transparency {
		return false, fmt.Sprintf("The %s codec does not support transparency.", preset.Name)
	}
	return true, ""
}

func (b *FFmpeg) PixelFormat(alpha bool) domain.PixelFormat {
	if alpha {
		return domain.PixelRGBA
	}
	return domain.PixelRGB24
}

func (b *FFmpeg) Open(ctx context.Context, path string, attrs []domain.Attribute) (domain.Instance, error) {
	parsed, err := parseAttributes(attrs)
	if err != nil {
		return nil, err
	}
	if !parsed.video.FrameRate.Valid() {
		return nil, ErrVariableFrameRate
	}

	preset, err := b.preset(parsed.preset)
	if err != nil {
		return nil, err
	}
	if preset.Name != domain.CustomPresetName && !b.available(preset) {
		return nil, fmt.Errorf("backend: encoder %s is not available in %s", b.encoderName(preset), b.binaryName())
	}

	pixFmt := b.PixelFormat(parsed.video.IncludeAlpha)
	params := ffmpeg.RecordParams{
		OutputPath:      path,
		Format:          b.format,
		Width:           int(parsed.video.Width),
		Height:          int(parsed.video.Height),
		InputPixFmt:     pixFmt,
		FrameRate:       parsed.video.FrameRate,
		Alpha:           parsed.video.IncludeAlpha,
		Preset:          preset,
		BitrateMode:     parsed.video.BitrateMode,
		ColorDefinition: parsed.color,
		CustomOptions:   parsed.customOptions,
	}
	if parsed.audio != nil {
		params.Audio = &ffmpeg.AudioParams{
			SampleRate: int(parsed.audio.SampleRate.Float64()),
			Channels:   int(parsed.audio.ChannelCount),
		}
	}

	args := b.builder.Record(params)
	worker := mux.NewWorker(b.binary, args, params.Audio != nil, b.logger)
	if err := worker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start %s: %w", b.binaryName(), err)
	}

	b.logger.Debug("encoder opened", "path", path, "preset", preset.Name, "size", fmt.Sprintf("%dx%d", params.Width, params.Height), "rate", params.FrameRate.String())

	return &instance{
		worker:    worker,
		width:     params.Width,
		height:    params.Height,
		frameSize: params.Width * params.Height * pixFmt.BytesPerPixel(),
	}, nil
}

func (b *FFmpeg) preset(index int) (domain.Preset, error) {
	presets := formatPresets[b.format]
	if index < 0 || index >= len(presets) {
		return domain.Preset{}, fmt.Errorf("backend: codec preset %d is not available for the %s format", index, b.format)
	}
	return presets[index], nil
}

func (b *FFmpeg) available(p domain.Preset) bool {
	if b.encoders == nil {
		return true
	}
	return b.encoders[b.encoderName(p)]
}

func (b *FFmpeg) binaryName() string {
	if b.binary == "" {
		return "ffmpeg"
	}
	return b.binary
}

type instance struct {
	worker    *mux.Worker
	width     int
	height    int
	frameSize int
}

func (i *instance) AddFrame(frame domain.Readback, _ domain.MediaTime) error {
	if frame.Width != i.width || frame.Height != i.height {
		return fmt.Errorf("backend: frame is %dx%d, track is %dx%d", frame.Width, frame.Height, i.width, i.height)
	}
	if len(frame.Data) != i.frameSize {
		return fmt.Errorf("backend: frame has %d bytes, expected %d", len(frame.Data), i.frameSize)
	}

	data := make([]byte, len(frame.Data))
	copy(data, frame.Data)
	return i.worker.WriteVideo(data)
}

func (i *instance) AddSamples(samples []float32) error {
	return i.worker.WriteSamples(samples)
}

func (i *instance) Close() error {
	return i.worker.Close()
}
