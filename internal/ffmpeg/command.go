package ffmpeg

import (
	"fmt"
	"strings"

	"github.com/eleven-am/movierec/internal/domain"
)

const (
	CodecH264   = "h264"
	CodecVP9    = "vp9"
	CodecVP8    = "vp8"
	CodecProRes = "prores"
)

// VideoPipe and AudioPipe are the inputs the recorder writes to: stdin and
// the first extra file descriptor of the child process.
const (
	VideoPipe = "pipe:0"
	AudioPipe = "pipe:3"
)

type AudioParams struct {
	SampleRate int
	Channels   int
}

type RecordParams struct {
	OutputPath      string
	Format          domain.OutputFormat
	Width           int
	Height          int
	InputPixFmt     domain.PixelFormat
	FrameRate       domain.MediaRational
	Alpha           bool
	Preset          domain.Preset
	BitrateMode     domain.BitrateMode
	ColorDefinition domain.ColorDefinition
	CustomOptions   string
	Audio           *AudioParams
}

type CommandBuilder struct {
	HWAccel *domain.HWAccelConfig
}

func NewCommandBuilder(hwAccel *domain.HWAccelConfig) *CommandBuilder {
	if hwAccel == nil {
		hwAccel = &domain.HWAccelConfig{Accelerator: domain.AccelNone}
	}
	return &CommandBuilder{HWAccel: hwAccel}
}

// Record returns the ffmpeg arguments that mux raw frames read from
// VideoPipe (and interleaved f32le samples from AudioPipe) into OutputPath.
func (b *CommandBuilder) Record(p RecordParams) []string {
	args := []string{
		"-nostats", "-hide_banner", "-loglevel", "warning", "-y",
	}

	if b.usesHardware(p) {
		args = append(args, b.HWAccel.DeviceFlags...)
	}

	args = append(args,
		"-f", "rawvideo",
		"-pix_fmt", string(p.InputPixFmt),
		"-s", fmt.Sprintf("%dx%d", p.Width, p.Height),
	)
	if p.FrameRate.Valid() {
		args = append(args, "-framerate", p.FrameRate.String())
	}
	args = append(args, "-i", VideoPipe)

	if p.Audio != nil {
		args = append(args,
			"-f", "f32le",
			"-ar", fmt.Sprintf("%d", p.Audio.SampleRate),
			"-ac", fmt.Sprintf("%d", p.Audio.Channels),
			"-i", AudioPipe,
		)
	}

	args = append(args, "-map", "0:v:0")
	if p.Audio != nil {
		args = append(args, "-map", "1:a:0")
	}

	args = append(args, b.videoEncodeArgs(p)...)
	args = append(args, colorArgs(p.ColorDefinition)...)

	if p.Audio != nil {
		args = append(args, audioEncodeArgs(p)...)
		args = append(args, "-shortest")
	}

	if p.Format == domain.FormatMP4 || p.Format == domain.FormatMOV {
		args = append(args, "-movflags", "+faststart")
	}

	args = append(args, "-f", muxer(p.Format), p.OutputPath)

	return args
}

func (b *CommandBuilder) usesHardware(p RecordParams) bool {
	return p.Preset.Name != domain.CustomPresetName &&
		p.Preset.Codec == CodecH264 &&
		b.HWAccel.Accelerator != domain.AccelNone
}

func (b *CommandBuilder) videoEncodeArgs(p RecordParams) []string {
	if p.Preset.Name == domain.CustomPresetName {
		return strings.Fields(p.CustomOptions)
	}

	switch p.Preset.Codec {
	case CodecH264:
		return b.h264Args(p)
	case CodecVP9:
		pixFmt := "yuv420p"
		if p.Alpha {
			pixFmt = "yuva420p"
		}
		return []string{
			"-c:v", "libvpx-vp9",
			"-crf", fmt.Sprintf("%d", CRF(CodecVP9, p.BitrateMode)),
			"-b:v", "0",
			"-row-mt", "1",
			"-pix_fmt", pixFmt,
		}
	case CodecVP8:
		pixFmt := "yuv420p"
		if p.Alpha {
			pixFmt = "yuva420p"
		}
		args := []string{
			"-c:v", "libvpx",
			"-crf", fmt.Sprintf("%d", CRF(CodecVP8, p.BitrateMode)),
			"-b:v", fmt.Sprintf("%d", Bitrate(p.Width, p.Height, p.FrameRate, p.BitrateMode)),
			"-pix_fmt", pixFmt,
		}
		if p.Alpha {
			args = append(args, "-auto-alt-ref", "0")
		}
		return args
	case CodecProRes:
		pixFmt := "yuv422p10le"
		if p.Preset.Transparency {
			pixFmt = "yuv444p10le"
			if p.Alpha {
				pixFmt = "yuva444p10le"
			}
		}
		return []string{
			"-c:v", "prores_ks",
			"-profile:v", p.Preset.Profile,
			"-vendor", "apl0",
			"-pix_fmt", pixFmt,
		}
	default:
		return []string{"-c:v", p.Preset.Codec}
	}
}

func (b *CommandBuilder) h264Args(p RecordParams) []string {
	args := make([]string, len(b.HWAccel.EncodeFlags))
	copy(args, b.HWAccel.EncodeFlags)
	if len(args) == 0 {
		args = []string{"-c:v", "libx264", "-preset", "medium"}
	}

	if b.HWAccel.UploadFilter != "" {
		args = append(args, "-vf", b.HWAccel.UploadFilter)
	}
	if b.HWAccel.PixelFormat != "" {
		args = append(args, "-pix_fmt", b.HWAccel.PixelFormat)
	}

	if b.HWAccel.Accelerator == domain.AccelNone {
		args = append(args, "-crf", fmt.Sprintf("%d", CRF(CodecH264, p.BitrateMode)))
	} else {
		rate := Bitrate(p.Width, p.Height, p.FrameRate, p.BitrateMode)
		args = append(args,
			"-b:v", fmt.Sprintf("%d", rate),
			"-maxrate", fmt.Sprintf("%d", int(float64(rate)*1.5)),
			"-bufsize", fmt.Sprintf("%d", rate*2),
		)
	}

	return args
}

func audioEncodeArgs(p RecordParams) []string {
	if p.Format == domain.FormatWebM {
		return []string{"-c:a", "libopus", "-b:a", "128000"}
	}
	return []string{"-c:a", "aac", "-b:a", "192000"}
}

func colorArgs(def domain.ColorDefinition) []string {
	switch def {
	case domain.ColorRec601:
		return []string{"-colorspace", "smpte170m", "-color_primaries", "smpte170m", "-color_trc", "smpte170m"}
	case domain.ColorRec2020:
		return []string{"-colorspace", "bt2020nc", "-color_primaries", "bt2020", "-color_trc", "bt2020-10"}
	default:
		return []string{"-colorspace", "bt709", "-color_primaries", "bt709", "-color_trc", "bt709"}
	}
}

func muxer(format domain.OutputFormat) string {
	switch format {
	case domain.FormatWebM:
		return "webm"
	case domain.FormatMOV:
		return "mov"
	default:
		return "mp4"
	}
}
