package backend

import (
	"github.com/eleven-am/movierec/internal/domain"
	"github.com/eleven-am/movierec/internal/ffmpeg"
)

var formatPresets = map[domain.OutputFormat][]domain.Preset{
	domain.FormatMP4: {
		{Name: "H.264", Codec: ffmpeg.CodecH264},
		{Name: domain.CustomPresetName},
	},
	domain.FormatWebM: {
		{Name: "VP9", Codec: ffmpeg.CodecVP9, Transparency: true},
		{Name: "VP8", Codec: ffmpeg.CodecVP8, Transparency: true},
		{Name: domain.CustomPresetName},
	},
	domain.FormatMOV: {
		{Name: "ProRes 4444 XQ", Codec: ffmpeg.CodecProRes, Profile: "5", Transparency: true},
		{Name: "ProRes 4444", Codec: ffmpeg.CodecProRes, Profile: "4", Transparency: true},
		{Name: "ProRes 422 HQ", Codec: ffmpeg.CodecProRes, Profile: "3"},
		{Name: "ProRes 422", Codec: ffmpeg.CodecProRes, Profile: "2"},
		{Name: "ProRes 422 LT", Codec: ffmpeg.CodecProRes, Profile: "1"},
		{Name: "ProRes 422 Proxy", Codec: ffmpeg.CodecProRes, Profile: "0"},
		{Name: domain.CustomPresetName},
	},
}

// maxDimension is the largest width or height each codec accepts.
var maxDimension = map[string]int{
	ffmpeg.CodecH264: 4096,
	ffmpeg.CodecVP9:  16384,
	ffmpeg.CodecVP8:  16384,
}

// slowDimension is the size above which a codec is unlikely to keep up
// with real time capture.
var slowDimension = map[string]int{
	ffmpeg.CodecVP9: 4096,
	ffmpeg.CodecVP8: 1920,
}

func subsampled(codec string) bool {
	return codec == ffmpeg.CodecH264 || codec == ffmpeg.CodecVP9 || codec == ffmpeg.CodecVP8
}

func (b *FFmpeg) encoderName(p domain.Preset) string {
	switch p.Codec {
	case ffmpeg.CodecH264:
		if b.builder.HWAccel.Encoder != "" {
			return b.builder.HWAccel.Encoder
		}
		return "libx264"
	case ffmpeg.CodecVP9:
		return "libvpx-vp9"
	case ffmpeg.CodecVP8:
		return "libvpx"
	case ffmpeg.CodecProRes:
		return "prores_ks"
	default:
		return ""
	}
}
