package backend

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/movierec/internal/domain"
)

func settings(format domain.OutputFormat, preset int) domain.EncoderSettings {
	return domain.EncoderSettings{Format: format, Preset: preset, Quality: domain.QualityHigh}
}

func TestSupportsResolution(t *testing.T) {
	mp4 := NewFFmpeg(domain.FormatMP4, FFmpegOptions{})

	ok, errMsg, _ := mp4.SupportsResolution(settings(domain.FormatMP4, 0), 1920, 1080)
	assert.True(t, ok, errMsg)

	ok, errMsg, _ = mp4.SupportsResolution(settings(domain.FormatMP4, 0), 0, 0)
	assert.False(t, ok)
	assert.Contains(t, errMsg, "0x0")

	ok, errMsg, _ = mp4.SupportsResolution(settings(domain.FormatMP4, 0), 1921, 1080)
	assert.False(t, ok)
	assert.Contains(t, errMsg, "even dimensions")

	ok, errMsg, _ = mp4.SupportsResolution(settings(domain.FormatMP4, 0), 8192, 4320)
	assert.False(t, ok)
	assert.Contains(t, errMsg, "4096")

	ok, _, _ = mp4.SupportsResolution(settings(domain.FormatMP4, 1), 1921, 1081)
	assert.True(t, ok, "custom preset leaves validation to the user's options")

	ok, _, _ = mp4.SupportsResolution(settings(domain.FormatMP4, 7), 1920, 1080)
	assert.False(t, ok)

	webm := NewFFmpeg(domain.FormatWebM, FFmpegOptions{})
	ok, errMsg, warnMsg := webm.SupportsResolution(settings(domain.FormatWebM, 1), 3840, 2160)
	assert.True(t, ok, errMsg)
	assert.Contains(t, warnMsg, "slower than real time")

	mov := NewFFmpeg(domain.FormatMOV, FFmpegOptions{})
	ok, _, _ = mov.SupportsResolution(settings(domain.FormatMOV, 2), 1001, 777)
	assert.True(t, ok, "prores accepts odd sizes")
}

func TestSupportsTransparencyFollowsPreset(t *testing.T) {
	mp4 := NewFFmpeg(domain.FormatMP4, FFmpegOptions{})
	ok, msg := mp4.SupportsTransparency(settings(domain.FormatMP4, 0))
	assert.False(t, ok)
	assert.Contains(t, msg, "H.264")

	mov := NewFFmpeg(domain.FormatMOV, FFmpegOptions{})
	ok, _ = mov.SupportsTransparency(settings(domain.FormatMOV, 1))
	assert.True(t, ok)
	ok, _ = mov.SupportsTransparency(settings(domain.FormatMOV, 2))
	assert.False(t, ok)

	assert.Equal(t, domain.PixelRGBA, mov.PixelFormat(true))
	assert.Equal(t, domain.PixelRGB24, mov.PixelFormat(false))
}

func TestSupportsVFRIsRejected(t *testing.T) {
	ok, msg := NewFFmpeg(domain.FormatWebM, FFmpegOptions{}).SupportsVFR(settings(domain.FormatWebM, 0))
	assert.False(t, ok)
	assert.Contains(t, msg, "variable frame rate")
}

func TestSupportsFormatUsesEncoderList(t *testing.T) {
	opts := FFmpegOptions{Encoders: map[string]bool{"libx264": true, "aac": true}}
	mp4 := NewFFmpeg(domain.FormatMP4, opts)
	webm := NewFFmpeg(domain.FormatWebM, opts)

	assert.True(t, mp4.SupportsFormat(domain.FormatMP4))
	assert.False(t, mp4.SupportsFormat(domain.FormatWebM))
	assert.False(t, webm.SupportsFormat(domain.FormatWebM), "no vp8/vp9 encoder available")
	assert.Empty(t, webm.Formats())
	assert.Equal(t, []domain.OutputFormat{domain.FormatMP4}, mp4.Formats())
	assert.Equal(t, "ffmpeg-mp4", mp4.Name())
	assert.Len(t, All(opts), 3)
}

func TestParseAttributes(t *testing.T) {
	_, err := parseAttributes(nil)
	assert.ErrorIs(t, err, ErrMissingVideoAttributes)

	audio := domain.AudioTrackAttributes{SampleRate: domain.MediaRational{Num: 48000, Den: 1}, ChannelCount: 2}
	p, err := parseAttributes([]domain.Attribute{
		domain.VideoTrackAttribute{Name: domain.LabelVideoAttributes, Value: domain.VideoTrackAttributes{Width: 64, Height: 32}},
		domain.AudioTrackAttribute{Name: domain.LabelAudioAttributes, Value: audio},
		domain.IntAttribute{Name: domain.LabelCodecFormat, Value: 1},
		domain.IntAttribute{Name: domain.LabelColorDefinition, Value: int(domain.ColorRec2020)},
		domain.StringAttribute{Name: domain.LabelCustomOptions, Value: "-c:v ffv1"},
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(64), p.video.Width)
	require.NotNil(t, p.audio)
	assert.Equal(t, uint16(2), p.audio.ChannelCount)
	assert.Equal(t, 1, p.preset)
	assert.Equal(t, domain.ColorRec2020, p.color)
	assert.Equal(t, "-c:v ffv1", p.customOptions)

	_, err = parseAttributes([]domain.Attribute{
		domain.VideoTrackAttribute{Name: domain.LabelVideoAttributes},
		domain.IntAttribute{Name: "Bogus", Value: 1},
	})
	assert.Error(t, err)
}

func TestOpenWritesFramesThroughFFmpeg(t *testing.T) {
	tmp := t.TempDir()
	script := filepath.Join(tmp, "ffmpeg")
	require.NoError(t, os.WriteFile(script, []byte(fakeFFmpegScript), 0755))

	mp4 := NewFFmpeg(domain.FormatMP4, FFmpegOptions{Binary: script})
	out := filepath.Join(tmp, "movie.mp4")

	attrs := []domain.Attribute{
		domain.VideoTrackAttribute{Name: domain.LabelVideoAttributes, Value: domain.VideoTrackAttributes{
			FrameRate: domain.MediaRational{Num: 30, Den: 1},
			Width:     2,
			Height:    2,
		}},
		domain.IntAttribute{Name: domain.LabelCodecFormat, Value: 0},
		domain.IntAttribute{Name: domain.LabelColorDefinition, Value: 0},
	}

	inst, err := mp4.Open(context.Background(), out, attrs)
	require.NoError(t, err)

	frame := domain.Readback{Width: 2, Height: 2, Data: []byte("abcdefghijkl")}
	require.NoError(t, inst.AddFrame(frame, domain.InvalidMediaTime))
	assert.Error(t, inst.AddFrame(domain.Readback{Width: 2, Height: 2, Data: []byte("short")}, domain.InvalidMediaTime))
	assert.Error(t, inst.AddFrame(domain.Readback{Width: 4, Height: 2, Data: make([]byte, 24)}, domain.InvalidMediaTime))
	require.NoError(t, inst.AddSamples(nil))
	require.NoError(t, inst.Close())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "abcdefghijkl", string(data))

	args, err := os.ReadFile(out + ".args")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(args), "-framerate 30/1"), string(args))
}

func TestOpenRejectsVariableFrameRate(t *testing.T) {
	mp4 := NewFFmpeg(domain.FormatMP4, FFmpegOptions{})
	_, err := mp4.Open(context.Background(), "/nonexistent/out.mp4", []domain.Attribute{
		domain.VideoTrackAttribute{Name: domain.LabelVideoAttributes, Value: domain.VideoTrackAttributes{Width: 2, Height: 2}},
	})
	assert.ErrorIs(t, err, ErrVariableFrameRate)
}

const fakeFFmpegScript = `#!/bin/sh
for last; do :; done
echo "$@" > "$last.args"
cat > "$last"
`
