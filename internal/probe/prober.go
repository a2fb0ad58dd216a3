// Package probe inspects a finished recording with ffprobe.
package probe

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	jsoniter "github.com/json-iterator/go"

	"github.com/eleven-am/movierec/internal/domain"
	"github.com/eleven-am/movierec/internal/rational"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Report describes the streams of a recorded container.
type Report struct {
	Path       string        `json:"path"`
	FormatName string        `json:"format_name"`
	Duration   float64       `json:"duration"`
	Video      *VideoStream  `json:"video,omitempty"`
	Audios     []AudioStream `json:"audios,omitempty"`
	Frames     int           `json:"frames"`
	Keyframes  []float64     `json:"keyframes,omitempty"`
}

type VideoStream struct {
	Index       int                  `json:"index"`
	Codec       string               `json:"codec"`
	Profile     string               `json:"profile,omitempty"`
	Width       int                  `json:"width"`
	Height      int                  `json:"height"`
	PixelFormat string               `json:"pix_fmt"`
	FrameRate   domain.MediaRational `json:"frame_rate"`
}

type AudioStream struct {
	Index      int    `json:"index"`
	Codec      string `json:"codec"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Language   string `json:"language,omitempty"`
}

// Prober inspects finished recordings with ffprobe.
type Prober struct {
	binary string
	logger hclog.Logger
}

func NewProber(binary string, logger hclog.Logger) *Prober {
	if binary == "" {
		binary = "ffprobe"
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Prober{binary: binary, logger: logger}
}

// Probe reads the streams and counts the video packets of path.
func (p *Prober) Probe(ctx context.Context, path string) (*Report, error) {
	report, err := p.probeStreams(ctx, path)
	if err != nil {
		return nil, err
	}
	if report.Video == nil {
		return report, nil
	}

	frames, keyframes, err := p.probePackets(ctx, path)
	if err != nil {
		return nil, err
	}
	report.Frames = frames
	report.Keyframes = keyframes

	p.logger.Debug("probed recording", "path", path, "frames", frames, "duration", report.Duration)
	return report, nil
}

// Check compares the report with what was recorded. A zero expectation is
// not checked.
func (r *Report) Check(width, height, frames int) error {
	if r.Video == nil {
		return fmt.Errorf("%s: no video stream", r.Path)
	}
	if (width > 0 && r.Video.Width != width) || (height > 0 && r.Video.Height != height) {
		return fmt.Errorf("%s: video is %dx%d, expected %dx%d", r.Path, r.Video.Width, r.Video.Height, width, height)
	}
	if frames > 0 && r.Frames != frames {
		return fmt.Errorf("%s: %d frames written, expected %d", r.Path, r.Frames, frames)
	}
	return nil
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

type ffprobeStream struct {
	Index      int               `json:"index"`
	CodecName  string            `json:"codec_name"`
	CodecType  string            `json:"codec_type"`
	Profile    string            `json:"profile"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	PixFmt     string            `json:"pix_fmt"`
	RFrameRate string            `json:"r_frame_rate"`
	SampleRate string            `json:"sample_rate"`
	Channels   int               `json:"channels"`
	Tags       map[string]string `json:"tags"`
}

type ffprobeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

func (p *Prober) probeStreams(ctx context.Context, path string) (*Report, error) {
	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "error",
		"-show_format",
		"-show_streams",
		"-of", "json",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var ff ffprobeOutput
	if err := json.Unmarshal(output, &ff); err != nil {
		return nil, fmt.Errorf("decode ffprobe output: %w", err)
	}

	report := &Report{Path: path, FormatName: ff.Format.FormatName}

	if dur, err := strconv.ParseFloat(ff.Format.Duration, 64); err == nil {
		report.Duration = dur
	}

	for _, s := range ff.Streams {
		switch s.CodecType {
		case "video":
			if report.Video != nil {
				continue
			}
			rate, err := rational.Parse(s.RFrameRate)
			if err != nil {
				rate = domain.InvalidRational
			}
			report.Video = &VideoStream{
				Index:       s.Index,
				Codec:       s.CodecName,
				Profile:     s.Profile,
				Width:       s.Width,
				Height:      s.Height,
				PixelFormat: s.PixFmt,
				FrameRate:   rate,
			}
		case "audio":
			sampleRate, _ := strconv.Atoi(s.SampleRate)
			report.Audios = append(report.Audios, AudioStream{
				Index:      s.Index,
				Codec:      s.CodecName,
				SampleRate: sampleRate,
				Channels:   s.Channels,
				Language:   s.Tags["language"],
			})
		}
	}

	return report, nil
}

func (p *Prober) probePackets(ctx context.Context, path string) (int, []float64, error) {
	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "packet=pts_time,flags",
		"-of", "csv=p=0",
		path,
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, nil, err
	}

	if err := cmd.Start(); err != nil {
		return 0, nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var (
		frames    int
		keyframes []float64
	)
	scanner := bufio.NewScanner(stdout)

	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), ",")
		if len(parts) < 2 {
			continue
		}
		frames++
		if !strings.Contains(parts[1], "K") {
			continue
		}
		pts, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			continue
		}
		keyframes = append(keyframes, pts)
	}

	if err := cmd.Wait(); err != nil {
		return 0, nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	return frames, keyframes, nil
}
