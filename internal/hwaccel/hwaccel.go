// Package hwaccel detects which H.264 encoders the local ffmpeg build can
// use and describes how to feed them raw RGB frames.
package hwaccel

import (
	"bufio"
	"context"
	"os/exec"
	"strings"

	"github.com/eleven-am/movierec/internal/domain"
)

// Detect lists the accelerators the local ffmpeg can encode H.264 with.
// AccelNone is always included.
func Detect(ctx context.Context) ([]domain.Accelerator, error) {
	hwaccels, err := detectHWAccels(ctx)
	if err != nil {
		return nil, err
	}

	encoders, err := detectEncoders(ctx)
	if err != nil {
		return nil, err
	}

	var available []domain.Accelerator

	if hwaccels["cuda"] && encoders["h264_nvenc"] {
		available = append(available, domain.AccelCUDA)
	}
	if hwaccels["videotoolbox"] && encoders["h264_videotoolbox"] {
		available = append(available, domain.AccelVideoToolbox)
	}
	if hwaccels["vaapi"] && encoders["h264_vaapi"] {
		available = append(available, domain.AccelVAAPI)
	}
	if hwaccels["qsv"] && encoders["h264_qsv"] {
		available = append(available, domain.AccelQSV)
	}

	available = append(available, domain.AccelNone)

	return available, nil
}

func Select(available []domain.Accelerator) domain.Accelerator {
	priority := []domain.Accelerator{domain.AccelCUDA, domain.AccelQSV, domain.AccelVideoToolbox, domain.AccelVAAPI}

	for _, accel := range priority {
		for _, a := range available {
			if a == accel {
				return accel
			}
		}
	}

	return domain.AccelNone
}

// DetectBest returns the config of the highest priority accelerator, or the
// software config when detection fails.
func DetectBest(ctx context.Context) *domain.HWAccelConfig {
	available, err := Detect(ctx)
	if err != nil {
		return NewConfig(domain.AccelNone)
	}
	return NewConfig(Select(available))
}

func NewConfig(accel domain.Accelerator) *domain.HWAccelConfig {
	switch accel {
	case domain.AccelCUDA:
		return &domain.HWAccelConfig{
			Accelerator: domain.AccelCUDA,
			EncodeFlags: []string{"-c:v", "h264_nvenc", "-preset", "p5"},
			Encoder:     "h264_nvenc",
			PixelFormat: "yuv420p",
		}
	case domain.AccelVideoToolbox:
		return &domain.HWAccelConfig{
			Accelerator: domain.AccelVideoToolbox,
			EncodeFlags: []string{"-c:v", "h264_videotoolbox", "-realtime", "true"},
			Encoder:     "h264_videotoolbox",
			PixelFormat: "nv12",
		}
	case domain.AccelVAAPI:
		return &domain.HWAccelConfig{
			Accelerator:  domain.AccelVAAPI,
			DeviceFlags:  []string{"-vaapi_device", "/dev/dri/renderD128"},
			EncodeFlags:  []string{"-c:v", "h264_vaapi"},
			Encoder:      "h264_vaapi",
			UploadFilter: "format=nv12,hwupload",
		}
	case domain.AccelQSV:
		return &domain.HWAccelConfig{
			Accelerator: domain.AccelQSV,
			EncodeFlags: []string{"-c:v", "h264_qsv", "-preset", "medium"},
			Encoder:     "h264_qsv",
			PixelFormat: "nv12",
		}
	default:
		return &domain.HWAccelConfig{
			Accelerator: domain.AccelNone,
			EncodeFlags: []string{"-c:v", "libx264", "-preset", "medium"},
			Encoder:     "libx264",
			PixelFormat: "yuv420p",
		}
	}
}

func detectHWAccels(ctx context.Context) (map[string]bool, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-hwaccels")
	output, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	result := make(map[string]bool)
	scanner := bufio.NewScanner(strings.NewReader(string(output)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && line != "Hardware acceleration methods:" {
			result[line] = true
		}
	}

	return result, nil
}

func detectEncoders(ctx context.Context) (map[string]bool, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-encoders")
	output, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	return parseEncoders(string(output)), nil
}

// parseEncoders collects encoder names from `ffmpeg -encoders` output.
// Each encoder line is "<flags> <name> <description>".
func parseEncoders(output string) map[string]bool {
	result := make(map[string]bool)
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || len(fields[0]) != 6 || fields[1] == "=" {
			continue
		}
		result[fields[1]] = true
	}
	return result
}

// Encoders reports the encoder names the local ffmpeg supports.
func Encoders(ctx context.Context) (map[string]bool, error) {
	return detectEncoders(ctx)
}
