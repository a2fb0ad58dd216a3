// Package config holds the recorder settings and their YAML file form.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eleven-am/movierec/internal/domain"
)

// Settings are the user-facing recorder settings.
type Settings struct {
	Format          domain.OutputFormat    `yaml:"format"`
	Quality         domain.Quality         `yaml:"quality"`
	Preset          int                    `yaml:"preset"`
	ColorDefinition domain.ColorDefinition `yaml:"color_definition"`
	CustomOptions   string                 `yaml:"custom_options,omitempty"`

	FrameRateMode domain.FrameRateMode `yaml:"frame_rate_mode"`
	FrameRate     float64              `yaml:"frame_rate"`

	// CaptureAccumulation is the non-real-time capture mode where several
	// sub-frames are combined into one output frame. Audio is not recorded.
	CaptureAccumulation bool `yaml:"capture_accumulation"`

	Verbose bool `yaml:"verbose"`
	HWAccel bool `yaml:"hwaccel"`

	Output OutputSettings `yaml:"output"`
}

type OutputSettings struct {
	// Template is the output file path. {session} expands to the session ID
	// and {ext} to the format extension.
	Template   string   `yaml:"template"`
	AssetRoots []string `yaml:"asset_roots,omitempty"`
}

// Default returns settings for a 30 fps MP4 recording.
func Default() Settings {
	return Settings{
		Format:          domain.FormatMP4,
		Quality:         domain.QualityHigh,
		Preset:          0,
		ColorDefinition: domain.ColorRec709,
		FrameRateMode:   domain.FrameRateConstant,
		FrameRate:       30,
		Output: OutputSettings{
			Template: filepath.Join("Recordings", "movie_{session}.{ext}"),
		},
	}
}

// Load reads a YAML settings file on top of Default. A missing file is not
// an error.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (Settings, error) {
	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Save writes s as YAML, creating the parent directory.
func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (s Settings) Validate() error {
	switch s.Format {
	case domain.FormatMP4, domain.FormatWebM, domain.FormatMOV:
	default:
		return fmt.Errorf("unsupported output format: %q", s.Format)
	}

	switch s.Quality {
	case domain.QualityLow, domain.QualityMedium, domain.QualityHigh:
	default:
		return fmt.Errorf("invalid quality: %q", s.Quality)
	}

	switch s.FrameRateMode {
	case domain.FrameRateConstant, domain.FrameRateVariable:
	default:
		return fmt.Errorf("invalid frame rate mode: %q", s.FrameRateMode)
	}

	if s.FrameRateMode == domain.FrameRateConstant {
		if math.IsNaN(s.FrameRate) || s.FrameRate <= 0 || s.FrameRate > 1000 {
			return fmt.Errorf("invalid frame rate: %v", s.FrameRate)
		}
	}

	if s.Preset < 0 {
		return fmt.Errorf("invalid codec preset: %d", s.Preset)
	}

	if s.ColorDefinition < domain.ColorRec709 || s.ColorDefinition > domain.ColorRec2020 {
		return fmt.Errorf("invalid color definition: %d", s.ColorDefinition)
	}

	if strings.TrimSpace(s.Output.Template) == "" {
		return fmt.Errorf("output template is required")
	}

	return nil
}
