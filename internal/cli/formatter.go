package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/eleven-am/movierec/internal/domain"
	"github.com/eleven-am/movierec/internal/probe"
)

type Formatter struct {
	w io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) RecordingStarted(path string, width, height int, format domain.OutputFormat) {
	fmt.Fprintf(f.w, "🎬 Recording %dx%d %s to %s\n", width, height, format, path)
}

func (f *Formatter) RecordingDone(path string, frames int) {
	fmt.Fprintf(f.w, "✅ Recorded %d frames: %s\n", frames, path)
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "❌ %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	fmt.Fprintf(f.w, "ℹ️  %s\n", msg)
}

func (f *Formatter) Success(msg string) {
	fmt.Fprintf(f.w, "✅ %s\n", msg)
}

func (f *Formatter) Warning(msg string) {
	fmt.Fprintf(f.w, "⚠️  %s\n", msg)
}

func (f *Formatter) Backend(name string, formats []domain.OutputFormat, presets []domain.Preset) {
	if len(formats) == 0 {
		fmt.Fprintf(f.w, "%s: unavailable\n", name)
		return
	}
	fmt.Fprintf(f.w, "%s:\n", name)
	for i, p := range presets {
		var notes []string
		if p.Transparency {
			notes = append(notes, "alpha")
		}
		if p.Profile != "" {
			notes = append(notes, "profile "+p.Profile)
		}
		line := fmt.Sprintf("  [%d] %s", i, p.Name)
		if len(notes) > 0 {
			line += " (" + strings.Join(notes, ", ") + ")"
		}
		fmt.Fprintln(f.w, line)
	}
}

func (f *Formatter) Report(r *probe.Report) {
	fmt.Fprintf(f.w, "📁 %s\n", r.Path)
	fmt.Fprintf(f.w, "  container: %s, %.3fs\n", r.FormatName, r.Duration)
	if v := r.Video; v != nil {
		fmt.Fprintf(f.w, "  video: %s %dx%d %s @ %s fps, %d frames\n", v.Codec, v.Width, v.Height, v.PixelFormat, v.FrameRate, r.Frames)
	}
	for _, a := range r.Audios {
		fmt.Fprintf(f.w, "  audio: %s %d Hz, %d ch\n", a.Codec, a.SampleRate, a.Channels)
	}
}
