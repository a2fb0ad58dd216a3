package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/eleven-am/movierec"
	"github.com/eleven-am/movierec/internal/backend"
	"github.com/eleven-am/movierec/internal/config"
	"github.com/eleven-am/movierec/internal/domain"
	"github.com/eleven-am/movierec/internal/encoder"
	"github.com/eleven-am/movierec/internal/hwaccel"
	"github.com/eleven-am/movierec/internal/output"
	"github.com/eleven-am/movierec/internal/probe"
	"github.com/eleven-am/movierec/internal/synth"
)

type recordFlags struct {
	format   string
	quality  string
	preset   int
	rate     float64
	vfr      bool
	width    int
	height   int
	frames   int
	alpha    bool
	audio    bool
	async    bool
	out      string
	root     string
	verify   bool
	hwaccel  bool
	verbose  bool
	endAfter time.Duration
}

func NewRecordCmd(deps *Dependencies) *cobra.Command {
	var flags recordFlags

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a generated test pattern",
		Long:  "Record a generated test pattern, and optionally a sine tone, through the recorder.\nCtrl+C ends the recording early; the file is still finalized.",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := applyRecordFlags(cmd, deps.Settings, flags)
			if err := settings.Validate(); err != nil {
				return err
			}
			return runRecord(cmd.Context(), deps, settings, flags, NewFormatter(cmd.OutOrStdout()))
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "Output format (mp4, webm, mov)")
	cmd.Flags().StringVarP(&flags.quality, "quality", "q", "", "Encoding quality (low, medium, high)")
	cmd.Flags().IntVarP(&flags.preset, "preset", "p", 0, "Codec preset index, see 'movierec formats'")
	cmd.Flags().Float64VarP(&flags.rate, "rate", "r", 0, "Frame rate")
	cmd.Flags().BoolVar(&flags.vfr, "vfr", false, "Variable frame rate")
	cmd.Flags().IntVar(&flags.width, "width", 1280, "Frame width")
	cmd.Flags().IntVar(&flags.height, "height", 720, "Frame height")
	cmd.Flags().IntVarP(&flags.frames, "frames", "n", 150, "Number of frames to record")
	cmd.Flags().BoolVar(&flags.alpha, "alpha", false, "Record transparency")
	cmd.Flags().BoolVar(&flags.audio, "audio", true, "Record a sine tone")
	cmd.Flags().BoolVar(&flags.async, "async", false, "Complete captures asynchronously")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "Output file template ({session}, {ext})")
	cmd.Flags().StringVar(&flags.root, "root", ".", "Directory relative templates resolve against")
	cmd.Flags().BoolVar(&flags.verify, "verify", false, "Probe the file after recording")
	cmd.Flags().BoolVar(&flags.hwaccel, "hwaccel", false, "Use a hardware H.264 encoder when available")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log track attributes")
	cmd.Flags().DurationVar(&flags.endAfter, "end-timeout", 10*time.Second, "How long to wait for outstanding captures")

	return cmd
}

func applyRecordFlags(cmd *cobra.Command, s config.Settings, flags recordFlags) config.Settings {
	changed := cmd.Flags().Changed
	if changed("format") {
		s.Format = domain.OutputFormat(flags.format)
	}
	if changed("quality") {
		s.Quality = domain.Quality(flags.quality)
	}
	if changed("preset") {
		s.Preset = flags.preset
	}
	if changed("rate") {
		s.FrameRate = flags.rate
	}
	if changed("vfr") && flags.vfr {
		s.FrameRateMode = domain.FrameRateVariable
	}
	if changed("out") {
		s.Output.Template = flags.out
	}
	if changed("hwaccel") {
		s.HWAccel = flags.hwaccel
	}
	if changed("verbose") {
		s.Verbose = flags.verbose
	}
	return s
}

func runRecord(parent context.Context, deps *Dependencies, settings config.Settings, flags recordFlags, f *Formatter) error {
	logger := deps.Logger

	// The encoder process runs under parent so an interrupt only stops the
	// frame loop and the file is still finalized.
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	hw := hwaccel.NewConfig(domain.AccelNone)
	if settings.HWAccel {
		hw = hwaccel.DetectBest(ctx)
	}
	encoders, err := hwaccel.Encoders(ctx)
	if err != nil {
		logger.Warn("could not list ffmpeg encoders, assuming all are available", "error", err)
		encoders = nil
	}

	registry := encoder.NewRegistry(backend.All(backend.FFmpegOptions{
		HWAccel:  hw,
		Encoders: encoders,
		Logger:   logger.Named("backend"),
	})...)

	out := output.NewPath(flags.root, settings.Output.Template, settings.Format, settings.Output.AssetRoots...)

	pacing := settings.FrameRate
	if pacing <= 0 {
		pacing = 30
	}
	render := &synth.Pattern{Width: flags.width, Height: flags.height, Alpha: flags.alpha, Async: flags.async}
	tone := synth.NewTone(48000, 2, pacing)
	tone.Preserve = flags.audio

	rec := movierec.NewRecorder(movierec.Options{
		Registry: registry,
		Output:   out,
		Render:   render,
		Audio:    tone,
		Settings: settings,
		Logger:   logger,
		Notifier: domain.NotifierFunc(func(context.Context) {
			f.Info("recording written into an asset tree")
		}),
	})

	session := movierec.NewSession(settings.FrameRateMode, settings.FrameRate)
	path := out.AbsolutePath(session)
	if err := rec.BeginRecording(parent, session); err != nil {
		return err
	}
	f.RecordingStarted(path, flags.width, flags.height, settings.Format)

	recorded := 0
	for ; recorded < flags.frames && ctx.Err() == nil; recorded++ {
		session.RecorderTime = float64(recorded) / pacing
		rec.RecordFrame(ctx, session)
	}

	endCtx, cancel := context.WithTimeout(context.Background(), flags.endAfter)
	defer cancel()
	rec.EndRecording(endCtx, session)

	f.RecordingDone(path, recorded)

	if !flags.verify {
		return nil
	}
	probeCtx, cancelProbe := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelProbe()
	report, err := probe.NewProber("", logger.Named("probe")).Probe(probeCtx, path)
	if err != nil {
		return fmt.Errorf("verify recording: %w", err)
	}
	f.Report(report)
	if err := report.Check(flags.width, flags.height, recorded); err != nil {
		return err
	}
	f.Success("recording verified")
	return nil
}
