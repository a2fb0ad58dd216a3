package cli

import (
	"github.com/spf13/cobra"

	"github.com/eleven-am/movierec/internal/backend"
	"github.com/eleven-am/movierec/internal/hwaccel"
)

func NewFormatsCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List output formats, codec presets and the hardware encoder",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := NewFormatter(cmd.OutOrStdout())
			ctx := cmd.Context()

			encoders, err := hwaccel.Encoders(ctx)
			if err != nil {
				f.Warning("could not list ffmpeg encoders: " + err.Error())
				return nil
			}

			hw := hwaccel.DetectBest(ctx)
			f.Info("H.264 encoder: " + hw.Encoder + " (" + string(hw.Accelerator) + ")")

			for _, b := range backend.All(backend.FFmpegOptions{HWAccel: hw, Encoders: encoders, Logger: deps.Logger}) {
				f.Backend(b.Name(), b.Formats(), b.Presets())
			}
			return nil
		},
	}
}
