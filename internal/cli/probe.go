package cli

import (
	"github.com/spf13/cobra"

	"github.com/eleven-am/movierec/internal/probe"
)

func NewProbeCmd(deps *Dependencies) *cobra.Command {
	var width, height, frames int

	cmd := &cobra.Command{
		Use:   "probe <file>",
		Short: "Inspect a recording with ffprobe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := NewFormatter(cmd.OutOrStdout())

			report, err := probe.NewProber("", deps.Logger.Named("probe")).Probe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			f.Report(report)

			if width > 0 || height > 0 || frames > 0 {
				if err := report.Check(width, height, frames); err != nil {
					return err
				}
				f.Success("recording matches")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", 0, "Expected width")
	cmd.Flags().IntVar(&height, "height", 0, "Expected height")
	cmd.Flags().IntVar(&frames, "frames", 0, "Expected frame count")

	return cmd
}
