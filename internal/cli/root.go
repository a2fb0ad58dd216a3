package cli

import (
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/eleven-am/movierec/internal/config"
	"github.com/eleven-am/movierec/internal/version"
)

type Dependencies struct {
	Settings config.Settings
	Logger   hclog.Logger
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	var configPath string
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "movierec",
		Short:         "Record rendered frames into a video file",
		Long:          "movierec drives the recording state machine with a generated test pattern and tone, writing MP4, WebM or MOV files through ffmpeg.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(configPath)
			if err != nil {
				return err
			}
			deps.Settings = settings

			level := hclog.LevelFromString(logLevel)
			if level == hclog.NoLevel {
				level = hclog.Info
			}
			deps.Logger = hclog.New(&hclog.LoggerOptions{
				Name:   "movierec",
				Level:  level,
				Output: os.Stderr,
			})
			return nil
		},
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "movierec.yaml", "Settings file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(NewRecordCmd(deps))
	rootCmd.AddCommand(NewFormatsCmd(deps))
	rootCmd.AddCommand(NewProbeCmd(deps))

	return rootCmd
}
