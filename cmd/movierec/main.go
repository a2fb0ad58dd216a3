package main

import (
	"context"
	"os"

	"github.com/eleven-am/movierec/internal/cli"
)

func main() {
	if err := cli.NewRootCmd(&cli.Dependencies{}).ExecuteContext(context.Background()); err != nil {
		cli.NewFormatter(os.Stderr).Error(err.Error())
		os.Exit(1)
	}
}
