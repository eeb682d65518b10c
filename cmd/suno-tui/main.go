package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/handiism/suno-downloader/internal/config"
	"github.com/handiism/suno-downloader/internal/tui"
)

func main() {
	app := &cli.Command{
		Name:  "suno-tui",
		Usage: "Interactive Suno playlist downloader",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (.json or .toml)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			settings, err := config.Load(cmd.String("config"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return tui.Run(settings)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
