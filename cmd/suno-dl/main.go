package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/handiism/suno-downloader/internal/logging"
)

func main() {
	app := &cli.Command{
		Name:    "suno-dl",
		Usage:   "Download Suno playlists and songs as tagged MP3 files",
		Version: "1.0.0",
		Description: "For interactive mode, use: suno-tui\n\n" +
			"Settings are read from a JSON or TOML file (see \"suno-dl config init\").",
		Commands: []*cli.Command{
			downloadCommand(),
			tracksCommand(),
			serveCommand(),
			configCommand(),
		},
	}

	if err := app.Run(interruptContext(), os.Args); err != nil {
		logging.NewLogger(os.Stderr, "info").Fatal("suno-dl", "err", err)
	}
}

// interruptContext returns a context canceled on SIGINT or SIGTERM.
func interruptContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		os.Stderr.WriteString("\nInterrupted, cancelling...\n")
		cancel()
	}()

	return ctx
}
