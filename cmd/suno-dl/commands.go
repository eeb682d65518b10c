package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/handiism/suno-downloader/internal/config"
	"github.com/handiism/suno-downloader/internal/download"
	"github.com/handiism/suno-downloader/internal/logging"
	"github.com/handiism/suno-downloader/internal/model"
	"github.com/handiism/suno-downloader/internal/server"
)

const separator = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config file (.json or .toml)",
	}
}

func urlArgument() []cli.Argument {
	return []cli.Argument{
		&cli.StringArg{
			Name:      "url",
			UsageText: "playlist or song URL",
		},
	}
}

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:      "download",
		Aliases:   []string{"dl"},
		Usage:     "Download a playlist or a single song",
		ArgsUsage: "<url>",
		Arguments: urlArgument(),
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (overrides config)",
			},
			&cli.StringFlag{
				Name:  "template",
				Usage: "File name template, e.g. \"{trackno} - {name}\"",
			},
			&cli.BoolFlag{
				Name:  "overwrite",
				Usage: "Overwrite existing files",
			},
			&cli.BoolFlag{
				Name:  "no-art",
				Usage: "Do not embed cover art",
			},
			&cli.IntFlag{
				Name:    "concurrency",
				Aliases: []string{"j"},
				Usage:   "Number of tracks downloaded at once",
			},
			&cli.BoolFlag{
				Name:  "zip",
				Usage: "Write a single zip archive instead of separate files",
			},
			&cli.BoolFlag{
				Name:  "playlist",
				Usage: "Create playlist file",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Show verbose output",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Resolve the URL without downloading",
			},
		},
		Action: runDownload,
	}
}

func tracksCommand() *cli.Command {
	return &cli.Command{
		Name:      "tracks",
		Usage:     "List the tracks of a playlist",
		ArgsUsage: "<url>",
		Arguments: urlArgument(),
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output JSON",
			},
		},
		Action: runTracks,
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API used by the web client",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides config)",
			},
			&cli.StringFlag{
				Name:  "origin",
				Usage: "Allowed CORS origin, sent credentials (default: any origin, no credentials)",
			},
		},
		Action: runServe,
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect or create the settings file",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write the default settings to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Destination file (.json or .toml)",
						Value:   "suno-dl.toml",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					path := cmd.String("path")
					if err := config.DefaultSettings().Save(path); err != nil {
						return fmt.Errorf("write config: %w", err)
					}
					fmt.Printf("Wrote default settings to %s\n", path)
					return nil
				},
			},
			{
				Name:  "show",
				Usage: "Print the effective settings",
				Flags: []cli.Flag{configFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					settings, err := config.Load(cmd.String("config"))
					if err != nil {
						return err
					}
					return toml.NewEncoder(os.Stdout).Encode(settings)
				},
			},
		},
	}
}

func newLogger(settings *config.Settings, verbose bool) *log.Logger {
	level := settings.LogLevel
	if verbose {
		level = "debug"
	}
	return logging.NewLogger(os.Stderr, level)
}

func printer(verbose bool) func(download.ProgressEvent) {
	return func(event download.ProgressEvent) {
		if event.Level == download.LevelVerbose && !verbose {
			return
		}

		prefix := ""
		switch event.Level {
		case download.LevelError:
			prefix = "❌ "
		case download.LevelWarning:
			prefix = "⚠️  "
		case download.LevelSuccess:
			prefix = "✅ "
		case download.LevelInfo:
			prefix = "ℹ️  "
		default:
			prefix = "   "
		}

		fmt.Println(prefix + event.Message)
	}
}

func runDownload(ctx context.Context, cmd *cli.Command) error {
	link := strings.TrimSpace(cmd.StringArg("url"))
	if link == "" {
		return cli.Exit("missing playlist or song URL\n\nUsage: suno-dl download <url> [options]", 1)
	}

	settings, err := config.Load(cmd.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error loading config: %v", err), 1)
	}

	if out := cmd.String("output"); out != "" {
		settings.DownloadsPath = filepath.Join(out, config.PlaylistPlaceholder)
	}
	if tmpl := cmd.String("template"); tmpl != "" {
		settings.FileNameFormat = tmpl
	}
	if cmd.Bool("overwrite") {
		settings.OverwriteFiles = true
	}
	if cmd.Bool("no-art") {
		settings.SaveCoverArtInTags = false
	}
	if n := cmd.Int("concurrency"); n > 0 {
		settings.MaxConcurrentTracksDownload = n
	}
	if cmd.Bool("playlist") {
		settings.CreatePlaylist = true
	}
	if err := settings.Validate(); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	verbose := cmd.Bool("verbose")
	manager := download.NewManager(settings, newLogger(settings, verbose), printer(verbose))

	fmt.Println("🎵 Suno Downloader")
	fmt.Println(separator)
	fmt.Println()

	playlist, err := manager.Resolve(ctx, link)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error resolving %s: %v", link, err), 1)
	}

	if cmd.Bool("dry-run") {
		printTracks(playlist)
		fmt.Println("\n[Dry run - not downloading]")
		return nil
	}

	fmt.Println("\n📥 Starting downloads...")
	fmt.Println()

	start := time.Now()
	result, err := manager.DownloadPlaylist(ctx, playlist, playlist.Tracks, cmd.Bool("zip"), nil)
	if ctx.Err() != nil {
		return cli.Exit("\nDownload cancelled.", 130)
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error during download: %v", err), 1)
	}

	report := result.Report
	fmt.Println()
	fmt.Println(separator)
	fmt.Printf("✨ Complete! %d downloaded, %d skipped, %d failed in %s\n",
		report.Succeeded, report.Skipped, report.Failed, time.Since(start).Round(time.Second))
	if result.ArchivePath != "" {
		fmt.Printf("   Archive: %s\n", result.ArchivePath)
	} else {
		fmt.Printf("   Saved to: %s\n", result.Dir)
	}

	if report.Failed > 0 {
		for _, o := range report.Failures() {
			fmt.Printf("   ✗ %s: %v\n", o.FileName, o.Err)
		}
		return cli.Exit(fmt.Sprintf("%d of %d tracks failed", report.Failed, report.Total()), 1)
	}
	return nil
}

func runTracks(ctx context.Context, cmd *cli.Command) error {
	link := strings.TrimSpace(cmd.StringArg("url"))
	if link == "" {
		return cli.Exit("missing playlist or song URL", 1)
	}

	settings, err := config.Load(cmd.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error loading config: %v", err), 1)
	}

	manager := download.NewManager(settings, newLogger(settings, false), nil)
	playlist, err := manager.Resolve(ctx, link)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error resolving %s: %v", link, err), 1)
	}

	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*model.Playlist
			Tracks []*model.Track `json:"tracks"`
		}{playlist, playlist.Tracks})
	}

	printTracks(playlist)
	return nil
}

func printTracks(playlist *model.Playlist) {
	fmt.Printf("%s (%d tracks, %s)\n\n", playlist.DisplayName(), len(playlist.Tracks), formatDuration(playlist.TotalDuration()))
	for _, t := range playlist.Tracks {
		line := fmt.Sprintf("%3d. %s [%s]", t.Number, t.Title, formatDuration(t.Duration))
		if t.Tags != "" {
			line += "  " + t.Tags
		}
		fmt.Println(line)
	}
}

func formatDuration(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	m := int(d / time.Minute)
	s := int((d % time.Minute) / time.Second)
	return fmt.Sprintf("%d:%02d", m, s)
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	settings, err := config.Load(cmd.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error loading config: %v", err), 1)
	}

	addr := settings.ListenAddress
	if a := cmd.String("addr"); a != "" {
		addr = a
	}

	logger := newLogger(settings, false)
	manager := download.NewManager(settings, logger, nil)

	var opts []server.Option
	if origin := cmd.String("origin"); origin != "" {
		opts = append(opts, server.WithAllowedOrigin(origin))
	}
	return server.New(manager, logger, opts...).ListenAndServe(ctx, addr)
}
