package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/qrprint/kiosk/internal/scanner"
)

func scannerCmd() *cli.Command {
	return &cli.Command{
		Name:  "scanner",
		Usage: "Run the scan-and-dispatch station (QR decode, print via lp, confirm)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server-url",
				Usage:   "Base URL of the kiosk server",
				Sources: cli.EnvVars("KIOSK_SERVER_URL"),
			},
			&cli.StringFlag{
				Name:    "frame-dir",
				Usage:   "Directory to poll for camera frames; omit to read tokens from stdin",
				Sources: cli.EnvVars("KIOSK_FRAME_DIR"),
			},
			&cli.StringFlag{
				Name:    "printer",
				Usage:   "CUPS printer name (default printer when empty)",
				Sources: cli.EnvVars("KIOSK_PRINTER_NAME"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if v := cmd.String("server-url"); v != "" {
				cfg.Scanner.ServerURL = v
			}
			if v := cmd.String("frame-dir"); v != "" {
				cfg.Scanner.FrameDir = v
			}
			if v := cmd.String("printer"); v != "" {
				cfg.Scanner.PrinterName = v
			}

			var source scanner.TokenSource
			if cfg.Scanner.FrameDir != "" {
				if _, err := os.Stat(cfg.Scanner.FrameDir); err != nil {
					return fmt.Errorf("frame dir: %w", err)
				}
				source = scanner.NewFrameDirSource(cfg.Scanner.FrameDir, cfg.Scanner.PollInterval)
				log.Info().Str("frame_dir", cfg.Scanner.FrameDir).Msg("reading frames from directory")
			} else {
				source = scanner.NewLineSource(os.Stdin)
				log.Info().Msg("reading tokens from stdin")
			}

			client := scanner.NewClient(cfg.Scanner.ServerURL)
			printer := &scanner.LPPrinter{Name: cfg.Scanner.PrinterName}
			worker := scanner.NewWorker(client, printer, source, cfg.Scanner.Cooldown)

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return worker.Run(ctx)
		},
	}
}
