package cmd

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/qrprint/kiosk/internal/config"
)

var version = "dev"

func App() *cli.Command {
	return &cli.Command{
		Name:    "kiosk",
		Version: version,
		Usage:   "Print-shop kiosk: upload documents, pay, scan a QR code, collect the print.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				Sources: cli.EnvVars("KIOSK_CONFIG_PATH"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("KIOSK_LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			serveCmd(),
			scannerCmd(),
			createAdminCmd(),
		},
	}
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if v := cmd.String("log-level"); v != "" {
		cfg.Logging.Level = v
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)

	return cfg, nil
}
