package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/crypto/bcrypt"

	"github.com/qrprint/kiosk/internal/db"
)

func createAdminCmd() *cli.Command {
	return &cli.Command{
		Name:  "create-admin",
		Usage: "Provision an admin account",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "username",
				Usage:    "Admin username",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "password",
				Usage:    "Admin password (min 6 characters)",
				Required: true,
				Sources:  cli.EnvVars("KIOSK_ADMIN_PASSWORD"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			username := cmd.String("username")
			password := cmd.String("password")
			if len(password) < 6 {
				return fmt.Errorf("password must be at least 6 characters")
			}

			if err := db.Init(db.Config{Path: cfg.Database.Path}); err != nil {
				return fmt.Errorf("init database: %w", err)
			}
			defer db.Close()

			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}

			account := &db.Account{
				Username:     username,
				PasswordHash: string(hash),
				IsAdmin:      true,
			}
			if err := db.Accounts.CreateAccount(ctx, account); err != nil {
				if errors.Is(err, db.ErrDuplicateUsername) {
					return fmt.Errorf("username %q already exists", username)
				}
				return err
			}

			log.Info().Str("username", username).Msg("admin account created")
			return nil
		},
	}
}
