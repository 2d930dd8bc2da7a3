package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/citybites/site/internal/admin"
	"github.com/citybites/site/internal/auth"
	"github.com/citybites/site/internal/config"
	"github.com/citybites/site/internal/db"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		email         string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:          "create-admin --email <address> [--password-stdin]",
		Short:        "Create an administrator account",
		Long:         "Create an administrator account. Without --password-stdin a random password is generated and printed once.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(email) == "" {
				return errors.New("--email is required")
			}

			password, generated, err := readPassword(cmd.InOrStdin(), passwordStdin)
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			created, err := createAdmin(cmd.Context(), email, hash)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "created admin %s (%s)\n", created.Email, created.ID)
			if generated {
				fmt.Fprintf(out, "password: %s\n", password)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email address")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read password from stdin")
	return cmd
}

func readPassword(in io.Reader, fromStdin bool) (password string, generated bool, err error) {
	if fromStdin {
		b, err := io.ReadAll(in)
		if err != nil {
			return "", false, err
		}
		return strings.TrimSpace(string(b)), false, nil
	}
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", false, err
	}
	return hex.EncodeToString(buf), true, nil
}

func createAdmin(ctx context.Context, email, hash string) (*admin.Admin, error) {
	cfg := config.Load()
	logger := zap.NewNop()

	pool, err := db.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL, logger); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return admin.NewService(admin.NewRepository(pool)).Create(ctx, email, hash)
}
