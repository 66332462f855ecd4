package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"comics_mailer/internal/config"
	"comics_mailer/migrations"
)

func newDBCommand(flags *rootFlags) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the checkpoint database schema",
	}

	dbCmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show migration status",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(flags, func(db *sql.DB) error {
					return printStatus(cmd.Context(), cmd.OutOrStdout(), db)
				})
			},
		},
		&cobra.Command{
			Use:   "up",
			Short: "Migrate to the latest version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(flags, func(db *sql.DB) error {
					return migrations.Run(cmd.Context(), db)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back one version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(flags, func(db *sql.DB) error {
					p, err := migrations.NewProvider(db)
					if err != nil {
						return err
					}
					res, err := p.Down(cmd.Context())
					if err != nil {
						return fmt.Errorf("migrate down: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "rolled back %s\n", res.Source.Path)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Roll back every migration, forgetting the last update date",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(flags, func(db *sql.DB) error {
					p, err := migrations.NewProvider(db)
					if err != nil {
						return err
					}
					if _, err := p.DownTo(cmd.Context(), 0); err != nil {
						return fmt.Errorf("reset: %w", err)
					}
					return nil
				})
			},
		},
	)

	return dbCmd
}

func withDB(flags *rootFlags, fn func(db *sql.DB) error) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create data directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	return fn(db)
}

func printStatus(ctx context.Context, out io.Writer, db *sql.DB) error {
	p, err := migrations.NewProvider(db)
	if err != nil {
		return err
	}
	statuses, err := p.Status(ctx)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.AppendHeader(table.Row{"Version", "Migration", "State", "Applied"})
	for _, s := range statuses {
		applied := ""
		if !s.AppliedAt.IsZero() {
			applied = s.AppliedAt.Format("2006-01-02 15:04")
		}
		tw.AppendRow(table.Row{s.Source.Version, filepath.Base(s.Source.Path), string(s.State), applied})
	}
	fmt.Fprintln(out, tw.Render())
	return nil
}
