package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"comics_mailer/internal/checker"
	"comics_mailer/internal/config"
	"comics_mailer/internal/fetcher"
	"comics_mailer/internal/filter"
	"comics_mailer/internal/notify"
	"comics_mailer/internal/storage"
)

type rootFlags struct {
	configPath  string
	force       bool
	noErrorMail bool
}

func newRootCommand() *cobra.Command {
	var flags rootFlags

	rootCmd := &cobra.Command{
		Use:           "comicsmailer",
		Short:         "Mail the comics from your watchlist that ship this week",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd.Context(), flags)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Settings file path (default ./"+config.DefaultSettingsFile+" when present)")
	rootCmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Do not move the last update date, so the same week can be checked again")
	rootCmd.Flags().BoolVar(&flags.noErrorMail, "no-error-mail", false, "Do not send a notification when the check fails")

	rootCmd.AddCommand(newPreviewCommand(&flags))
	rootCmd.AddCommand(newDBCommand(&flags))

	return rootCmd
}

func runCheck(ctx context.Context, flags rootFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel)

	creds, err := config.LoadCredentials(cfg.CredentialsPath)
	if err != nil {
		log.Error("load credentials", "path", cfg.CredentialsPath, "error", err)
		return err
	}

	client := &http.Client{Timeout: cfg.RequestTimeout()}
	notifier := newNotifier(cfg, creds, client, log)
	mailOnError := cfg.Behavior.MailOnError && !flags.noErrorMail
	fail := func(err error) error {
		return checker.ReportFailure(ctx, notifier, log, err, mailOnError)
	}

	for _, p := range []string{cfg.DatabasePath, cfg.LockPath} {
		if dir := filepath.Dir(p); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fail(fmt.Errorf("create data directory %s: %w", dir, err))
			}
		}
	}

	lock := flock.New(cfg.LockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fail(fmt.Errorf("acquire lock: %w", err))
	}
	if !locked {
		return fail(errors.New("another comicsmailer run is in progress"))
	}
	defer func() { _ = lock.Unlock() }()

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		return fail(fmt.Errorf("open database %s: %w", cfg.DatabasePath, err))
	}
	defer func() { _ = store.Close() }()

	f := fetcher.New(client)
	f.SetTimeout(cfg.RequestTimeout())
	chk := checker.New(f, store, notifier, log)

	watchlist, err := config.LoadWatchlist(cfg.WatchlistPath)
	if err != nil {
		return fail(err)
	}

	log.Info("checking feed", "url", cfg.FeedURL, "patterns", len(watchlist), "debug", cfg.Behavior.Debug)
	res, err := chk.Run(ctx, checker.Options{
		FeedURL:     cfg.FeedURL,
		Watchlist:   watchlist,
		Filter:      filter.Options{CollapseVariants: cfg.Behavior.CollapseVariants},
		Force:       flags.force || cfg.Behavior.Debug,
		MailOnError: mailOnError,
	})
	if err != nil {
		return err
	}

	log.Info("check complete", "entries", res.Entries, "records", res.Records, "matches", len(res.Matches))
	return nil
}

func newNotifier(cfg *config.Config, creds *config.Credentials, client *http.Client, log *slog.Logger) *notify.Service {
	if cfg.Behavior.Debug {
		return notify.NewService(log)
	}

	channels := []notify.Channel{notify.NewMailgun(client, cfg.MailgunBaseURL, creds)}
	if creds.HasTelegram() {
		tg, err := notify.NewTelegram(creds.TelegramBotToken, creds.TelegramChatID, client)
		if err != nil {
			log.Warn("telegram notifications disabled", "error", err)
		} else {
			channels = append(channels, tg)
		}
	}
	return notify.NewService(log, channels...)
}
