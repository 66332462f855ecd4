// Package checker runs one check of the comic feed against the watchlist.
package checker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"comics_mailer/internal/comiclist"
	"comics_mailer/internal/config"
	"comics_mailer/internal/fetcher"
	"comics_mailer/internal/filter"
	"comics_mailer/internal/model"
	"comics_mailer/internal/notify"
	"comics_mailer/internal/storage"
)

// Source provides the entries of a feed.
type Source interface {
	Entries(ctx context.Context, url string) ([]model.FeedEntry, error)
}

// Options configures a single run.
type Options struct {
	FeedURL   string
	Watchlist []string
	Filter    filter.Options
	// Force leaves the last-update date untouched so the same window can be
	// checked again.
	Force       bool
	MailOnError bool
}

// Result describes how far a run got and what it found.
type Result struct {
	State   model.RunState
	Reason  model.FailureReason
	Entries int
	Records int
	Matches []string
}

// RunError is returned for a failed run.
type RunError struct {
	Reason model.FailureReason
	Err    error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Checker fetches, parses and matches the feed, then notifies.
type Checker struct {
	source   Source
	store    storage.Storage
	notifier notify.Notifier
	log      *slog.Logger
	now      func() time.Time
}

// New creates a Checker.
func New(source Source, store storage.Storage, notifier notify.Notifier, log *slog.Logger) *Checker {
	return &Checker{
		source:   source,
		store:    store,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// SetClock overrides the clock used for the last-update date.
func (c *Checker) SetClock(now func() time.Time) {
	c.now = now
}

// Run performs one check. A failed run returns a *RunError and never moves
// the last-update date.
func (c *Checker) Run(ctx context.Context, opts Options) (*Result, error) {
	log := c.log.With("run_id", uuid.NewString())
	res := &Result{}

	c.enter(log, res, model.StateFetching)
	entries, err := c.source.Entries(ctx, opts.FeedURL)
	if err != nil {
		return res, c.fail(ctx, log, res, model.ReasonNoFeed, err, opts.MailOnError)
	}

	last, err := c.lastUpdate(ctx, log)
	if err != nil {
		return res, c.fail(ctx, log, res, model.ReasonGeneric, err, opts.MailOnError)
	}
	if last != nil {
		total := len(entries)
		entries, err = SinceDate(entries, *last)
		if err != nil {
			return res, c.fail(ctx, log, res, model.ReasonParseFailure, err, opts.MailOnError)
		}
		log.Debug("filtered entries by last update", "last_update", last.Format(storage.DateLayout),
			"total", total, "new", len(entries))
	}
	res.Entries = len(entries)

	c.enter(log, res, model.StateParsing)
	records, err := comiclist.ParseEntries(entries)
	if err != nil {
		return res, c.fail(ctx, log, res, model.ReasonParseFailure, err, opts.MailOnError)
	}
	res.Records = len(records)

	c.enter(log, res, model.StateMatching)
	matches, err := filter.Match(records, opts.Watchlist, opts.Filter)
	if err != nil {
		return res, c.fail(ctx, log, res, model.ReasonMalformedRecord, err, opts.MailOnError)
	}
	res.Matches = matches

	c.enter(log, res, model.StateNotifying)
	if len(matches) == 0 {
		log.Info("no updates", "entries", res.Entries, "records", res.Records)
	} else if err := c.notifier.NotifyUpdate(ctx, matches); err != nil {
		log.Error("send update notification", "count", len(matches), "error", err)
	} else {
		log.Info("sent update notification", "count", len(matches))
	}

	// Stored as a UTC date, the zone SinceDate compares entry dates in.
	if opts.Force {
		log.Info("forced run, last update date not changed")
	} else if err := c.store.SetLastUpdate(ctx, c.now().UTC()); err != nil {
		log.Error("write last update date", "error", err)
	}

	c.enter(log, res, model.StateDone)
	return res, nil
}

// ReportFailure reports a failure that happened outside Run, such as a
// missing watchlist or an unopenable database. It logs err, sends an error
// notification when mailOnError is set, and returns err as a *RunError.
func ReportFailure(ctx context.Context, notifier notify.Notifier, log *slog.Logger, err error, mailOnError bool) error {
	return report(ctx, notifier, log, Classify(err), err, mailOnError)
}

func (c *Checker) fail(ctx context.Context, log *slog.Logger, res *Result, reason model.FailureReason, err error, mailOnError bool) error {
	res.Reason = reason
	c.enter(log, res, model.StateFailed)
	return report(ctx, c.notifier, log, reason, err, mailOnError)
}

func report(ctx context.Context, notifier notify.Notifier, log *slog.Logger, reason model.FailureReason, err error, mailOnError bool) error {
	log.Error("check failed", "reason", reason, "error", err)
	if mailOnError {
		if nerr := notifier.NotifyError(ctx, reason, err.Error()); nerr != nil {
			log.Error("send error notification", "reason", reason, "error", nerr)
		}
	}
	return &RunError{Reason: reason, Err: err}
}

func (c *Checker) enter(log *slog.Logger, res *Result, state model.RunState) {
	res.State = state
	log.Debug("state", "state", state)
}

func (c *Checker) lastUpdate(ctx context.Context, log *slog.Logger) (*time.Time, error) {
	last, err := c.store.LastUpdate(ctx)
	if errors.Is(err, storage.ErrInvalidCheckpoint) {
		log.Warn("ignoring stored last update date", "error", err)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read last update date: %w", err)
	}
	return last, nil
}

// SinceDate returns the entries whose title date is strictly after since.
func SinceDate(entries []model.FeedEntry, since time.Time) ([]model.FeedEntry, error) {
	cutoff := time.Date(since.Year(), since.Month(), since.Day(), 0, 0, 0, 0, time.UTC)

	var out []model.FeedEntry
	for _, e := range entries {
		d, err := comiclist.ParseEntryDate(e.Title)
		if err != nil {
			return nil, err
		}
		if d.After(cutoff) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Classify maps an error to the failure reason reported for it.
func Classify(err error) model.FailureReason {
	var runErr *RunError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &runErr):
		return runErr.Reason
	case errors.Is(err, fetcher.ErrNoFeed):
		return model.ReasonNoFeed
	case errors.Is(err, comiclist.ErrParse):
		return model.ReasonParseFailure
	case errors.Is(err, filter.ErrMalformedRecord):
		return model.ReasonMalformedRecord
	case errors.Is(err, config.ErrNoConfigFile):
		return model.ReasonNoConfigFile
	case errors.Is(err, config.ErrInvalidConfig):
		return model.ReasonInvalidConfig
	case errors.Is(err, config.ErrNoWatchlist):
		return model.ReasonNoWatchlist
	default:
		return model.ReasonGeneric
	}
}

// ExitCode returns the process exit status for the outcome of a run.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return Classify(err).ExitCode()
}
