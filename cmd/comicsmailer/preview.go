package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"comics_mailer/internal/comiclist"
	"comics_mailer/internal/config"
	"comics_mailer/internal/fetcher"
	"comics_mailer/internal/filter"
	"comics_mailer/internal/model"
)

func newPreviewCommand(flags *rootFlags) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the latest comic list and which records match the watchlist",
		Long: "Fetch the feed and print the parsed comic list with watchlist matches.\n" +
			"Nothing is mailed and the last update date is left alone.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			watchlist, err := config.LoadWatchlist(cfg.WatchlistPath)
			if err != nil {
				return err
			}

			f := fetcher.New(&http.Client{Timeout: cfg.RequestTimeout()})
			entries, err := f.Entries(cmd.Context(), cfg.FeedURL)
			if err != nil {
				return err
			}
			if !all {
				entries = entries[:1]
			}

			records, err := comiclist.ParseEntries(entries)
			if err != nil {
				return err
			}
			matches, err := filter.Match(records, watchlist, filter.Options{CollapseVariants: cfg.Behavior.CollapseVariants})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintln(out, e.Title)
			}
			fmt.Fprintln(out, renderRecords(recordRows(records, watchlist)))
			fmt.Fprintf(out, "\n%d match(es)\n", len(matches))
			for _, m := range matches {
				fmt.Fprintf(out, "  * %s\n", m)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include every entry in the feed, not only the latest")
	return cmd
}

type recordRow struct {
	Code    string
	Type    string
	Title   string
	Comic   bool
	Watched []string
}

func recordRows(records, watchlist []string) []recordRow {
	rows := make([]recordRow, 0, len(records))
	for _, rec := range records {
		var row recordRow
		fields := model.SplitRecord(rec)
		if len(fields) >= model.MinRecordFields {
			row.Code = fields[model.FieldCode]
			row.Type = fields[model.FieldType]
			row.Title = fields[model.FieldTitle]
			row.Comic = model.IsComicType(row.Type)
		} else {
			row.Title = rec
		}

		lower := strings.ToLower(rec)
		for _, p := range watchlist {
			if strings.Contains(lower, strings.ToLower(p)) {
				row.Watched = append(row.Watched, p)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func renderRecords(rows []recordRow) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.AppendHeader(table.Row{"Code", "Type", "Title", "Comic", "Watched"})
	for _, r := range rows {
		comic := ""
		if r.Comic {
			comic = "yes"
		}
		tw.AppendRow(table.Row{r.Code, r.Type, r.Title, comic, strings.Join(r.Watched, ", ")})
	}
	return tw.Render()
}
