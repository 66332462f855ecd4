// Package filter implements the watchlist matching engine.
package filter

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"comics_mailer/internal/model"
)

// ErrMalformedRecord is returned when a matched record has too few fields.
var ErrMalformedRecord = errors.New("malformed comic record")

var issueRe = regexp.MustCompile(`^.*#\d+`)

// Options controls how matched titles are reduced.
type Options struct {
	// CollapseVariants reduces every title to "name #N" and deduplicates.
	CollapseVariants bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{CollapseVariants: true}
}

// Match returns the titles of the comic records that contain any watchlist
// pattern, case-insensitively.
//
// With variant collapsing the result is a deduplicated set of issue titles
// sorted ascending; titles without an issue number are dropped. Without it,
// every matched title is returned in match order, duplicates included.
func Match(records, watchlist []string, opts Options) ([]string, error) {
	var titles []string
	for _, pattern := range watchlist {
		p := strings.ToLower(pattern)
		for _, rec := range records {
			if !strings.Contains(strings.ToLower(rec), p) {
				continue
			}
			fields := model.SplitRecord(rec)
			if len(fields) < model.MinRecordFields {
				return nil, fmt.Errorf("%w: %q has %d fields", ErrMalformedRecord, rec, len(fields))
			}
			if !model.IsComicType(fields[model.FieldType]) {
				continue
			}
			titles = append(titles, fields[model.FieldTitle])
		}
	}

	if !opts.CollapseVariants {
		return titles, nil
	}
	return collapse(titles), nil
}

// IssueTitle returns the part of a title up to and including its issue
// number, or false when the title has none.
func IssueTitle(title string) (string, bool) {
	m := issueRe.FindString(title)
	return m, m != ""
}

func collapse(titles []string) []string {
	seen := make(map[string]struct{}, len(titles))
	var out []string
	for _, t := range titles {
		issue, ok := IssueTitle(t)
		if !ok {
			continue
		}
		if _, dup := seen[issue]; dup {
			continue
		}
		seen[issue] = struct{}{}
		out = append(out, issue)
	}
	slices.Sort(out)
	return out
}
