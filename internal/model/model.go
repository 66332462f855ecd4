// Package model defines the domain types used across the application.
package model

import (
	"strings"
	"unicode"
)

// FeedEntry represents one weekly shipment announcement from the RSS feed.
type FeedEntry struct {
	Title       string
	SummaryHTML string
}

// Record field positions within a comic list line.
const (
	FieldCode = iota
	FieldType
	FieldTitle

	// MinRecordFields is the number of fields every record must carry.
	MinRecordFields
)

// SplitRecord splits a comic list line into its comma-separated fields.
func SplitRecord(record string) []string {
	return strings.Split(record, ",")
}

// IsComicType reports whether a record's type flag marks a comic.
// The flag must contain at least one letter and no lowercase letters;
// mixed or lowercase flags are used for merchandise.
func IsComicType(flag string) bool {
	cased := false
	for _, r := range flag {
		if unicode.IsLower(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

// FailureReason identifies why a check run failed.
type FailureReason string

// Supported failure reasons.
const (
	ReasonNoFeed          FailureReason = "no_feed"
	ReasonParseFailure    FailureReason = "parse_failure"
	ReasonMalformedRecord FailureReason = "malformed_record"
	ReasonInvalidConfig   FailureReason = "invalid_config"
	ReasonNoConfigFile    FailureReason = "no_config_file"
	ReasonNoWatchlist     FailureReason = "no_watchlist"
	ReasonGeneric         FailureReason = "generic"
)

// RunState is a stage of a check run.
type RunState string

// Check run states in the order they are visited.
const (
	StateFetching  RunState = "fetching"
	StateParsing   RunState = "parsing"
	StateMatching  RunState = "matching"
	StateNotifying RunState = "notifying"
	StateDone      RunState = "done"
	StateFailed    RunState = "failed"
)

// ExitCode returns the process exit status reported for the reason.
func (r FailureReason) ExitCode() int {
	switch r {
	case ReasonNoFeed:
		return 2
	case ReasonInvalidConfig:
		return 3
	case ReasonNoConfigFile:
		return 4
	case ReasonNoWatchlist:
		return 5
	case ReasonParseFailure:
		return 6
	case ReasonMalformedRecord:
		return 7
	default:
		return 1
	}
}
