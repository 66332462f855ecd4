// Package comiclist extracts the weekly comic list from feed entries.
package comiclist

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"comics_mailer/internal/model"
)

// ListBlockIndex is the position of the paragraph holding the comic list.
// The feed does not document its markup; the list has always been the
// fifth <p> of the entry body.
const ListBlockIndex = 4

// ErrParse is returned when an entry does not have the expected structure.
var ErrParse = errors.New("unexpected entry format")

var entryDateRe = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)

// ParseEntryDate extracts the first valid M/D/YYYY date from an entry title.
func ParseEntryDate(title string) (time.Time, error) {
	matches := entryDateRe.FindAllString(title, -1)
	if len(matches) == 0 {
		return time.Time{}, fmt.Errorf("%w: no date in title %q", ErrParse, title)
	}
	var lastErr error
	for _, m := range matches {
		d, err := time.Parse("1/2/2006", m)
		if err == nil {
			return d, nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("%w: no valid date in title %q: %v", ErrParse, title, lastErr)
}

// Parse returns the comic records of a single entry, in document order.
func Parse(entry model.FeedEntry) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(entry.SummaryHTML))
	if err != nil {
		return nil, fmt.Errorf("%w: read html: %v", ErrParse, err)
	}

	block := doc.Find("p").Eq(ListBlockIndex)
	if block.Length() == 0 {
		return nil, fmt.Errorf("%w: entry %q has no comic list block", ErrParse, entry.Title)
	}

	var records []string
	for _, n := range block.Nodes {
		records = appendText(records, n)
	}
	return records, nil
}

// ParseEntries concatenates the records of all entries, keeping entry order.
func ParseEntries(entries []model.FeedEntry) ([]string, error) {
	var records []string
	for _, e := range entries {
		r, err := Parse(e)
		if err != nil {
			return nil, err
		}
		records = append(records, r...)
	}
	return records, nil
}

func appendText(dst []string, n *html.Node) []string {
	if n.Type == html.TextNode {
		if s := strings.TrimSpace(n.Data); s != "" {
			dst = append(dst, s)
		}
		return dst
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		dst = appendText(dst, c)
	}
	return dst
}
