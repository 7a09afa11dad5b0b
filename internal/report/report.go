// Package report merges classified inventory into the mailable
// expiry report document.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/systmms/kvreport/internal/expiry"
	"github.com/systmms/kvreport/pkg/inventory"
)

// Report is the outcome of one classification pass: the merged, sorted
// entries plus the rendered HTML document and its plain-text
// alternative.
type Report struct {
	Source   string
	Mode     expiry.Mode
	Now      time.Time
	Entries  []expiry.Entry
	NoExpiry int // items skipped for having no expiration date
	HTML     string
	Text     string
}

// Empty reports whether no entry matched the requested ranges
func (r *Report) Empty() bool {
	return len(r.Entries) == 0
}

// Build aggregates the three item lists into a report for the requested
// mode, evaluated against a now captured once by the caller. Pure
// computation over already-fetched lists; the only possible failure is
// an out-of-enumeration mode, which config validation rejects long
// before this runs.
//
// Expired items are collected exactly once and shown in every mode.
// For the upcoming modes each list is classified against each of the
// mode's window selectors, lists in key/secret/certificate order, so
// the stable sort below keeps that order for equal timestamps.
func Build(source string, keys, secrets, certs []inventory.Item, mode expiry.Mode, now time.Time) (*Report, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("invalid report mode %d", int(mode))
	}

	lists := [][]inventory.Item{keys, secrets, certs}

	var merged []expiry.Entry
	for _, list := range lists {
		merged = append(merged, expiry.Classify(list, expiry.SelectExpired, now)...)
	}

	for _, list := range lists {
		for _, sel := range mode.Selectors() {
			merged = append(merged, expiry.Classify(list, sel, now)...)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Expires.Before(merged[j].Expires)
	})

	noExpiry := 0
	for _, list := range lists {
		for _, item := range list {
			if !item.HasExpiry() {
				noExpiry++
			}
		}
	}

	r := &Report{
		Source:   source,
		Mode:     mode,
		Now:      now,
		Entries:  merged,
		NoExpiry: noExpiry,
	}
	r.HTML = renderHTML(r, DefaultStyle)
	r.Text = renderText(r)

	return r, nil
}
