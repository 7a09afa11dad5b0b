// Package expiry buckets inventory items into expiration windows.
//
// Classification is pure: the caller captures the clock once per run and
// passes it in, so every window in a run shares the same cutoff.
package expiry

import (
	"time"

	"github.com/systmms/kvreport/pkg/inventory"
)

const day = 24 * time.Hour

// Label is the display name of an expiration range.
type Label string

const (
	LabelExpired Label = "Expired"
	Label30Days  Label = "30 Days"
	Label60Days  Label = "60 Days"
	Label90Days  Label = "90 Days"
)

// Selector picks one expiration window.
type Selector int

const (
	SelectExpired Selector = iota
	SelectWithin30
	SelectWithin60
	SelectWithin90
)

// Label returns the selector's display label
func (s Selector) Label() Label {
	switch s {
	case SelectExpired:
		return LabelExpired
	case SelectWithin30:
		return Label30Days
	case SelectWithin60:
		return Label60Days
	case SelectWithin90:
		return Label90Days
	}
	return ""
}

// contains reports whether expires falls inside the selector's window.
// Every window is inclusive on both ends, so an item expiring at exactly
// now+30d belongs to both the 30-day and the 60-day window. Reports
// requesting adjacent windows list such items twice.
func (s Selector) contains(now, expires time.Time) bool {
	switch s {
	case SelectExpired:
		return !expires.After(now)
	case SelectWithin30:
		return between(expires, now, now.Add(30*day))
	case SelectWithin60:
		return between(expires, now.Add(30*day), now.Add(60*day))
	case SelectWithin90:
		return between(expires, now.Add(60*day), now.Add(90*day))
	}
	return false
}

func between(t, lo, hi time.Time) bool {
	return !t.Before(lo) && !t.After(hi)
}

// Entry is an item annotated with its matched range, ready for rendering.
type Entry struct {
	Name            string
	Kind            inventory.Kind
	ExpirationRange Label
	Expires         time.Time
}

// Classify selects the items whose expiration falls inside the
// selector's window, evaluated against now, and labels them. Items
// without an expiration date are never classified. Matches keep the
// input order; no sorting happens here.
func Classify(items []inventory.Item, sel Selector, now time.Time) []Entry {
	var entries []Entry
	for _, item := range items {
		if item.Expires == nil {
			continue
		}
		if !sel.contains(now, *item.Expires) {
			continue
		}
		entries = append(entries, Entry{
			Name:            item.Name,
			Kind:            item.Kind,
			ExpirationRange: sel.Label(),
			Expires:         *item.Expires,
		})
	}
	return entries
}
