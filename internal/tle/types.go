package tle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned by Find when no entry matches the query.
var ErrNotFound = errors.New("tle: no matching entry")

// TLEEntry represents a single satellite's two-line element set.
type TLEEntry struct {
	NORADID int       `json:"norad_id"`
	Name    string    `json:"name"`
	Epoch   time.Time `json:"epoch"`
	Line1   string    `json:"line1"`
	Line2   string    `json:"line2"`
}

// EpochRange represents the minimum and maximum epoch times in a dataset.
type EpochRange struct {
	Min time.Time `json:"min"`
	Max time.Time `json:"max"`
}

// TLEDataset represents a complete set of TLE data from a source.
type TLEDataset struct {
	Source     string     `json:"source"`
	FetchedAt  time.Time  `json:"fetched_at"`
	EpochRange EpochRange `json:"epoch_range"`
	Satellites []TLEEntry `json:"-"`
}

// NewDataset wraps entries and computes their epoch range.
func NewDataset(source string, fetchedAt time.Time, entries []TLEEntry) *TLEDataset {
	ds := &TLEDataset{Source: source, FetchedAt: fetchedAt, Satellites: entries}
	if len(entries) == 0 {
		return ds
	}
	ds.EpochRange = EpochRange{Min: entries[0].Epoch, Max: entries[0].Epoch}
	for _, e := range entries[1:] {
		if e.Epoch.Before(ds.EpochRange.Min) {
			ds.EpochRange.Min = e.Epoch
		}
		if e.Epoch.After(ds.EpochRange.Max) {
			ds.EpochRange.Max = e.Epoch
		}
	}
	return ds
}

// Find returns the first entry whose NORAD id equals query, if query is a
// number, or whose name matches query case-insensitively.
func Find(entries []TLEEntry, query string) (TLEEntry, error) {
	query = strings.TrimSpace(query)
	if id, err := strconv.Atoi(query); err == nil {
		for _, e := range entries {
			if e.NORADID == id {
				return e, nil
			}
		}
		return TLEEntry{}, fmt.Errorf("%w: NORAD id %d", ErrNotFound, id)
	}
	for _, e := range entries {
		if strings.EqualFold(e.Name, query) {
			return e, nil
		}
	}
	return TLEEntry{}, fmt.Errorf("%w: name %q", ErrNotFound, query)
}
