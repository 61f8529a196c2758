package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/star/sattracker/internal/propagation"
	"github.com/star/sattracker/internal/tle"
)

var issEntry = tle.TLEEntry{
	NORADID: 25544,
	Name:    "ISS (ZARYA)",
	Line1:   "1 25544U 98067A   25045.18032407  .00016717  00000+0  30099-3 0  9993",
	Line2:   "2 25544  51.6412 193.5765 0003457 126.2851 233.8519 15.49874301495058",
}

func nycObserver(t *testing.T) propagation.Observer {
	t.Helper()
	obs, err := propagation.NewObserver(40.7128, -74.006, 10)
	if err != nil {
		t.Fatal(err)
	}
	return obs
}

func TestSampleBatchISS(t *testing.T) {
	prop, err := propagation.NewSGP4Propagator(propagation.DefaultConfig(), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	badEntry := tle.TLEEntry{
		NORADID: 99999,
		Name:    "BAD SAT",
		Line1:   "1 99999U 00000A   25045.00000000  .00000000  00000+0  00000+0 0  0000",
		Line2:   "2 99999   0.0000   0.0000 0000000   0.0000   0.0000  0.00000000 0000",
	}

	req := BatchRequest{
		Observer: nycObserver(t),
		Entries:  []tle.TLEEntry{issEntry, badEntry},
		From:     time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC),
		Points:   8,
	}
	results := SampleBatch(context.Background(), prop, req, testLogger())

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	iss := results[0]
	if iss.NORADID != 25544 || iss.Error != "" {
		t.Fatalf("ISS result = %+v", iss)
	}
	if iss.Table == nil || iss.Table.Len() != 8 {
		t.Fatalf("ISS table = %+v", iss.Table)
	}
	if !iss.Table.Window.Rise.After(req.From) {
		t.Errorf("rise %v not after %v", iss.Table.Window.Rise, req.From)
	}
	for i, el := range iss.Table.Elevations {
		if el < -0.5 || el > 90 {
			t.Errorf("sample %d: elevation %.2f outside the pass", i, el)
		}
		if az := iss.Table.Azimuths[i]; az < 0 || az >= 360 {
			t.Errorf("sample %d: azimuth %.2f out of range", i, az)
		}
	}

	if results[1].Error == "" || results[1].Table != nil {
		t.Errorf("bad TLE should report an error, got %+v", results[1])
	}
}

func TestSampleBatchOrderAndPinnedClock(t *testing.T) {
	stub := newStub()
	entries := make([]tle.TLEEntry, 20)
	for i := range entries {
		entries[i] = tle.TLEEntry{NORADID: i + 1, Name: "STUB", Line1: "1 x", Line2: "2 x"}
	}

	req := BatchRequest{Observer: propagation.DefaultObserver(), Entries: entries, From: unix(500), Points: 3}
	results := SampleBatch(context.Background(), stub, req, testLogger())

	for i, r := range results {
		if r.NORADID != i+1 {
			t.Errorf("result %d has NORAD id %d", i, r.NORADID)
		}
		if r.Error != "" {
			t.Errorf("result %d: %s", i, r.Error)
		}
	}
	for _, after := range stub.afters {
		if !after.Equal(unix(500)) {
			t.Errorf("pass search started at %v, want %v", after, unix(500))
		}
	}
}

func TestSampleBatchPerEntryErrors(t *testing.T) {
	stub := newStub()
	entries := []tle.TLEEntry{
		{NORADID: 1, Name: "OK", Line1: "1 x", Line2: "2 x"},
		{NORADID: 2, Name: "NO LINES"},
	}
	req := BatchRequest{Observer: propagation.DefaultObserver(), Entries: entries, From: unix(0), Points: 0}
	results := SampleBatch(context.Background(), stub, req, testLogger())

	if results[0].Error == "" {
		t.Error("zero points should fail every entry")
	}
	if results[1].Error == "" {
		t.Error("missing lines should fail")
	}
}

func TestSampleBatchCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := newStub()
	entries := make([]tle.TLEEntry, 10)
	for i := range entries {
		entries[i] = tle.TLEEntry{NORADID: i, Name: "STUB", Line1: "1 x", Line2: "2 x"}
	}
	results := SampleBatch(ctx, stub, BatchRequest{Observer: propagation.DefaultObserver(), Entries: entries, Points: 3}, testLogger())

	if len(results) != len(entries) {
		t.Fatalf("expected %d results, got %d", len(entries), len(results))
	}
	for i, r := range results {
		if r.Error != "cancelled" {
			t.Errorf("result %d: error %q, want cancelled", i, r.Error)
		}
	}
}
