package scope

import (
	"net/url"
	"testing"
	"time"
)

func TestParseDatePermissive(t *testing.T) {
	cases := []struct {
		in   string
		zero bool
	}{
		{"2024-02-10", false},
		{"", true},
		{"not-a-date", true},
		{"2024-13-40", true},
		{"10/02/2024", true},
	}
	for _, tc := range cases {
		got := ParseDate(tc.in)
		if tc.zero != got.IsZero() {
			t.Fatalf("%q: got %v", tc.in, got)
		}
	}
	want := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	if got := ParseDate("2024-02-10"); !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestFromQuery(t *testing.T) {
	q := url.Values{
		"search":  {"  vaca "},
		"batch":   {"7"},
		"animal":  {"junk"},
		"type":    {"feed"},
		"species": {" Vaca "},
		"sex":     {"Z"},
		"start":   {"2024-01-01"},
		"end":     {"garbage"},
		"order":   {"-name"},
	}
	f := FromQuery(q)
	if f.Search != "vaca" {
		t.Fatalf("search: %q", f.Search)
	}
	if f.BatchID != 7 || f.AnimalID != 0 {
		t.Fatalf("ids: %d %d", f.BatchID, f.AnimalID)
	}
	if string(f.CostType) != "feed" {
		t.Fatalf("cost type: %q", f.CostType)
	}
	if f.Species != "Vaca" {
		t.Fatalf("species: %q", f.Species)
	}
	if f.Sex != "" {
		t.Fatalf("unknown sex should be dropped, got %q", f.Sex)
	}
	if f.DateStart.IsZero() || !f.DateEnd.IsZero() {
		t.Fatalf("dates: %v %v", f.DateStart, f.DateEnd)
	}
	if f.Order != "-name" {
		t.Fatalf("order: %q", f.Order)
	}
}

func TestBatchOrderClause(t *testing.T) {
	if got := BatchOrderClause("-name"); got != "batches.name DESC" {
		t.Fatalf("got %q", got)
	}
	// Unknown orderings fall back to newest-first instead of erroring.
	for _, in := range []string{"", "id; DROP TABLE", "weird"} {
		if got := BatchOrderClause(in); got != "batches.created_at DESC" {
			t.Fatalf("%q: got %q", in, got)
		}
	}
}
