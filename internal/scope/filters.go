// Package scope defines the immutable filter configuration accepted by the
// user-scoped queries in internal/storage. Parsing is deliberately
// permissive: a malformed date or an unknown enum value disables that filter
// instead of failing the request, so list and dashboard views stay resilient
// to stray query parameters.
package scope

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/core"
)

// Filters narrows a user-scoped query. Zero values mean "no filter".
type Filters struct {
	Search         string
	BatchID        int64
	AnimalID       int64
	CostType       core.CostType
	Sex            core.Sex
	Species        string
	ProductionType string
	DateStart      time.Time // inclusive
	DateEnd        time.Time // inclusive
	Order          string    // allow-listed per record kind
}

// ParseDate parses a YYYY-MM-DD value. Unparseable input yields the zero
// time, which downstream treats as an absent bound.
func ParseDate(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ParseID parses a numeric id parameter; anything non-numeric yields 0.
func ParseID(v string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// FromQuery builds a Filters value from raw request parameters.
func FromQuery(q url.Values) Filters {
	f := Filters{
		Search:         strings.TrimSpace(q.Get("search")),
		BatchID:        ParseID(q.Get("batch")),
		AnimalID:       ParseID(q.Get("animal")),
		Species:        strings.TrimSpace(q.Get("species")),
		ProductionType: strings.TrimSpace(q.Get("production_type")),
		DateStart:      ParseDate(q.Get("start")),
		DateEnd:        ParseDate(q.Get("end")),
		Order:          strings.TrimSpace(q.Get("order")),
	}
	if ct, ok := core.ParseCostType(strings.TrimSpace(q.Get("type"))); ok {
		f.CostType = ct
	}
	if sx, ok := core.ParseSex(strings.TrimSpace(q.Get("sex"))); ok {
		f.Sex = sx
	}
	return f
}

// batchOrders is the allow-list of batch orderings. Anything else falls back
// to newest-first.
var batchOrders = map[string]string{
	"name":        "batches.name ASC",
	"-name":       "batches.name DESC",
	"address":     "batches.address ASC",
	"-address":    "batches.address DESC",
	"created_at":  "batches.created_at ASC",
	"-created_at": "batches.created_at DESC",
}

// BatchOrderClause resolves a requested batch ordering against the
// allow-list.
func BatchOrderClause(order string) string {
	if clause, ok := batchOrders[order]; ok {
		return clause
	}
	return "batches.created_at DESC"
}
