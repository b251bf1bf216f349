package core

// Closed enumerations with display labels. The UI shows Spanish labels, the
// stored values are the short codes.

type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

var sexLabels = map[Sex]string{
	SexMale:   "Macho",
	SexFemale: "Hembra",
}

// SexLabelUnknown is shown when a record carries no recognized sex value.
const SexLabelUnknown = "No especificado"

func (s Sex) Valid() bool {
	_, ok := sexLabels[s]
	return ok
}

// Label returns the display label, or SexLabelUnknown for values outside the
// enumeration.
func (s Sex) Label() string {
	if l, ok := sexLabels[s]; ok {
		return l
	}
	return SexLabelUnknown
}

// ParseSex maps a raw parameter to a Sex. Unknown values report ok=false so
// callers can treat the filter as absent.
func ParseSex(v string) (Sex, bool) {
	s := Sex(v)
	return s, s.Valid()
}

type CostType string

const (
	CostFeed        CostType = "feed"
	CostHealth      CostType = "health"
	CostMaintenance CostType = "maintenance"
	CostLabor       CostType = "labor"
	CostOther       CostType = "other"
)

var costTypeLabels = map[CostType]string{
	CostFeed:        "Alimentación",
	CostHealth:      "Salud",
	CostMaintenance: "Mantenimiento",
	CostLabor:       "Mano de obra",
	CostOther:       "Otro",
}

// CostTypes lists the valid cost types in display order.
var CostTypes = []CostType{CostFeed, CostHealth, CostMaintenance, CostLabor, CostOther}

func (t CostType) Valid() bool {
	_, ok := costTypeLabels[t]
	return ok
}

// Label returns the display label. Unknown values fall back to "Otro",
// matching how the dashboard labels stray type values.
func (t CostType) Label() string {
	if l, ok := costTypeLabels[t]; ok {
		return l
	}
	return costTypeLabels[CostOther]
}

// ParseCostType maps a raw parameter to a CostType. Unknown values report
// ok=false so callers can treat the filter as absent.
func ParseCostType(v string) (CostType, bool) {
	t := CostType(v)
	return t, t.Valid()
}
