package domain

import (
	"regexp"
	"time"
)

// Unknown is the sentinel returned by the insurance lookup when no record
// could be retrieved. It fails date parsing downstream, so sentinel results
// are filtered out without special-casing.
const Unknown = "Ukendt"

const (
	// WireDateLayout is the DD-MM-YYYY form used by the detail pages and the
	// insurance API.
	WireDateLayout = "02-01-2006"
	// EntryDateLayout is the ISO form stored in the state file.
	EntryDateLayout = "2006-01-02"
)

// PlatePattern matches Danish registration identifiers: two uppercase
// letters followed by three to five digits.
var PlatePattern = regexp.MustCompile(`^[A-Z]{2}\d{3,5}$`)

// Candidate is a registration identifier under investigation. The VIN is
// empty for range-generated candidates and filled by the plate resolver;
// the search API supplies it directly.
type Candidate struct {
	Plate string
	VIN   string
}

// VehicleFact is the result of resolving a plate against its detail page.
type VehicleFact struct {
	Plate       string
	VIN         string
	LastChanged time.Time
}

// InsuranceInfo carries the insurer name and the policy-creation date text
// as returned by the lookup endpoint. CreatedText stays textual until the
// orchestrator applies the window filter.
type InsuranceInfo struct {
	Insurer     string
	CreatedText string
}

// Unresolved reports whether the lookup returned the failure sentinel.
func (i InsuranceInfo) Unresolved() bool {
	return i.Insurer == Unknown || i.CreatedText == Unknown
}

// RegistrationEntry is persisted per confirmed plate, grouped by insurer.
// Checked and Premium are written once as zero values; the admin frontend
// owns them afterwards.
type RegistrationEntry struct {
	Date    string  `json:"date"`
	Plate   string  `json:"plate"`
	Checked bool    `json:"checked"`
	Premium float64 `json:"premium"`
}

// Window is the two-day acceptance range for registration changes and
// policy-creation dates.
type Window struct {
	Today     time.Time
	Yesterday time.Time
}

// NewWindow truncates the reference instant to its local calendar date and
// derives yesterday from it.
func NewWindow(ref time.Time) Window {
	today := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	return Window{Today: today, Yesterday: today.AddDate(0, 0, -1)}
}

// Contains reports whether the date (compared by calendar day) falls on
// today or yesterday.
func (w Window) Contains(t time.Time) bool {
	return sameDay(t, w.Today) || sameDay(t, w.Yesterday)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
