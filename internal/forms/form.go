// Package forms validates the emission record's editable fields. Validation
// is purely structural: type, range and length. There are no cross-field
// rules, and a failed form is re-rendered with the submitted input retained.
package forms

import (
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/caojiali1996/group15/internal/store"
)

const (
	IMOMin = 1111111
	IMOMax = 9999999

	maxNameLength       = 64
	maxEfficiencyDigits = 6

	dateLayout = "2006-01-02"
)

// EmissionForm holds the submitted values verbatim plus per-field errors.
// Raw strings are kept so a failed form re-renders exactly what the user
// typed.
type EmissionForm struct {
	IMO                 string
	ShipName            string
	TechnicalEfficiency string
	ShipType            string
	IssueDate           string
	ExpiryDate          string

	Errors map[string]string

	record store.Emission
}

// Parse captures the submitted field values. Empty strings normalize to
// absent optional values during Validate.
func Parse(values url.Values) *EmissionForm {
	return &EmissionForm{
		IMO:                 strings.TrimSpace(values.Get("imo")),
		ShipName:            strings.TrimSpace(values.Get("ship_name")),
		TechnicalEfficiency: strings.TrimSpace(values.Get("technical_efficiency_number")),
		ShipType:            strings.TrimSpace(values.Get("ship_type")),
		IssueDate:           strings.TrimSpace(values.Get("issue_date")),
		ExpiryDate:          strings.TrimSpace(values.Get("expiry_date")),
	}
}

// FromRecord prefills the form for the detail page.
func FromRecord(item store.Emission) *EmissionForm {
	form := &EmissionForm{
		IMO:      strconv.FormatInt(item.IMO, 10),
		ShipName: item.ShipName,
		ShipType: item.ShipType,
	}
	if item.TechnicalEfficiency != nil {
		form.TechnicalEfficiency = strconv.FormatFloat(*item.TechnicalEfficiency, 'f', -1, 64)
	}
	if item.IssueDate != nil {
		form.IssueDate = item.IssueDate.Format(dateLayout)
	}
	if item.ExpiryDate != nil {
		form.ExpiryDate = item.ExpiryDate.Format(dateLayout)
	}
	return form
}

// Validate checks every field and fills Errors. It returns true when the
// form is clean; Record is only meaningful after a true return.
func (f *EmissionForm) Validate() bool {
	f.Errors = make(map[string]string)

	imo, err := strconv.ParseInt(f.IMO, 10, 64)
	switch {
	case f.IMO == "":
		f.Errors["imo"] = "IMO number is required"
	case err != nil:
		f.Errors["imo"] = "IMO number must be an integer"
	case imo < IMOMin || imo > IMOMax:
		f.Errors["imo"] = "IMO number must be between 1111111 and 9999999"
	default:
		f.record.IMO = imo
	}

	switch {
	case f.ShipName == "":
		f.Errors["ship_name"] = "Ship name is required"
	case utf8.RuneCountInString(f.ShipName) > maxNameLength:
		f.Errors["ship_name"] = "Ship name must be at most 64 characters"
	default:
		f.record.ShipName = f.ShipName
	}

	f.record.TechnicalEfficiency = nil
	if f.TechnicalEfficiency != "" {
		value, err := strconv.ParseFloat(f.TechnicalEfficiency, 64)
		switch {
		case err != nil:
			f.Errors["technical_efficiency_number"] = "EEDI must be a number"
		case value < 0:
			f.Errors["technical_efficiency_number"] = "EEDI must not be negative"
		case significantDigits(f.TechnicalEfficiency) > maxEfficiencyDigits:
			f.Errors["technical_efficiency_number"] = "EEDI must have at most 6 digits"
		default:
			f.record.TechnicalEfficiency = &value
		}
	}

	switch {
	case f.ShipType == "":
		f.Errors["ship_type"] = "Ship type is required"
	case utf8.RuneCountInString(f.ShipType) > maxNameLength:
		f.Errors["ship_type"] = "Ship type must be at most 64 characters"
	default:
		f.record.ShipType = f.ShipType
	}

	f.record.IssueDate = parseOptionalDate(f.IssueDate, "issue_date", "Issue date", f.Errors)
	f.record.ExpiryDate = parseOptionalDate(f.ExpiryDate, "expiry_date", "Expiry date", f.Errors)

	return len(f.Errors) == 0
}

// Record returns the typed values collected by a successful Validate.
func (f *EmissionForm) Record() store.Emission {
	return f.record
}

func parseOptionalDate(raw, field, label string, errs map[string]string) *time.Time {
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		errs[field] = label + " must be a date in YYYY-MM-DD format"
		return nil
	}
	return &parsed
}

// significantDigits counts decimal digits the way a NUMERIC(6) column would:
// sign, separator and leading zeros do not count.
func significantDigits(raw string) int {
	digits := 0
	seen := false
	for _, r := range raw {
		if r < '0' || r > '9' {
			continue
		}
		if r == '0' && !seen {
			continue
		}
		seen = true
		digits++
	}
	return digits
}
