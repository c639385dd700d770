package store

import "time"

// Emission is one CO2-emission record, keyed by IMO number.
type Emission struct {
	IMO                 int64
	ShipName            string
	TechnicalEfficiency *float64
	ShipType            string
	IssueDate           *time.Time
	ExpiryDate          *time.Time
}

// Columns lists the editable columns of the emissions table in the order the
// list page, the form, and the write path all use. Keep the write path's
// column and value lists aligned with this.
var Columns = []string{
	"imo",
	"ship_name",
	"technical_efficiency_number",
	"ship_type",
	"issue_date",
	"expiry_date",
}

type Greeting struct {
	When time.Time
}

// AggregateRow is one row of the country/month/ship-type rollup report.
// Group columns are pointers because ROLLUP emits subtotal rows with NULLs.
type AggregateRow struct {
	Country  *string
	Month    *int
	ShipType *string
	Count    int
	MaxEEDI  *float64
	MinEEDI  *float64
	MaxEIV   *float64
	MinEIV   *float64
	SumCO2   *float64
	SumFuel  *float64
}

// CountryAverage backs one bar of the per-country chart.
type CountryAverage struct {
	Country      string
	AvgTimeAtSea float64
	AvgCO2       float64
}

// ShipTypeTotal backs one slice of the per-ship-type chart.
type ShipTypeTotal struct {
	ShipType string
	SumCO2   float64
}

// CountryEIVRange backs one spoke of the radar chart.
type CountryEIVRange struct {
	Country string
	MaxEIV  float64
	MinEIV  float64
}
