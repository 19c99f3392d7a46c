package carrier

// ServiceLevel represents a normalized shipping speed category.
// Carriers may return an opaque value when their code is not recognized.
type ServiceLevel string

const (
	ServiceGround    ServiceLevel = "GROUND"
	ServiceExpress   ServiceLevel = "EXPRESS"
	ServiceOvernight ServiceLevel = "OVERNIGHT"
	ServiceTwoDay    ServiceLevel = "TWO_DAY"
	ServiceEconomy   ServiceLevel = "ECONOMY"
)

// ServiceLevels lists the known service levels.
func ServiceLevels() []ServiceLevel {
	return []ServiceLevel{ServiceGround, ServiceExpress, ServiceOvernight, ServiceTwoDay, ServiceEconomy}
}

// Known reports whether s is one of the enumerated service levels.
func (s ServiceLevel) Known() bool {
	switch s {
	case ServiceGround, ServiceExpress, ServiceOvernight, ServiceTwoDay, ServiceEconomy:
		return true
	}
	return false
}

// UnknownTransitDays marks a quote whose transit time the carrier did not state.
const UnknownTransitDays = -1

// Address represents a shipping address.
type Address struct {
	PostalCode  string
	CountryCode string // ISO 3166-1 alpha-2, e.g., "US", "CA"
	City        string
	Region      string // state or province
}

// Package represents the parcel being rated. Weight is in pounds and
// dimensions are in inches.
type Package struct {
	WeightLbs float64
	LengthIn  float64
	WidthIn   float64
	HeightIn  float64
}

// RateRequest is the canonical rate query.
type RateRequest struct {
	Origin       Address
	Destination  Address
	Package      *Package
	Carrier      string       // Optional; resolved by the caller
	ServiceLevel ServiceLevel // Optional requested service level
}

// RateQuote represents a single rate returned by a carrier.
type RateQuote struct {
	Carrier            string
	ServiceLevel       ServiceLevel
	ServiceName        string
	Price              float64
	Currency           string
	EstimatedDays      int
	GuaranteedDelivery bool
}
