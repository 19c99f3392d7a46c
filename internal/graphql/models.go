package graphql

// AddressInput is the address shape shared by the GraphQL and REST surfaces.
type AddressInput struct {
	Zip     string `json:"zip"`
	Country string `json:"country"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
}

// PackageInput describes the single package being rated.
type PackageInput struct {
	WeightLbs *float64 `json:"weightLbs"`
	LengthIn  *float64 `json:"lengthIn"`
	WidthIn   *float64 `json:"widthIn"`
	HeightIn  *float64 `json:"heightIn"`
}

// RateInput is a rate query. Carrier falls back to the configured default.
type RateInput struct {
	Carrier      string        `json:"carrier,omitempty"`
	ServiceLevel string        `json:"serviceLevel,omitempty"`
	Origin       *AddressInput `json:"origin"`
	Destination  *AddressInput `json:"destination"`
	Package      *PackageInput `json:"package"`
}

// Carrier describes a registered carrier.
type Carrier struct {
	ID string `json:"id"`
}

// RateQuote is a quote as exposed to API clients.
type RateQuote struct {
	Carrier            string  `json:"carrier"`
	ServiceLevel       string  `json:"serviceLevel"`
	ServiceName        string  `json:"serviceName"`
	Price              float64 `json:"price"`
	Currency           string  `json:"currency"`
	EstimatedDays      int     `json:"estimatedDays"`
	GuaranteedDelivery bool    `json:"guaranteedDelivery"`
}

// RatesResult is the result of a successful rate query.
type RatesResult struct {
	Carrier string       `json:"carrier"`
	Count   int          `json:"count"`
	Quotes  []*RateQuote `json:"quotes"`
}
