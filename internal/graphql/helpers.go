package graphql

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tournevent/ratebridge/pkg/carrier"
)

// CodeCarrierNotFound is reported when the requested carrier is not registered.
const CodeCarrierNotFound = "CARRIER_NOT_FOUND"

// ErrorInfo is the client-facing description of a failed rate query.
type ErrorInfo struct {
	Status    int    `json:"-"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Carrier   string `json:"carrier,omitempty"`
	Retryable bool   `json:"retryable"`
}

// DescribeError maps err to the status, code and message clients see.
// Errors outside the carrier taxonomy never leak their text.
func DescribeError(err error) ErrorInfo {
	if errors.Is(err, carrier.ErrCarrierNotFound) {
		return ErrorInfo{
			Status:  http.StatusNotFound,
			Code:    CodeCarrierNotFound,
			Message: err.Error(),
		}
	}

	var ce *carrier.CarrierError
	if errors.As(err, &ce) {
		return ErrorInfo{
			Status:    ce.Kind.HTTPStatus(),
			Code:      string(ce.Kind),
			Message:   ce.Message,
			Carrier:   ce.Carrier,
			Retryable: ce.Kind.Retryable(),
		}
	}

	return ErrorInfo{
		Status:  http.StatusInternalServerError,
		Code:    string(carrier.KindUnknown),
		Message: "internal error",
	}
}

// ============================================================================
// Conversion helpers: API input -> carrier models
// ============================================================================

// checkShape reports the first structural problem with input. Business rules
// are left to the carrier validators.
func checkShape(input RateInput) string {
	switch {
	case input.Origin == nil:
		return "origin is required"
	case input.Destination == nil:
		return "destination is required"
	case input.Package == nil:
		return "package is required"
	}
	if msg := checkAddressShape("origin", input.Origin); msg != "" {
		return msg
	}
	if msg := checkAddressShape("destination", input.Destination); msg != "" {
		return msg
	}

	p := input.Package
	if p.WeightLbs == nil || p.LengthIn == nil || p.WidthIn == nil || p.HeightIn == nil {
		return "package.weightLbs, package.lengthIn, package.widthIn and package.heightIn are required"
	}
	if input.ServiceLevel != "" && !carrier.ServiceLevel(strings.ToUpper(input.ServiceLevel)).Known() {
		return serviceLevelMessage
	}
	return ""
}

var serviceLevelMessage = "serviceLevel must be one of " + joinLevels(carrier.ServiceLevels())

func joinLevels(levels []carrier.ServiceLevel) string {
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = string(l)
	}
	return strings.Join(names, ", ")
}

func checkAddressShape(field string, addr *AddressInput) string {
	if strings.TrimSpace(addr.Zip) == "" {
		return field + ".zip is required"
	}
	if strings.TrimSpace(addr.Country) == "" {
		return field + ".country is required"
	}
	return ""
}

func rateInputToModel(input RateInput, carrierID string) *carrier.RateRequest {
	return &carrier.RateRequest{
		Origin:       addressInputToModel(input.Origin),
		Destination:  addressInputToModel(input.Destination),
		Package:      packageInputToModel(input.Package),
		Carrier:      carrierID,
		ServiceLevel: carrier.ServiceLevel(strings.ToUpper(input.ServiceLevel)),
	}
}

func addressInputToModel(input *AddressInput) carrier.Address {
	if input == nil {
		return carrier.Address{}
	}
	return carrier.Address{
		PostalCode:  strings.TrimSpace(input.Zip),
		CountryCode: strings.ToUpper(strings.TrimSpace(input.Country)),
		City:        input.City,
		Region:      input.State,
	}
}

func packageInputToModel(input *PackageInput) *carrier.Package {
	if input == nil {
		return nil
	}
	return &carrier.Package{
		WeightLbs: deref(input.WeightLbs),
		LengthIn:  deref(input.LengthIn),
		WidthIn:   deref(input.WidthIn),
		HeightIn:  deref(input.HeightIn),
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// ============================================================================
// Conversion helpers: carrier models -> API output
// ============================================================================

func quotesToGraphQL(quotes []carrier.RateQuote) []*RateQuote {
	result := make([]*RateQuote, len(quotes))
	for i, q := range quotes {
		result[i] = &RateQuote{
			Carrier:            q.Carrier,
			ServiceLevel:       string(q.ServiceLevel),
			ServiceName:        q.ServiceName,
			Price:              q.Price,
			Currency:           q.Currency,
			EstimatedDays:      q.EstimatedDays,
			GuaranteedDelivery: q.GuaranteedDelivery,
		}
	}
	return result
}
