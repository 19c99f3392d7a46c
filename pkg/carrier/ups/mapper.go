package ups

import (
	"math"
	"strconv"
	"strings"

	"github.com/tournevent/ratebridge/pkg/carrier"
)

// Mapper translates between the canonical rate model and the UPS wire format.
// Both directions are pure.
type Mapper struct {
	ShipperNumber string // UPS account number
}

// ============================================================================
// Conversion helpers: carrier models -> API models
// ============================================================================

// ToRateRequest builds the UPS rate-shop request for req. The request must
// already have passed validation.
func (m Mapper) ToRateRequest(req *carrier.RateRequest) *RateRequest {
	pkg := req.Package
	origin := addressToAPI(req.Origin)

	return &RateRequest{
		RateRequest: RateRequestBody{
			Request: Request{
				RequestOption:        requestOption,
				TransactionReference: TransactionReference{CustomerContext: customerContext},
			},
			Shipment: Shipment{
				Shipper: Shipper{
					Name:          shipperName,
					ShipperNumber: m.ShipperNumber,
					Address:       origin,
				},
				ShipTo: Party{
					Name:    recipientName,
					Address: addressToAPI(req.Destination),
				},
				ShipFrom: Party{
					Name:    shipperName,
					Address: origin,
				},
				Package: []Package{
					{
						PackagingType: CodeDescription{Code: packagingTypeCode},
						Dimensions: Dimensions{
							UnitOfMeasurement: CodeDescription{Code: dimensionUnitCode},
							Length:            formatNumber(pkg.LengthIn),
							Width:             formatNumber(pkg.WidthIn),
							Height:            formatNumber(pkg.HeightIn),
						},
						PackageWeight: PackageWeight{
							UnitOfMeasurement: CodeDescription{Code: weightUnitCode},
							Weight:            formatNumber(pkg.WeightLbs),
						},
					},
				},
				ShipmentRatingOptions: &ShipmentRatingOptions{NegotiatedRatesIndicator: negotiatedRatesFlag},
			},
		},
	}
}

func addressToAPI(addr carrier.Address) Address {
	return Address{
		AddressLine:       []string{},
		City:              addr.City,
		StateProvinceCode: addr.Region,
		PostalCode:        addr.PostalCode,
		CountryCode:       addr.CountryCode,
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ============================================================================
// Conversion helpers: API models -> carrier models
// ============================================================================

// FromRateResponse maps rated shipments to quotes in response order. A
// response without rated shipments maps to an empty slice; the caller decides
// whether that is acceptable.
func (m Mapper) FromRateResponse(resp *RateResponse) ([]carrier.RateQuote, error) {
	if resp == nil || resp.RateResponse == nil {
		return []carrier.RateQuote{}, nil
	}

	shipments := resp.RateResponse.RatedShipment
	quotes := make([]carrier.RateQuote, 0, len(shipments))
	for _, s := range shipments {
		q, err := ratedShipmentToQuote(s)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

func ratedShipmentToQuote(s RatedShipment) (carrier.RateQuote, error) {
	code := s.Service.Code
	name, level := lookupService(code)

	price, err := strconv.ParseFloat(strings.TrimSpace(s.TotalCharges.MonetaryValue), 64)
	if err != nil || price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		ce := carrier.Errorf(carrier.KindMalformedResponse, carrierID,
			"UPS returned an invalid monetary value %q for service %s", s.TotalCharges.MonetaryValue, code)
		if err != nil {
			ce = ce.WithCause(err)
		}
		return carrier.RateQuote{}, ce
	}

	currency := s.TotalCharges.CurrencyCode
	if currency == "" {
		currency = defaultCurrency
	}

	days, guaranteed := transitDays(s.GuaranteedDelivery)

	return carrier.RateQuote{
		Carrier:            carrierID,
		ServiceLevel:       level,
		ServiceName:        name,
		Price:              price,
		Currency:           currency,
		EstimatedDays:      days,
		GuaranteedDelivery: guaranteed,
	}, nil
}

// ============================================================================
// Mapping helpers
// ============================================================================

func lookupService(code string) (string, carrier.ServiceLevel) {
	if svc, ok := services[code]; ok {
		return svc.name, svc.level
	}
	return "UPS Service " + code, unknownServiceDefault
}

// transitDays reads BusinessDaysInTransit. The quote is guaranteed exactly
// when the field is present, even if its value does not parse.
func transitDays(gd *GuaranteedDelivery) (int, bool) {
	if gd == nil || gd.BusinessDaysInTransit == "" {
		return carrier.UnknownTransitDays, false
	}
	days, err := strconv.Atoi(strings.TrimSpace(gd.BusinessDaysInTransit))
	if err != nil {
		return carrier.UnknownTransitDays, true
	}
	return days, true
}
