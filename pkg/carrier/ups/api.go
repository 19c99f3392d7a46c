package ups

import (
	"bytes"
	"context"
	"encoding/json"
)

// APIClient defines the interface for UPS Rating API operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// GetRates performs one rate-shop call against the UPS Rating API.
	GetRates(ctx context.Context, req *RateRequest) (*RateResponse, error)
}

// ============================================================================
// API Request/Response Types (match UPS Rating API v2403 structure)
// ============================================================================

// RateRequest is the envelope posted to the rating endpoint.
// POST /api/rating/v2403/Shop
type RateRequest struct {
	RateRequest RateRequestBody `json:"RateRequest"`
}

// RateRequestBody contains request options and the shipment to rate.
type RateRequestBody struct {
	Request  Request  `json:"Request"`
	Shipment Shipment `json:"Shipment"`
}

// Request holds the request option ("Rate" or "Shop").
type Request struct {
	RequestOption        string               `json:"RequestOption"`
	TransactionReference TransactionReference `json:"TransactionReference"`
}

// TransactionReference is echoed back by UPS.
type TransactionReference struct {
	CustomerContext string `json:"CustomerContext"`
}

// Shipment describes the parties and the package.
type Shipment struct {
	Shipper               Shipper                `json:"Shipper"`
	ShipTo                Party                  `json:"ShipTo"`
	ShipFrom              Party                  `json:"ShipFrom"`
	Package               []Package              `json:"Package"`
	ShipmentRatingOptions *ShipmentRatingOptions `json:"ShipmentRatingOptions,omitempty"`
}

// Shipper is the account holder shipping the package.
type Shipper struct {
	Name          string  `json:"Name"`
	ShipperNumber string  `json:"ShipperNumber"`
	Address       Address `json:"Address"`
}

// Party is a ship-to or ship-from party.
type Party struct {
	Name    string  `json:"Name"`
	Address Address `json:"Address"`
}

// Address is a UPS postal address.
type Address struct {
	AddressLine       []string `json:"AddressLine"`
	City              string   `json:"City"`
	StateProvinceCode string   `json:"StateProvinceCode"`
	PostalCode        string   `json:"PostalCode"`
	CountryCode       string   `json:"CountryCode"`
}

// Package is a single rated package.
type Package struct {
	PackagingType CodeDescription `json:"PackagingType"`
	Dimensions    Dimensions      `json:"Dimensions"`
	PackageWeight PackageWeight   `json:"PackageWeight"`
}

// CodeDescription is the UPS code wrapper used across the API.
type CodeDescription struct {
	Code        string `json:"Code"`
	Description string `json:"Description,omitempty"`
}

// Dimensions are rendered as strings, as UPS requires.
type Dimensions struct {
	UnitOfMeasurement CodeDescription `json:"UnitOfMeasurement"`
	Length            string          `json:"Length"`
	Width             string          `json:"Width"`
	Height            string          `json:"Height"`
}

// PackageWeight is rendered as a string, as UPS requires.
type PackageWeight struct {
	UnitOfMeasurement CodeDescription `json:"UnitOfMeasurement"`
	Weight            string          `json:"Weight"`
}

// ShipmentRatingOptions toggles negotiated rates.
type ShipmentRatingOptions struct {
	NegotiatedRatesIndicator string `json:"NegotiatedRatesIndicator"`
}

// RateResponse is the rating endpoint response.
type RateResponse struct {
	RateResponse *RateResponseBody `json:"RateResponse"`
}

// RateResponseBody holds the response status and rated shipments.
type RateResponseBody struct {
	Response      *ResponseStatusWrapper `json:"Response,omitempty"`
	RatedShipment RatedShipments         `json:"RatedShipment"`
}

// ResponseStatusWrapper wraps the UPS response status.
type ResponseStatusWrapper struct {
	ResponseStatus CodeDescription `json:"ResponseStatus"`
}

// RatedShipment is one priced service option.
type RatedShipment struct {
	Service            CodeDescription     `json:"Service"`
	TotalCharges       MonetaryValue       `json:"TotalCharges"`
	GuaranteedDelivery *GuaranteedDelivery `json:"GuaranteedDelivery,omitempty"`
}

// MonetaryValue is a UPS charge; both fields are strings on the wire.
type MonetaryValue struct {
	CurrencyCode  string `json:"CurrencyCode"`
	MonetaryValue string `json:"MonetaryValue"`
}

// GuaranteedDelivery is present only for guaranteed services.
type GuaranteedDelivery struct {
	BusinessDaysInTransit string `json:"BusinessDaysInTransit,omitempty"`
	DeliveryByTime        string `json:"DeliveryByTime,omitempty"`
}

// RatedShipments is the rated-shipment collection. UPS sends a single object
// when there is one entry and an array otherwise; both decode into a slice in
// response order.
type RatedShipments []RatedShipment

// UnmarshalJSON accepts an object, an array of objects, or null.
func (r *RatedShipments) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*r = nil
		return nil
	case trimmed[0] == '[':
		var list []RatedShipment
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		*r = list
		return nil
	default:
		var single RatedShipment
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*r = RatedShipments{single}
		return nil
	}
}
