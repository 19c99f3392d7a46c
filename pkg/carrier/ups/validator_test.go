package ups_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/ratebridge/pkg/carrier"
	"github.com/tournevent/ratebridge/pkg/carrier/ups"
)

func TestValidator_Valid(t *testing.T) {
	assert.NoError(t, ups.Validator{}.Validate(validRequest()))
}

func TestValidator_MaxWeightIsInclusive(t *testing.T) {
	req := validRequest()
	req.Package.WeightLbs = 150
	assert.NoError(t, ups.Validator{}.Validate(req))
}

func TestValidator_Rules(t *testing.T) {
	tests := []struct {
		name    string
		req     func() *carrier.RateRequest
		message string
	}{
		{
			name:    "nil request",
			req:     func() *carrier.RateRequest { return nil },
			message: "rate request is required",
		},
		{
			name: "missing package",
			req: func() *carrier.RateRequest {
				r := validRequest()
				r.Package = nil
				return r
			},
			message: "package is required",
		},
		{
			name: "zero dimension",
			req: func() *carrier.RateRequest {
				r := validRequest()
				r.Package.HeightIn = 0
				return r
			},
			message: "package dimensions",
		},
		{
			name: "NaN weight",
			req: func() *carrier.RateRequest {
				r := validRequest()
				r.Package.WeightLbs = math.NaN()
				return r
			},
			message: "package.weightLbs must be positive",
		},
		{
			name: "infinite weight",
			req: func() *carrier.RateRequest {
				r := validRequest()
				r.Package.WeightLbs = math.Inf(1)
				return r
			},
			message: "package.weightLbs must be positive",
		},
		{
			name: "NaN height",
			req: func() *carrier.RateRequest {
				r := validRequest()
				r.Package.HeightIn = math.NaN()
				return r
			},
			message: "package dimensions",
		},
		{
			name: "infinite length",
			req: func() *carrier.RateRequest {
				r := validRequest()
				r.Package.LengthIn = math.Inf(1)
				return r
			},
			message: "package dimensions",
		},
		{
			name: "overweight",
			req: func() *carrier.RateRequest {
				r := validRequest()
				r.Package.WeightLbs = 150.5
				return r
			},
			message: "exceeds UPS max of 150 lbs",
		},
		{
			name: "blank destination zip",
			req: func() *carrier.RateRequest {
				r := validRequest()
				r.Destination.PostalCode = "   "
				return r
			},
			message: "destination.zip is required",
		},
		{
			name: "three letter country",
			req: func() *carrier.RateRequest {
				r := validRequest()
				r.Origin.CountryCode = "USA"
				return r
			},
			message: "origin.country must be a 2-letter ISO code",
		},
		{
			name: "numeric country",
			req: func() *carrier.RateRequest {
				r := validRequest()
				r.Destination.CountryCode = "12"
				return r
			},
			message: "destination.country",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ups.Validator{}.Validate(tt.req())
			require.Error(t, err)

			ce := carrier.AsCarrierError(err, "ups")
			assert.Equal(t, carrier.KindValidation, ce.Kind)
			assert.False(t, ce.Retryable)
			assert.Contains(t, ce.Message, tt.message)
		})
	}
}

func TestValidator_RuleOrder(t *testing.T) {
	// Weight is checked before dimensions, dimensions before the weight cap,
	// and the package before any address.
	req := validRequest()
	req.Package = &carrier.Package{WeightLbs: 0}
	req.Origin.PostalCode = ""

	err := ups.Validator{}.Validate(req)
	assert.Contains(t, err.Error(), "weightLbs must be positive")

	req.Package = &carrier.Package{WeightLbs: 500}
	err = ups.Validator{}.Validate(req)
	assert.Contains(t, err.Error(), "package dimensions")

	req.Package = &carrier.Package{WeightLbs: 500, LengthIn: 1, WidthIn: 1, HeightIn: 1}
	err = ups.Validator{}.Validate(req)
	assert.Contains(t, err.Error(), "exceeds UPS max")

	req.Package.WeightLbs = 10
	req.Destination.CountryCode = ""
	err = ups.Validator{}.Validate(req)
	assert.Contains(t, err.Error(), "origin.zip")
}
