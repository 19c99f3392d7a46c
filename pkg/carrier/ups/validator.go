package ups

import (
	"fmt"
	"math"
	"strings"

	"github.com/tournevent/ratebridge/pkg/carrier"
)

// Validator enforces UPS business rules on a rate request before any network
// call. Rules are checked in a fixed order and the first violation is
// returned.
type Validator struct{}

// Validate returns a VALIDATION_ERROR for the first violated rule, or nil.
func (Validator) Validate(req *carrier.RateRequest) error {
	if req == nil {
		return invalid("rate request is required")
	}

	pkg := req.Package
	if pkg == nil {
		return invalid("package is required")
	}
	if !positive(pkg.WeightLbs) {
		return invalid("package.weightLbs must be positive")
	}
	if !positive(pkg.LengthIn) || !positive(pkg.WidthIn) || !positive(pkg.HeightIn) {
		return invalid("package dimensions (lengthIn, widthIn, heightIn) must all be > 0")
	}
	if pkg.WeightLbs > maxPackageWeightLbs {
		return invalid(fmt.Sprintf("package.weightLbs %g exceeds UPS max of %g lbs", pkg.WeightLbs, maxPackageWeightLbs))
	}

	if err := validateAddress("origin", req.Origin); err != nil {
		return err
	}
	return validateAddress("destination", req.Destination)
}

// positive rejects NaN and infinities along with non-positive values.
func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

func validateAddress(field string, addr carrier.Address) error {
	if strings.TrimSpace(addr.PostalCode) == "" {
		return invalid(field + ".zip is required")
	}
	if !isCountryCode(addr.CountryCode) {
		return invalid(field + ".country must be a 2-letter ISO code")
	}
	return nil
}

func isCountryCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

func invalid(rule string) error {
	return carrier.NewError(carrier.KindValidation, carrierID, "invalid rate request: "+rule)
}
