package ups

import "github.com/tournevent/ratebridge/pkg/carrier"

const carrierID = "ups"

const (
	tokenPath = "/security/v1/oauth/token"
	ratesPath = "/api/rating/v2403/Shop"

	defaultBaseURL = "https://wwwcie.ups.com"

	requestOption     = "Shop"
	customerContext   = "ratebridge-rate-query"
	transactionSource = "ratebridge"
	shipperName       = "Ratebridge Shipper"
	recipientName     = "Ratebridge Recipient"

	packagingTypeCode     = "02" // Customer Supplied Package
	dimensionUnitCode     = "IN"
	weightUnitCode        = "LBS"
	negotiatedRatesFlag   = "1"
	defaultCurrency       = "USD"
	maxPackageWeightLbs   = 150.0
	unknownServiceDefault = carrier.ServiceGround
)

type service struct {
	name  string
	level carrier.ServiceLevel
}

// services maps UPS service codes to display names and service levels.
var services = map[string]service{
	"01": {"UPS Next Day Air", carrier.ServiceOvernight},
	"02": {"UPS 2nd Day Air", carrier.ServiceTwoDay},
	"03": {"UPS Ground", carrier.ServiceGround},
	"07": {"UPS Worldwide Express", carrier.ServiceExpress},
	"08": {"UPS Worldwide Expedited", carrier.ServiceExpress},
	"11": {"UPS Standard", carrier.ServiceGround},
	"12": {"UPS 3 Day Select", carrier.ServiceGround},
	"13": {"UPS Next Day Air Saver", carrier.ServiceOvernight},
	"14": {"UPS Next Day Air Early", carrier.ServiceOvernight},
	"54": {"UPS Worldwide Express Plus", carrier.ServiceExpress},
	"59": {"UPS 2nd Day Air A.M.", carrier.ServiceTwoDay},
	"65": {"UPS Saver", carrier.ServiceExpress},
	"70": {"UPS Access Point Economy", carrier.ServiceEconomy},
}
