package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tournevent/ratebridge/pkg/carrier"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type quoteOptions struct {
	carrier      string
	serviceLevel string
	fromZip      string
	fromCountry  string
	toZip        string
	toCountry    string
	weight       float64
	length       float64
	width        float64
	height       float64
	output       string
}

// quoteOutput is the printed form of a quote.
type quoteOutput struct {
	Carrier            string  `json:"carrier" yaml:"carrier"`
	ServiceLevel       string  `json:"serviceLevel" yaml:"serviceLevel"`
	ServiceName        string  `json:"serviceName" yaml:"serviceName"`
	Price              float64 `json:"price" yaml:"price"`
	Currency           string  `json:"currency" yaml:"currency"`
	EstimatedDays      int     `json:"estimatedDays" yaml:"estimatedDays"`
	GuaranteedDelivery bool    `json:"guaranteedDelivery" yaml:"guaranteedDelivery"`
}

func newQuoteCmd() *cobra.Command {
	opts := &quoteOptions{}

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Fetch rate quotes from one carrier and print them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuote(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.carrier, "carrier", "", "carrier identifier (defaults to DEFAULT_CARRIER)")
	f.StringVar(&opts.serviceLevel, "service", "", "requested service level")
	f.StringVar(&opts.fromZip, "from-zip", "", "origin postal code")
	f.StringVar(&opts.fromCountry, "from-country", "US", "origin country code")
	f.StringVar(&opts.toZip, "to-zip", "", "destination postal code")
	f.StringVar(&opts.toCountry, "to-country", "US", "destination country code")
	f.Float64Var(&opts.weight, "weight", 0, "package weight in pounds")
	f.Float64Var(&opts.length, "length", 0, "package length in inches")
	f.Float64Var(&opts.width, "width", 0, "package width in inches")
	f.Float64Var(&opts.height, "height", 0, "package height in inches")
	f.StringVarP(&opts.output, "output", "o", "json", "output format: json or yaml")

	_ = cmd.MarkFlagRequired("from-zip")
	_ = cmd.MarkFlagRequired("to-zip")
	_ = cmd.MarkFlagRequired("weight")
	_ = cmd.MarkFlagRequired("length")
	_ = cmd.MarkFlagRequired("width")
	_ = cmd.MarkFlagRequired("height")

	return cmd
}

func runQuote(cmd *cobra.Command, opts *quoteOptions) error {
	ctx := cmd.Context()

	if opts.output != "json" && opts.output != "yaml" {
		return fmt.Errorf("unsupported output format %q", opts.output)
	}
	if opts.serviceLevel != "" && !carrier.ServiceLevel(strings.ToUpper(opts.serviceLevel)).Known() {
		return fmt.Errorf("unknown service level %q", opts.serviceLevel)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	registry, cleanup, err := initCarrierRegistry(ctx, cfg, logger, nil, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	carrierID := opts.carrier
	if carrierID == "" {
		carrierID = cfg.DefaultCarrier
	}
	c, err := registry.Get(carrierID)
	if err != nil {
		return err
	}

	quotes, err := c.GetRates(ctx, opts.request(carrierID))
	if err != nil {
		logger.Error("Quote failed",
			zap.String("carrier", carrierID),
			zap.Bool("retryable", carrier.IsRetryable(err)),
			zap.Error(err),
		)
		return err
	}

	return printQuotes(cmd.OutOrStdout(), opts.output, quotes)
}

func (o *quoteOptions) request(carrierID string) *carrier.RateRequest {
	return &carrier.RateRequest{
		Origin:      carrier.Address{PostalCode: o.fromZip, CountryCode: o.fromCountry},
		Destination: carrier.Address{PostalCode: o.toZip, CountryCode: o.toCountry},
		Package: &carrier.Package{
			WeightLbs: o.weight,
			LengthIn:  o.length,
			WidthIn:   o.width,
			HeightIn:  o.height,
		},
		Carrier:      carrierID,
		ServiceLevel: carrier.ServiceLevel(strings.ToUpper(o.serviceLevel)),
	}
}

func printQuotes(w io.Writer, format string, quotes []carrier.RateQuote) error {
	out := make([]quoteOutput, len(quotes))
	for i, q := range quotes {
		out[i] = quoteOutput{
			Carrier:            q.Carrier,
			ServiceLevel:       string(q.ServiceLevel),
			ServiceName:        q.ServiceName,
			Price:              q.Price,
			Currency:           q.Currency,
			EstimatedDays:      q.EstimatedDays,
			GuaranteedDelivery: q.GuaranteedDelivery,
		}
	}

	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
