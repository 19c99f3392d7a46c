package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/ratebridge/pkg/carrier"
	"gopkg.in/yaml.v3"
)

var sampleQuotes = []carrier.RateQuote{
	{
		Carrier:            "ups",
		ServiceLevel:       carrier.ServiceGround,
		ServiceName:        "UPS Ground",
		Price:              12.5,
		Currency:           "USD",
		EstimatedDays:      5,
		GuaranteedDelivery: true,
	},
}

func TestPrintQuotes_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printQuotes(&buf, "json", sampleQuotes))

	var out []quoteOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "GROUND", out[0].ServiceLevel)
	assert.Equal(t, 12.5, out[0].Price)
}

func TestPrintQuotes_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printQuotes(&buf, "yaml", sampleQuotes))
	assert.Contains(t, buf.String(), "serviceName: UPS Ground")

	var out []quoteOutput
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, 5, out[0].EstimatedDays)
	assert.True(t, out[0].GuaranteedDelivery)
}

func TestQuoteCmd_MockCarrier(t *testing.T) {
	t.Setenv("UPS_USE_MOCK", "true")
	t.Setenv("LOG_LEVEL", "error")

	cmd := newQuoteCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--from-zip", "21093", "--to-zip", "30005", "--weight", "5",
		"--length", "10", "--width", "8", "--height", "6"})

	require.NoError(t, cmd.Execute())

	var out []quoteOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 3)
	assert.Equal(t, "ups", out[0].Carrier)
}

func TestQuoteCmd_ValidationError(t *testing.T) {
	t.Setenv("UPS_USE_MOCK", "true")
	t.Setenv("LOG_LEVEL", "error")

	cmd := newQuoteCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--from-zip", "21093", "--to-zip", "30005", "--weight", "200",
		"--length", "10", "--width", "8", "--height", "6"})

	err := cmd.Execute()
	assert.Equal(t, carrier.KindValidation, carrier.KindOf(err))
}

func TestQuoteCmd_DimensionsRequired(t *testing.T) {
	t.Setenv("UPS_USE_MOCK", "true")
	t.Setenv("LOG_LEVEL", "error")

	cmd := newQuoteCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--from-zip", "21093", "--to-zip", "30005", "--weight", "5", "--width", "8"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s)")
	assert.Contains(t, err.Error(), "length")
	assert.Contains(t, err.Error(), "height")
	assert.NotContains(t, err.Error(), "width")
}

func TestQuoteCmd_ServiceLevel(t *testing.T) {
	t.Setenv("UPS_USE_MOCK", "true")
	t.Setenv("LOG_LEVEL", "error")
	args := []string{"--from-zip", "21093", "--to-zip", "30005", "--weight", "5",
		"--length", "10", "--width", "8", "--height", "6"}

	cmd := newQuoteCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--service", "teleport"}, args...))
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown service level "teleport"`)

	cmd = newQuoteCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs(append([]string{"--service", "ground"}, args...))
	require.NoError(t, cmd.Execute())
}

func TestQuoteCmd_UnknownCarrier(t *testing.T) {
	t.Setenv("UPS_USE_MOCK", "true")
	t.Setenv("LOG_LEVEL", "error")

	cmd := newQuoteCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--carrier", "dhl", "--from-zip", "1", "--to-zip", "2", "--weight", "1",
		"--length", "1", "--width", "1", "--height", "1"})

	err := cmd.Execute()
	assert.ErrorIs(t, err, carrier.ErrCarrierNotFound)
}
