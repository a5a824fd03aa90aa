package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/chandanbangre/hikeonAssessment/internal/logging"
	"github.com/chandanbangre/hikeonAssessment/internal/rates"
)

const RateCurrency = "INR"

// RatesHandler serves the carrier-service callback. It needs no merchant session.
type RatesHandler struct {
	Calc *rates.Calculator
	Now  func() time.Time
}

type RateQuote struct {
	ServiceName     string `json:"service_name"`
	ServiceCode     string `json:"service_code"`
	TotalPrice      string `json:"total_price"`
	Currency        string `json:"currency"`
	MinDeliveryDate string `json:"min_delivery_date"`
	MaxDeliveryDate string `json:"max_delivery_date"`
	Description     string `json:"description"`
}

// rateBody accepts the flat request and Shopify's {"rate": {...}} callback body.
type rateBody struct {
	Origin      json.RawMessage `json:"origin"`
	Destination json.RawMessage `json:"destination"`
	Weight      json.RawMessage `json:"weight"`
	Dimensions  json.RawMessage `json:"dimensions"`
	Rate        json.RawMessage `json:"rate"`
}

type rateEnvelope struct {
	Origin      json.RawMessage `json:"origin"`
	Destination json.RawMessage `json:"destination"`
	Items       json.RawMessage `json:"items"`
}

type rateItem struct {
	Grams    json.RawMessage `json:"grams"`
	Quantity json.RawMessage `json:"quantity"`
}

func (h *RatesHandler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	raw, err := requestBody(req)
	if err != nil {
		return errResp(400, "invalid body encoding")
	}
	shipment, err := parseShipment(raw)
	if err != nil {
		logging.FromContext(ctx).Warn("rate request rejected", zap.Error(err))
		return errResp(400, "invalid JSON body")
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	return jsonResp(200, map[string]any{"rates": FormatQuotes(h.Calc.Calculate(shipment), now())})
}

func parseShipment(raw []byte) (rates.ShipmentRateRequest, error) {
	if strings.TrimSpace(string(raw)) == "" {
		return rates.ShipmentRateRequest{}, nil
	}
	if !json.Valid(raw) {
		return rates.ShipmentRateRequest{}, errors.New("body is not JSON")
	}
	var b rateBody
	if err := json.Unmarshal(raw, &b); err != nil {
		// valid JSON that is not an object still gets the full catalog
		return rates.ShipmentRateRequest{}, nil
	}

	if env, ok := parseEnvelope(b.Rate); ok {
		return rates.ShipmentRateRequest{
			Origin:      env.Origin,
			Destination: env.Destination,
			Weight:      itemsWeightKg(env.Items),
		}, nil
	}
	return rates.ShipmentRateRequest{
		Origin:      b.Origin,
		Destination: b.Destination,
		Weight:      lenientNumber(b.Weight),
		Dimensions:  b.Dimensions,
	}, nil
}

// parseEnvelope reports whether rate is a JSON object. Any other shape falls back to
// the flat fields.
func parseEnvelope(rate json.RawMessage) (rateEnvelope, bool) {
	var env rateEnvelope
	if len(rate) == 0 || strings.TrimSpace(string(rate)) == "null" {
		return env, false
	}
	if err := json.Unmarshal(rate, &env); err != nil {
		return env, false
	}
	return env, true
}

// itemsWeightKg sums grams times quantity. Items that are not objects count as zero.
func itemsWeightKg(raw json.RawMessage) float64 {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return 0
	}
	grams := 0.0
	for _, r := range items {
		var it rateItem
		if err := json.Unmarshal(r, &it); err != nil {
			continue
		}
		grams += lenientNumber(it.Grams) * lenientNumber(it.Quantity)
	}
	return grams / 1000
}

// lenientNumber reads a JSON number or numeric string, anything else is zero.
func lenientNumber(raw json.RawMessage) float64 {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// FormatQuotes renders quotes for the wire: two-decimal prices, fixed currency and
// both delivery dates set to at.
func FormatQuotes(quotes []rates.Quote, at time.Time) []RateQuote {
	ts := at.UTC().Format(time.RFC3339)
	out := make([]RateQuote, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, RateQuote{
			ServiceName:     q.ServiceName,
			ServiceCode:     q.ServiceCode,
			TotalPrice:      strconv.FormatFloat(q.TotalPrice, 'f', 2, 64),
			Currency:        RateCurrency,
			MinDeliveryDate: ts,
			MaxDeliveryDate: ts,
			Description:     q.Description,
		})
	}
	return out
}
