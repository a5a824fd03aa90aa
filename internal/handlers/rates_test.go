package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chandanbangre/hikeonAssessment/internal/handlers"
	"github.com/chandanbangre/hikeonAssessment/internal/rates"
)

type ratesBody struct {
	Rates []handlers.RateQuote `json:"rates"`
}

func postRates(t *testing.T, h *harness, body string) (int, ratesBody) {
	t.Helper()
	resp := h.do(t, request(http.MethodPost, "/calculate-rates", "", body))
	var out ratesBody
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.Unmarshal([]byte(resp.Body), &out))
	}
	return resp.StatusCode, out
}

func TestCalculateRatesEndToEnd(t *testing.T) {
	h := newHarness(t)

	status, out := postRates(t, h, `{"origin":"A","destination":"B","weight":1,"dimensions":{}}`)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, out.Rates, 2)

	ts := fixedNow.Format(time.RFC3339)
	assert.Equal(t, handlers.RateQuote{
		ServiceName:     "Standard Shipping",
		ServiceCode:     "STANDARD",
		TotalPrice:      "10.99",
		Currency:        "INR",
		MinDeliveryDate: ts,
		MaxDeliveryDate: ts,
		Description:     "Delivery within 5-7 business days",
	}, out.Rates[0])
	assert.Equal(t, "EXPRESS", out.Rates[1].ServiceCode)
	assert.Equal(t, "15.99", out.Rates[1].TotalPrice)
}

func TestCalculateRatesAcceptsDegenerateInput(t *testing.T) {
	h := newHarness(t)
	for _, body := range []string{
		``,
		`{}`,
		`{"origin":"","destination":"","weight":0}`,
		`{"weight":"2.5","dimensions":{"length":10}}`,
		`{"origin":{"country":"IN","postal_code":"560001"},"destination":{"country":"IN"},"weight":-1}`,
		`{"rate":{"origin":{"country":"IN"},"destination":{"country":"IN"},"items":[{"grams":1200,"quantity":2}],"currency":"INR"}}`,
	} {
		status, out := postRates(t, h, body)
		require.Equal(t, http.StatusOK, status, body)
		require.Len(t, out.Rates, 2, body)
		assert.Equal(t, "STANDARD", out.Rates[0].ServiceCode)
		assert.Equal(t, "EXPRESS", out.Rates[1].ServiceCode)
	}
}

func TestCalculateRatesToleratesMistypedFields(t *testing.T) {
	h := newHarness(t)
	for _, body := range []string{
		`{"rate":{"items":[{"grams":"500","quantity":1}]}}`,
		`{"rate":{"items":[{"grams":true,"quantity":"two"},7,null]}}`,
		`{"rate":{"items":"none"}}`,
		`{"rate":"x"}`,
		`{"rate":[1,2],"weight":{"kg":1}}`,
		`["origin","destination"]`,
		`42`,
	} {
		status, out := postRates(t, h, body)
		require.Equal(t, http.StatusOK, status, body)
		require.Len(t, out.Rates, 2, body)
		assert.Equal(t, "10.99", out.Rates[0].TotalPrice, body)
		assert.Equal(t, "15.99", out.Rates[1].TotalPrice, body)
	}
}

func TestCalculateRatesRejectsNonJSON(t *testing.T) {
	status, _ := postRates(t, newHarness(t), `origin=A`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestFormatQuotesAlwaysTwoDecimals(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("IST", 5*3600+1800))
	got := handlers.FormatQuotes([]rates.Quote{
		{ServiceCode: "A", TotalPrice: 10.9},
		{ServiceCode: "B", TotalPrice: 7},
		{ServiceCode: "C", TotalPrice: 3.456},
		{ServiceCode: "D", TotalPrice: 15.99},
	}, at)

	prices := make([]string, 0, len(got))
	for _, q := range got {
		prices = append(prices, q.TotalPrice)
		assert.Equal(t, "INR", q.Currency)
		assert.Equal(t, "2024-01-01T21:34:05Z", q.MinDeliveryDate)
		assert.Equal(t, q.MinDeliveryDate, q.MaxDeliveryDate)
	}
	assert.Equal(t, []string{"10.90", "7.00", "3.46", "15.99"}, prices)
}
