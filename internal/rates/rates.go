// Package rates maps a shipment to candidate shipping quotes. It performs no I/O.
package rates

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ShipmentRateRequest is accepted as-is; the stand-in policy does not vary output by it.
type ShipmentRateRequest struct {
	Origin      json.RawMessage `json:"origin,omitempty"`
	Destination json.RawMessage `json:"destination,omitempty"`
	Weight      float64         `json:"weight"`
	Dimensions  json.RawMessage `json:"dimensions,omitempty"`
}

type Quote struct {
	ServiceName string  `yaml:"name"`
	ServiceCode string  `yaml:"code"`
	TotalPrice  float64 `yaml:"price"`
	Description string  `yaml:"description"`
}

type catalogFile struct {
	Services []Quote `yaml:"services"`
}

type Calculator struct {
	catalog []Quote
}

// ParseCatalog reads a YAML rate table. An empty table or a service without a code is
// rejected so Calculate can never return an empty result.
func ParseCatalog(raw []byte) (*Calculator, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse rate catalog: %w", err)
	}
	if len(f.Services) == 0 {
		return nil, errors.New("rate catalog has no services")
	}
	seen := map[string]bool{}
	for i, q := range f.Services {
		if q.ServiceCode == "" || q.ServiceName == "" {
			return nil, fmt.Errorf("rate catalog service %d: code and name are required", i)
		}
		if seen[q.ServiceCode] {
			return nil, fmt.Errorf("rate catalog: duplicate code %s", q.ServiceCode)
		}
		seen[q.ServiceCode] = true
		if q.TotalPrice < 0 {
			return nil, fmt.Errorf("rate catalog %s: negative price", q.ServiceCode)
		}
	}
	return &Calculator{catalog: f.Services}, nil
}

func DefaultCalculator() *Calculator {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// Calculate returns the catalog in order. It never fails.
func (c *Calculator) Calculate(_ ShipmentRateRequest) []Quote {
	out := make([]Quote, len(c.catalog))
	copy(out, c.catalog)
	return out
}

func (c *Calculator) Len() int { return len(c.catalog) }
