package shopify

import (
	"context"
	"net/http"
)

type CarrierService struct {
	ID                 int64  `json:"id,omitempty"`
	Name               string `json:"name"`
	CallbackURL        string `json:"callback_url"`
	ServiceDiscovery   bool   `json:"service_discovery"`
	Active             bool   `json:"active"`
	CarrierServiceType string `json:"carrier_service_type,omitempty"`
	Format             string `json:"format,omitempty"`
	AdminGraphQLAPIID  string `json:"admin_graphql_api_id,omitempty"`
}

type carrierServiceEnvelope struct {
	CarrierService CarrierService `json:"carrier_service"`
}

type carrierServicesEnvelope struct {
	CarrierServices []CarrierService `json:"carrier_services"`
}

func (c *Client) CountProducts(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, "products.count", http.MethodGet, "products/count.json", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) ListCarrierServices(ctx context.Context) ([]CarrierService, error) {
	var out carrierServicesEnvelope
	if err := c.do(ctx, "carrier_services.list", http.MethodGet, "carrier_services.json", nil, &out); err != nil {
		return nil, err
	}
	if out.CarrierServices == nil {
		return []CarrierService{}, nil
	}
	return out.CarrierServices, nil
}

func (c *Client) CreateCarrierService(ctx context.Context, cs CarrierService) (CarrierService, error) {
	if cs.Format == "" {
		cs.Format = "json"
	}
	cs.Active = true

	var out carrierServiceEnvelope
	in := carrierServiceEnvelope{CarrierService: cs}
	if err := c.do(ctx, "carrier_services.create", http.MethodPost, "carrier_services.json", in, &out); err != nil {
		return CarrierService{}, err
	}
	return out.CarrierService, nil
}
