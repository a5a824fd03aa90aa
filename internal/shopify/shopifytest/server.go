// Package shopifytest is an in-memory Admin API for tests.
package shopifytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/chandanbangre/hikeonAssessment/internal/shopify"
)

type Server struct {
	*httptest.Server

	Token string
	// OAuthCode is the only code the access_token endpoint accepts.
	OAuthCode string

	mu              sync.Mutex
	nextID          int64
	products        []shopify.Product
	carrierServices []shopify.CarrierService
	webhooks        []string

	carrierCreates int
	productCreates int

	// FailCarrierCreate makes carrier service creation return 422 with this base error.
	FailCarrierCreate string
	// FailProductAt makes the n-th product creation (1-based) return a userError. 0 disables.
	FailProductAt int
	// FailAll makes every Admin call return 503.
	FailAll bool
}

func NewServer(token string) *Server {
	s := &Server{Token: token, OAuthCode: "good-code", nextID: 1000}
	s.Server = httptest.NewServer(http.HandlerFunc(s.route))
	return s
}

func (s *Server) SeedCarrierServices(cs ...shopify.CarrierService) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cs {
		if c.ID == 0 {
			s.nextID++
			c.ID = s.nextID
		}
		s.carrierServices = append(s.carrierServices, c)
	}
}

func (s *Server) CarrierServices() []shopify.CarrierService {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]shopify.CarrierService(nil), s.carrierServices...)
}

func (s *Server) Products() []shopify.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]shopify.Product(nil), s.products...)
}

func (s *Server) Webhooks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.webhooks...)
}

func (s *Server) CarrierCreates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carrierCreates
}

func (s *Server) ProductCreates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.productCreates
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/admin/oauth/access_token" {
		s.accessToken(w, r)
		return
	}
	if r.Header.Get("X-Shopify-Access-Token") != s.Token {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"errors": "[API] Invalid API key or access token (unrecognized login or wrong password)"})
		return
	}

	s.mu.Lock()
	failAll := s.FailAll
	s.mu.Unlock()
	if failAll {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"errors": "Service Unavailable"})
		return
	}

	switch {
	case strings.HasSuffix(r.URL.Path, "/products/count.json") && r.Method == http.MethodGet:
		s.mu.Lock()
		n := len(s.products)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]int{"count": n})
	case strings.HasSuffix(r.URL.Path, "/carrier_services.json") && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"carrier_services": s.CarrierServices()})
	case strings.HasSuffix(r.URL.Path, "/carrier_services.json") && r.Method == http.MethodPost:
		s.createCarrier(w, r)
	case strings.HasSuffix(r.URL.Path, "/webhooks.json") && r.Method == http.MethodPost:
		var in struct {
			Webhook struct {
				Topic string `json:"topic"`
			} `json:"webhook"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		s.mu.Lock()
		s.webhooks = append(s.webhooks, in.Webhook.Topic)
		s.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]any{"webhook": map[string]any{"topic": in.Webhook.Topic}})
	case strings.HasSuffix(r.URL.Path, "/graphql.json") && r.Method == http.MethodPost:
		s.graphql(w, r)
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"errors": "Not Found"})
	}
}

func (s *Server) createCarrier(w http.ResponseWriter, r *http.Request) {
	var in struct {
		CarrierService shopify.CarrierService `json:"carrier_service"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": "bad json"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.carrierCreates++

	if s.FailCarrierCreate != "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": map[string][]string{"base": {s.FailCarrierCreate}}})
		return
	}
	for _, cs := range s.carrierServices {
		if cs.Name == in.CarrierService.Name {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": map[string][]string{"base": {in.CarrierService.Name + " is already configured"}}})
			return
		}
	}

	s.nextID++
	cs := in.CarrierService
	cs.ID = s.nextID
	cs.CarrierServiceType = "api"
	cs.AdminGraphQLAPIID = fmt.Sprintf("gid://shopify/DeliveryCarrierService/%d", cs.ID)
	s.carrierServices = append(s.carrierServices, cs)
	writeJSON(w, http.StatusCreated, map[string]any{"carrier_service": cs})
}

func (s *Server) graphql(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Query     string `json:"query"`
		Variables struct {
			Input shopify.ProductInput `json:"input"`
		} `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || !strings.Contains(in.Query, "productCreate") {
		writeJSON(w, http.StatusOK, map[string]any{"errors": []map[string]any{{"message": "unsupported operation"}}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.productCreates++

	if s.FailProductAt > 0 && s.productCreates == s.FailProductAt {
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"productCreate": map[string]any{
			"product":    nil,
			"userErrors": []map[string]any{{"field": []string{"title"}, "message": "Title can't be blank"}},
		}}})
		return
	}

	s.nextID++
	p := shopify.Product{ID: fmt.Sprintf("gid://shopify/Product/%d", s.nextID), Title: in.Variables.Input.Title}
	s.products = append(s.products, p)
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"productCreate": map[string]any{
		"product":    p,
		"userErrors": []any{},
	}}})
}

func (s *Server) accessToken(w http.ResponseWriter, r *http.Request) {
	var in map[string]string
	_ = json.NewDecoder(r.Body).Decode(&in)
	if in["code"] != s.OAuthCode {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_request", "error_description": "authorization code was not found or was already used"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": s.Token, "scope": "write_products,read_shipping,write_shipping"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
