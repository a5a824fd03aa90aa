// Package carrier lists and creates carrier services for one merchant.
package carrier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/chandanbangre/hikeonAssessment/internal/logging"
	"github.com/chandanbangre/hikeonAssessment/internal/notify"
	"github.com/chandanbangre/hikeonAssessment/internal/shopify"
)

// DuplicateMessage is the user-facing text for a name collision.
const DuplicateMessage = "A carrier service already exists"

// AdminAPI is the slice of the Admin API client the manager needs.
type AdminAPI interface {
	Shop() string
	ListCarrierServices(ctx context.Context) ([]shopify.CarrierService, error)
	CreateCarrierService(ctx context.Context, cs shopify.CarrierService) (shopify.CarrierService, error)
}

type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s: %q", DuplicateMessage, e.Name)
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// CreateError carries the submitted values so the caller can render a message.
type CreateError struct {
	Name        string
	CallbackURL string
	Err         error
}

func (e *CreateError) Error() string {
	msg := e.Err.Error()
	var rse *shopify.RemoteServiceError
	if errors.As(e.Err, &rse) && rse.Message != "" {
		msg = rse.Message
	}
	return fmt.Sprintf("Failed to create %s carrier service on callback URL %s: %s", e.Name, e.CallbackURL, msg)
}

func (e *CreateError) Unwrap() error { return e.Err }

type Manager struct {
	Notifier *notify.Notifier
}

func (m *Manager) List(ctx context.Context, api AdminAPI) ([]shopify.CarrierService, error) {
	list, err := api.ListCarrierServices(ctx)
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Create registers a carrier service unless one with the same name already exists.
// The check reads the list at call time, so two sessions creating the same name
// concurrently can both pass it; Shopify then rejects the second with a 422.
func (m *Manager) Create(ctx context.Context, api AdminAPI, name, callbackURL string) (shopify.CarrierService, error) {
	if strings.TrimSpace(name) == "" {
		return shopify.CarrierService{}, &ValidationError{Field: "name", Message: "is required"}
	}
	if strings.TrimSpace(callbackURL) == "" {
		return shopify.CarrierService{}, &ValidationError{Field: "callbackUrl", Message: "is required"}
	}

	existing, err := m.List(ctx, api)
	if err != nil {
		return shopify.CarrierService{}, err
	}
	if NameSet(existing)[name] {
		return shopify.CarrierService{}, &DuplicateNameError{Name: name}
	}

	created, err := api.CreateCarrierService(ctx, shopify.CarrierService{
		Name:             name,
		CallbackURL:      callbackURL,
		ServiceDiscovery: true,
	})
	if err != nil {
		return shopify.CarrierService{}, &CreateError{Name: name, CallbackURL: callbackURL, Err: err}
	}

	if err := m.Notifier.Publish(ctx, notify.EventCarrierServiceCreated, api.Shop(), map[string]any{
		"id":           created.ID,
		"name":         created.Name,
		"callback_url": created.CallbackURL,
	}); err != nil {
		logging.FromContext(ctx).Warn("carrier event publish failed", zap.Error(err))
	}
	return created, nil
}

// NameSet indexes names exactly as stored; matching is case-sensitive.
func NameSet(list []shopify.CarrierService) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, cs := range list {
		set[cs.Name] = true
	}
	return set
}
