package handlers

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/chandanbangre/hikeonAssessment/internal/logging"
	"github.com/chandanbangre/hikeonAssessment/internal/session"
	"github.com/chandanbangre/hikeonAssessment/internal/shopify"
)

type createCarrierServiceRequest struct {
	Name        string `json:"name"`
	CallbackURL string `json:"callbackUrl"`
	// ServiceDiscovery is accepted for compatibility; creation always enables it.
	ServiceDiscovery *bool `json:"service_discovery,omitempty"`
}

func (a *App) carrierServicesList(ctx context.Context, _ events.APIGatewayV2HTTPRequest, sess session.Session) (events.APIGatewayV2HTTPResponse, error) {
	list, err := a.Carriers.List(ctx, a.admin(sess))
	if err != nil {
		return a.fail(ctx, err)
	}
	return jsonResp(200, map[string]any{"data": list})
}

func (a *App) carrierServicesCreate(ctx context.Context, req events.APIGatewayV2HTTPRequest, sess session.Session) (events.APIGatewayV2HTTPResponse, error) {
	raw, err := requestBody(req)
	if err != nil {
		return errResp(400, "invalid body encoding")
	}
	var in createCarrierServiceRequest
	if err := json.Unmarshal(raw, &in); err != nil {
		return errResp(400, "invalid JSON body")
	}

	created, err := a.createCarrier(ctx, sess, in.Name, in.CallbackURL)
	if err != nil {
		return a.fail(ctx, err)
	}
	logging.FromContext(ctx).Info("carrier service created", zap.Int64("id", created.ID), zap.String("name", created.Name))
	return jsonResp(201, created)
}

// createCarrier runs the manager under the shop's carrier guard.
func (a *App) createCarrier(ctx context.Context, sess session.Session, name, callbackURL string) (shopify.CarrierService, error) {
	release, err := a.acquire(ctx, sess.Shop, actionCarrierService)
	if err != nil {
		return shopify.CarrierService{}, err
	}
	defer release()
	return a.Carriers.Create(ctx, a.admin(sess), name, callbackURL)
}
