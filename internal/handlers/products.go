package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/chandanbangre/hikeonAssessment/internal/guard"
	"github.com/chandanbangre/hikeonAssessment/internal/logging"
	"github.com/chandanbangre/hikeonAssessment/internal/session"
)

type seedResult struct {
	Success bool    `json:"success"`
	Error   *string `json:"error"`
}

func (a *App) productsCount(ctx context.Context, _ events.APIGatewayV2HTTPRequest, sess session.Session) (events.APIGatewayV2HTTPResponse, error) {
	n, err := a.admin(sess).CountProducts(ctx)
	if err != nil {
		return a.fail(ctx, err)
	}
	return jsonResp(200, map[string]any{"count": n})
}

func (a *App) productsCreate(ctx context.Context, _ events.APIGatewayV2HTTPRequest, sess session.Session) (events.APIGatewayV2HTTPResponse, error) {
	_, err := a.seed(ctx, sess)
	if err != nil {
		logging.FromContext(ctx).Error("seed products failed", zap.Error(err))
		msg := userMessage(err)
		status := http.StatusInternalServerError
		if errors.Is(err, guard.ErrInFlight) {
			status = http.StatusTooManyRequests
		}
		return jsonResp(status, seedResult{Success: false, Error: &msg})
	}
	return jsonResp(200, seedResult{Success: true})
}

// seed runs the seeder under the shop's products guard. It also holds the carrier
// guard, so seeding is refused while a carrier service is being created.
func (a *App) seed(ctx context.Context, sess session.Session) (int, error) {
	release, err := a.acquire(ctx, sess.Shop, actionCarrierService, actionProducts)
	if err != nil {
		return 0, err
	}
	defer release()
	return a.Seeder.Seed(ctx, a.admin(sess))
}
