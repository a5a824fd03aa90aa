package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chandanbangre/hikeonAssessment/internal/handlers"
	"github.com/chandanbangre/hikeonAssessment/internal/logging"
	"github.com/chandanbangre/hikeonAssessment/internal/rates"
)

// The carrier-service callback runs as its own function: it is public, needs no
// session store and must answer Shopify quickly.
func main() {
	log := logging.Must(os.Getenv("APP_ENV") == "dev")
	defer func() { _ = log.Sync() }()

	h := &handlers.RatesHandler{Calc: rates.DefaultCalculator()}

	lambda.Start(func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		reqID := req.RequestContext.RequestID
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx = logging.WithContext(ctx, log.With(zap.String("request_id", reqID)))
		return h.Handle(ctx, req)
	})
}
