package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"

	"github.com/chandanbangre/hikeonAssessment/internal/config"
	"github.com/chandanbangre/hikeonAssessment/internal/handlers"
	"github.com/chandanbangre/hikeonAssessment/internal/logging"
)

func main() {
	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		panic("load aws config: " + err.Error())
	}

	cfg, err := config.Load(ctx, ssm.NewFromConfig(awsCfg))
	log := logging.Must(cfg.IsDev())
	defer func() { _ = log.Sync() }()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	app, err := handlers.NewApp(cfg, awsCfg, log)
	if err != nil {
		log.Fatal("init app", zap.Error(err))
	}

	lambda.Start(app.Handle)
}
