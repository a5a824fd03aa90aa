package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/chandanbangre/hikeonAssessment/internal/config"
	"github.com/chandanbangre/hikeonAssessment/internal/devserver"
	"github.com/chandanbangre/hikeonAssessment/internal/handlers"
	"github.com/chandanbangre/hikeonAssessment/internal/logging"
)

func main() {
	_ = godotenv.Load() // loads .env if present

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		panic("load aws config: " + err.Error())
	}
	cfg, err := config.Load(ctx, ssm.NewFromConfig(awsCfg))
	log := logging.Must(true)
	defer func() { _ = log.Sync() }()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	app, err := handlers.NewApp(cfg, awsCfg, log)
	if err != nil {
		log.Fatal("init app", zap.Error(err))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           devserver.NewRouter(app.Handle),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("dev server listening", zap.String("addr", srv.Addr), zap.String("app_url", cfg.AppURL))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("listen", zap.Error(err))
	}
}
