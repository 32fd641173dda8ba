package main

import (
	"context"
	"fmt"
	"os"

	"giftaihub/internal/app"
	"giftaihub/internal/config"
	"giftaihub/internal/logging"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log)

	a, err := app.Build(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("init failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	p := NewProcessor(a.Notification, logger)

	// RUN_LOCAL replays a single message body from LOCAL_SQS_BODY.
	if cfg.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			logger.Error("LOCAL_SQS_BODY is required when RUN_LOCAL=true")
			os.Exit(1)
		}
		resp, _ := p.Handle(context.Background(), events.SQSEvent{
			Records: []events.SQSMessage{{MessageId: "local-1", Body: body}},
		})
		if len(resp.BatchItemFailures) > 0 {
			os.Exit(1)
		}
		return
	}

	lambda.Start(p.Handle)
}
