package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/chandanbangre/hikeonAssessment/internal/handlers"
)

func main() {
	lambda.Start(handlers.Health)
}
