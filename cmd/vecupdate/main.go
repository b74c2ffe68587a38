package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/sqs"

	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/logging"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/pkg/vecupdate"
)

var sess *session.Session
var sqsc *sqs.SQS
var smc *secretsmanager.SecretsManager
var s3c *s3.S3

func init() {
	sess = session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
	cfg := &aws.Config{Region: aws.String(os.Getenv("AWS_REGION"))}
	sqsc = sqs.New(sess, cfg)
	smc = secretsmanager.New(sess, cfg)
	s3c = s3.New(sess, cfg)
}

func handler(ctx context.Context, raw json.RawMessage) error {
	return vecupdate.NewHandler(sqsc, smc, s3c, logging.New()).Handle(ctx, raw)
}

func main() {
	lambda.Start(handler)
}
