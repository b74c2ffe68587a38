package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/sts"

	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/logging"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/pkg/ddlchange"
)

var sess *session.Session
var rdsc *rds.RDS
var stsc *sts.STS
var smc *secretsmanager.SecretsManager
var s3c *s3.S3

func init() {
	sess = session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
	cfg := &aws.Config{Region: aws.String(os.Getenv("AWS_REGION"))}
	rdsc = rds.New(sess, cfg)
	stsc = sts.New(sess, cfg)
	smc = secretsmanager.New(sess, cfg)
	s3c = s3.New(sess, cfg)
}

func handler(ctx context.Context) error {
	return ddlchange.NewHandler(rdsc, stsc, smc, s3c, logging.New()).Handle(ctx)
}

func main() {
	lambda.Start(handler)
}
