package main

import (
	"encoding/json"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go/service/sqs"

	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/logging"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/pkg/callbackinit"
)

var sess *session.Session
var cog *cognitoidentityprovider.CognitoIdentityProvider
var sqsc *sqs.SQS

func init() {
	sess = session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
	cfg := &aws.Config{Region: aws.String(os.Getenv("AWS_REGION"))}
	cog = cognitoidentityprovider.New(sess, cfg)
	sqsc = sqs.New(sess, cfg)
}

func handler(raw json.RawMessage) error {
	return callbackinit.NewInitialiser(cog, sqsc, logging.New()).Handle(raw)
}

func main() {
	lambda.Start(handler)
}
