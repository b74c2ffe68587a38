package main

import (
	"encoding/json"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider"

	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/logging"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/pkg/callbackupdate"
)

var sess *session.Session
var svc *cognitoidentityprovider.CognitoIdentityProvider

func init() {
	sess = session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
	svc = cognitoidentityprovider.New(sess, &aws.Config{Region: aws.String(os.Getenv("AWS_REGION"))})
}

func handler(raw json.RawMessage) error {
	return callbackupdate.NewUpdater(svc, logging.New()).Handle(raw)
}

func main() {
	lambda.Start(handler)
}
