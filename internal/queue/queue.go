// Package queue sends and deletes SQS messages for the handlers.
package queue

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/sirupsen/logrus"

	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/envelope"
)

// Sender is an abstraction for the SQS client (helpful for testing)
type Sender interface {
	SendMessage(*sqs.SendMessageInput) (*sqs.SendMessageOutput, error)
}

// Deleter is an abstraction for the SQS client (helpful for testing)
type Deleter interface {
	DeleteMessage(*sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error)
}

// Send marshals body and pushes it to the queue. A failed push is fatal to
// the invocation; a successful one is logged and never retried.
func Send(s Sender, log *logrus.Logger, queueURL string, body interface{}) error {

	msg, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal queue message: %v", err)
	}

	log.Infof("attempting to send message to: %v", queueURL)
	_, err = s.SendMessage(&sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(string(msg)),
	})
	if err != nil {
		return fmt.Errorf("unable to push message: %v", err)
	}
	log.Info("successfully pushed message")
	return nil
}

// DeleteInbound removes a processed message from the queue named by
// queueEnvVar when the envelope carries a receipt handle. This is the only
// idempotence mechanism: messages remain in the queue until deleted.
func DeleteInbound(d Deleter, log *logrus.Logger, env *envelope.Envelope, queueEnvVar string) error {

	if env.Variant != envelope.Queue {
		log.Warn("no receiptHandle found, probably not an SQS message")
		return nil
	}
	if env.ReceiptHandle == "" {
		return &envelope.Error{Kind: envelope.MalformedEvent, Msg: "missing 'receiptHandle' in the record"}
	}
	if env.MessageID == "" {
		return &envelope.Error{Kind: envelope.MalformedEvent, Msg: "missing 'messageId' in the record"}
	}

	queueURL, err := envelope.RequireEnv(queueEnvVar)
	if err != nil {
		return err
	}

	log.Infof("deleting message %v from sqs", env.MessageID)
	_, err = d.DeleteMessage(&sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(env.ReceiptHandle),
	})
	if err != nil {
		return fmt.Errorf("unable to delete message: %v", err)
	}
	log.Info("successfully deleted message")
	return nil
}
