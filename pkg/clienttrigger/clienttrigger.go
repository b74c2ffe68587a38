// Package clienttrigger watches for freshly created Cognito user pool
// clients on the event bus and forwards their details to the callback
// bootstrap queue.
package clienttrigger

import (
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/envelope"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/queue"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/userpool"
)

// Trigger forwards user pool client details to SQS.
type Trigger struct {
	sqs queue.Sender
	log *logrus.Logger
}

// NewTrigger returns a new Trigger.
func NewTrigger(s queue.Sender, log *logrus.Logger) *Trigger {
	if log == nil {
		log = logrus.New()
	}
	return &Trigger{sqs: s, log: log}
}

// Handle processes one invocation.
func (t *Trigger) Handle(raw json.RawMessage) error {

	env, err := envelope.Parse(raw)
	if err != nil {
		t.log.WithError(err).Error("could not parse event")
		return err
	}

	client, err := userpool.ExtractClient(env, "CreateUserPoolClient")
	if err != nil {
		t.log.WithError(err).Error("could not extract user pool details")
		return err
	}
	t.log.Info("extracted user pool details")

	queueURL, err := envelope.RequireEnv("TRIGGER_QUEUE")
	if err != nil {
		return err
	}
	return queue.Send(t.sqs, t.log, queueURL, client)
}
