// Package ddltrigger watches for new RDS instances on the event bus and
// queues their details for DDL bootstrapping.
package ddltrigger

import (
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/envelope"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/queue"
)

// Trigger forwards CreateDBInstance response elements to SQS.
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

	detail, err := env.BusDetail("aws.rds")
	if err != nil {
		return err
	}
	if err := detail.Expect("eventName", "CreateDBInstance"); err != nil {
		return err
	}
	elements, err := detail.Child("responseElements")
	if err != nil {
		return err
	}
	t.log.Info("extracted data to send to SQS")

	queueURL, err := envelope.RequireEnv("RDS_DDL_QUEUE_URL")
	if err != nil {
		return err
	}
	return queue.Send(t.sqs, t.log, queueURL, elements)
}
