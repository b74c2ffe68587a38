// Package vectrigger turns S3 object-created notifications into vector
// update work items on SQS.
package vectrigger

import (
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/envelope"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/queue"
)

// Trigger forwards object notifications to the update queue.
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

// Handle processes one invocation. Records that fail validation are skipped
// with a warning rather than failing the whole notification batch.
func (t *Trigger) Handle(raw json.RawMessage) error {

	bucket, err := envelope.RequireEnv("BUCKET_NAME")
	if err != nil {
		return err
	}
	t.log.Infof("source bucket: %v", bucket)

	queueURL, err := envelope.RequireEnv("PGVECTOR_UPDATE_QUEUE")
	if err != nil {
		return err
	}

	env, err := envelope.Parse(raw)
	if err != nil {
		t.log.WithError(err).Error("could not parse event")
		return err
	}
	if env.Variant != envelope.S3Notification {
		return &envelope.Error{Kind: envelope.MalformedEvent, Msg: "not a bucket notification"}
	}
	t.log.Info("extracted 'Records' from the event")

	for _, record := range env.Records {
		ok, err := record.Matches(bucket)
		if err != nil {
			t.log.WithError(err).Warn("malformed event, skipping this record")
			continue
		}
		if !ok {
			t.log.Warn("found a non ObjectCreated event, ignoring this record")
			continue
		}

		err = queue.Send(t.sqs, t.log, queueURL, map[string]string{
			"bucket": bucket,
			"file":   record.Key,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
