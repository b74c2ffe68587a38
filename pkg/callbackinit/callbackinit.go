// Package callbackinit performs the first callback URL fix-up after stack
// creation. The client details arrive via SQS from clienttrigger; the queue
// message is deleted before processing because it would otherwise remain in
// the queue.
package callbackinit

import (
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/envelope"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/queue"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/userpool"
)

// Initialiser bootstraps the user pool client callback URL.
type Initialiser struct {
	cog userpool.Updater
	sqs queue.Deleter
	log *logrus.Logger
}

// NewInitialiser returns a new Initialiser.
func NewInitialiser(cog userpool.Updater, sqs queue.Deleter, log *logrus.Logger) *Initialiser {
	if log == nil {
		log = logrus.New()
	}
	return &Initialiser{cog: cog, sqs: sqs, log: log}
}

// Handle processes one invocation.
func (i *Initialiser) Handle(raw json.RawMessage) error {

	env, err := envelope.Parse(raw)
	if err != nil {
		i.log.WithError(err).Error("could not parse event")
		return err
	}

	if err := queue.DeleteInbound(i.sqs, i.log, env, "SQS_QUEUE_URL"); err != nil {
		return err
	}

	client, err := env.QueueBody()
	if err != nil {
		return err
	}
	i.log.Info("extracted user pool details")

	cfg, err := userpool.LoadConfig()
	if err != nil {
		return err
	}
	return userpool.UpdateCallback(i.cog, i.log, cfg, client)
}
