// Package callbackupdate keeps an updated Cognito user pool client pointed
// at the load balancer's OAuth2 callback endpoint.
package callbackupdate

import (
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/envelope"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/userpool"
)

// Updater corrects the callback URL after UpdateUserPoolClient events.
type Updater struct {
	cog userpool.Updater
	log *logrus.Logger
}

// NewUpdater returns a new Updater.
func NewUpdater(cog userpool.Updater, log *logrus.Logger) *Updater {
	if log == nil {
		log = logrus.New()
	}
	return &Updater{cog: cog, log: log}
}

// Handle processes one invocation.
func (u *Updater) Handle(raw json.RawMessage) error {

	cfg, err := userpool.LoadConfig()
	if err != nil {
		return err
	}

	env, err := envelope.Parse(raw)
	if err != nil {
		u.log.WithError(err).Error("could not parse event")
		return err
	}

	client, err := userpool.ExtractClient(env, "UpdateUserPoolClient")
	if err != nil {
		u.log.WithError(err).Error("could not extract user pool details")
		return err
	}
	u.log.Info("extracted user pool details")

	return userpool.UpdateCallback(u.cog, u.log, cfg, client)
}
