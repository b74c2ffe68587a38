// Package ddlinit runs the initial DDL script against a freshly created RDS
// instance, triggered by the CreateDBInstance message ddltrigger forwards.
package ddlinit

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/envelope"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/objstore"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/pgdb"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/queue"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/secrets"
)

const defaultDDLFile = "rds-ddl.sql"

// fallbackDatabase is queryable on any PostgreSQL instance, so the script can
// still run when the creation event carries no database name.
const fallbackDatabase = "information_schema"

// Handler executes the DDL script for a new database instance.
type Handler struct {
	sqs     queue.Deleter
	sm      secrets.Lister
	s3      objstore.Getter
	log     *logrus.Logger
	connect func(context.Context, *secrets.Credentials, string) (pgdb.Database, error)
}

// NewHandler returns a new Handler.
func NewHandler(sqsc queue.Deleter, sm secrets.Lister, s3c objstore.Getter, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.New()
	}
	return &Handler{sqs: sqsc, sm: sm, s3: s3c, log: log, connect: dial}
}

func dial(ctx context.Context, creds *secrets.Credentials, dbname string) (pgdb.Database, error) {
	conn, err := pgdb.Connect(ctx, creds, dbname)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// databaseName resolves the database to run the script against: the DB_NAME
// override wins, then the creation event's databaseName, then the fallback.
func (h *Handler) databaseName(body envelope.Payload) string {

	if name := os.Getenv("DB_NAME"); name != "" {
		h.log.Warn("DB_NAME environment variable will be used as dbname")
		return name
	}
	h.log.Info("DB_NAME environment variable is not supplied")

	if name, ok := body["databaseName"].(string); ok && name != "" {
		return name
	}
	h.log.Warn("no databaseName found in the CreateDBInstance event body")
	return fallbackDatabase
}

// Handle processes one invocation. The message is deleted from the queue
// before processing; redelivery on failure is the platform's concern.
func (h *Handler) Handle(ctx context.Context, raw json.RawMessage) error {

	env, err := envelope.Parse(raw)
	if err != nil {
		h.log.WithError(err).Error("could not parse event")
		return err
	}

	if err := queue.DeleteInbound(h.sqs, h.log, env, "SQS_QUEUE_URL"); err != nil {
		return err
	}

	body, err := env.QueueBody()
	if err != nil {
		return err
	}

	clusterID, err := body.RequireString("dBInstanceIdentifier")
	if err != nil {
		return err
	}
	h.log.Infof("cluster id: %v", clusterID)

	bucket, err := envelope.RequireEnv("DDL_SOURCE_BUCKET")
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToLower(bucket), strings.ToLower(clusterID)) {
		h.log.Warn("DDL source bucket name does not contain database ID, exiting")
		return nil
	}

	dbname := h.databaseName(body)

	creds, err := secrets.FindCredentials(h.sm, h.log, clusterID)
	if err != nil {
		return err
	}

	file := os.Getenv("DDL_SOURCE_FILE_RDS")
	if file == "" {
		file = defaultDDLFile
	}
	script, err := objstore.Fetch(h.s3, h.log, bucket, file)
	if err != nil {
		return err
	}

	db, err := h.connect(ctx, creds, dbname)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	return pgdb.RunScript(ctx, h.log, db, string(script))
}
