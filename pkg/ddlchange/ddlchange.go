// Package ddlchange re-runs the DDL script after the source object in the
// DDL bucket changes.
package ddlchange

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/sirupsen/logrus"

	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/envelope"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/objstore"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/pgdb"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/secrets"
)

const defaultDDLFile = "rds-ddl.sql"

// bucketPrefix precedes the instance identifier in the DDL bucket name.
const bucketPrefix = "ddl-source-"

// settleDelay gives the DDL source object time to finish replicating before
// the script is read back.
const settleDelay = 2 * time.Minute

// InstanceDescriber is an abstraction for the RDS client (helpful for testing)
type InstanceDescriber interface {
	DescribeDBInstances(*rds.DescribeDBInstancesInput) (*rds.DescribeDBInstancesOutput, error)
}

// IdentityGetter is an abstraction for the STS client (helpful for testing)
type IdentityGetter interface {
	GetCallerIdentity(*sts.GetCallerIdentityInput) (*sts.GetCallerIdentityOutput, error)
}

// Handler re-applies the DDL script to the instance the bucket belongs to.
type Handler struct {
	rds     InstanceDescriber
	sts     IdentityGetter
	sm      secrets.Lister
	s3      objstore.Getter
	log     *logrus.Logger
	wait    func(time.Duration)
	connect func(context.Context, *secrets.Credentials, string) (pgdb.Database, error)
}

// NewHandler returns a new Handler.
func NewHandler(rdsc InstanceDescriber, stsc IdentityGetter, sm secrets.Lister, s3c objstore.Getter, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.New()
	}
	return &Handler{rds: rdsc, sts: stsc, sm: sm, s3: s3c, log: log, wait: time.Sleep, connect: dial}
}

func dial(ctx context.Context, creds *secrets.Credentials, dbname string) (pgdb.Database, error) {
	conn, err := pgdb.Connect(ctx, creds, dbname)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// databaseARN resolves the instance ARN, preferring the RDS API and falling
// back to constructing it from the region and account id.
func (h *Handler) databaseARN(dbID string) (string, error) {

	h.log.Info("attempting to get db arn from RDS")
	out, err := h.rds.DescribeDBInstances(&rds.DescribeDBInstancesInput{
		DBInstanceIdentifier: aws.String(dbID),
	})
	if err != nil {
		h.log.WithError(err).Warn("unable to describe the database instance")
	} else if len(out.DBInstances) == 0 || out.DBInstances[0].DBInstanceArn == nil {
		h.log.Error("no databases returned from the API call")
	} else {
		return *out.DBInstances[0].DBInstanceArn, nil
	}

	h.log.Warn("unable to fetch database arn from RDS API call, will attempt to infer it")
	region, err := envelope.RequireEnv("AWS_REGION")
	if err != nil {
		return "", err
	}

	ident, err := h.sts.GetCallerIdentity(&sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("unable to fetch account id from sts: %v", err)
	}
	if ident.Account == nil || *ident.Account == "" {
		return "", fmt.Errorf("unable to find a matching db arn")
	}
	return fmt.Sprintf("arn:aws:rds:%v:%v:db:%v", region, *ident.Account, dbID), nil
}

// Handle processes one invocation. The trigger payload carries nothing this
// handler needs; everything is derived from the environment.
func (h *Handler) Handle(ctx context.Context) error {

	h.log.Info("waiting for DDL source to be updated..")
	h.wait(settleDelay)

	bucket, err := envelope.RequireEnv("DDL_SOURCE_BUCKET")
	if err != nil {
		return err
	}
	dbname, err := envelope.RequireEnv("DB_NAME")
	if err != nil {
		return err
	}

	dbID := strings.TrimPrefix(bucket, bucketPrefix)

	arn, err := h.databaseARN(dbID)
	if err != nil {
		return err
	}
	h.log.Infof("DB ARN: %v", arn)

	creds, err := secrets.FindCredentials(h.sm, h.log, dbID)
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
