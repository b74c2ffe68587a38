package ddlinit

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/pgdb"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/secrets"
)

type mockSQS struct {
	sqsiface.SQSAPI
	deletes int
}

func (m *mockSQS) DeleteMessage(*sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error) {
	m.deletes++
	return &sqs.DeleteMessageOutput{}, nil
}

type mockSM struct {
	secretsmanageriface.SecretsManagerAPI
	value string
}

func (m *mockSM) ListSecrets(*secretsmanager.ListSecretsInput) (*secretsmanager.ListSecretsOutput, error) {
	return &secretsmanager.ListSecretsOutput{
		SecretList: []*secretsmanager.SecretListEntry{{Name: aws.String("rds-creds")}},
	}, nil
}

func (m *mockSM) GetSecretValue(*secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(m.value)}, nil
}

type mockS3 struct {
	s3iface.S3API
	script string
}

func (m *mockS3) GetObject(*s3.GetObjectInput) (*s3.GetObjectOutput, error) {
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte(m.script)))}, nil
}

type fakeDB struct {
	stmts []string
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.stmts = append(f.stmts, sql)
	return pgconn.NewCommandTag("CREATE"), nil
}

func (f *fakeDB) Close(context.Context) error { return nil }

func queueEvent(t *testing.T, body map[string]string) string {
	t.Helper()
	inner, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	event := map[string]interface{}{
		"Records": []interface{}{
			map[string]interface{}{
				"messageId":     "mid-1",
				"receiptHandle": "rh-1",
				"body":          string(inner),
			},
		},
	}
	out, err := json.Marshal(event)
	if err != nil {
		t.Fatal(err)
	}
	return string(out)
}

const creds = `{"host": "db.local", "port": 5432, "username": "admin", "password": "pw", "dbInstanceIdentifier": "ragdb"}`

func TestHandle(t *testing.T) {

	tt := []struct {
		name    string
		event   string
		bucket  string
		dbName  string
		secret  string
		deletes int
		stmts   []string
		wantDB  string
		err     string
	}{
		{
			name:    "runs the script for a queue event",
			event:   queueEvent(t, map[string]string{"dBInstanceIdentifier": "ragdb", "databaseName": "vectordb"}),
			bucket:  "ddl-source-ragdb",
			secret:  creds,
			deletes: 1,
			stmts:   []string{"CREATE EXTENSION vector", "CREATE TABLE t (id int)"},
			wantDB:  "vectordb",
		},
		{
			name:   "runs the script for a test event",
			event:  `{"test_event": "true", "dBInstanceIdentifier": "ragdb", "databaseName": "vectordb"}`,
			bucket: "ddl-source-ragdb",
			secret: creds,
			stmts:  []string{"CREATE EXTENSION vector", "CREATE TABLE t (id int)"},
			wantDB: "vectordb",
		},
		{
			name:   "DB_NAME overrides the event database",
			event:  `{"test_event": "true", "dBInstanceIdentifier": "ragdb", "databaseName": "vectordb"}`,
			bucket: "ddl-source-ragdb",
			dbName: "postgres",
			secret: creds,
			stmts:  []string{"CREATE EXTENSION vector", "CREATE TABLE t (id int)"},
			wantDB: "postgres",
		},
		{
			name:   "falls back to information_schema without a database name",
			event:  `{"test_event": "true", "dBInstanceIdentifier": "ragdb"}`,
			bucket: "ddl-source-ragdb",
			secret: creds,
			stmts:  []string{"CREATE EXTENSION vector", "CREATE TABLE t (id int)"},
			wantDB: "information_schema",
		},
		{
			name:   "skips when the bucket is for another instance",
			event:  `{"test_event": "true", "dBInstanceIdentifier": "ragdb"}`,
			bucket: "ddl-source-otherdb",
			secret: creds,
		},
		{
			name:   "fails without an instance identifier",
			event:  `{"test_event": "true", "databaseName": "vectordb"}`,
			bucket: "ddl-source-ragdb",
			secret: creds,
			err:    "dBInstanceIdentifier",
		},
		{
			name:   "fails when no secret matches the instance",
			event:  `{"test_event": "true", "dBInstanceIdentifier": "ragdb"}`,
			bucket: "ddl-source-ragdb",
			secret: `{"dbInstanceIdentifier": "otherdb"}`,
			err:    "no secret found for database ragdb",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("SQS_QUEUE_URL", "https://queue.local/ddl")
			t.Setenv("DDL_SOURCE_BUCKET", tc.bucket)
			if tc.dbName != "" {
				t.Setenv("DB_NAME", tc.dbName)
			}

			sqsc := &mockSQS{}
			h := NewHandler(sqsc, &mockSM{value: tc.secret}, &mockS3{script: "CREATE EXTENSION vector;\nCREATE TABLE t (id int);\n"}, logrus.New())

			db := &fakeDB{}
			var gotDB string
			h.connect = func(ctx context.Context, creds *secrets.Credentials, dbname string) (pgdb.Database, error) {
				gotDB = dbname
				return db, nil
			}

			err := h.Handle(context.Background(), json.RawMessage(tc.event))
			if tc.err == "" && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if tc.err != "" {
				if err == nil || !strings.Contains(err.Error(), tc.err) {
					t.Fatalf("expected error containing %q, got %v", tc.err, err)
				}
			}
			if sqsc.deletes != tc.deletes {
				t.Errorf("expected %v deletions, got %v", tc.deletes, sqsc.deletes)
			}
			if diff := cmp.Diff(tc.stmts, db.stmts); diff != "" {
				t.Errorf("statements mismatch (-want +got):\n%s", diff)
			}
			if tc.wantDB != "" && gotDB != tc.wantDB {
				t.Errorf("expected database %v, got %v", tc.wantDB, gotDB)
			}
		})
	}
}
