// Package pgdb connects to the RDS PostgreSQL instance and runs DDL scripts.
package pgdb

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/secrets"
)

// Execer is an abstraction over pgx (helpful for testing)
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Database is a connection that runs statements and can be closed.
type Database interface {
	Execer
	Close(context.Context) error
}

// ConnString builds a connection string from database credentials.
func ConnString(creds *secrets.Credentials, dbname string) string {
	return fmt.Sprintf("postgres://%v:%v@%v:%v/%v",
		url.QueryEscape(creds.Username),
		url.QueryEscape(creds.Password),
		creds.Host,
		creds.Port.String(),
		dbname,
	)
}

// Connect opens a connection to the named database.
func Connect(ctx context.Context, creds *secrets.Credentials, dbname string) (*pgx.Conn, error) {

	conn, err := pgx.Connect(ctx, ConnString(creds, dbname))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %v: %v", dbname, err)
	}
	return conn, nil
}

// RunScript splits a SQL script on the statement delimiter and executes each
// non-empty statement in order. The first failing statement aborts the run.
func RunScript(ctx context.Context, log *logrus.Logger, db Execer, script string) error {

	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.Trim(stmt, " \n\t")
		if stmt == "" {
			continue
		}
		log.Infof("executing: %v", stmt)
		tag, err := db.Exec(ctx, stmt)
		if err != nil {
			return fmt.Errorf("failed to execute statement: %v", err)
		}
		log.Debugf("result: %v", tag.String())
	}
	return nil
}
