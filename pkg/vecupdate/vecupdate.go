// Package vecupdate ingests converted documents into the pgvector collection
// that backs the chat application.
package vecupdate

import (
	"context"
	"encoding/json"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/embed"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/envelope"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/objstore"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/pgdb"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/queue"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/secrets"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/vecstore"
)

const defaultDatabase = "postgres"

// Vectors is the embedding surface the handler needs (helpful for testing)
type Vectors interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type database interface {
	vecstore.Querier
	Close(context.Context) error
}

// Handler chunks a document, embeds it and stores it in the collection.
type Handler struct {
	sqs      queue.Deleter
	sm       secrets.Getter
	s3       objstore.Getter
	log      *logrus.Logger
	connect  func(context.Context, *secrets.Credentials, string) (database, error)
	embedder func(apiKey string) Vectors
}

// NewHandler returns a new Handler.
func NewHandler(sqsc queue.Deleter, sm secrets.Getter, s3c objstore.Getter, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.New()
	}
	h := &Handler{sqs: sqsc, sm: sm, s3: s3c, log: log}
	h.connect = func(ctx context.Context, creds *secrets.Credentials, dbname string) (database, error) {
		conn, err := pgdb.Connect(ctx, creds, dbname)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
	h.embedder = func(apiKey string) Vectors {
		return embed.NewEmbedder(apiKey, log)
	}
	return h
}

// Handle processes one invocation. The message is deleted from the queue
// before processing; redelivery on failure is the platform's concern.
func (h *Handler) Handle(ctx context.Context, raw json.RawMessage) error {

	env, err := envelope.Parse(raw)
	if err != nil {
		h.log.WithError(err).Error("could not parse event")
		return err
	}

	if err := queue.DeleteInbound(h.sqs, h.log, env, "QUEUE_URL"); err != nil {
		return err
	}

	body, err := env.QueueBody()
	if err != nil {
		return err
	}
	bucket, err := body.RequireString("bucket")
	if err != nil {
		return err
	}
	file, err := body.RequireString("file")
	if err != nil {
		return err
	}

	secretName, err := envelope.RequireEnv("DB_CREDS")
	if err != nil {
		return err
	}
	creds, err := secrets.FetchCredentials(h.sm, h.log, secretName)
	if err != nil {
		return err
	}

	collection, err := envelope.RequireEnv("COLLECTION_NAME")
	if err != nil {
		return err
	}

	apiKeySecret, err := envelope.RequireEnv("API_KEY_SECRET_NAME")
	if err != nil {
		return err
	}
	apiKey, err := secrets.Fetch(h.sm, h.log, apiKeySecret)
	if err != nil {
		return err
	}

	dbname := os.Getenv("PGVECTOR_DATABASE")
	if dbname == "" {
		dbname = defaultDatabase
	}

	h.log.Infof("loading document: %v from bucket: %v", file, bucket)
	contents, err := objstore.Fetch(h.s3, h.log, bucket, file)
	if err != nil {
		return err
	}

	chunks := embed.Chunk(string(contents), embed.DefaultChunkSize)
	if len(chunks) == 0 {
		h.log.Warnf("document %v is empty, nothing to add", file)
		return nil
	}

	vectors, err := h.embedder(apiKey).Embed(ctx, chunks)
	if err != nil {
		return err
	}

	db, err := h.connect(ctx, creds, dbname)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	store := vecstore.New(db, collection, h.log)
	if err := store.EnsureCollection(ctx); err != nil {
		return err
	}

	docs := make([]vecstore.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = vecstore.Document{Source: file, Content: chunk}
	}

	h.log.Info("adding new document to the vector store")
	return store.AddDocuments(ctx, docs, vectors)
}
