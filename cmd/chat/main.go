// Command chat is an interactive retrieval chat over the pgvector collection,
// answering with Claude on Bedrock.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/bedrockruntime"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/joho/godotenv"

	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/chat"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/embed"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/envelope"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/logging"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/pgdb"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/secrets"
	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/vecstore"
)

const newSearchPrefix = "new search:"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {

	// a .env file is a convenience for local runs, not a requirement
	_ = godotenv.Load()
	log := logging.New()
	ctx := context.Background()

	dbSecret, err := envelope.RequireEnv("DB_CREDS")
	if err != nil {
		return err
	}
	apiKeySecret, err := envelope.RequireEnv("API_KEY_SECRET_NAME")
	if err != nil {
		return err
	}
	collection, err := envelope.RequireEnv("COLLECTION_NAME")
	if err != nil {
		return err
	}

	sess := session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
	cfg := &aws.Config{Region: aws.String(os.Getenv("AWS_REGION"))}
	smc := secretsmanager.New(sess, cfg)

	creds, err := secrets.FetchCredentials(smc, log, dbSecret)
	if err != nil {
		return err
	}
	apiKey, err := secrets.Fetch(smc, log, apiKeySecret)
	if err != nil {
		return err
	}

	dbname := os.Getenv("PGVECTOR_DATABASE")
	if dbname == "" {
		dbname = "postgres"
	}
	conn, err := pgdb.Connect(ctx, creds, dbname)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	chain := chat.NewChain(
		bedrockruntime.New(sess, cfg),
		embed.NewEmbedder(apiKey, log),
		vecstore.New(conn, collection, log),
		os.Getenv("FOUNDATION_MODEL_ID"),
		log,
	)

	log.Info("starting conversational retrieval now..")
	fmt.Println("Hello! How can I help you?")
	fmt.Println("Ask a question, start a new search: or CTRL-D to exit.")
	fmt.Print("> ")

	var history []chat.Exchange
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			fmt.Print("> ")
			continue
		}

		if strings.HasPrefix(strings.ToLower(question), newSearchPrefix) {
			question = strings.TrimSpace(question[len(newSearchPrefix):])
			history = nil
		} else if len(history) == chat.MaxHistoryLength {
			history = history[1:]
		}

		result, err := chain.Run(ctx, question, history)
		if err != nil {
			return err
		}
		history = append(history, chat.Exchange{Question: question, Answer: result.Answer})

		fmt.Println(result.Answer)
		if len(result.Sources) > 0 {
			fmt.Println("Sources:")
			for _, source := range result.Sources {
				fmt.Println(source)
			}
		}
		fmt.Println("Ask a question, start a new search: or CTRL-D to exit.")
		fmt.Print("> ")
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %v", err)
	}
	fmt.Println("Bye")
	return nil
}
