// Package chat answers questions over the pgvector collection with Claude on
// Bedrock: condense the question against the conversation history, retrieve
// the nearest chunks, answer from the retrieved documents.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/bedrockruntime"
	"github.com/sirupsen/logrus"

	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/vecstore"
)

// DefaultModelID is the Bedrock model used when none is configured.
const DefaultModelID = "anthropic.claude-instant-v1"

// MaxHistoryLength caps the exchanges carried between questions.
const MaxHistoryLength = 5

// topK is the number of chunks retrieved per question.
const topK = 5

// Invoker is an abstraction for the Bedrock runtime (helpful for testing)
type Invoker interface {
	InvokeModelWithContext(aws.Context, *bedrockruntime.InvokeModelInput, ...request.Option) (*bedrockruntime.InvokeModelOutput, error)
}

// Retriever finds document chunks near a question vector.
type Retriever interface {
	Search(ctx context.Context, vector []float32, k int) ([]vecstore.Document, error)
}

// Embedder turns texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Exchange is one question/answer pair of the conversation history.
type Exchange struct {
	Question string
	Answer   string
}

// Result is an answer and the distinct sources it was drawn from.
type Result struct {
	Answer  string
	Sources []string
}

// Chain runs the retrieval conversation.
type Chain struct {
	llm     Invoker
	emb     Embedder
	ret     Retriever
	modelID string
	log     *logrus.Logger
}

// NewChain returns a new Chain. An empty modelID selects the default model.
func NewChain(llm Invoker, emb Embedder, ret Retriever, modelID string, log *logrus.Logger) *Chain {
	if modelID == "" {
		modelID = DefaultModelID
	}
	if log == nil {
		log = logrus.New()
	}
	return &Chain{llm: llm, emb: emb, ret: ret, modelID: modelID, log: log}
}

type claudeRequest struct {
	Prompt            string  `json:"prompt"`
	MaxTokensToSample int     `json:"max_tokens_to_sample"`
	Temperature       float64 `json:"temperature"`
	TopK              int     `json:"top_k"`
	TopP              float64 `json:"top_p"`
	AnthropicVersion  string  `json:"anthropic_version"`
}

type claudeResponse struct {
	Completion string `json:"completion"`
}

func (c *Chain) invoke(ctx context.Context, prompt string) (string, error) {

	body, err := json.Marshal(claudeRequest{
		Prompt:            prompt,
		MaxTokensToSample: 300,
		Temperature:       1,
		TopK:              250,
		TopP:              0.999,
		AnthropicVersion:  "bedrock-2023-05-31",
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal model request: %v", err)
	}

	out, err := c.llm.InvokeModelWithContext(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke model: %v", err)
	}

	var resp claudeResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode model response: %v", err)
	}
	return strings.TrimSpace(resp.Completion), nil
}

// condense rephrases a follow-up question into a standalone one. Without
// history the question already stands alone.
func (c *Chain) condense(ctx context.Context, question string, history []Exchange) (string, error) {

	if len(history) == 0 {
		return question, nil
	}

	prompt, err := renderCondensePrompt(history, question)
	if err != nil {
		return "", err
	}

	standalone, err := c.invoke(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to condense question: %v", err)
	}
	c.log.Debugf("standalone question: %v", standalone)
	return standalone, nil
}

// Run answers one question against the collection.
func (c *Chain) Run(ctx context.Context, question string, history []Exchange) (*Result, error) {

	standalone, err := c.condense(ctx, question, history)
	if err != nil {
		return nil, err
	}

	vectors, err := c.emb.Embed(ctx, []string{standalone})
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %v", err)
	}

	docs, err := c.ret.Search(ctx, vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve documents: %v", err)
	}
	c.log.Infof("retrieved %v documents", len(docs))

	var texts []string
	var sources []string
	seen := make(map[string]bool)
	for _, d := range docs {
		texts = append(texts, d.Content)
		if !seen[d.Source] {
			seen[d.Source] = true
			sources = append(sources, d.Source)
		}
	}

	prompt, err := renderAnswerPrompt(strings.Join(texts, "\n\n"), standalone)
	if err != nil {
		return nil, err
	}

	answer, err := c.invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return &Result{Answer: answer, Sources: sources}, nil
}
