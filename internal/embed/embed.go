// Package embed turns document chunks and questions into vectors via the
// OpenAI embeddings API.
package embed

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sirupsen/logrus"
)

// Dimension is the vector size of the embedding model.
const Dimension = 1536

// Embedder fetches embeddings from OpenAI.
type Embedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
	log    *logrus.Logger
}

// NewEmbedder returns an Embedder using the given API key.
func NewEmbedder(apiKey string, log *logrus.Logger) *Embedder {
	if log == nil {
		log = logrus.New()
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Embedder{
		client: &client,
		model:  openai.EmbeddingModelTextEmbeddingAda002,
		log:    log,
	}
}

// Embed returns one vector per input text, in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {

	if len(texts) == 0 {
		return nil, nil
	}

	e.log.Debugf("fetching embeddings for %v texts", len(texts))
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: e.model,
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch embeddings: %v", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %v embeddings, got %v", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for j, f := range d.Embedding {
			vec[j] = float32(f)
		}
		vectors[i] = vec
	}
	return vectors, nil
}
