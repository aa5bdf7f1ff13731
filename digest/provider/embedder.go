package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/theimaginaryfoundation/review-digest/digest"
)

// OpenAIEmbedder is the embedding collaborator backed by the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel

	// Dimensions truncates vectors server-side when > 0.
	Dimensions int64
	Retry      RetryPolicy
}

var _ digest.Embedder = (*OpenAIEmbedder)(nil)

func NewOpenAIEmbedder(client *openai.Client, model string) *OpenAIEmbedder {
	if model == "" {
		model = string(openai.EmbeddingModelTextEmbedding3Small)
	}
	return &OpenAIEmbedder{client: client, model: openai.EmbeddingModel(model), Retry: DefaultRetryPolicy}
}

// EmbedBatch embeds texts in one request and returns the vectors in input order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if e.client == nil {
		return nil, errors.New("OpenAIEmbedder: client is nil")
	}
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	params := openai.EmbeddingNewParams{
		Model: e.model,
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	}
	if e.Dimensions > 0 {
		params.Dimensions = openai.Int(e.Dimensions)
	}

	resp, err := CallWithRetry(ctx, e.Retry, func(ctx context.Context) (*openai.CreateEmbeddingResponse, error) {
		return e.client.Embeddings.New(ctx, params)
	})
	if err != nil {
		return nil, err
	}

	out := make([][]float64, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range for %d inputs", d.Index, len(texts))
		}
		out[d.Index] = d.Embedding
	}
	for i, v := range out {
		if v == nil {
			return nil, fmt.Errorf("no embedding returned for input %d", i)
		}
	}
	return out, nil
}
