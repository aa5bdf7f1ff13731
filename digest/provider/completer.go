package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/responses"

	"github.com/theimaginaryfoundation/review-digest/digest"
)

// OpenAICompleter is the generative collaborator backed by the OpenAI Responses API. Requests
// that carry a schema are sent with a strict json_schema output format.
type OpenAICompleter struct {
	client *openai.Client
	model  string

	// MaxOutputTokens caps each answer. Zero leaves it to the API.
	MaxOutputTokens int64
	// Flex sends requests on the flex service tier.
	Flex  bool
	Retry RetryPolicy
}

var _ digest.Completer = (*OpenAICompleter)(nil)

// NewOpenAICompleter returns a completer using DefaultRetryPolicy.
func NewOpenAICompleter(client *openai.Client, model string) *OpenAICompleter {
	return &OpenAICompleter{
		client:          client,
		model:           model,
		MaxOutputTokens: 2500,
		Retry:           DefaultRetryPolicy,
	}
}

func (c *OpenAICompleter) Complete(ctx context.Context, req digest.CompletionRequest) (string, error) {
	if c.client == nil {
		return "", errors.New("OpenAICompleter: client is nil")
	}
	if c.model == "" {
		return "", errors.New("OpenAICompleter: model is empty")
	}

	params := responses.ResponseNewParams{
		Model:        c.model,
		Instructions: openai.String(req.Instructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(req.Prompt, responses.EasyInputMessageRoleUser),
			},
		},
	}
	if c.MaxOutputTokens > 0 {
		params.MaxOutputTokens = openai.Int(c.MaxOutputTokens)
	}
	if c.Flex {
		params.ServiceTier = responses.ResponseNewParamsServiceTierFlex
	}
	if req.Schema != nil {
		name := req.Name
		if name == "" {
			name = "Result"
		}
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:   name,
					Schema: req.Schema,
					Strict: openai.Bool(true),
					Type:   "json_schema",
				},
			},
		}
	}

	resp, err := CallWithRetry(ctx, c.Retry, func(ctx context.Context) (*responses.Response, error) {
		return c.client.Responses.New(ctx, params)
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.OutputText()), nil
}
