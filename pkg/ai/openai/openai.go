package openai

import (
	"sync"

	"github.com/OFFIS-RIT/citegraph/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIClient talks to any OpenAI-compatible chat completion endpoint,
// for example xAI's.
//
// An OpenAIClient should be created using NewOpenAIClient.
type OpenAIClient struct {
	model   string
	chatURL string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient *openai.Client
}

// NewOpenAIClientParams configures an OpenAIClient. An empty ChatURL uses
// the OpenAI API.
type NewOpenAIClientParams struct {
	Model   string
	ChatURL string
	ChatKey string
}

// NewOpenAIClient creates a client for the given endpoint.
//
// Example:
//
//	client := openai.NewOpenAIClient(openai.NewOpenAIClientParams{
//		Model:   "grok-beta",
//		ChatURL: "https://api.x.ai/v1",
//		ChatKey: os.Getenv("AI_CHAT_KEY"),
//	})
func NewOpenAIClient(params NewOpenAIClientParams) *OpenAIClient {
	return &OpenAIClient{
		model:      params.Model,
		chatURL:    params.ChatURL,
		ChatClient: newOpenaiClient(params.ChatURL, params.ChatKey),
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}
