// Package inference wraps the external natural-language inference service
// behind the contract.InferenceGateway interface. Every handler feeds it a
// system prompt plus the latest customer utterance and decodes a structured
// JSON decision back out.
package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	contractx "github.com/tanpawarit/Callcrew-Multi-Agent-Call-Center/callcenter/contract"
)

// Config configures the gateway client. The timeout is enforced on every
// call; a timed-out call is indistinguishable from any other gateway failure
// to callers.
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.openai.com/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"gpt-4o"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"1200"`
	Temperature        float64       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

// Client calls a chat-completions compatible service with a JSON response
// format and decodes the structured decision object.
type Client struct {
	client      *openaisdk.Client
	model       string
	maxTokens   int64
	temperature float64
	timeout     time.Duration
}

var _ contractx.InferenceGateway = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: inference api key is required", contractx.ErrValidation)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if trimmed := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	opts = append(opts, option.WithRequestTimeout(timeout))

	sdk := openaisdk.NewClient(opts...)

	maxTokens := cfg.MaxCompletionToken
	if maxTokens <= 0 {
		maxTokens = 1200
	}

	return &Client{
		client:      &sdk,
		model:       strings.TrimSpace(cfg.Model),
		maxTokens:   int64(maxTokens),
		temperature: cfg.Temperature,
		timeout:     timeout,
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// Decide sends the prompt and decodes the gateway's JSON object into out.
func (c *Client) Decide(ctx context.Context, req contractx.InferenceRequest, out any) error {
	if strings.TrimSpace(req.UserMessage) == "" {
		return fmt.Errorf("%w: user message is required", contractx.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	userContent := req.UserMessage
	if strings.TrimSpace(req.Context) != "" {
		userContent = fmt.Sprintf("%s\n\nContext: %s", req.UserMessage, req.Context)
	}

	completion, err := c.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(req.SystemInstructions),
			openaisdk.UserMessage(userContent),
		},
		ResponseFormat: openaisdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		MaxTokens:   openaisdk.Int(c.maxTokens),
		Temperature: openaisdk.Float(c.temperature),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrInference, err)
	}

	if len(completion.Choices) == 0 {
		return fmt.Errorf("%w: completion has no choices", contractx.ErrSchemaViolation)
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return fmt.Errorf("%w: completion content is empty", contractx.ErrSchemaViolation)
	}

	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("%w: decode decision object: %v", contractx.ErrSchemaViolation, err)
	}
	return nil
}
