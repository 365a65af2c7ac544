// Package chat answers queries the keyword parser could not place.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/lox/floatchat/internal/metrics"
	"github.com/lox/floatchat/internal/query"
)

// DefaultModel is used when no model is configured.
const DefaultModel = openai.ChatModelGPT4oMini

type Fallback interface {
	Reply(ctx context.Context, q string) (string, error)
}

// GeneralText lists the supported topics.
func GeneralText() string {
	topics := query.Topics()
	list := strings.Join(topics[:len(topics)-1], ", ") + ", and " + topics[len(topics)-1]
	return fmt.Sprintf("I can answer questions about ARGO float measurements: %s. "+
		"Try \"average temperature in the Pacific\", \"show salinity chart\" or "+
		"\"oxygen trend in the Indian Ocean\", and narrow results with the region, year and float type filters.", list)
}

// Static always replies with GeneralText.
type Static struct{}

func (Static) Reply(ctx context.Context, q string) (string, error) {
	metrics.FallbackTotal.WithLabelValues("static").Inc()
	return GeneralText(), nil
}

// OpenAI asks a chat model and falls back to Static when the call fails.
type OpenAI struct {
	client    openai.Client
	model     string
	maxTokens int64
	log       *zap.SugaredLogger
}

func NewOpenAI(apiKey, model string, log *zap.SugaredLogger, opts ...option.RequestOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key not set")
	}
	if model == "" {
		model = DefaultModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAI{
		client:    openai.NewClient(opts...),
		model:     model,
		maxTokens: 300,
		log:       log,
	}, nil
}

func systemPrompt() string {
	return "You are FloatChat, an assistant for exploring ARGO ocean float data. " +
		"You can only compute statistics over these measurements: " + strings.Join(query.Topics(), ", ") + ". " +
		"Regions are the Atlantic, Pacific, Indian and Arctic oceans. " +
		"If the user asks something you cannot answer from the data, explain briefly and suggest a query such as " +
		"\"average temperature in the Pacific\". Keep answers under 80 words and never invent measurements."
}

func (o *OpenAI) Reply(ctx context.Context, q string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt()),
			openai.UserMessage(q),
		},
		MaxCompletionTokens: openai.Int(o.maxTokens),
	})
	if err == nil && len(resp.Choices) > 0 {
		if text := strings.TrimSpace(resp.Choices[0].Message.Content); text != "" {
			metrics.FallbackTotal.WithLabelValues("openai").Inc()
			return text, nil
		}
		err = errors.New("empty completion")
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err == nil {
		err = errors.New("no choices returned")
	}
	o.log.Warnf("chat: openai fallback failed, using static reply: %v", err)
	return Static{}.Reply(ctx, q)
}
