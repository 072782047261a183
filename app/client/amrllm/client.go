// Package amrllm parses sentences into AMR graphs with an OpenAI compatible chat model.
package amrllm

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"strings"
	"time"

	"spacyserver/app/config"
	"spacyserver/app/nlp"
	"spacyserver/app/nlp/penman"

	"github.com/samber/do"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"
)

//go:embed amr_prompt.txt
var promptTemplate string

const (
	defaultTemperature = 0.0
	maxParseDuration   = time.Minute
	maxInFlight        = 4
)

var _ nlp.AMRParser = (*Client)(nil)

type Client struct {
	model  string
	client *openai.Client
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	clientConfig := openai.DefaultConfig(cfg.Models.OpenAI.Token)
	clientConfig.BaseURL = cfg.Models.OpenAI.BaseURL
	clientConfig.HTTPClient = &http.Client{
		Timeout: maxParseDuration,
	}

	return &Client{
		model:  cfg.Models.OpenAI.Model,
		client: openai.NewClientWithConfig(clientConfig),
	}, nil
}

// ParseSents parses every sentence concurrently; the result keeps the input order.
func (c *Client) ParseSents(ctx context.Context, sents []string) ([]string, error) {
	graphs := make([]string, len(sents))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxInFlight)

	for i, sent := range sents {
		group.Go(func() error {
			graph, err := c.parse(groupCtx, sent)
			if err != nil {
				return fmt.Errorf("sentence %d: %w", i, err)
			}
			graphs[i] = graph
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return graphs, nil
}

func (c *Client) parse(ctx context.Context, sent string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, maxParseDuration)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: strings.ReplaceAll(promptTemplate, "{sentence}", sent),
				},
			},
			Temperature: defaultTemperature,
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no chat completion found")
	}

	tree, err := penman.Parse(cleanGraph(resp.Choices[0].Message.Content))
	if err != nil {
		return "", fmt.Errorf("model returned an invalid graph: %w", err)
	}

	tree.Metadata = nil
	tree.SetMeta("snt", sent)

	return penman.Format(tree), nil
}

// cleanGraph strips markdown fences and any chatter around the outermost graph.
func cleanGraph(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "`")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "penman")
	s = strings.TrimPrefix(s, "amr")

	start := strings.IndexByte(s, '(')
	end := strings.LastIndexByte(s, ')')
	if start < 0 || end < start {
		return strings.TrimSpace(s)
	}

	return s[start : end+1]
}
