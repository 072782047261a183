// Package modelserver talks to an external JSON model server hosting the heavy pipelines.
package modelserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spacyserver/app/config"
	"spacyserver/app/nlp"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
)

var ErrStatus = errors.New("unexpected model server status")

type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("model server %s returned %d: %s", e.Path, e.Code, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

var (
	_ nlp.Pipeline  = (*Client)(nil)
	_ nlp.AMRParser = (*Client)(nil)
)

type Client struct {
	baseURL       string
	baseModel     string
	amrModel      string
	timeout       time.Duration
	probeAttempts int
	probeInterval time.Duration
}

type processRequest struct {
	Model string `json:"model,omitempty"`
	Text  string `json:"text"`
}

type amrRequest struct {
	Model     string   `json:"model,omitempty"`
	Sentences []string `json:"sentences"`
}

type amrResponse struct {
	Graphs []string `json:"graphs"`
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return &Client{
		baseURL:       cfg.Models.Remote.BaseURL,
		baseModel:     cfg.Models.Base.Name,
		amrModel:      cfg.Models.AMR.Name,
		timeout:       cfg.Models.Remote.Timeout,
		probeAttempts: max(cfg.Models.Remote.ProbeAttempts, 1),
		probeInterval: time.Second,
	}, nil
}

// requestTimeout bounds a call by the configured timeout and the context deadline.
func (c *Client) requestTimeout(ctx context.Context) time.Duration {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); timeout == 0 || left < timeout {
			timeout = left
		}
	}
	return timeout
}

func (c *Client) send(ctx context.Context, agent *fiber.Agent, path string, result any) error {
	if err := ctx.Err(); err != nil {
		fiber.ReleaseAgent(agent)
		return err
	}

	if timeout := c.requestTimeout(ctx); timeout > 0 {
		agent.Timeout(timeout)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("model server %s: %w", path, errors.Join(errs...))
	}

	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return &StatusError{Path: path, Code: code, Body: string(body)}
	}

	if result == nil {
		return nil
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}

	return nil
}

// Ping waits until the server reports healthy, retrying while it loads its models.
func (c *Client) Ping(ctx context.Context) error {
	var err error

	for attempt := 1; attempt <= c.probeAttempts; attempt++ {
		if err = c.send(ctx, fiber.Get(c.baseURL+"/health"), "/health", nil); err == nil {
			return nil
		}

		slog.Debug("Model server not ready",
			"attempt", attempt,
			"error", err,
		)

		if attempt == c.probeAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.probeInterval):
		}
	}

	return fmt.Errorf("model server did not become healthy after %d attempts: %w", c.probeAttempts, err)
}

func (c *Client) Process(ctx context.Context, text string) (*nlp.Doc, error) {
	agent := fiber.Post(c.baseURL + "/process").JSON(processRequest{
		Model: c.baseModel,
		Text:  text,
	})

	doc := nlp.NewDoc(text)
	if err := c.send(ctx, agent, "/process", doc); err != nil {
		return nil, err
	}

	if doc.Text == "" {
		doc.Text = text
	}
	if doc.Spans == nil {
		doc.Spans = make(map[string][]nlp.Span)
	}

	return doc, nil
}

func (c *Client) ParseSents(ctx context.Context, sents []string) ([]string, error) {
	agent := fiber.Post(c.baseURL + "/amr").JSON(amrRequest{
		Model:     c.amrModel,
		Sentences: sents,
	})

	var resp amrResponse
	if err := c.send(ctx, agent, "/amr", &resp); err != nil {
		return nil, err
	}

	if len(resp.Graphs) != len(sents) {
		return nil, fmt.Errorf("model server returned %d graphs for %d sentences", len(resp.Graphs), len(sents))
	}

	return resp.Graphs, nil
}
