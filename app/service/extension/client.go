package extension

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"spacyserver/app/config"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
)

const (
	apiVersion    = "2020-01-01"
	nameHeader    = "Lambda-Extension-Name"
	idHeader      = "Lambda-Extension-Identifier"
	EventInvoke   = "INVOKE"
	EventShutdown = "SHUTDOWN"
)

// Event is a lifecycle event returned by event/next.
type Event struct {
	EventType      string `json:"eventType"`
	DeadlineMs     int64  `json:"deadlineMs"`
	RequestID      string `json:"requestId"`
	ShutdownReason string `json:"shutdownReason"`
}

// Client talks to the Lambda Extensions API.
type Client struct {
	baseURL string
	name    string
	id      string
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	if cfg.Lambda.RuntimeAPI == "" {
		return nil, errors.New("AWS_LAMBDA_RUNTIME_API is not set")
	}

	return &Client{
		baseURL: fmt.Sprintf("http://%s/%s/extension", cfg.Lambda.RuntimeAPI, apiVersion),
		name:    cfg.Lambda.ExtensionName,
	}, nil
}

// Register subscribes to events and stores the extension id for later calls.
func (c *Client) Register(events ...string) (string, error) {
	resp := fiber.AcquireResponse()
	defer fiber.ReleaseResponse(resp)

	agent := fiber.Post(c.baseURL+"/register").
		Set(nameHeader, c.name).
		JSON(map[string]any{"events": events})
	agent.SetResponse(resp)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", fmt.Errorf("failed to register extension: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return "", fmt.Errorf("failed to register extension: status %d: %s", code, body)
	}

	c.id = string(resp.Header.Peek(idHeader))
	if c.id == "" {
		return "", errors.New("register response has no extension identifier")
	}

	return c.id, nil
}

// Next blocks until the next lifecycle event arrives or ctx is done.
func (c *Client) Next(ctx context.Context) (*Event, error) {
	type result struct {
		event *Event
		err   error
	}

	results := make(chan result, 1)

	go func() {
		event, err := c.next()
		results <- result{event, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-results:
		return r.event, r.err
	}
}

func (c *Client) next() (*Event, error) {
	agent := fiber.Get(c.baseURL+"/event/next").Set(idHeader, c.id)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to fetch next event: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return nil, fmt.Errorf("failed to fetch next event: status %d: %s", code, body)
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}

	return &event, nil
}
