package invocation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"spacyserver/app/service/parser"
	"spacyserver/app/service/warmup"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/mitchellh/mapstructure"
	"github.com/samber/do"
)

const contentType = "application/json; charset=utf-8"

// Event is the subset of an invocation payload the handler looks at. Function URL
// and API Gateway v2 requests carry requestContext, direct invocations carry text.
type Event struct {
	RequestContext  *RequestContext `mapstructure:"requestContext"`
	Body            any             `mapstructure:"body"`
	IsBase64Encoded bool            `mapstructure:"isBase64Encoded"`
	Text            any             `mapstructure:"text"`
	Warmup          any             `mapstructure:"warmup"`
	NewVersion      any             `mapstructure:"new_version"`
}

type RequestContext struct {
	HTTP struct {
		Method string `mapstructure:"method"`
	} `mapstructure:"http"`
}

type Service struct {
	parserSvc *parser.Service
	warmupSvc *warmup.Service
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		parserSvc: do.MustInvoke[*parser.Service](di),
		warmupSvc: do.MustInvoke[*warmup.Service](di),
	}, nil
}

// Handle routes one invocation. It returns "" for warmups, a function URL response
// for HTTP requests and the bare ParseResult for direct invocations.
func (s *Service) Handle(ctx context.Context, raw map[string]any) (any, error) {
	var event Event
	if err := decodeEvent(raw, &event); err != nil {
		return nil, err
	}

	_, isRequest := raw["requestContext"]

	requestID := ""
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		requestID = lc.AwsRequestID
	}

	text := parser.TextOf(event.Text)
	if isRequest {
		if event.RequestContext == nil || event.RequestContext.HTTP.Method != http.MethodPost {
			return response(http.StatusNotFound, "Not Found")
		}

		body, err := requestBody(event)
		if err != nil {
			return nil, err
		}
		text = body
	}

	if event.Warmup == true {
		newVersion := ""
		if event.NewVersion != nil {
			newVersion = fmt.Sprint(event.NewVersion)
		}

		slog.Info("Warmup invocation",
			"request_id", requestID,
			"new_version", newVersion,
		)

		if err := s.warmupSvc.Warmup(ctx, newVersion); err != nil {
			return nil, err
		}
		return "", nil
	}

	start := time.Now()

	result, err := s.parserSvc.Parse(ctx, text)
	if err != nil {
		slog.Error("Parse failed",
			"request_id", requestID,
			"error", err,
		)
		return nil, err
	}

	slog.Info("Handled invocation",
		"request_id", requestID,
		"http", isRequest,
		"tokens", len(result.Tokens),
		"duration", time.Since(start),
	)

	if isRequest {
		return response(http.StatusCreated, result)
	}

	return result, nil
}

func decodeEvent(raw map[string]any, event *Event) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           event,
		WeaklyTypedInput: false,
	})
	if err != nil {
		return fmt.Errorf("failed to create event decoder: %w", err)
	}

	if err = decoder.Decode(raw); err != nil {
		return fmt.Errorf("failed to decode event: %w", err)
	}

	return nil
}

// requestBody returns the request body as text; a non-string body reads as empty.
func requestBody(event Event) (string, error) {
	body := parser.TextOf(event.Body)
	if !event.IsBase64Encoded || body == "" {
		return body, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 body: %w", err)
	}

	return string(decoded), nil
}

func response(status int, content any) (events.LambdaFunctionURLResponse, error) {
	body, err := json.Marshal(content)
	if err != nil {
		return events.LambdaFunctionURLResponse{}, fmt.Errorf("failed to encode response: %w", err)
	}

	return events.LambdaFunctionURLResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type": contentType,
		},
		Body: string(body),
	}, nil
}
