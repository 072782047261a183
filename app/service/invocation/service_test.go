package invocation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"spacyserver/app/config"
	"spacyserver/app/service/models"
	"spacyserver/app/service/parser"
	"spacyserver/app/service/warmup"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, string) {
	t.Helper()

	marker := filepath.Join(t.TempDir(), "latest_version")

	di := do.New()
	do.ProvideValue(di, &config.Config{
		Env: config.EnvDev,
		Models: config.Models{
			Base:  config.BaseModel{Backend: models.BackendRules},
			Coref: config.CorefModel{Backend: models.BackendRules},
			AMR:   config.AMRModel{Backend: models.BackendRules},
		},
		Lambda: config.Lambda{VersionFile: marker},
	})
	do.Provide(di, models.New)
	do.Provide(di, parser.New)
	do.Provide(di, warmup.NewMarker)
	do.Provide(di, warmup.New)
	do.Provide(di, New)
	t.Cleanup(func() { _ = di.Shutdown() })

	return do.MustInvoke[*Service](di), marker
}

func httpEvent(method string, body any) map[string]any {
	return map[string]any{
		"requestContext": map[string]any{
			"http": map[string]any{"method": method},
		},
		"body": body,
	}
}

func TestHandleRejectsNonPost(t *testing.T) {
	svc, _ := newService(t)

	out, err := svc.Handle(context.Background(), httpEvent(http.MethodGet, "Alice met Bob."))
	require.NoError(t, err)

	resp, ok := out.(events.LambdaFunctionURLResponse)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, `"Not Found"`, resp.Body)
}

func TestHandleHTTPRequest(t *testing.T) {
	svc, _ := newService(t)

	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "req-1"})

	out, err := svc.Handle(ctx, httpEvent(http.MethodPost, "Alice met Bob."))
	require.NoError(t, err)

	resp, ok := out.(events.LambdaFunctionURLResponse)
	require.True(t, ok)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", resp.Headers["Content-Type"])

	var result parser.ParseResult
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &result))
	assert.Len(t, result.Tokens, 4)
}

func TestHandleBase64Body(t *testing.T) {
	svc, _ := newService(t)

	event := httpEvent(http.MethodPost, base64.StdEncoding.EncodeToString([]byte("Alice met Bob.")))
	event["isBase64Encoded"] = true

	out, err := svc.Handle(context.Background(), event)
	require.NoError(t, err)

	resp := out.(events.LambdaFunctionURLResponse)

	var result parser.ParseResult
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &result))
	assert.Equal(t, "Alice", result.Tokens[0].Text)
}

func TestHandleDirectInvocation(t *testing.T) {
	svc, _ := newService(t)

	out, err := svc.Handle(context.Background(), map[string]any{"text": "Alice met Bob."})
	require.NoError(t, err)

	result, ok := out.(*parser.ParseResult)
	require.True(t, ok)
	assert.Len(t, result.Tokens, 4)
	assert.Len(t, result.AMRGraphs, 1)
}

func TestHandleNonStringText(t *testing.T) {
	svc, _ := newService(t)

	for _, event := range []map[string]any{
		{"text": 42},
		{"text": nil},
		{},
		httpEvent(http.MethodPost, map[string]any{"text": "hi"}),
	} {
		out, err := svc.Handle(context.Background(), event)
		require.NoError(t, err)

		data, err := json.Marshal(out)
		require.NoError(t, err)
		if resp, ok := out.(events.LambdaFunctionURLResponse); ok {
			data = []byte(resp.Body)
		}
		assert.JSONEq(t, `{"tokens":[],"noun_chunks":[],"entities":[],"coref_clusters":[],"amr_graphs":[]}`, string(data))
	}
}

func TestHandleWarmup(t *testing.T) {
	svc, marker := newService(t)

	out, err := svc.Handle(context.Background(), map[string]any{"warmup": true, "new_version": float64(12)})
	require.NoError(t, err)
	assert.Equal(t, "", out)

	data, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, "12", string(data))
}

func TestHandleWarmupWithoutVersion(t *testing.T) {
	svc, marker := newService(t)

	out, err := svc.Handle(context.Background(), map[string]any{"warmup": true})
	require.NoError(t, err)
	assert.Equal(t, "", out)

	_, err = os.Stat(marker)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHandleWarmupFalseParses(t *testing.T) {
	svc, _ := newService(t)

	out, err := svc.Handle(context.Background(), map[string]any{"warmup": false, "text": "Hi."})
	require.NoError(t, err)
	assert.IsType(t, &parser.ParseResult{}, out)
}
