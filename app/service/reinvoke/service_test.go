package reinvoke

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"spacyserver/app/config"
	"spacyserver/app/service/warmup"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invocation struct {
	functionName string
	payload      string
}

type fakeInvoker struct {
	calls []invocation
	err   error
}

func (f *fakeInvoker) InvokeAsync(_ context.Context, functionName string, payload []byte) error {
	f.calls = append(f.calls, invocation{functionName, string(payload)})
	return f.err
}

func newService(t *testing.T, env, marker, running string) (*Service, *fakeInvoker) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "latest_version")
	if marker != "" {
		require.NoError(t, os.WriteFile(path, []byte(marker), 0644))
	}

	invoker := &fakeInvoker{}

	di := do.New()
	do.ProvideValue(di, &config.Config{
		Env: env,
		Lambda: config.Lambda{
			FunctionName:    "spacy-server",
			FunctionVersion: running,
			VersionFile:     path,
		},
	})
	do.ProvideValue[Invoker](di, invoker)
	do.Provide(di, warmup.NewMarker)

	svc, err := New(di)
	require.NoError(t, err)

	return svc, invoker
}

func TestReinvokeInProdWithMatchingVersion(t *testing.T) {
	svc, invoker := newService(t, config.EnvProd, "7", "7")

	require.NoError(t, svc.MaybeReinvoke(context.Background()))
	require.Len(t, invoker.calls, 1)
	assert.Equal(t, "spacy-server", invoker.calls[0].functionName)
	assert.JSONEq(t, `{"warmup":true}`, invoker.calls[0].payload)
}

func TestReinvokeSkippedInDev(t *testing.T) {
	svc, invoker := newService(t, config.EnvDev, "7", "7")

	require.NoError(t, svc.MaybeReinvoke(context.Background()))
	assert.Empty(t, invoker.calls)
}

func TestReinvokeSkippedForStaleVersion(t *testing.T) {
	svc, invoker := newService(t, config.EnvProd, "8", "7")

	require.NoError(t, svc.MaybeReinvoke(context.Background()))
	assert.Empty(t, invoker.calls)
}

func TestReinvokeSkippedWithoutMarker(t *testing.T) {
	svc, invoker := newService(t, config.EnvProd, "", "7")

	require.NoError(t, svc.MaybeReinvoke(context.Background()))
	assert.Empty(t, invoker.calls)
}

func TestReinvokeReturnsInvokeError(t *testing.T) {
	svc, invoker := newService(t, config.EnvProd, "7", "7")
	invoker.err = errors.New("throttled")

	err := svc.MaybeReinvoke(context.Background())
	assert.ErrorIs(t, err, invoker.err)
}

func TestVersionsMatch(t *testing.T) {
	assert.True(t, VersionsMatch("7", "7"))
	assert.True(t, VersionsMatch("1.2", "1.2.0"))
	assert.True(t, VersionsMatch("$LATEST", "$LATEST"))
	assert.False(t, VersionsMatch("7", "8"))
	assert.False(t, VersionsMatch("", ""))
	assert.False(t, VersionsMatch("7", "$LATEST"))
}
