package models

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"spacyserver/app/client/modelserver"
	"spacyserver/app/config"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rulesConfig() *config.Config {
	return &config.Config{
		Env: config.EnvDev,
		Models: config.Models{
			Base:  config.BaseModel{Backend: BackendRules},
			Coref: config.CorefModel{Backend: BackendRules},
			AMR:   config.AMRModel{Backend: BackendRules},
		},
	}
}

func TestLoadRulesBackends(t *testing.T) {
	di := do.New()
	do.ProvideValue(di, rulesConfig())

	svc, err := New(di)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Shutdown() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	models, err := svc.Wait(ctx)
	require.NoError(t, err)
	require.NotNil(t, models)

	assert.True(t, svc.Ready())
	assert.Equal(t, []string{"coref"}, models.NLP.PipeNames())
	assert.NotNil(t, models.AMR)
	assert.NotNil(t, models.Aligner)

	doc, err := models.NLP.Process(ctx, "Alice met Bob. She liked him.")
	require.NoError(t, err)
	assert.NotEmpty(t, doc.SpanGroups("coref_clusters_"))
}

func TestLoadWithoutOptionalModels(t *testing.T) {
	cfg := rulesConfig()
	cfg.Models.Coref.Backend = BackendNone
	cfg.Models.AMR.Backend = BackendNone

	di := do.New()
	do.ProvideValue(di, cfg)

	svc, err := New(di)
	require.NoError(t, err)

	models, err := svc.Wait(context.Background())
	require.NoError(t, err)
	assert.Empty(t, models.NLP.PipeNames())
	assert.Nil(t, models.AMR)
}

func TestLoadFailureResolvesGate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	cfg := rulesConfig()
	cfg.Models.Base.Backend = BackendRemote
	cfg.Models.Remote = config.RemoteModel{
		BaseURL:       server.URL,
		Timeout:       time.Second,
		ProbeAttempts: 1,
	}

	di := do.New()
	do.ProvideValue(di, cfg)
	do.Provide(di, modelserver.NewClient)

	svc, err := New(di)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = svc.Wait(ctx)
	require.ErrorIs(t, err, modelserver.ErrStatus)
	assert.True(t, svc.Ready())
}
