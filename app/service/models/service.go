package models

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spacyserver/app/client/amrllm"
	"spacyserver/app/client/modelserver"
	"spacyserver/app/config"
	"spacyserver/app/nlp"
	"spacyserver/app/nlp/rules"
	"spacyserver/app/util/readiness"

	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

const (
	BackendRules  = rules.Name
	BackendRemote = "remote"
	BackendOpenAI = "openai"
	BackendNone   = "none"
)

var _ do.Shutdownable = (*Service)(nil)

// Service loads the models in the background and publishes them once through a gate.
type Service struct {
	cfg    *config.Config
	di     *do.Injector
	gate   *readiness.Gate[*nlp.Models]
	cancel context.CancelFunc
}

func New(di *do.Injector) (*Service, error) {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Service{
		cfg:    do.MustInvoke[*config.Config](di),
		di:     di,
		gate:   readiness.New[*nlp.Models](),
		cancel: cancel,
	}

	go func() {
		models, err := s.load(ctx)
		if err != nil {
			slog.Error("Failed to load models", "error", err)
		}
		s.gate.Resolve(models, err)
	}()

	return s, nil
}

// Wait blocks until loading finishes and returns the models or the load error.
func (s *Service) Wait(ctx context.Context) (*nlp.Models, error) {
	return s.gate.Wait(ctx)
}

func (s *Service) Ready() bool {
	return s.gate.Ready()
}

func (s *Service) load(ctx context.Context) (*nlp.Models, error) {
	start := time.Now()

	var (
		base  nlp.Pipeline
		coref nlp.Component
		amr   nlp.AMRParser
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(3)

	group.Go(func() error {
		slog.Info("Loading base language model",
			"backend", s.cfg.Models.Base.Backend,
			"name", s.cfg.Models.Base.Name,
		)

		var err error
		if base, err = s.loadBase(groupCtx); err != nil {
			return fmt.Errorf("base language model: %w", err)
		}

		slog.Info("Base language model loaded")
		return nil
	})

	group.Go(func() error {
		slog.Info("Loading coreference model",
			"backend", s.cfg.Models.Coref.Backend,
		)

		coref = s.loadCoref()

		slog.Info("Coreference model loaded")
		return nil
	})

	group.Go(func() error {
		slog.Info("Loading AMR model",
			"backend", s.cfg.Models.AMR.Backend,
			"name", s.cfg.Models.AMR.Name,
		)

		var err error
		if amr, err = s.loadAMR(); err != nil {
			return fmt.Errorf("AMR model: %w", err)
		}

		slog.Info("AMR model loaded")
		return nil
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}

	language := nlp.NewLanguage(base)
	if coref != nil {
		language.AddPipe(coref)
	}

	slog.Info("All models loaded",
		"pipes", language.PipeNames(),
		"duration", time.Since(start),
	)

	return &nlp.Models{
		NLP:     language,
		AMR:     amr,
		Aligner: rules.NewAligner(),
	}, nil
}

func (s *Service) loadBase(ctx context.Context) (nlp.Pipeline, error) {
	switch s.cfg.Models.Base.Backend {
	case BackendRemote:
		client, err := do.Invoke[*modelserver.Client](s.di)
		if err != nil {
			return nil, err
		}
		if err = client.Ping(ctx); err != nil {
			return nil, err
		}
		return client, nil
	default:
		pipeline, err := rules.New()
		if err != nil {
			return nil, err
		}
		return pipeline, nil
	}
}

func (s *Service) loadCoref() nlp.Component {
	if s.cfg.Models.Coref.Backend == BackendNone {
		return nil
	}
	return rules.NewCoref()
}

func (s *Service) loadAMR() (nlp.AMRParser, error) {
	switch s.cfg.Models.AMR.Backend {
	case BackendNone:
		return nil, nil
	case BackendRemote:
		client, err := do.Invoke[*modelserver.Client](s.di)
		if err != nil {
			return nil, err
		}
		return client, nil
	case BackendOpenAI:
		client, err := do.Invoke[*amrllm.Client](s.di)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		pipeline, err := rules.New()
		if err != nil {
			return nil, err
		}
		return rules.NewAMR(pipeline), nil
	}
}

func (s *Service) Shutdown() error {
	s.cancel()

	return nil
}
