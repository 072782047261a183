package reinvoke

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"spacyserver/app/config"
	"spacyserver/app/service/warmup"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/do"
)

type Service struct {
	cfg     *config.Config
	marker  *warmup.Marker
	invoker Invoker
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		cfg:     do.MustInvoke[*config.Config](di),
		marker:  do.MustInvoke[*warmup.Marker](di),
		invoker: do.MustInvoke[Invoker](di),
	}, nil
}

// MaybeReinvoke asynchronously invokes this function with a warmup event so a fresh
// instance is ready before the next request. It only does so in prod and when the
// running version is the latest deployed one.
func (s *Service) MaybeReinvoke(ctx context.Context) error {
	if s.cfg.Env != config.EnvProd {
		slog.Info("Skipping self-invocation",
			"reason", "not prod",
			"env", s.cfg.Env,
		)
		return nil
	}

	latest, err := s.marker.Read()
	if err != nil {
		slog.Warn("Skipping self-invocation",
			"reason", "version marker unreadable",
			"error", err,
		)
		return nil
	}

	running := s.cfg.Lambda.FunctionVersion
	if !VersionsMatch(latest, running) {
		slog.Info("Skipping self-invocation",
			"reason", "stale version",
			"latest", latest,
			"running", running,
		)
		return nil
	}

	payload, err := json.Marshal(map[string]any{"warmup": true})
	if err != nil {
		return fmt.Errorf("failed to encode warmup payload: %w", err)
	}

	slog.Info("Invoking lambda function",
		"function", s.cfg.Lambda.FunctionName,
		"version", running,
	)

	if err = s.invoker.InvokeAsync(ctx, s.cfg.Lambda.FunctionName, payload); err != nil {
		slog.Error("Self-invocation failed", "error", err)
		return err
	}

	return nil
}

// VersionsMatch compares two versions semantically when both parse, textually otherwise.
// An empty version never matches.
func VersionsMatch(latest, running string) bool {
	if latest == "" || running == "" {
		return false
	}

	a, errA := semver.NewVersion(latest)
	b, errB := semver.NewVersion(running)
	if errA == nil && errB == nil {
		return a.Equal(b)
	}

	return latest == running
}
