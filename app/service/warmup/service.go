package warmup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spacyserver/app/service/models"

	"github.com/samber/do"
)

const warmupText = " "

type Service struct {
	marker    *Marker
	modelsSvc *models.Service
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		marker:    do.MustInvoke[*Marker](di),
		modelsSvc: do.MustInvoke[*models.Service](di),
	}, nil
}

// Warmup records newVersion when it is set, then waits for the models and runs them once.
func (s *Service) Warmup(ctx context.Context, newVersion string) error {
	if newVersion != "" {
		slog.Info("Writing version marker",
			"version", newVersion,
			"path", s.marker.Path(),
		)

		if err := s.marker.Write(newVersion); err != nil {
			return err
		}
	}

	start := time.Now()

	loaded, err := s.modelsSvc.Wait(ctx)
	if err != nil {
		return fmt.Errorf("models unavailable: %w", err)
	}

	if _, err = loaded.NLP.Process(ctx, warmupText); err != nil {
		return fmt.Errorf("warmup run failed: %w", err)
	}

	slog.Info("Warmup finished",
		"duration", time.Since(start),
	)

	return nil
}
