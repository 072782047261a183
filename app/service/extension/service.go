// Package extension runs as an external Lambda extension and warms a replacement
// instance when the execution environment spins down.
package extension

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"spacyserver/app/service/reinvoke"

	"github.com/samber/do"
)

const reasonSpindown = "spindown"

type Service struct {
	client      *Client
	reinvokeSvc *reinvoke.Service
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		client:      do.MustInvoke[*Client](di),
		reinvokeSvc: do.MustInvoke[*reinvoke.Service](di),
	}, nil
}

// Run registers for SHUTDOWN and returns once it arrives.
func (s *Service) Run(ctx context.Context) error {
	slog.Info("Registering extension")

	id, err := s.client.Register(EventShutdown)
	if err != nil {
		return err
	}

	slog.Info("Extension registered", "id", id)

	for {
		event, err := s.client.Next(ctx)
		if err != nil {
			return fmt.Errorf("event loop: %w", err)
		}

		if event.EventType != EventShutdown {
			slog.Debug("Ignoring event", "type", event.EventType)
			continue
		}

		slog.Info("SHUTDOWN event received",
			"reason", event.ShutdownReason,
		)

		if strings.EqualFold(event.ShutdownReason, reasonSpindown) {
			if err = s.reinvokeSvc.MaybeReinvoke(ctx); err != nil {
				slog.Warn("Reinvoke on shutdown failed", "error", err)
			}
		}

		return nil
	}
}
