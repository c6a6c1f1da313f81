package sweep

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/praetorian-inc/pulsar/internal/message"
	"github.com/praetorian-inc/pulsar/pkg/types"
)

// collectRegistries pulls admin credentials from every registry with
// the admin user enabled. The two rotating admin keys are emitted as
// two rows sharing the admin username, matching the registry's two-key
// rotation model.
func (r *Runner) collectRegistries(ctx context.Context) error {
	registries, err := r.c.Registries.ListRegistries(ctx)
	if err != nil {
		return fmt.Errorf("listing container registries: %w", Classify(err))
	}
	message.Info("Found %d container registries in subscription %s", len(registries), r.cfg.Subscription)

	for _, reg := range registries {
		if !reg.AdminEnabled {
			r.logger.Debug("admin user disabled, skipping registry", slog.String("registry", reg.Name))
			continue
		}

		creds, err := r.c.Registries.ListCredentials(ctx, reg)
		if err != nil {
			message.Warning("Skipping registry %s: %v", reg.Name, err)
			r.logger.Warn("registry credential read failed",
				slog.String("registry", reg.Name),
				slog.String("error", err.Error()))
			continue
		}

		for _, pw := range creds.Passwords {
			r.sink.Append(types.CredentialRecord{
				Kind:            types.KindAcrAdminUser,
				Name:            pw.Name,
				Username:        creds.Username,
				Value:           pw.Value,
				SourceContainer: reg.Name,
				Subscription:    r.cfg.Subscription,
			})
		}
	}
	return nil
}
