package sweep

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/praetorian-inc/pulsar/internal/message"
	"github.com/praetorian-inc/pulsar/pkg/types"
)

// collectStorageAccounts lists every storage account's access keys, one
// row per key.
func (r *Runner) collectStorageAccounts(ctx context.Context) error {
	accounts, err := r.c.Storage.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("listing storage accounts: %w", Classify(err))
	}
	message.Info("Found %d storage accounts in subscription %s", len(accounts), r.cfg.Subscription)

	for _, acct := range accounts {
		keys, err := r.c.Storage.ListKeys(ctx, acct)
		if err != nil {
			message.Warning("Skipping storage account %s: %v", acct.Name, err)
			r.logger.Warn("storage key read failed",
				slog.String("account", acct.Name),
				slog.String("error", err.Error()))
			continue
		}

		for _, key := range keys {
			r.sink.Append(types.CredentialRecord{
				Kind:            types.KindStorageAccountKey,
				Name:            key.Name,
				Username:        acct.Name,
				Value:           key.Value,
				SourceContainer: acct.Name,
				Subscription:    r.cfg.Subscription,
			})
		}
	}
	return nil
}
