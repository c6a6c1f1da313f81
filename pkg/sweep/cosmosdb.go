package sweep

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/praetorian-inc/pulsar/internal/message"
	"github.com/praetorian-inc/pulsar/pkg/types"
)

// collectCosmosAccounts lists every CosmosDB account's keys, one row
// per key.
func (r *Runner) collectCosmosAccounts(ctx context.Context) error {
	accounts, err := r.c.Cosmos.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("listing CosmosDB accounts: %w", Classify(err))
	}
	message.Info("Found %d CosmosDB accounts in subscription %s", len(accounts), r.cfg.Subscription)

	for _, acct := range accounts {
		keys, err := r.c.Cosmos.ListKeys(ctx, acct)
		if err != nil {
			message.Warning("Skipping CosmosDB account %s: %v", acct.Name, err)
			r.logger.Warn("cosmos key read failed",
				slog.String("account", acct.Name),
				slog.String("error", err.Error()))
			continue
		}

		for _, key := range keys {
			r.sink.Append(types.CredentialRecord{
				Kind:            types.KindCosmosDbKey,
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
