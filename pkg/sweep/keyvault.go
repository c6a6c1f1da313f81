package sweep

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/praetorian-inc/pulsar/internal/message"
	"github.com/praetorian-inc/pulsar/pkg/types"
)

// collectKeyVaults reads every vault's secrets and keys. A vault that
// denies access is skipped unless policy self-modification is enabled,
// in which case the Policy Reconciler grants and later reverts the
// caller's own access.
func (r *Runner) collectKeyVaults(ctx context.Context) error {
	vaults, err := r.c.Vaults.ListVaults(ctx)
	if err != nil {
		return fmt.Errorf("listing key vaults: %w", Classify(err))
	}
	message.Info("Found %d key vaults in subscription %s", len(vaults), r.cfg.Subscription)

	var rc *Reconciler
	if r.cfg.ModifyPolicies {
		principal := r.cfg.PrincipalID
		if principal == "" {
			principal, err = r.c.Graph.CurrentPrincipalID(ctx)
			if err != nil {
				return fmt.Errorf("resolving caller principal for policy modification: %w", Classify(err))
			}
		}
		rc = NewReconciler(r.c.Vaults, principal, r.logger)
	}

	for _, vault := range vaults {
		if err := r.readVault(ctx, vault, rc); err != nil {
			message.Warning("Skipping vault %s: %v", vault.Name, err)
			r.logger.Warn("vault read failed",
				slog.String("vault", vault.Name),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

func (r *Runner) readVault(ctx context.Context, vault Vault, rc *Reconciler) error {
	records, err := r.readVaultItems(ctx, vault)
	if err != nil && rc != nil && IsPermissionDenied(err) {
		// Denied and self-modification is on: grant our own principal
		// get/list on secrets and keys, retry, and always undo the grant.
		release, grantErr := rc.EnsureAccess(ctx, vault, CategorySecrets, CategoryKeys)
		if grantErr != nil {
			return grantErr
		}
		defer release()
		records, err = r.readVaultItems(ctx, vault)
	}
	if err != nil {
		return err
	}
	for _, rec := range records {
		r.sink.Append(rec)
	}
	return nil
}

// readVaultItems reads a vault's secrets and keys into a local batch.
// Nothing reaches the sink until the whole vault succeeds, so a read
// that is denied partway through and retried cannot produce duplicates.
func (r *Runner) readVaultItems(ctx context.Context, vault Vault) ([]types.CredentialRecord, error) {
	var records []types.CredentialRecord

	secrets, err := r.c.VaultData.ListSecrets(ctx, vault.URI)
	if err != nil {
		return nil, fmt.Errorf("listing secrets: %w", Classify(err))
	}

	for _, item := range secrets {
		value, err := r.c.VaultData.GetSecret(ctx, vault.URI, item.Name)
		if err != nil {
			r.logger.Warn("secret read failed",
				slog.String("vault", vault.Name),
				slog.String("secret", item.Name),
				slog.String("error", err.Error()))
			continue
		}
		records = append(records, types.CredentialRecord{
			Kind:            types.KindSecret,
			Name:            item.Name,
			Value:           value,
			CreatedAt:       item.Created,
			UpdatedAt:       item.Updated,
			Enabled:         types.EnabledString(item.Enabled),
			ContentType:     item.ContentType,
			SourceContainer: vault.Name,
			Subscription:    r.cfg.Subscription,
		})
	}

	keys, err := r.c.VaultData.ListKeys(ctx, vault.URI)
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", Classify(err))
	}

	for _, key := range keys {
		// Keys are not exportable through the dataplane; the public JWK
		// is the extractable material.
		records = append(records, types.CredentialRecord{
			Kind:            types.KindKey,
			Name:            key.Name,
			Value:           key.PublicJWK,
			CreatedAt:       key.Created,
			UpdatedAt:       key.Updated,
			Enabled:         types.EnabledString(key.Enabled),
			ContentType:     key.KeyType,
			SourceContainer: vault.Name,
			Subscription:    r.cfg.Subscription,
		})
	}

	return records, nil
}
