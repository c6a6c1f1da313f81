package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/praetorian-inc/pulsar/internal/message"
)

// Permission axes on a vault access policy. Reads need "get" for a
// single item and "list" for enumeration; each axis is decided
// independently.
const (
	axisGet  = "Get"
	axisList = "List"
)

// Permission categories a grant can cover.
const (
	CategoryKeys         = "keys"
	CategorySecrets      = "secrets"
	CategoryCertificates = "certificates"
)

// Reconciler temporarily widens the caller's own access policy on a
// vault so a read can proceed, and guarantees the grant is reverted or
// removed afterward.
type Reconciler struct {
	api       VaultAPI
	principal string
	logger    *slog.Logger
}

func NewReconciler(api VaultAPI, principalID string, logger *slog.Logger) *Reconciler {
	return &Reconciler{api: api, principal: principalID, logger: logger}
}

// EnsureAccess inspects the caller's access entry on the vault and
// grants whichever of the get/list axes are missing for the requested
// categories. The returned release function reverts every change and
// must run on all exit paths; it never raises, because a leftover
// over-privileged entry is a reportable finding rather than a fatal
// error.
func (rc *Reconciler) EnsureAccess(ctx context.Context, vault Vault, categories ...string) (func(), error) {
	existing, hadEntry := findPolicy(vault, rc.principal)

	if hadEntry && !missingAny(existing, categories) {
		// Both axes already granted on every requested category.
		return func() {}, nil
	}

	if !hadEntry {
		// No entry at all: create one with both axes on the requested
		// categories and mark it for full removal.
		entry := AccessPolicyEntry{
			ObjectID: rc.principal,
			TenantID: vault.TenantID,
		}
		for _, cat := range categories {
			setAxes(&entry, cat, axisGet, axisList)
		}

		if err := rc.api.UpdateAccessPolicy(ctx, vault, PolicyAdd, entry); err != nil {
			return func() {}, fmt.Errorf("granting access policy on vault %s: %w", vault.Name, Classify(err))
		}
		rc.logger.Debug("created temporary access policy entry",
			slog.String("vault", vault.Name),
			slog.String("principal", rc.principal))

		return func() {
			if err := rc.api.UpdateAccessPolicy(ctx, vault, PolicyRemove, entry); err != nil {
				rc.reportLeftover(vault, err)
			}
		}, nil
	}

	// Entry exists but misses at least one axis somewhere: replace it
	// with a widened copy, remember the original for the revert.
	widened := clonePolicy(existing)
	for _, cat := range categories {
		cur := axesFor(&widened, cat)
		if !hasAxis(*cur, axisGet) {
			*cur = append(*cur, axisGet)
		}
		if !hasAxis(*cur, axisList) {
			*cur = append(*cur, axisList)
		}
	}

	if err := rc.api.UpdateAccessPolicy(ctx, vault, PolicyReplace, widened); err != nil {
		return func() {}, fmt.Errorf("widening access policy on vault %s: %w", vault.Name, Classify(err))
	}
	rc.logger.Debug("widened existing access policy entry",
		slog.String("vault", vault.Name),
		slog.String("principal", rc.principal))

	original := clonePolicy(existing)
	return func() {
		if err := rc.api.UpdateAccessPolicy(ctx, vault, PolicyReplace, original); err != nil {
			rc.reportLeftover(vault, err)
		}
	}, nil
}

func (rc *Reconciler) reportLeftover(vault Vault, err error) {
	message.Warning("Could not revert temporary access policy on vault %s; entry for %s is left over-privileged", vault.Name, rc.principal)
	rc.logger.Error("access policy revert failed",
		slog.String("vault", vault.Name),
		slog.String("principal", rc.principal),
		slog.String("error", err.Error()))
}

func findPolicy(vault Vault, principal string) (AccessPolicyEntry, bool) {
	for _, p := range vault.Policies {
		if strings.EqualFold(p.ObjectID, principal) {
			return p, true
		}
	}
	return AccessPolicyEntry{}, false
}

func missingAny(entry AccessPolicyEntry, categories []string) bool {
	for _, cat := range categories {
		perms := *axesFor(&entry, cat)
		if !hasAxis(perms, axisGet) || !hasAxis(perms, axisList) {
			return true
		}
	}
	return false
}

func axesFor(entry *AccessPolicyEntry, category string) *[]string {
	switch category {
	case CategoryKeys:
		return &entry.KeyPermissions
	case CategoryCertificates:
		return &entry.CertificatePermissions
	default:
		return &entry.SecretPermissions
	}
}

func setAxes(entry *AccessPolicyEntry, category string, axes ...string) {
	perms := axesFor(entry, category)
	*perms = append(*perms, axes...)
}

func hasAxis(perms []string, axis string) bool {
	for _, p := range perms {
		if strings.EqualFold(p, axis) {
			return true
		}
	}
	return false
}

func clonePolicy(e AccessPolicyEntry) AccessPolicyEntry {
	out := e
	out.KeyPermissions = append([]string(nil), e.KeyPermissions...)
	out.SecretPermissions = append([]string(nil), e.SecretPermissions...)
	out.CertificatePermissions = append([]string(nil), e.CertificatePermissions...)
	return out
}
