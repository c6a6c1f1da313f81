// Package sweep enumerates an Azure subscription's credential surfaces
// and collects extracted material into an ordered result set.
package sweep

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/praetorian-inc/pulsar/internal/message"
	"github.com/praetorian-inc/pulsar/pkg/types"
)

// DefaultExportPassword protects exported certificate archives when the
// caller does not override it. Callers should override it.
const DefaultExportPassword = "PulsarExportPassword123!"

// Config controls one subscription sweep.
type Config struct {
	Subscription string

	// Per-category toggles, all enabled by default.
	Keys               bool
	AppServices        bool
	ACR                bool
	StorageAccounts    bool
	AutomationAccounts bool
	CosmosDB           bool

	// ModifyPolicies lets the vault step grant the caller's own
	// principal temporary access when a read is denied.
	ModifyPolicies bool

	// PrincipalID is the caller's directory objectId; resolved through
	// Graph when empty and ModifyPolicies is set.
	PrincipalID string

	// ExportPassword protects exported run-as certificate archives.
	ExportPassword string

	// ExportCerts writes decrypted run-as certificates to disk.
	ExportCerts bool

	// OutputDir receives exported certificates, helper scripts, and
	// report files.
	OutputDir string

	PollInterval time.Duration
	JobTimeout   time.Duration
}

// Runner executes the sweep steps sequentially against one
// subscription. Failures in one step never block the others.
type Runner struct {
	cfg    Config
	c      Clients
	sink   *Sink
	logger *slog.Logger
}

func NewRunner(cfg Config, clients Clients, logger *slog.Logger) *Runner {
	if cfg.ExportPassword == "" {
		cfg.ExportPassword = DefaultExportPassword
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	return &Runner{
		cfg:    cfg,
		c:      clients,
		sink:   NewSink(),
		logger: logger.With(slog.String("subscription", cfg.Subscription)),
	}
}

// Run executes every enabled step and returns whatever rows were
// accumulated, partial results included. Only a missing session halts
// the run early.
func (r *Runner) Run(ctx context.Context) ([]types.CredentialRecord, error) {
	type step struct {
		name    string
		enabled bool
		fn      func(context.Context) error
	}

	steps := []step{
		{"Key Vaults", r.cfg.Keys, r.collectKeyVaults},
		{"App Services", r.cfg.AppServices, r.collectAppServices},
		{"Container Registries", r.cfg.ACR, r.collectRegistries},
		{"Storage Accounts", r.cfg.StorageAccounts, r.collectStorageAccounts},
		{"Automation Accounts", r.cfg.AutomationAccounts, r.collectAutomationAccounts},
		{"CosmosDB Accounts", r.cfg.CosmosDB, r.collectCosmosAccounts},
	}

	for _, s := range steps {
		if !s.enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			return r.sink.Records(), err
		}

		message.Section("%s", s.name)
		if err := s.fn(ctx); err != nil {
			if errors.Is(Classify(err), ErrAuthenticationRequired) {
				message.Critical("No active Azure session; run `az login` and retry")
				return r.sink.Records(), ErrAuthenticationRequired
			}
			message.Error("%s step failed: %v", s.name, err)
			r.logger.Error("step failed",
				slog.String("step", s.name),
				slog.String("error", err.Error()))
		}
	}

	return r.sink.Records(), nil
}

// Records exposes the sink contents, for callers that want partial
// output after a halted run.
func (r *Runner) Records() []types.CredentialRecord {
	return r.sink.Records()
}
