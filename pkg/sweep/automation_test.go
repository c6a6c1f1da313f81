package sweep

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/praetorian-inc/pulsar/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var erpAccount = AutomationAccount{Name: "erp-automation", ResourceGroup: "rg-1", Location: "eastus"}

func TestAutomationExtraction(t *testing.T) {
	dir := t.TempDir()

	fake := newFakeAutomation([]AutomationAccount{erpAccount})
	fake.conns = []Connection{{
		Name:          "AzureRunAsConnection",
		Thumbprint:    "ABC123",
		TenantID:      "tenant-1",
		ApplicationID: "app-1",
	}}
	fake.creds = []StoredCredential{{Name: "svc-user", Username: "svc@corp"}}
	fake.connPFX = []byte("fake-pfx-archive-bytes")
	fake.credUser = "svc@corp.example"
	fake.credPass = "s3cret-value"

	r := newTestRunner(
		Config{Subscription: "sub-1", AutomationAccounts: true, OutputDir: dir, ExportCerts: true},
		Clients{Automation: fake},
	)
	require.NoError(t, r.collectAutomationAccounts(context.Background()))

	// The stored credential came back decrypted.
	records := r.Records()
	require.Len(t, records, 1)
	assert.Equal(t, types.KindAutomationAccount, records[0].Kind)
	assert.Equal(t, "svc-user", records[0].Name)
	assert.Equal(t, "svc@corp.example", records[0].Username)
	assert.Equal(t, "s3cret-value", records[0].Value)
	assert.Equal(t, "erp-automation", records[0].SourceContainer)

	// The run-as certificate was exported and the sign-in helper written.
	pfx, err := os.ReadFile(filepath.Join(dir, "erp-automation-AzureRunAsConnection.pfx"))
	require.NoError(t, err)
	assert.Equal(t, fake.connPFX, pfx)

	helper, err := os.ReadFile(filepath.Join(dir, "AuthenticateAs-erp-automation-AzureRunAsConnection.ps1"))
	require.NoError(t, err)
	assert.Contains(t, string(helper), "Connect-AzAccount -ServicePrincipal -Tenant 'tenant-1' -ApplicationId 'app-1' -CertificateThumbprint 'ABC123'")

	// The connection job asked for the derived certificate asset.
	require.Len(t, fake.created, 2)
	var sawCertAsset bool
	for _, script := range fake.created {
		if !isCredentialScript(script) {
			assert.Contains(t, script, "Get-AutomationCertificate -Name 'AzureRunAsCertificate'")
			sawCertAsset = true
		}
	}
	assert.True(t, sawCertAsset)

	// Every temporary runbook was deleted and no local traces remain.
	assert.Len(t, fake.deleted, 2)
	leftovers, err := filepath.Glob(filepath.Join(dir, "*.ps1"))
	require.NoError(t, err)
	for _, f := range leftovers {
		assert.NotRegexp(t, `pulsar-[0-9a-f]{16}\.ps1$`, f)
	}
	_, err = os.Stat(filepath.Join(dir, "pulsar-transport.cer"))
	assert.True(t, os.IsNotExist(err))
}

func TestAutomationHelperWrittenWithoutCertExport(t *testing.T) {
	dir := t.TempDir()

	fake := newFakeAutomation([]AutomationAccount{erpAccount})
	fake.conns = []Connection{{Name: "AzureRunAsConnection", Thumbprint: "ABC123", TenantID: "tenant-1", ApplicationID: "app-1"}}
	fake.connPFX = []byte("fake-pfx-archive-bytes")

	r := newTestRunner(
		Config{Subscription: "sub-1", AutomationAccounts: true, OutputDir: dir},
		Clients{Automation: fake},
	)
	require.NoError(t, r.collectAutomationAccounts(context.Background()))

	_, err := os.Stat(filepath.Join(dir, "erp-automation-AzureRunAsConnection.pfx"))
	assert.True(t, os.IsNotExist(err))

	// The helper must be runnable as written: no import of a pfx that
	// was never exported, only sign-in plus import instructions.
	helper, err := os.ReadFile(filepath.Join(dir, "AuthenticateAs-erp-automation-AzureRunAsConnection.ps1"))
	require.NoError(t, err)
	assert.NotContains(t, string(helper), "Import-PfxCertificate")
	assert.Contains(t, string(helper), "thumbprint ABC123")
	assert.Contains(t, string(helper), "Connect-AzAccount -ServicePrincipal")
}

func TestAutomationMissingAssets(t *testing.T) {
	dir := t.TempDir()

	fake := newFakeAutomation([]AutomationAccount{erpAccount})
	fake.conns = []Connection{{Name: "AzureRunAsConnection"}}
	fake.creds = []StoredCredential{{Name: "svc-user", Username: "svc@corp"}}
	fake.credGone = true
	// connPFX left empty: the certificate asset no longer exists.

	r := newTestRunner(
		Config{Subscription: "sub-1", AutomationAccounts: true, OutputDir: dir, ExportCerts: true},
		Clients{Automation: fake},
	)
	require.NoError(t, r.collectAutomationAccounts(context.Background()))

	// Missing credential still yields a row, marked Not Created.
	records := r.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "svc-user", records[0].Name)
	assert.Equal(t, "svc@corp", records[0].Username)
	assert.Equal(t, types.NotCreated, records[0].Value)

	// Missing certificate yields no files at all.
	_, err := os.Stat(filepath.Join(dir, "erp-automation-AzureRunAsConnection.pfx"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "AuthenticateAs-erp-automation-AzureRunAsConnection.ps1"))
	assert.True(t, os.IsNotExist(err))
}

func TestAutomationJobTimeout(t *testing.T) {
	dir := t.TempDir()

	fake := newFakeAutomation([]AutomationAccount{erpAccount})
	fake.creds = []StoredCredential{{Name: "svc-user"}}
	fake.stuck = true

	cfg := Config{
		Subscription:       "sub-1",
		AutomationAccounts: true,
		OutputDir:          dir,
		PollInterval:       time.Millisecond,
		JobTimeout:         5 * time.Millisecond,
	}
	r := NewRunner(cfg, Clients{Automation: fake}, discardLogger())

	start := time.Now()
	require.NoError(t, r.collectAutomationAccounts(context.Background()))
	assert.Less(t, time.Since(start), time.Second)

	assert.Empty(t, r.Records())
	// The stalled runbook is still cleaned up.
	assert.Len(t, fake.deleted, 1)
}

func TestAutomationCancellationStillCleansUp(t *testing.T) {
	dir := t.TempDir()

	fake := newFakeAutomation([]AutomationAccount{erpAccount})
	fake.creds = []StoredCredential{{Name: "svc-user"}}
	fake.stuck = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := Config{
		Subscription:       "sub-1",
		AutomationAccounts: true,
		OutputDir:          dir,
		PollInterval:       50 * time.Millisecond,
		JobTimeout:         time.Minute,
	}
	r := NewRunner(cfg, Clients{Automation: fake}, discardLogger())
	r.extractAccount(ctx, mustKeyPair(t, dir), erpAccount)

	assert.Len(t, fake.deleted, 1)
}

func mustKeyPair(t *testing.T, dir string) *KeyPair {
	t.Helper()
	kp, err := NewKeyPair(dir)
	require.NoError(t, err)
	t.Cleanup(func() { kp.Destroy() })
	return kp
}
