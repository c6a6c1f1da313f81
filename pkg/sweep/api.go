package sweep

import (
	"context"
	"time"
)

// The sweep package talks to Azure exclusively through the capability
// interfaces below. The production implementation lives in pkg/azure;
// tests substitute fakes. Responses carry typed fields validated at the
// boundary rather than raw SDK property bags.

// Vault describes a key vault and the caller-relevant slice of its
// access policy.
type Vault struct {
	Name          string
	ResourceGroup string
	URI           string
	TenantID      string
	Policies      []AccessPolicyEntry
}

// AccessPolicyEntry is one principal's permission entry on a vault.
type AccessPolicyEntry struct {
	ObjectID               string
	TenantID               string
	KeyPermissions         []string
	SecretPermissions      []string
	CertificatePermissions []string
}

// PolicyUpdateKind selects the access policy mutation operation.
type PolicyUpdateKind string

const (
	PolicyAdd     PolicyUpdateKind = "add"
	PolicyRemove  PolicyUpdateKind = "remove"
	PolicyReplace PolicyUpdateKind = "replace"
)

// SecretItem is a key vault secret's metadata from the list call.
type SecretItem struct {
	Name        string
	Enabled     *bool
	Created     *time.Time
	Updated     *time.Time
	ContentType string
}

// KeyItem is a key vault key's metadata plus its public JWK material.
type KeyItem struct {
	Name      string
	Enabled   *bool
	Created   *time.Time
	Updated   *time.Time
	KeyType   string
	PublicJWK string
}

// VaultAPI covers management-plane vault operations, including the
// access policy mutations the Policy Reconciler needs.
type VaultAPI interface {
	ListVaults(ctx context.Context) ([]Vault, error)
	UpdateAccessPolicy(ctx context.Context, vault Vault, kind PolicyUpdateKind, entry AccessPolicyEntry) error
}

// VaultDataAPI covers dataplane secret and key reads.
type VaultDataAPI interface {
	ListSecrets(ctx context.Context, vaultURI string) ([]SecretItem, error)
	GetSecret(ctx context.Context, vaultURI, name string) (string, error)
	ListKeys(ctx context.Context, vaultURI string) ([]KeyItem, error)
}

// WebApp identifies one app service site.
type WebApp struct {
	Name          string
	ResourceGroup string
}

// ConnectionString is one entry from a site's connection string config.
type ConnectionString struct {
	Name  string
	Value string
	Type  string
}

// WebAppAPI covers app service enumeration and its two secret surfaces.
type WebAppAPI interface {
	ListWebApps(ctx context.Context) ([]WebApp, error)
	PublishingProfileXML(ctx context.Context, app WebApp) (string, error)
	ListConnectionStrings(ctx context.Context, app WebApp) ([]ConnectionString, error)
}

// Registry identifies a container registry.
type Registry struct {
	Name          string
	ResourceGroup string
	AdminEnabled  bool
}

// NamedValue is a generic name/value pair (registry passwords, account
// keys).
type NamedValue struct {
	Name  string
	Value string
}

// RegistryCredentials is the admin user plus its rotating password set.
type RegistryCredentials struct {
	Username  string
	Passwords []NamedValue
}

type RegistryAPI interface {
	ListRegistries(ctx context.Context) ([]Registry, error)
	ListCredentials(ctx context.Context, reg Registry) (RegistryCredentials, error)
}

// StorageAccount identifies a storage account.
type StorageAccount struct {
	Name          string
	ResourceGroup string
}

type StorageAPI interface {
	ListAccounts(ctx context.Context) ([]StorageAccount, error)
	ListKeys(ctx context.Context, acct StorageAccount) ([]NamedValue, error)
}

// CosmosAccount identifies a CosmosDB database account.
type CosmosAccount struct {
	Name          string
	ResourceGroup string
}

type CosmosAPI interface {
	ListAccounts(ctx context.Context) ([]CosmosAccount, error)
	ListKeys(ctx context.Context, acct CosmosAccount) ([]NamedValue, error)
}

// AutomationAccount identifies an automation account. Location is
// required when creating runbooks inside the account.
type AutomationAccount struct {
	Name          string
	ResourceGroup string
	Location      string
}

// StoredCredential is an automation credential asset. The password is
// only reachable from inside a runbook.
type StoredCredential struct {
	Name     string
	Username string
}

// Connection is a run-as connection definition.
type Connection struct {
	Name          string
	Thumbprint    string
	TenantID      string
	ApplicationID string
}

// JobStatus is the remote job lifecycle state.
type JobStatus string

const (
	JobNew       JobStatus = "New"
	JobRunning   JobStatus = "Running"
	JobCompleted JobStatus = "Completed"
	JobFailed    JobStatus = "Failed"
	JobSuspended JobStatus = "Suspended"
	JobStopped   JobStatus = "Stopped"
)

// Terminal reports whether the job has left the running states.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobSuspended, JobStopped:
		return true
	}
	return false
}

// AutomationAPI covers automation account discovery plus the remote
// execution primitives the credential extractor drives.
type AutomationAPI interface {
	ListAccounts(ctx context.Context) ([]AutomationAccount, error)
	ListCredentials(ctx context.Context, acct AutomationAccount) ([]StoredCredential, error)
	ListConnections(ctx context.Context, acct AutomationAccount) ([]Connection, error)

	// CreateRunbook creates a published runbook with the given script
	// body, ready to start.
	CreateRunbook(ctx context.Context, acct AutomationAccount, name, body string) error
	StartJob(ctx context.Context, acct AutomationAccount, runbook, jobName string) error
	JobStatus(ctx context.Context, acct AutomationAccount, jobName string) (JobStatus, error)
	JobOutput(ctx context.Context, acct AutomationAccount, jobName string) (string, error)
	DeleteRunbook(ctx context.Context, acct AutomationAccount, name string) error
}

// GraphAPI resolves the caller's own directory identity.
type GraphAPI interface {
	CurrentPrincipalID(ctx context.Context) (string, error)
}

// Clients bundles every capability the runner needs for one
// subscription.
type Clients struct {
	Vaults     VaultAPI
	VaultData  VaultDataAPI
	WebApps    WebAppAPI
	Registries RegistryAPI
	Storage    StorageAPI
	Cosmos     CosmosAPI
	Automation AutomationAPI
	Graph      GraphAPI
}
