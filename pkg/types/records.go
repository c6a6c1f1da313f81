package types

import "time"

// CredentialKind classifies where a credential row came from.
type CredentialKind string

const (
	KindKey               CredentialKind = "Key"
	KindSecret            CredentialKind = "Secret"
	KindAppServiceConfig  CredentialKind = "AppServiceConfig"
	KindAcrAdminUser      CredentialKind = "AcrAdminUser"
	KindStorageAccountKey CredentialKind = "StorageAccountKey"
	KindAutomationAccount CredentialKind = "AutomationAccount"
	KindCosmosDbKey       CredentialKind = "CosmosDbKey"
)

// NotAvailable marks an optional column with no value. Downstream
// reporting expects a fixed column count, so absence is always explicit.
const NotAvailable = "N/A"

// NotCreated marks an automation asset that no longer exists in the
// remote environment. The row is still emitted to keep the row count
// consistent across automation accounts.
const NotCreated = "Not Created"

// CredentialRecord is one row of sweep output. Created once per
// extracted item and immutable afterward.
type CredentialRecord struct {
	Kind            CredentialKind `json:"kind"`
	Name            string         `json:"name"`
	Username        string         `json:"username"`
	Value           string         `json:"value"`
	PublishURL      string         `json:"publishUrl"`
	CreatedAt       *time.Time     `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time     `json:"updatedAt,omitempty"`
	Enabled         string         `json:"enabled"`
	ContentType     string         `json:"contentType"`
	SourceContainer string         `json:"sourceContainer"`
	Subscription    string         `json:"subscription"`
}

// Columns is the fixed column order for tabular and CSV output.
var Columns = []string{
	"Kind",
	"Name",
	"Username",
	"Value",
	"PublishURL",
	"Created",
	"Updated",
	"Enabled",
	"ContentType",
	"Source",
	"Subscription",
}

// Row renders the record in the fixed column order. Optional fields
// that were never set come back as the N/A sentinel.
func (r CredentialRecord) Row() []string {
	return []string{
		string(r.Kind),
		orNA(r.Name),
		orNA(r.Username),
		orNA(r.Value),
		orNA(r.PublishURL),
		timeOrNA(r.CreatedAt),
		timeOrNA(r.UpdatedAt),
		orNA(r.Enabled),
		orNA(r.ContentType),
		orNA(r.SourceContainer),
		orNA(r.Subscription),
	}
}

func orNA(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}

func timeOrNA(t *time.Time) string {
	if t == nil {
		return NotAvailable
	}
	return t.UTC().Format(time.RFC3339)
}

// EnabledString converts the API's tri-state enabled flag into a
// printable column value.
func EnabledString(enabled *bool) string {
	switch {
	case enabled == nil:
		return NotAvailable
	case *enabled:
		return "true"
	default:
		return "false"
	}
}
