package types

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRowUsesFixedColumnOrder(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	r := CredentialRecord{
		Kind:            KindSecret,
		Name:            "db-password",
		Value:           "hunter2",
		CreatedAt:       &created,
		Enabled:         "true",
		ContentType:     "text/plain",
		SourceContainer: "prod-vault",
		Subscription:    "sub-1",
	}

	row := r.Row()
	assert.Len(t, row, len(Columns))
	assert.Equal(t, "Secret", row[0])
	assert.Equal(t, "db-password", row[1])
	assert.Equal(t, NotAvailable, row[2]) // no username
	assert.Equal(t, "hunter2", row[3])
	assert.Equal(t, NotAvailable, row[4]) // no publish url
	assert.Equal(t, "2024-03-01T12:30:00Z", row[5])
	assert.Equal(t, NotAvailable, row[6]) // never updated
	assert.Equal(t, "true", row[7])
	assert.Equal(t, "prod-vault", row[9])
	assert.Equal(t, "sub-1", row[10])
}

func TestEnabledString(t *testing.T) {
	yes, no := true, false
	assert.Equal(t, "true", EnabledString(&yes))
	assert.Equal(t, "false", EnabledString(&no))
	assert.Equal(t, NotAvailable, EnabledString(nil))
}

func TestRecordTableAlignsColumns(t *testing.T) {
	records := []CredentialRecord{
		{Kind: KindSecret, Name: "short"},
		{Kind: KindStorageAccountKey, Name: "a-much-longer-credential-name"},
	}

	out := RecordTable("Extracted Credentials", records).ToString()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	assert.Equal(t, "# Extracted Credentials", lines[0])
	assert.Contains(t, lines[2], "| Kind")
	// header, divider, and both rows line up
	assert.Equal(t, len(lines[2]), len(lines[3]))
	assert.Equal(t, len(lines[2]), len(lines[4]))
	assert.Equal(t, len(lines[2]), len(lines[5]))
}
