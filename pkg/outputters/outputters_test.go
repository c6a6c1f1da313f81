package outputters

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/praetorian-inc/pulsar/internal/message"
	"github.com/praetorian-inc/pulsar/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	message.SetOutput(io.Discard)
	m.Run()
}

func sampleRecords() []types.CredentialRecord {
	return []types.CredentialRecord{
		{
			Kind:            types.KindSecret,
			Name:            "db-password",
			Username:        types.NotAvailable,
			Value:           "hunter2",
			SourceContainer: "prod-vault",
			Subscription:    "sub-1",
		},
		{
			Kind:            types.KindStorageAccountKey,
			Name:            "key1",
			Username:        "prodstore",
			Value:           "storage-key",
			SourceContainer: "prodstore",
			Subscription:    "sub-1",
		},
	}
}

func TestConsoleOutputter(t *testing.T) {
	var buf bytes.Buffer
	o := &ConsoleOutputter{Out: &buf}

	require.NoError(t, o.Write("Extracted Credentials", sampleRecords()))

	out := buf.String()
	assert.Contains(t, out, "# Extracted Credentials")
	assert.Contains(t, out, "db-password")
	assert.Contains(t, out, "hunter2")
	assert.Contains(t, out, "prodstore")
}

func TestConsoleOutputterSkipsEmptyRuns(t *testing.T) {
	var buf bytes.Buffer
	o := &ConsoleOutputter{Out: &buf}

	require.NoError(t, o.Write("Extracted Credentials", nil))
	assert.Empty(t, buf.String())
}

func TestCSVFileOutputter(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, NewCSVFileOutputter(dir).Write(sampleRecords()))

	f, err := os.Open(filepath.Join(dir, "credentials.csv"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, types.Columns, rows[0])
	assert.Equal(t, "Secret", rows[1][0])
	assert.Equal(t, "hunter2", rows[1][3])
	assert.Equal(t, "key1", rows[2][1])
}

func TestJSONFileOutputter(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, NewJSONFileOutputter(dir).Write(sampleRecords()))

	data, err := os.ReadFile(filepath.Join(dir, "credentials.json"))
	require.NoError(t, err)

	var got []types.CredentialRecord
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "db-password", got[0].Name)
	assert.Equal(t, "prodstore", got[1].Username)
}

func TestFileOutputtersSkipEmptyRuns(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, NewCSVFileOutputter(dir).Write(nil))
	require.NoError(t, NewJSONFileOutputter(dir).Write(nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
