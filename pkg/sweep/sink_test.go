package sweep

import (
	"testing"

	"github.com/praetorian-inc/pulsar/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestSinkNormalizesOptionalFields(t *testing.T) {
	s := NewSink()
	s.Append(types.CredentialRecord{
		Kind: types.KindSecret,
		Name: "db-password",
	})

	records := s.Records()
	assert.Len(t, records, 1)
	assert.Equal(t, types.NotAvailable, records[0].Username)
	assert.Equal(t, types.NotAvailable, records[0].Value)
	assert.Equal(t, types.NotAvailable, records[0].PublishURL)
	assert.Equal(t, types.NotAvailable, records[0].Enabled)
	assert.Equal(t, types.NotAvailable, records[0].ContentType)
	assert.Equal(t, "db-password", records[0].Name)
}

func TestSinkKeepsValuesUntruncated(t *testing.T) {
	long := make([]byte, 16*1024)
	for i := range long {
		long[i] = 'a'
	}

	s := NewSink()
	s.Append(types.CredentialRecord{Kind: types.KindSecret, Name: "big", Value: string(long)})

	assert.Equal(t, string(long), s.Records()[0].Value)
}

func TestSinkPreservesAppendOrder(t *testing.T) {
	s := NewSink()
	for _, name := range []string{"first", "second", "third"} {
		s.Append(types.CredentialRecord{Kind: types.KindSecret, Name: name})
	}

	records := s.Records()
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, "first", records[0].Name)
	assert.Equal(t, "second", records[1].Name)
	assert.Equal(t, "third", records[2].Name)
}

func TestSinkRecordsReturnsCopy(t *testing.T) {
	s := NewSink()
	s.Append(types.CredentialRecord{Kind: types.KindSecret, Name: "original"})

	records := s.Records()
	records[0].Name = "mutated"

	assert.Equal(t, "original", s.Records()[0].Name)
}
