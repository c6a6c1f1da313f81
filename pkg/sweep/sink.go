package sweep

import (
	"sync"

	"github.com/praetorian-inc/pulsar/pkg/types"
)

// Sink is the ordered, append-only collector for credential rows. It
// owns the records for the duration of one run; rows are never mutated
// after Append.
type Sink struct {
	mu      sync.Mutex
	records []types.CredentialRecord
}

func NewSink() *Sink {
	return &Sink{}
}

// Append normalizes optional fields to the N/A sentinel and stores the
// record. Value is stored untruncated.
func (s *Sink) Append(r types.CredentialRecord) {
	if r.Username == "" {
		r.Username = types.NotAvailable
	}
	if r.Value == "" {
		r.Value = types.NotAvailable
	}
	if r.PublishURL == "" {
		r.PublishURL = types.NotAvailable
	}
	if r.Enabled == "" {
		r.Enabled = types.NotAvailable
	}
	if r.ContentType == "" {
		r.ContentType = types.NotAvailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
}

// Records returns the accumulated rows in append order.
func (s *Sink) Records() []types.CredentialRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.CredentialRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of accumulated rows.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
