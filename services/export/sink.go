package export

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Sink receives rendered files
type Sink interface {
	Save(ctx context.Context, payload *Payload) error
}

// MemorySink keeps the most recent payloads in memory, keyed by file name
type MemorySink struct {
	payloads *lru.Cache[string, *Payload]
}

// NewMemorySink creates a sink retaining at most size payloads
func NewMemorySink(size int) (*MemorySink, error) {
	cache, err := lru.New[string, *Payload](size)
	if err != nil {
		return nil, err
	}
	return &MemorySink{payloads: cache}, nil
}

// Save stores payload under its file name, replacing any earlier one.
// Payloads must name the resource they were read from.
func (s *MemorySink) Save(ctx context.Context, payload *Payload) error {
	if payload == nil || payload.FileName == "" {
		return fmt.Errorf("payload has no file name")
	}
	if !payload.Resource.Valid() {
		return fmt.Errorf("payload %s has unknown resource %q", payload.FileName, payload.Resource)
	}
	s.payloads.Add(payload.FileName, payload)
	return nil
}

// Get returns the payload saved under filename
func (s *MemorySink) Get(filename string) (*Payload, bool) {
	return s.payloads.Get(filename)
}

// Len returns the number of retained payloads
func (s *MemorySink) Len() int {
	return s.payloads.Len()
}
