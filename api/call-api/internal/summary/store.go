// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_summary

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Get when no summary record exists for a
// stream sid — either the call is still in progress or it ended without a
// session-done signal, in which case no record will ever appear.
var ErrNotFound = errors.New("call summary not found")

// Record is one call's summarization outcome, immutable after creation.
type Record struct {
	StreamSid  string
	Transcript string
	Summary    string
}

// Store holds summary records keyed by stream sid. Save overwrites an
// existing record for the same sid; in practice only the outbound relay
// loop writes, at most once per call.
type Store interface {
	Save(ctx context.Context, record Record) error
	Get(ctx context.Context, streamSid string) (*Record, error)
}

type memoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore returns the in-process store. This is the default
// backend and the only state shared across calls.
func NewMemoryStore() Store {
	return &memoryStore{records: make(map[string]Record)}
}

func (s *memoryStore) Save(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.StreamSid] = record
	return nil
}

func (s *memoryStore) Get(_ context.Context, streamSid string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[streamSid]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}
