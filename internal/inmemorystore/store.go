// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// implementation of the nodestore.Store interface.
//
// # Concurrency Model
//
// State lives in three sync.Maps. The key space is fixed once the graph is
// known and every step's values are written by the single worker running
// it, which is the access pattern sync.Map is built for.
package inmemorystore

import (
	"context"
	"sync"

	"github.com/specialistvlad/shadergrid/internal/node"
	"github.com/specialistvlad/shadergrid/internal/nodestore"
)

// Store is an in-memory implementation of nodestore.Store.
type Store struct {
	states  sync.Map // Key: step ID, Value: node.Status
	outputs sync.Map // Key: step ID, Value: any
	errors  sync.Map // Key: step ID, Value: error
}

// New creates a new, empty in-memory store.
func New() nodestore.Store {
	return &Store{}
}

// SetStatus updates the execution status of a specific step.
func (s *Store) SetStatus(ctx context.Context, id string, status node.Status) error {
	s.states.Store(id, status)
	return nil
}

// GetStatus retrieves the execution status of a specific step.
// If a status has not been set, it returns StatusPending.
func (s *Store) GetStatus(ctx context.Context, id string) (node.Status, error) {
	status, ok := s.states.Load(id)
	if !ok {
		return node.StatusPending, nil
	}
	return status.(node.Status), nil
}

// SetOutput records the output of a step.
func (s *Store) SetOutput(ctx context.Context, id string, output any) error {
	s.outputs.Store(id, output)
	return nil
}

// GetOutput retrieves the recorded output of a step.
func (s *Store) GetOutput(ctx context.Context, id string) (any, error) {
	output, ok := s.outputs.Load(id)
	if !ok {
		return nil, nil // If not found, the output is nil.
	}
	return output, nil
}

// SetError records the failure error of a step.
func (s *Store) SetError(ctx context.Context, id string, stepErr error) error {
	s.errors.Store(id, stepErr)
	return nil
}

// GetError retrieves the recorded error of a failed step.
func (s *Store) GetError(ctx context.Context, id string) (error, error) {
	err, ok := s.errors.Load(id)
	if !ok {
		return nil, nil // If not found, there is no error.
	}
	return err.(error), nil
}

// Snapshot copies the status of every step.
func (s *Store) Snapshot(ctx context.Context) (map[string]node.Status, error) {
	out := make(map[string]node.Status)
	s.states.Range(func(k, v any) bool {
		out[k.(string)] = v.(node.Status)
		return true
	})
	return out, nil
}
