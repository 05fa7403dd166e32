// Package memory keeps users and tasks in process memory. It backs
// STORAGE_DRIVER=memory for local runs and is used by service tests. Every
// mutation happens under a single mutex, which gives the same atomicity the
// Postgres implementation gets from guarded UPDATE statements.
package memory

import (
	"sync"
)

type Store struct {
	mu          sync.RWMutex
	users       map[string]*userRecord
	tasks       map[string]*taskRecord
	redemptions map[string][]redemptionRecord
}

func NewStore() *Store {
	return &Store{
		users:       make(map[string]*userRecord),
		tasks:       make(map[string]*taskRecord),
		redemptions: make(map[string][]redemptionRecord),
	}
}

// Users returns a UserRepository view over the store.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Tasks returns a TaskRepository view over the store.
func (s *Store) Tasks() *TaskRepository { return &TaskRepository{s: s} }
