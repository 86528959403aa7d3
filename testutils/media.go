package testutils

import (
	"context"
	"sync"
)

// FakeMedia enregistre les demandes de nettoyage d'images
type FakeMedia struct {
	mu      sync.Mutex
	deleted []string
	Err     error
}

func (f *FakeMedia) Delete(ctx context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ref)
	return f.Err
}

func (f *FakeMedia) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.deleted))
	copy(out, f.deleted)
	return out
}
