package pen

import (
	"context"
	"fmt"
	"sync"

	"github.com/GriffinCanCode/PenBox/backend/internal/shared/id"
)

// MemoryRepository keeps pens in a map. It is the default backend and is
// seeded from fixture files.
type MemoryRepository struct {
	mu   sync.RWMutex
	pens map[id.PenID]*Pen
}

// NewMemoryRepository creates a repository holding copies of seed
func NewMemoryRepository(seed ...*Pen) *MemoryRepository {
	r := &MemoryRepository{pens: make(map[id.PenID]*Pen, len(seed))}
	for _, p := range seed {
		r.pens[p.ID] = p.Clone()
	}
	return r
}

// List returns copies of all pens in no particular order
func (r *MemoryRepository) List(ctx context.Context) ([]*Pen, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Pen, 0, len(r.pens))
	for _, p := range r.pens {
		out = append(out, p.Clone())
	}
	return out, nil
}

// Get returns a copy of one pen
func (r *MemoryRepository) Get(ctx context.Context, penID id.PenID) (*Pen, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pens[penID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, penID)
	}
	return p.Clone(), nil
}

// Insert stores a new pen
func (r *MemoryRepository) Insert(ctx context.Context, p *Pen) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pens[p.ID]; exists {
		return fmt.Errorf("%w: duplicate id %s", ErrInvalid, p.ID)
	}
	r.pens[p.ID] = p.Clone()
	return nil
}

// Update applies fn under the write lock
func (r *MemoryRepository) Update(ctx context.Context, penID id.PenID, fn func(*Pen)) (*Pen, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pens[penID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, penID)
	}
	next := p.Clone()
	fn(next)
	next.ID = penID
	r.pens[penID] = next
	return next.Clone(), nil
}

// Delete removes a pen
func (r *MemoryRepository) Delete(ctx context.Context, penID id.PenID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pens[penID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, penID)
	}
	delete(r.pens, penID)
	return nil
}

// Len returns the number of stored pens
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pens)
}

// Close is a no-op
func (r *MemoryRepository) Close() error {
	return nil
}
