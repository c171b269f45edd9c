package pen

import (
	"context"

	"github.com/GriffinCanCode/PenBox/backend/internal/shared/id"
)

// Repository persists pens. Implementations return errors wrapping
// ErrNotFound for unknown IDs and ErrUnavailable for backend failures.
type Repository interface {
	List(ctx context.Context) ([]*Pen, error)
	Get(ctx context.Context, penID id.PenID) (*Pen, error)
	Insert(ctx context.Context, p *Pen) error
	// Update applies fn to the stored pen atomically and returns the result
	Update(ctx context.Context, penID id.PenID, fn func(*Pen)) (*Pen, error)
	Delete(ctx context.Context, penID id.PenID) error
	Close() error
}
