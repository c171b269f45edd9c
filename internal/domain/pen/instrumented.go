package pen

import (
	"context"
	"errors"

	"github.com/GriffinCanCode/PenBox/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/PenBox/backend/internal/shared/id"
)

// Instrumented records a timer for every Repository call
type Instrumented struct {
	next    Repository
	metrics *monitoring.Metrics
}

// Instrument wraps repo so each call is counted and timed under metrics
func Instrument(repo Repository, metrics *monitoring.Metrics) Repository {
	if metrics == nil {
		return repo
	}
	return &Instrumented{next: repo, metrics: metrics}
}

func (i *Instrumented) stop(t *monitoring.Timer, err error) {
	status := monitoring.Status(err)
	if errors.Is(err, ErrNotFound) {
		status = "not_found"
	}
	t.Stop(status)
}

func (i *Instrumented) List(ctx context.Context) ([]*Pen, error) {
	t := monitoring.NewTimer(i.metrics, "list")
	pens, err := i.next.List(ctx)
	i.stop(t, err)
	return pens, err
}

func (i *Instrumented) Get(ctx context.Context, penID id.PenID) (*Pen, error) {
	t := monitoring.NewTimer(i.metrics, "get")
	p, err := i.next.Get(ctx, penID)
	i.stop(t, err)
	return p, err
}

func (i *Instrumented) Insert(ctx context.Context, p *Pen) error {
	t := monitoring.NewTimer(i.metrics, "insert")
	err := i.next.Insert(ctx, p)
	i.stop(t, err)
	return err
}

func (i *Instrumented) Update(ctx context.Context, penID id.PenID, fn func(*Pen)) (*Pen, error) {
	t := monitoring.NewTimer(i.metrics, "update")
	p, err := i.next.Update(ctx, penID, fn)
	i.stop(t, err)
	return p, err
}

func (i *Instrumented) Delete(ctx context.Context, penID id.PenID) error {
	t := monitoring.NewTimer(i.metrics, "delete")
	err := i.next.Delete(ctx, penID)
	i.stop(t, err)
	return err
}

func (i *Instrumented) Close() error {
	return i.next.Close()
}
