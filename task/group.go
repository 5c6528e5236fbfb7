// Package task runs groups of preemptable, long-lived tasks.
package task

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Group is a group of tasks which are each executed concurrently, and
// collectively waited on until all are complete. The first task to return
// a non-nil error cancels the entire Group. Group is not itself thread-safe.
type Group struct {
	// Context of the Group, which is cancelled by:
	//  * Any task of the Group returning a non-nil error, or
	//  * An explicit call to Cancel, or
	//  * A cancellation of the parent Context of the Group.
	//
	// Queued tasks should monitor Context and return upon its cancellation.
	ctx      context.Context
	cancelFn context.CancelFunc

	tasks   []task
	eg      *errgroup.Group
	started bool
}

type task struct {
	desc string
	fn   func() error
}

// NewGroup returns a new, empty Group with the given Context.
func NewGroup(ctx context.Context) *Group {
	ctx, cancel := context.WithCancel(ctx)
	eg, ctx := errgroup.WithContext(ctx)
	return &Group{ctx: ctx, eg: eg, cancelFn: cancel}
}

// Context returns the Group Context.
func (g *Group) Context() context.Context { return g.ctx }

// Cancel the Group Context.
func (g *Group) Cancel() { g.cancelFn() }

// Queue a described task for execution by GoRun. Queue panics if GoRun
// was already called.
func (g *Group) Queue(desc string, fn func() error) {
	if g.started {
		panic("Queue called after GoRun")
	}
	g.tasks = append(g.tasks, task{desc: desc, fn: fn})
}

// GoRun all queued tasks. GoRun panics if called more than once.
func (g *Group) GoRun() {
	if g.started {
		panic("GoRun already called")
	}
	g.started = true

	for i := range g.tasks {
		var t = g.tasks[i]
		g.eg.Go(func() error {
			var err = t.fn()
			log.WithFields(log.Fields{"task": t.desc, "err": err}).Debug("task exited")
			return errors.WithMessage(err, t.desc)
		})
	}
}

// Wait for started tasks, returning only after all complete.
// The first encountered non-nil error is returned.
// Wait panics if GoRun wasn't called.
func (g *Group) Wait() error {
	if !g.started {
		panic("Wait called before GoRun")
	}
	return g.eg.Wait()
}
