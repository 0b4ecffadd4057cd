package core

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Avail is satisfied once rx buffers at least n items.
func Avail(rx AvailWaiter, n int) Condition {
	return ConditionFunc(func(ctx context.Context) bool {
		return rx.WaitAvail(ctx, n)
	})
}

// Vacant is satisfied once tx has at least n free slots.
func Vacant(tx VacantWaiter, n int) Condition {
	return ConditionFunc(func(ctx context.Context) bool {
		return tx.WaitVacant(ctx, n)
	})
}

// waitForAll blocks until every condition has resolved and reports whether
// all of them were satisfied.
func waitForAll(ctx context.Context, conds ...Condition) bool {
	switch len(conds) {
	case 0:
		return ctx.Err() == nil
	case 1:
		return conds[0].Await(ctx)
	}

	satisfied := make([]bool, len(conds))
	var g errgroup.Group
	for i, c := range conds {
		g.Go(func() error {
			satisfied[i] = c.Await(ctx)
			return nil
		})
	}
	_ = g.Wait()

	for _, ok := range satisfied {
		if !ok {
			return false
		}
	}
	return true
}

// waitForAny blocks until one condition is satisfied and returns its
// index, or false if none can be.
func waitForAny(parent context.Context, conds ...Condition) (int, bool) {
	if len(conds) == 0 {
		return -1, false
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	won := make(chan int, len(conds))
	var g errgroup.Group
	for i, c := range conds {
		g.Go(func() error {
			if c.Await(ctx) {
				won <- i
				cancel()
			}
			return nil
		})
	}
	_ = g.Wait()
	close(won)

	idx, ok := <-won
	if !ok {
		return -1, false
	}
	return idx, true
}
