package repository

import (
	"context"

	"github.com/minieshop/go-shop-client/internal/store"
)

// sendLatest delivers v on a single-slot channel, replacing any undelivered
// value. Slow consumers skip intermediate snapshots but always see the newest.
func sendLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// watchQuery turns a point-in-time query into a live one: it emits the
// current result immediately, then re-runs the query after every store
// notification for the given entities. The channel closes when ctx ends.
func watchQuery[T any](ctx context.Context, st *store.Store, query func(context.Context) (T, error), entities ...store.Entity) <-chan T {
	sub := st.Subscribe(ctx, entities...)
	out := make(chan T, 1)
	go func() {
		defer close(out)
		for {
			if v, err := query(ctx); err == nil {
				sendLatest(out, v)
			}
			select {
			case <-ctx.Done():
				return
			case _, ok := <-sub:
				if !ok {
					return
				}
			}
		}
	}()
	return out
}
