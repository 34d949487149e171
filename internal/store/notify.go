package store

import (
	"context"
	"sync"
)

// Entity names a persisted collection for change notification purposes.
type Entity string

const (
	EntityUsers     Entity = "users"
	EntityProducts  Entity = "products"
	EntityCartItems Entity = "cart_items"
	EntityOrders    Entity = "orders"
	EntityAddresses Entity = "addresses"
	EntityFavorites Entity = "favorites"
)

type subscription struct {
	ch       chan struct{}
	entities map[Entity]bool
}

type notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscription
	closed bool
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[int]*subscription)}
}

// Subscribe returns a channel pulsed after every committed mutation touching
// one of the given entities. The channel carries no payload; subscribers
// re-query. It closes when ctx ends or the store closes. The signal slot is
// single-buffered, so bursts of writes coalesce into one wakeup.
func (s *Store) Subscribe(ctx context.Context, entities ...Entity) <-chan struct{} {
	n := s.notifier
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan struct{}, 1)
	if n.closed {
		close(ch)
		return ch
	}

	sub := &subscription{ch: ch, entities: make(map[Entity]bool, len(entities))}
	for _, e := range entities {
		sub.entities[e] = true
	}
	id := n.nextID
	n.nextID++
	n.subs[id] = sub

	go func() {
		<-ctx.Done()
		n.mu.Lock()
		defer n.mu.Unlock()
		if _, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(ch)
		}
	}()
	return ch
}

// Notify wakes every subscription watching any of the given entities.
// Repositories call it after each successful write.
func (s *Store) Notify(entities ...Entity) {
	n := s.notifier
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, sub := range n.subs {
		for _, e := range entities {
			if sub.entities[e] {
				select {
				case sub.ch <- struct{}{}:
				default:
				}
				break
			}
		}
	}
}

func (n *notifier) closeAll() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for id, sub := range n.subs {
		delete(n.subs, id)
		close(sub.ch)
	}
}
