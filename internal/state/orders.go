package state

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/minieshop/go-shop-client/internal/model"
	"github.com/minieshop/go-shop-client/internal/prefs"
	"github.com/minieshop/go-shop-client/internal/repository"
)

type OrdersState struct {
	Phase  Phase
	Orders []model.Order
}

// OrdersHolder backs the order-history screen.
type OrdersHolder struct {
	orders repository.OrderRepository
	prefs  *prefs.Store
	log    *slog.Logger

	state *value[OrdersState]

	mu      sync.Mutex
	session prefs.Session
}

func NewOrdersHolder(orders repository.OrderRepository, pf *prefs.Store, log *slog.Logger) *OrdersHolder {
	return &OrdersHolder{
		orders: orders,
		prefs:  pf,
		log:    log,
		state:  newValue(OrdersState{Phase: PhaseLoading}),
	}
}

func (h *OrdersHolder) Run(ctx context.Context) {
	go h.loop(ctx)
}

func (h *OrdersHolder) loop(ctx context.Context) {
	prefsCh := h.prefs.Watch(ctx)

	var orderCh <-chan []model.Order
	var cancel context.CancelFunc
	defer func() {
		if cancel != nil {
			cancel()
		}
	}()

	first := true
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-prefsCh:
			if !ok {
				return
			}
			h.mu.Lock()
			changed := first || snap.Session != h.session
			first = false
			h.session = snap.Session
			h.mu.Unlock()
			if !changed {
				continue
			}
			if cancel != nil {
				cancel()
				cancel = nil
				orderCh = nil
			}
			if snap.IsLoggedIn {
				var sub context.Context
				sub, cancel = context.WithCancel(ctx)
				orderCh = h.orders.WatchOrders(sub, snap.LoggedInUserID)
			} else {
				h.state.set(OrdersState{Phase: PhaseEmpty})
			}
		case orders, ok := <-orderCh:
			if !ok {
				orderCh = nil
				continue
			}
			if len(orders) == 0 {
				h.state.set(OrdersState{Phase: PhaseEmpty})
			} else {
				h.state.set(OrdersState{Phase: PhaseSuccess, Orders: orders})
			}
		}
	}
}

func (h *OrdersHolder) State() OrdersState                           { return h.state.get() }
func (h *OrdersHolder) Watch(ctx context.Context) <-chan OrdersState { return h.state.watch(ctx) }

// Items loads the frozen line items of one order.
func (h *OrdersHolder) Items(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	return h.orders.ItemsByOrder(ctx, orderID)
}
