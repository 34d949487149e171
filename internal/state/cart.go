package state

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minieshop/go-shop-client/internal/model"
	"github.com/minieshop/go-shop-client/internal/prefs"
	"github.com/minieshop/go-shop-client/internal/repository"
)

// CartLine is a persisted cart row plus the screen-local selected flag. The
// selection overlay is ephemeral UI state and never touches the store.
type CartLine struct {
	model.CartItemDetail
	Selected bool
}

type CartState struct {
	Phase Phase
	Lines []CartLine
	// Total covers selected lines only.
	Total decimal.Decimal
	Err   string
}

type CartHolder struct {
	cart  repository.CartRepository
	prefs *prefs.Store
	log   *slog.Logger

	state *value[CartState]
	events

	mu         sync.Mutex
	session    prefs.Session
	items      []model.CartItemDetail
	deselected map[uuid.UUID]bool
	recompute  chan struct{}
}

func NewCartHolder(cart repository.CartRepository, pf *prefs.Store, log *slog.Logger) *CartHolder {
	return &CartHolder{
		cart:       cart,
		prefs:      pf,
		log:        log,
		state:      newValue(CartState{Phase: PhaseLoading, Total: decimal.Zero}),
		events:     newEvents(),
		deselected: map[uuid.UUID]bool{},
		recompute:  make(chan struct{}, 1),
	}
}

func (h *CartHolder) Run(ctx context.Context) {
	go h.loop(ctx)
}

func (h *CartHolder) loop(ctx context.Context) {
	prefsCh := h.prefs.Watch(ctx)

	var itemCh <-chan []model.CartItemDetail
	var itemCancel context.CancelFunc
	defer func() {
		if itemCancel != nil {
			itemCancel()
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
			if itemCancel != nil {
				itemCancel()
				itemCancel = nil
				itemCh = nil
			}
			if snap.IsLoggedIn {
				var itemCtx context.Context
				itemCtx, itemCancel = context.WithCancel(ctx)
				itemCh = h.cart.WatchItems(itemCtx, snap.LoggedInUserID)
			} else {
				h.mu.Lock()
				h.items = nil
				h.deselected = map[uuid.UUID]bool{}
				h.mu.Unlock()
				h.apply()
			}
		case items, ok := <-itemCh:
			if !ok {
				itemCh = nil
				continue
			}
			h.mu.Lock()
			h.items = items
			h.mu.Unlock()
			h.apply()
		case <-h.recompute:
			h.apply()
		}
	}
}

func (h *CartHolder) apply() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.items) == 0 {
		h.state.set(CartState{Phase: PhaseEmpty, Total: decimal.Zero})
		return
	}

	lines := make([]CartLine, 0, len(h.items))
	total := decimal.Zero
	for _, d := range h.items {
		selected := !h.deselected[d.Item.ID]
		lines = append(lines, CartLine{CartItemDetail: d, Selected: selected})
		if selected {
			total = total.Add(d.Subtotal())
		}
	}
	h.state.set(CartState{Phase: PhaseSuccess, Lines: lines, Total: total})
}

func (h *CartHolder) State() CartState                           { return h.state.get() }
func (h *CartHolder) Watch(ctx context.Context) <-chan CartState { return h.state.watch(ctx) }

// SetSelected flips the ephemeral selection of one line.
func (h *CartHolder) SetSelected(itemID uuid.UUID, selected bool) {
	h.mu.Lock()
	if selected {
		delete(h.deselected, itemID)
	} else {
		h.deselected[itemID] = true
	}
	h.mu.Unlock()
	poke(h.recompute)
}

func (h *CartHolder) SelectAll(selected bool) {
	h.mu.Lock()
	h.deselected = map[uuid.UUID]bool{}
	if !selected {
		for _, d := range h.items {
			h.deselected[d.Item.ID] = true
		}
	}
	h.mu.Unlock()
	poke(h.recompute)
}

// SelectedIDs is the hand-off to the checkout screen: the ids of the lines
// the user ticked.
func (h *CartHolder) SelectedIDs() []uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(h.items))
	for _, d := range h.items {
		if !h.deselected[d.Item.ID] {
			ids = append(ids, d.Item.ID)
		}
	}
	return ids
}

// ChangeQuantity updates a line's quantity; anything below one removes the
// line instead.
func (h *CartHolder) ChangeQuantity(ctx context.Context, itemID uuid.UUID, quantity int) {
	var err error
	if quantity > 0 {
		err = h.cart.UpdateQuantity(ctx, itemID, quantity)
	} else {
		err = h.cart.Remove(ctx, itemID)
	}
	if err != nil {
		h.log.Warn("change cart quantity", "error", err)
		h.emit("could not update cart")
	}
}

func (h *CartHolder) Remove(ctx context.Context, itemID uuid.UUID) {
	if err := h.cart.Remove(ctx, itemID); err != nil {
		h.log.Warn("remove cart item", "error", err)
		h.emit("could not remove item")
	}
}
