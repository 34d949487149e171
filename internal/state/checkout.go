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

type CheckoutState struct {
	Phase           Phase
	Items           []model.CartItemDetail
	Total           decimal.Decimal
	Addresses       []model.Address
	SelectedAddress *model.Address
	OrderPlaced     bool
	Err             string
}

// CheckoutHolder serves one checkout pass: it is constructed with the cart
// item ids handed over from the cart screen and is discarded after the
// order is placed.
type CheckoutHolder struct {
	cart      repository.CartRepository
	orders    repository.OrderRepository
	addresses repository.AddressRepository
	products  repository.ProductRepository
	prefs     *prefs.Store
	log       *slog.Logger

	itemIDs map[uuid.UUID]bool

	state *value[CheckoutState]
	events

	mu           sync.Mutex
	session      prefs.Session
	items        []model.CartItemDetail
	addressList  []model.Address
	selectedID   uuid.UUID
	userSelected bool
	placed       bool
}

func NewCheckoutHolder(
	cart repository.CartRepository,
	orders repository.OrderRepository,
	addresses repository.AddressRepository,
	products repository.ProductRepository,
	pf *prefs.Store,
	log *slog.Logger,
	itemIDs []uuid.UUID,
) *CheckoutHolder {
	ids := make(map[uuid.UUID]bool, len(itemIDs))
	for _, id := range itemIDs {
		ids[id] = true
	}
	return &CheckoutHolder{
		cart:      cart,
		orders:    orders,
		addresses: addresses,
		products:  products,
		prefs:     pf,
		log:       log,
		itemIDs:   ids,
		state:     newValue(CheckoutState{Phase: PhaseLoading, Total: decimal.Zero}),
		events:    newEvents(),
	}
}

func (h *CheckoutHolder) Run(ctx context.Context) {
	session := h.prefs.Current().Session
	h.mu.Lock()
	h.session = session
	h.mu.Unlock()

	if !session.IsLoggedIn {
		h.state.set(CheckoutState{Phase: PhaseError, Err: "not logged in", Total: decimal.Zero})
		return
	}

	itemCh := h.cart.WatchItems(ctx, session.LoggedInUserID)
	addrCh := h.addresses.WatchByUser(ctx, session.LoggedInUserID)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case items, ok := <-itemCh:
				if !ok {
					return
				}
				chosen := make([]model.CartItemDetail, 0, len(items))
				for _, d := range items {
					if h.itemIDs[d.Item.ID] {
						chosen = append(chosen, d)
					}
				}
				h.mu.Lock()
				h.items = chosen
				h.mu.Unlock()
				h.apply()
			case addrs, ok := <-addrCh:
				if !ok {
					return
				}
				h.mu.Lock()
				h.addressList = addrs
				h.mu.Unlock()
				h.apply()
			}
		}
	}()
}

func (h *CheckoutHolder) apply() {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Address preselection: the user's explicit pick wins, then the
	// default-flagged address, then the first one.
	var selected *model.Address
	for i := range h.addressList {
		a := h.addressList[i]
		if h.userSelected && a.ID == h.selectedID {
			selected = &a
			break
		}
	}
	if selected == nil {
		for i := range h.addressList {
			if h.addressList[i].IsDefault {
				selected = &h.addressList[i]
				break
			}
		}
	}
	if selected == nil && len(h.addressList) > 0 {
		selected = &h.addressList[0]
	}

	total := decimal.Zero
	for _, d := range h.items {
		total = total.Add(d.Subtotal())
	}

	phase := PhaseSuccess
	if h.placed {
		// Ordered items disappear from the cart stream after placement;
		// keep the success phase so the confirmation can render.
	} else if len(h.items) == 0 {
		phase = PhaseEmpty
	}

	h.state.set(CheckoutState{
		Phase:           phase,
		Items:           h.items,
		Total:           total,
		Addresses:       h.addressList,
		SelectedAddress: selected,
		OrderPlaced:     h.placed,
	})
}

func (h *CheckoutHolder) State() CheckoutState { return h.state.get() }
func (h *CheckoutHolder) Watch(ctx context.Context) <-chan CheckoutState {
	return h.state.watch(ctx)
}

func (h *CheckoutHolder) SelectAddress(addressID uuid.UUID) {
	h.mu.Lock()
	h.selectedID = addressID
	h.userSelected = true
	h.mu.Unlock()
	h.apply()
}

// PlaceOrder snapshots the selected items into an order, decrements stock,
// and removes only the ordered cart rows. It refuses to run without a
// selected address.
func (h *CheckoutHolder) PlaceOrder(ctx context.Context) {
	cur := h.state.get()
	if cur.OrderPlaced {
		return
	}
	if cur.SelectedAddress == nil {
		h.emit("please select a shipping address")
		return
	}
	if len(cur.Items) == 0 {
		h.emit("nothing to order")
		return
	}

	h.mu.Lock()
	session := h.session
	h.mu.Unlock()

	addr := cur.SelectedAddress
	shipping := addr.Name + ", " + addr.Phone + ", " + addr.Address

	// Reserve stock first. The order row is an immutable financial record,
	// so it is only written once every line's stock came off.
	decremented := make([]model.CartItemDetail, 0, len(cur.Items))
	for _, d := range cur.Items {
		if err := h.products.DecrementStock(ctx, d.Product.ID, d.Item.Quantity); err != nil {
			h.log.Warn("decrement stock", "product_id", d.Product.ID, "error", err)
			h.restock(ctx, decremented)
			h.mutateErr(err.Error())
			h.emit("could not place order")
			return
		}
		decremented = append(decremented, d)
	}

	order, err := h.orders.CreateFromCart(ctx, session.LoggedInUserID, cur.Items, shipping)
	if err != nil {
		h.log.Warn("place order", "error", err)
		h.restock(ctx, decremented)
		h.mutateErr(err.Error())
		h.emit("could not place order")
		return
	}
	if order == nil {
		h.restock(ctx, decremented)
		return
	}

	for _, d := range cur.Items {
		if err := h.cart.Remove(ctx, d.Item.ID); err != nil {
			h.log.Warn("remove ordered cart item", "item_id", d.Item.ID, "error", err)
		}
	}

	h.mu.Lock()
	h.placed = true
	h.mu.Unlock()
	h.apply()
	h.emit("order placed")
}

func (h *CheckoutHolder) restock(ctx context.Context, items []model.CartItemDetail) {
	for _, d := range items {
		if err := h.products.RestoreStock(ctx, d.Product.ID, d.Item.Quantity); err != nil {
			h.log.Warn("restore stock", "product_id", d.Product.ID, "error", err)
		}
	}
}

func (h *CheckoutHolder) mutateErr(msg string) {
	s := h.state.get()
	s.Phase = PhaseError
	s.Err = msg
	h.state.set(s)
}
