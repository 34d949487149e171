package state

import (
	"context"
	"log/slog"
	"sync"

	"github.com/minieshop/go-shop-client/internal/model"
	"github.com/minieshop/go-shop-client/internal/prefs"
	"github.com/minieshop/go-shop-client/internal/repository"
)

type FavoritesState struct {
	Phase    Phase
	Products []model.Product
	Err      string
}

type FavoritesHolder struct {
	favorites repository.FavoriteRepository
	cart      repository.CartRepository
	prefs     *prefs.Store
	log       *slog.Logger

	state *value[FavoritesState]
	events

	mu      sync.Mutex
	session prefs.Session
}

func NewFavoritesHolder(
	favorites repository.FavoriteRepository,
	cart repository.CartRepository,
	pf *prefs.Store,
	log *slog.Logger,
) *FavoritesHolder {
	return &FavoritesHolder{
		favorites: favorites,
		cart:      cart,
		prefs:     pf,
		log:       log,
		state:     newValue(FavoritesState{Phase: PhaseLoading}),
		events:    newEvents(),
	}
}

func (h *FavoritesHolder) Run(ctx context.Context) {
	go h.loop(ctx)
}

func (h *FavoritesHolder) loop(ctx context.Context) {
	prefsCh := h.prefs.Watch(ctx)

	var productCh <-chan []model.Product
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
				productCh = nil
			}
			if snap.IsLoggedIn {
				var sub context.Context
				sub, cancel = context.WithCancel(ctx)
				productCh = h.favorites.WatchProducts(sub, snap.LoggedInUserID)
			} else {
				h.state.set(FavoritesState{Phase: PhaseSuccess})
			}
		case products, ok := <-productCh:
			if !ok {
				productCh = nil
				continue
			}
			h.state.set(FavoritesState{Phase: PhaseSuccess, Products: products})
		}
	}
}

func (h *FavoritesHolder) State() FavoritesState { return h.state.get() }
func (h *FavoritesHolder) Watch(ctx context.Context) <-chan FavoritesState {
	return h.state.watch(ctx)
}

func (h *FavoritesHolder) Remove(ctx context.Context, product model.Product) {
	h.mu.Lock()
	session := h.session
	h.mu.Unlock()
	if !session.IsLoggedIn {
		return
	}
	if err := h.favorites.Remove(ctx, session.LoggedInUserID, product.ID); err != nil {
		h.log.Warn("remove favorite", "error", err)
		h.emit("could not remove favorite")
	}
}

func (h *FavoritesHolder) AddToCart(ctx context.Context, product model.Product) {
	h.mu.Lock()
	session := h.session
	h.mu.Unlock()
	if !session.IsLoggedIn {
		h.emit("please log in to add products to your cart")
		return
	}
	if err := h.cart.AddProduct(ctx, session.LoggedInUserID, product.ID, 1); err != nil {
		h.log.Warn("add favorite to cart", "error", err)
		h.emit("could not add " + product.Name + " to cart")
		return
	}
	h.emit(product.Name + " added to cart")
}
