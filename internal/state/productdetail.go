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

type ProductDetailState struct {
	Phase      Phase
	Product    *model.Product
	IsFavorite bool
	Err        string
}

// ProductDetailHolder serves a single product's screen, created with the
// product id from navigation.
type ProductDetailHolder struct {
	products  repository.ProductRepository
	favorites repository.FavoriteRepository
	cart      repository.CartRepository
	prefs     *prefs.Store
	log       *slog.Logger

	productID uuid.UUID

	state *value[ProductDetailState]
	events

	mu       sync.Mutex
	session  prefs.Session
	product  *model.Product
	loaded   bool
	favorite bool
}

func NewProductDetailHolder(
	products repository.ProductRepository,
	favorites repository.FavoriteRepository,
	cart repository.CartRepository,
	pf *prefs.Store,
	log *slog.Logger,
	productID uuid.UUID,
) *ProductDetailHolder {
	return &ProductDetailHolder{
		products:  products,
		favorites: favorites,
		cart:      cart,
		prefs:     pf,
		log:       log,
		productID: productID,
		state:     newValue(ProductDetailState{Phase: PhaseLoading}),
		events:    newEvents(),
	}
}

func (h *ProductDetailHolder) Run(ctx context.Context) {
	go h.loop(ctx)
}

func (h *ProductDetailHolder) loop(ctx context.Context) {
	productCh := h.products.WatchAll(ctx)
	prefsCh := h.prefs.Watch(ctx)

	var favCh <-chan map[uuid.UUID]bool
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
		case products, ok := <-productCh:
			if !ok {
				return
			}
			h.mu.Lock()
			h.product = nil
			h.loaded = true
			for i := range products {
				if products[i].ID == h.productID {
					h.product = &products[i]
					break
				}
			}
			h.mu.Unlock()
			h.apply()
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
				favCh = nil
			}
			if snap.IsLoggedIn {
				var sub context.Context
				sub, cancel = context.WithCancel(ctx)
				favCh = h.favorites.WatchIDs(sub, snap.LoggedInUserID)
			} else {
				h.mu.Lock()
				h.favorite = false
				h.mu.Unlock()
				h.apply()
			}
		case ids, ok := <-favCh:
			if !ok {
				favCh = nil
				continue
			}
			h.mu.Lock()
			h.favorite = ids[h.productID]
			h.mu.Unlock()
			h.apply()
		}
	}
}

func (h *ProductDetailHolder) apply() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.loaded {
		return
	}
	if h.product == nil {
		h.state.set(ProductDetailState{Phase: PhaseError, Err: "product not found"})
		return
	}
	p := *h.product
	h.state.set(ProductDetailState{Phase: PhaseSuccess, Product: &p, IsFavorite: h.favorite})
}

func (h *ProductDetailHolder) State() ProductDetailState { return h.state.get() }
func (h *ProductDetailHolder) Watch(ctx context.Context) <-chan ProductDetailState {
	return h.state.watch(ctx)
}

func (h *ProductDetailHolder) ToggleFavorite(ctx context.Context) {
	h.mu.Lock()
	session := h.session
	favorite := h.favorite
	h.mu.Unlock()
	if !session.IsLoggedIn {
		h.emit("please log in to favorite products")
		return
	}

	var err error
	if favorite {
		err = h.favorites.Remove(ctx, session.LoggedInUserID, h.productID)
	} else {
		err = h.favorites.Add(ctx, session.LoggedInUserID, h.productID)
	}
	if err != nil {
		h.log.Warn("toggle favorite", "error", err)
		h.emit("could not update favorites")
	}
}

func (h *ProductDetailHolder) AddToCart(ctx context.Context) {
	h.mu.Lock()
	session := h.session
	product := h.product
	h.mu.Unlock()
	if product == nil {
		return
	}
	if !session.IsLoggedIn {
		h.emit("please log in to add products to your cart")
		return
	}
	if err := h.cart.AddProduct(ctx, session.LoggedInUserID, product.ID, 1); err != nil {
		h.log.Warn("add to cart", "error", err)
		h.emit("could not add " + product.Name + " to cart")
		return
	}
	h.emit(product.Name + " added to cart")
}
