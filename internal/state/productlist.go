package state

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/minieshop/go-shop-client/internal/model"
	"github.com/minieshop/go-shop-client/internal/prefs"
	"github.com/minieshop/go-shop-client/internal/repository"
)

type SortOrder int

const (
	SortNone SortOrder = iota
	SortPriceAsc
	SortPriceDesc
	SortNameAsc
)

// CategoryAll is the pseudo-category meaning "no category filter".
const CategoryAll = "All"

type ProductListState struct {
	Phase      Phase
	Products   []model.Product
	Categories []string
	Favorites  map[uuid.UUID]bool
	Err        string
}

// ProductListHolder combines the catalog stream, the session's favorite ids,
// and the local search/filter/sort inputs into one derived list. Every input
// change triggers a full recompute; the lists involved are small.
type ProductListHolder struct {
	products  repository.ProductRepository
	favorites repository.FavoriteRepository
	cart      repository.CartRepository
	prefs     *prefs.Store
	log       *slog.Logger

	state *value[ProductListState]
	events

	mu        sync.Mutex
	query     string
	category  string
	sortOrder SortOrder
	all       []model.Product
	loaded    bool
	favIDs    map[uuid.UUID]bool
	session   prefs.Session
	recompute chan struct{}
}

func NewProductListHolder(
	products repository.ProductRepository,
	favorites repository.FavoriteRepository,
	cart repository.CartRepository,
	pf *prefs.Store,
	log *slog.Logger,
) *ProductListHolder {
	return &ProductListHolder{
		products:  products,
		favorites: favorites,
		cart:      cart,
		prefs:     pf,
		log:       log,
		state:     newValue(ProductListState{Phase: PhaseLoading}),
		events:    newEvents(),
		favIDs:    map[uuid.UUID]bool{},
		recompute: make(chan struct{}, 1),
	}
}

func (h *ProductListHolder) Run(ctx context.Context) {
	go h.loop(ctx)
}

func (h *ProductListHolder) loop(ctx context.Context) {
	productCh := h.products.WatchAll(ctx)
	prefsCh := h.prefs.Watch(ctx)

	// The favorite stream follows the session: it is resubscribed for the
	// session's user and dropped on logout.
	var favCh <-chan map[uuid.UUID]bool
	var favCancel context.CancelFunc
	defer func() {
		if favCancel != nil {
			favCancel()
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
			h.all = products
			h.loaded = true
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
			if favCancel != nil {
				favCancel()
				favCancel = nil
				favCh = nil
			}
			if snap.IsLoggedIn {
				var favCtx context.Context
				favCtx, favCancel = context.WithCancel(ctx)
				favCh = h.favorites.WatchIDs(favCtx, snap.LoggedInUserID)
			} else {
				h.mu.Lock()
				h.favIDs = map[uuid.UUID]bool{}
				h.mu.Unlock()
				h.apply()
			}
		case ids, ok := <-favCh:
			if !ok {
				favCh = nil
				continue
			}
			h.mu.Lock()
			h.favIDs = ids
			h.mu.Unlock()
			h.apply()
		case <-h.recompute:
			h.apply()
		}
	}
}

func (h *ProductListHolder) apply() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.loaded {
		return
	}

	categories := []string{CategoryAll}
	seen := map[string]bool{}
	for _, p := range h.all {
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}

	filtered := make([]model.Product, 0, len(h.all))
	for _, p := range h.all {
		if h.category != "" && h.category != CategoryAll && p.Category != h.category {
			continue
		}
		if h.query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(h.query)) {
			continue
		}
		filtered = append(filtered, p)
	}

	switch h.sortOrder {
	case SortPriceAsc:
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Price.LessThan(filtered[j].Price) })
	case SortPriceDesc:
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[j].Price.LessThan(filtered[i].Price) })
	case SortNameAsc:
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Name < filtered[j].Name })
	}

	favorites := make(map[uuid.UUID]bool, len(filtered))
	for _, p := range filtered {
		favorites[p.ID] = h.favIDs[p.ID]
	}

	phase := PhaseSuccess
	if len(filtered) == 0 {
		phase = PhaseEmpty
	}
	h.state.set(ProductListState{
		Phase:      phase,
		Products:   filtered,
		Categories: categories,
		Favorites:  favorites,
	})
}

func (h *ProductListHolder) State() ProductListState { return h.state.get() }
func (h *ProductListHolder) Watch(ctx context.Context) <-chan ProductListState {
	return h.state.watch(ctx)
}

func (h *ProductListHolder) SetQuery(query string) {
	h.mu.Lock()
	h.query = query
	h.mu.Unlock()
	poke(h.recompute)
}

func (h *ProductListHolder) SetCategory(category string) {
	h.mu.Lock()
	h.category = category
	h.mu.Unlock()
	poke(h.recompute)
}

func (h *ProductListHolder) SetSort(order SortOrder) {
	h.mu.Lock()
	h.sortOrder = order
	h.mu.Unlock()
	poke(h.recompute)
}

// Delete removes a product from the catalog. Admin screens only.
func (h *ProductListHolder) Delete(ctx context.Context, productID uuid.UUID) {
	if err := h.products.Delete(ctx, productID); err != nil {
		h.log.Warn("delete product", "error", err)
		h.emit("could not delete product")
		return
	}
	h.emit("product deleted")
}

func (h *ProductListHolder) AddToCart(ctx context.Context, product model.Product) {
	session := h.currentSession()
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

func (h *ProductListHolder) ToggleFavorite(ctx context.Context, product model.Product) {
	session := h.currentSession()
	if !session.IsLoggedIn {
		h.emit("please log in to favorite products")
		return
	}
	h.mu.Lock()
	isFavorite := h.favIDs[product.ID]
	h.mu.Unlock()

	var err error
	if isFavorite {
		err = h.favorites.Remove(ctx, session.LoggedInUserID, product.ID)
	} else {
		err = h.favorites.Add(ctx, session.LoggedInUserID, product.ID)
	}
	if err != nil {
		h.log.Warn("toggle favorite", "error", err)
		h.emit("could not update favorites")
	}
}

func (h *ProductListHolder) currentSession() prefs.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.session
}
