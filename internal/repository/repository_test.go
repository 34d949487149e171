package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minieshop/go-shop-client/internal/model"
	"github.com/minieshop/go-shop-client/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, "file://"+filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(ctx))
	return st
}

func seedProduct(t *testing.T, repo ProductRepository, name, category string, price float64, stock int) model.Product {
	t.Helper()
	p := &model.Product{
		Name:     name,
		Category: category,
		Price:    decimal.NewFromFloat(price),
		Stock:    stock,
	}
	require.NoError(t, repo.Upsert(context.Background(), p))
	return *p
}

func TestUserRepo_RegisterAndLogin(t *testing.T) {
	st := newTestStore(t)
	repo := NewUserRepository(st, 4)
	ctx := context.Background()

	user, err := repo.Register(ctx, "Jane", "jane@example.com", "secret123")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	found, err := repo.Login(ctx, "jane@example.com", "secret123")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)

	wrong, err := repo.Login(ctx, "jane@example.com", "nope")
	require.NoError(t, err)
	assert.Nil(t, wrong)

	missing, err := repo.Login(ctx, "nobody@example.com", "secret123")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepo_DuplicateEmail(t *testing.T) {
	st := newTestStore(t)
	repo := NewUserRepository(st, 4)
	ctx := context.Background()

	_, err := repo.Register(ctx, "A", "dup@example.com", "pw123456")
	require.NoError(t, err)

	_, err = repo.Register(ctx, "B", "dup@example.com", "pw123456")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestProductRepo_UpsertAndGet(t *testing.T) {
	st := newTestStore(t)
	repo := NewProductRepository(st)
	ctx := context.Background()

	p := seedProduct(t, repo, "Runner", "Sneakers", 79.90, 5)
	assert.NotEqual(t, uuid.Nil, p.ID)

	found, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Runner", found.Name)
	assert.True(t, decimal.NewFromFloat(79.90).Equal(found.Price))

	p.Name = "Runner v2"
	require.NoError(t, repo.Upsert(ctx, &p))
	found, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Runner v2", found.Name)

	require.NoError(t, repo.Delete(ctx, p.ID))
	found, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestProductRepo_ByCategorySortedByPrice(t *testing.T) {
	st := newTestStore(t)
	repo := NewProductRepository(st)
	ctx := context.Background()

	// "100.00" < "9.99" and "200" < "50" as strings; the numeric order
	// must win.
	seedProduct(t, repo, "Expensive", "Boots", 200, 1)
	seedProduct(t, repo, "Cheap", "Boots", 50, 1)
	seedProduct(t, repo, "Premium", "Boots", 100, 1)
	seedProduct(t, repo, "Budget", "Boots", 9.99, 1)
	seedProduct(t, repo, "Other", "Sandals", 10, 1)

	boots, err := repo.ByCategorySortedByPrice(ctx, "Boots")
	require.NoError(t, err)
	require.Len(t, boots, 4)
	names := make([]string, 0, len(boots))
	for i, p := range boots {
		names = append(names, p.Name)
		if i > 0 {
			assert.False(t, p.Price.LessThan(boots[i-1].Price), "prices out of order: %v", boots)
		}
	}
	assert.Equal(t, []string{"Budget", "Cheap", "Premium", "Expensive"}, names)
}

func TestProductRepo_DecrementStock(t *testing.T) {
	st := newTestStore(t)
	repo := NewProductRepository(st)
	ctx := context.Background()

	p := seedProduct(t, repo, "Limited", "Sneakers", 10, 3)

	require.NoError(t, repo.DecrementStock(ctx, p.ID, 2))
	found, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, found.Stock)

	err = repo.DecrementStock(ctx, p.ID, 2)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Failed decrement leaves stock untouched.
	found, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, found.Stock)

	require.NoError(t, repo.RestoreStock(ctx, p.ID, 2))
	found, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, found.Stock)
}

func TestCartRepo_AddMergesQuantity(t *testing.T) {
	st := newTestStore(t)
	products := NewProductRepository(st)
	cart := NewCartRepository(st, products)
	ctx := context.Background()

	userID := uuid.New()
	p := seedProduct(t, products, "Shoe", "Sneakers", 30, 10)

	require.NoError(t, cart.AddProduct(ctx, userID, p.ID, 2))
	require.NoError(t, cart.AddProduct(ctx, userID, p.ID, 3))

	items, err := cart.ItemsByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Item.Quantity)
}

func TestCartRepo_AddRespectsStock(t *testing.T) {
	st := newTestStore(t)
	products := NewProductRepository(st)
	cart := NewCartRepository(st, products)
	ctx := context.Background()

	userID := uuid.New()
	p := seedProduct(t, products, "Scarce", "Sneakers", 30, 2)

	require.NoError(t, cart.AddProduct(ctx, userID, p.ID, 2))
	err := cart.AddProduct(ctx, userID, p.ID, 1)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	err = cart.AddProduct(ctx, userID, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCartRepo_QuantityZeroRemoves(t *testing.T) {
	st := newTestStore(t)
	products := NewProductRepository(st)
	cart := NewCartRepository(st, products)
	ctx := context.Background()

	userID := uuid.New()
	p := seedProduct(t, products, "Shoe", "Sneakers", 30, 10)
	require.NoError(t, cart.AddProduct(ctx, userID, p.ID, 2))

	items, err := cart.ItemsByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, cart.UpdateQuantity(ctx, items[0].Item.ID, 0))
	items, err = cart.ItemsByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartRepo_SkipsDeletedProducts(t *testing.T) {
	st := newTestStore(t)
	products := NewProductRepository(st)
	cart := NewCartRepository(st, products)
	ctx := context.Background()

	userID := uuid.New()
	p := seedProduct(t, products, "Gone", "Sneakers", 30, 10)
	require.NoError(t, cart.AddProduct(ctx, userID, p.ID, 1))
	require.NoError(t, products.Delete(ctx, p.ID))

	items, err := cart.ItemsByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestOrderRepo_CreateFromCart(t *testing.T) {
	st := newTestStore(t)
	products := NewProductRepository(st)
	cart := NewCartRepository(st, products)
	orders := NewOrderRepository(st)
	ctx := context.Background()

	userID := uuid.New()
	p1 := seedProduct(t, products, "A", "Sneakers", 10, 10)
	p2 := seedProduct(t, products, "B", "Sneakers", 25.50, 10)
	require.NoError(t, cart.AddProduct(ctx, userID, p1.ID, 2))
	require.NoError(t, cart.AddProduct(ctx, userID, p2.ID, 1))

	items, err := cart.ItemsByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	order, err := orders.CreateFromCart(ctx, userID, items, "Jane, 555, Main St 1")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.True(t, decimal.NewFromFloat(45.50).Equal(order.TotalAmount), "got %s", order.TotalAmount)
	assert.Equal(t, "Jane, 555, Main St 1", order.ShippingAddress)

	// Placing an order does not clear the cart by itself.
	items, err = cart.ItemsByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	orderItems, err := orders.ItemsByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, orderItems, 2)

	listed, err := orders.OrdersByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, order.ID, listed[0].ID)
}

func TestOrderRepo_EmptyCartIsNoOp(t *testing.T) {
	st := newTestStore(t)
	orders := NewOrderRepository(st)
	ctx := context.Background()

	userID := uuid.New()
	order, err := orders.CreateFromCart(ctx, userID, nil, "anywhere")
	require.NoError(t, err)
	assert.Nil(t, order)

	listed, err := orders.OrdersByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestOrderRepo_ItemsFreezeUnitPrice(t *testing.T) {
	st := newTestStore(t)
	products := NewProductRepository(st)
	cart := NewCartRepository(st, products)
	orders := NewOrderRepository(st)
	ctx := context.Background()

	userID := uuid.New()
	p := seedProduct(t, products, "Volatile", "Sneakers", 100, 10)
	require.NoError(t, cart.AddProduct(ctx, userID, p.ID, 1))

	items, err := cart.ItemsByUser(ctx, userID)
	require.NoError(t, err)
	order, err := orders.CreateFromCart(ctx, userID, items, "x")
	require.NoError(t, err)

	p.Price = decimal.NewFromInt(999)
	require.NoError(t, products.Upsert(ctx, &p))

	orderItems, err := orders.ItemsByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, orderItems, 1)
	assert.True(t, decimal.NewFromInt(100).Equal(orderItems[0].UnitPrice))
}

func TestAddressRepo_SetDefaultIsExclusive(t *testing.T) {
	st := newTestStore(t)
	repo := NewAddressRepository(st)
	ctx := context.Background()

	userID := uuid.New()
	a := &model.Address{UserID: userID, Name: "Home", Phone: "1", Address: "Street 1"}
	b := &model.Address{UserID: userID, Name: "Work", Phone: "2", Address: "Street 2"}
	require.NoError(t, repo.Insert(ctx, a))
	require.NoError(t, repo.Insert(ctx, b))

	require.NoError(t, repo.SetDefault(ctx, userID, a.ID))
	require.NoError(t, repo.SetDefault(ctx, userID, b.ID))

	addresses, err := repo.ByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, addresses, 2)

	defaults := 0
	for _, addr := range addresses {
		if addr.IsDefault {
			defaults++
			assert.Equal(t, b.ID, addr.ID)
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestAddressRepo_SetDefaultChecksOwnership(t *testing.T) {
	st := newTestStore(t)
	repo := NewAddressRepository(st)
	ctx := context.Background()

	owner := uuid.New()
	a := &model.Address{UserID: owner, Name: "Home", Phone: "1", Address: "Street 1"}
	require.NoError(t, repo.Insert(ctx, a))

	err := repo.SetDefault(ctx, uuid.New(), a.ID)
	assert.ErrorIs(t, err, ErrAddressNotFound)

	err = repo.SetDefault(ctx, owner, uuid.New())
	assert.ErrorIs(t, err, ErrAddressNotFound)
}

func TestFavoriteRepo_AddIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	products := NewProductRepository(st)
	favorites := NewFavoriteRepository(st, products)
	ctx := context.Background()

	userID := uuid.New()
	p := seedProduct(t, products, "Liked", "Sneakers", 10, 1)

	require.NoError(t, favorites.Add(ctx, userID, p.ID))
	require.NoError(t, favorites.Add(ctx, userID, p.ID))

	ids, err := favorites.IDsByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
	assert.True(t, ids[p.ID])

	require.NoError(t, favorites.Remove(ctx, userID, p.ID))
	ids, err = favorites.IDsByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestWatchItems_EmitsOnChange(t *testing.T) {
	st := newTestStore(t)
	products := NewProductRepository(st)
	cart := NewCartRepository(st, products)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	userID := uuid.New()
	p := seedProduct(t, products, "Watched", "Sneakers", 10, 10)

	ch := cart.WatchItems(ctx, userID)

	// First emission is the current (empty) cart.
	first := <-ch
	assert.Empty(t, first)

	require.NoError(t, cart.AddProduct(ctx, userID, p.ID, 1))

	for items := range ch {
		if len(items) == 1 {
			assert.Equal(t, 1, items[0].Item.Quantity)
			return
		}
	}
	t.Fatal("watch channel closed before emitting the added item")
}
