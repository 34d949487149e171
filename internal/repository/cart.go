package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/minieshop/go-shop-client/internal/model"
	"github.com/minieshop/go-shop-client/internal/store"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCartItemNotFound = errors.New("cart item not found")
)

type CartRepository interface {
	ItemsByUser(ctx context.Context, userID uuid.UUID) ([]model.CartItemDetail, error)
	// WatchItems re-emits on cart mutations and on product changes, since
	// the rendered rows carry product price and stock.
	WatchItems(ctx context.Context, userID uuid.UUID) <-chan []model.CartItemDetail
	// AddProduct merges into an existing (user, product) row instead of
	// inserting a duplicate. The merged quantity may not exceed stock.
	AddProduct(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	// UpdateQuantity sets the quantity; zero or less removes the row.
	UpdateQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	Remove(ctx context.Context, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type stoolapCartRepo struct {
	store    *store.Store
	products ProductRepository
}

func NewCartRepository(st *store.Store, products ProductRepository) CartRepository {
	return &stoolapCartRepo{store: st, products: products}
}

func (r *stoolapCartRepo) ItemsByUser(ctx context.Context, userID uuid.UUID) ([]model.CartItemDetail, error) {
	rows, err := r.store.DB.QueryContext(ctx,
		`SELECT id, user_id, product_id, quantity FROM cart_items WHERE user_id = ? ORDER BY id ASC`,
		userID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	items, err := collectCartItems(rows)
	if err != nil {
		return nil, err
	}

	details := make([]model.CartItemDetail, 0, len(items))
	for _, item := range items {
		product, err := r.products.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("resolve cart product: %w", err)
		}
		if product == nil {
			// Product was deleted out from under the cart row; skip it.
			continue
		}
		details = append(details, model.CartItemDetail{Item: item, Product: *product})
	}
	return details, nil
}

func (r *stoolapCartRepo) WatchItems(ctx context.Context, userID uuid.UUID) <-chan []model.CartItemDetail {
	query := func(ctx context.Context) ([]model.CartItemDetail, error) {
		return r.ItemsByUser(ctx, userID)
	}
	return watchQuery(ctx, r.store, query, store.EntityCartItems, store.EntityProducts)
}

func (r *stoolapCartRepo) AddProduct(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	product, err := r.products.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}

	existing, err := r.itemByUserProduct(ctx, userID, productID)
	if err != nil {
		return err
	}

	newQuantity := quantity
	if existing != nil {
		newQuantity += existing.Quantity
	}
	if newQuantity > product.Stock {
		return fmt.Errorf("%w for product %s", ErrInsufficientStock, productID)
	}

	if existing != nil {
		_, err = r.store.DB.ExecContext(ctx,
			`UPDATE cart_items SET quantity = ? WHERE id = ?`,
			newQuantity, existing.ID.String(),
		)
		if err != nil {
			return fmt.Errorf("merge cart item: %w", err)
		}
	} else {
		_, err = r.store.DB.ExecContext(ctx,
			`INSERT INTO cart_items (id, user_id, product_id, quantity) VALUES (?, ?, ?, ?)`,
			uuid.New().String(), userID.String(), productID.String(), newQuantity,
		)
		if err != nil {
			return fmt.Errorf("add cart item: %w", err)
		}
	}
	r.store.Notify(store.EntityCartItems)
	return nil
}

func (r *stoolapCartRepo) UpdateQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return r.Remove(ctx, itemID)
	}

	item, err := r.itemByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrCartItemNotFound
	}
	product, err := r.products.GetByID(ctx, item.ProductID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product != nil && quantity > product.Stock {
		return fmt.Errorf("%w for product %s", ErrInsufficientStock, item.ProductID)
	}

	_, err = r.store.DB.ExecContext(ctx,
		`UPDATE cart_items SET quantity = ? WHERE id = ?`, quantity, itemID.String())
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	r.store.Notify(store.EntityCartItems)
	return nil
}

func (r *stoolapCartRepo) Remove(ctx context.Context, itemID uuid.UUID) error {
	_, err := r.store.DB.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ?`, itemID.String())
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	r.store.Notify(store.EntityCartItems)
	return nil
}

func (r *stoolapCartRepo) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := r.store.DB.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ?`, userID.String())
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	r.store.Notify(store.EntityCartItems)
	return nil
}

func (r *stoolapCartRepo) itemByID(ctx context.Context, itemID uuid.UUID) (*model.CartItem, error) {
	row := r.store.DB.QueryRowContext(ctx,
		`SELECT id, user_id, product_id, quantity FROM cart_items WHERE id = ?`, itemID.String())
	return scanCartItem(row.Scan)
}

func (r *stoolapCartRepo) itemByUserProduct(ctx context.Context, userID, productID uuid.UUID) (*model.CartItem, error) {
	row := r.store.DB.QueryRowContext(ctx,
		`SELECT id, user_id, product_id, quantity FROM cart_items WHERE user_id = ? AND product_id = ?`,
		userID.String(), productID.String())
	return scanCartItem(row.Scan)
}

func scanCartItem(scan scanFunc) (*model.CartItem, error) {
	var item model.CartItem
	var id, userID, productID string
	err := scan(&id, &userID, &productID, &item.Quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan cart item: %w", err)
	}
	if item.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse cart item id: %w", err)
	}
	if item.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("parse cart user id: %w", err)
	}
	if item.ProductID, err = uuid.Parse(productID); err != nil {
		return nil, fmt.Errorf("parse cart product id: %w", err)
	}
	return &item, nil
}

func collectCartItems(rows *sql.Rows) ([]model.CartItem, error) {
	defer rows.Close()
	var items []model.CartItem
	for rows.Next() {
		item, err := scanCartItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}
