package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minieshop/go-shop-client/internal/model"
	"github.com/minieshop/go-shop-client/internal/store"
)

type OrderRepository interface {
	// CreateFromCart snapshots the given cart rows into an order: total is
	// computed at submit time and each item freezes its unit price and
	// quantity. An empty item list writes nothing and returns (nil, nil).
	// Clearing the cart is the caller's responsibility.
	CreateFromCart(ctx context.Context, userID uuid.UUID, items []model.CartItemDetail, shippingAddress string) (*model.Order, error)
	OrdersByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	WatchOrders(ctx context.Context, userID uuid.UUID) <-chan []model.Order
	ItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error)
}

type stoolapOrderRepo struct{ store *store.Store }

func NewOrderRepository(st *store.Store) OrderRepository {
	return &stoolapOrderRepo{store: st}
}

func (r *stoolapOrderRepo) CreateFromCart(ctx context.Context, userID uuid.UUID, items []model.CartItemDetail, shippingAddress string) (*model.Order, error) {
	if len(items) == 0 {
		return nil, nil
	}

	total := decimal.Zero
	for _, d := range items {
		total = total.Add(d.Subtotal())
	}

	order := &model.Order{
		ID:              uuid.New(),
		UserID:          userID,
		TotalAmount:     total,
		ShippingAddress: shippingAddress,
		CreatedAt:       time.Now().UTC(),
	}
	_, err := r.store.DB.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, total_amount, shipping_address, created_at) VALUES (?, ?, ?, ?, ?)`,
		order.ID.String(), userID.String(), total.String(), shippingAddress, order.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for _, d := range items {
		_, err := r.store.DB.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, product_id, quantity, unit_price) VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), order.ID.String(), d.Product.ID.String(), d.Item.Quantity, d.Product.Price.String(),
		)
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	r.store.Notify(store.EntityOrders)
	return order, nil
}

func (r *stoolapOrderRepo) OrdersByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	rows, err := r.store.DB.QueryContext(ctx,
		`SELECT id, user_id, total_amount, shipping_address, created_at FROM orders
		 WHERE user_id = ? ORDER BY created_at DESC`,
		userID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		var id, uid, total string
		if err := rows.Scan(&id, &uid, &total, &o.ShippingAddress, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if o.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse order id: %w", err)
		}
		if o.UserID, err = uuid.Parse(uid); err != nil {
			return nil, fmt.Errorf("parse order user id: %w", err)
		}
		if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("parse order total: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *stoolapOrderRepo) WatchOrders(ctx context.Context, userID uuid.UUID) <-chan []model.Order {
	query := func(ctx context.Context) ([]model.Order, error) {
		return r.OrdersByUser(ctx, userID)
	}
	return watchQuery(ctx, r.store, query, store.EntityOrders)
}

func (r *stoolapOrderRepo) ItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	rows, err := r.store.DB.QueryContext(ctx,
		`SELECT id, order_id, product_id, quantity, unit_price FROM order_items WHERE order_id = ?`,
		orderID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		item, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func scanOrderItem(rows *sql.Rows) (*model.OrderItem, error) {
	var item model.OrderItem
	var id, orderID, productID, price string
	err := rows.Scan(&id, &orderID, &productID, &item.Quantity, &price)
	if err != nil {
		return nil, fmt.Errorf("scan order item: %w", err)
	}
	if item.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse order item id: %w", err)
	}
	if item.OrderID, err = uuid.Parse(orderID); err != nil {
		return nil, fmt.Errorf("parse order item order id: %w", err)
	}
	if item.ProductID, err = uuid.Parse(productID); err != nil {
		return nil, fmt.Errorf("parse order item product id: %w", err)
	}
	if item.UnitPrice, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse order item price: %w", err)
	}
	return &item, nil
}
