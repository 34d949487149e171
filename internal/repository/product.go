package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minieshop/go-shop-client/internal/model"
	"github.com/minieshop/go-shop-client/internal/store"
)

var ErrInsufficientStock = errors.New("insufficient stock")

type ProductRepository interface {
	All(ctx context.Context) ([]model.Product, error)
	// WatchAll streams the full catalog: once on subscribe, then after
	// every product mutation.
	WatchAll(ctx context.Context) <-chan []model.Product
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ByCategorySortedByPrice(ctx context.Context, category string) ([]model.Product, error)
	// Upsert inserts a product without an ID and updates one with.
	Upsert(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error
	// RestoreStock returns previously decremented units when an order
	// cannot be completed.
	RestoreStock(ctx context.Context, id uuid.UUID, quantity int) error
}

type stoolapProductRepo struct{ store *store.Store }

func NewProductRepository(st *store.Store) ProductRepository {
	return &stoolapProductRepo{store: st}
}

const productColumns = `id, name, brand, category, origin, price, stock, image_url, description`

func (r *stoolapProductRepo) All(ctx context.Context) ([]model.Product, error) {
	rows, err := r.store.DB.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return collectProducts(rows)
}

func (r *stoolapProductRepo) WatchAll(ctx context.Context) <-chan []model.Product {
	return watchQuery(ctx, r.store, r.All, store.EntityProducts)
}

func (r *stoolapProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	row := r.store.DB.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id.String())
	p, err := scanProduct(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *stoolapProductRepo) ByCategorySortedByPrice(ctx context.Context, category string) ([]model.Product, error) {
	rows, err := r.store.DB.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE category = ?`, category)
	if err != nil {
		return nil, fmt.Errorf("products by category: %w", err)
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}
	// price is a decimal string in the table, so a SQL ORDER BY would
	// compare it lexicographically.
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Price.LessThan(products[j].Price)
	})
	return products, nil
}

func (r *stoolapProductRepo) Upsert(ctx context.Context, product *model.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
		_, err := r.store.DB.ExecContext(ctx,
			`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			product.ID.String(), product.Name, product.Brand, product.Category, product.Origin,
			product.Price.String(), product.Stock, product.ImageURL, product.Description,
		)
		if err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		r.store.Notify(store.EntityProducts)
		return nil
	}

	res, err := r.store.DB.ExecContext(ctx,
		`UPDATE products SET name = ?, brand = ?, category = ?, origin = ?, price = ?, stock = ?, image_url = ?, description = ?
		 WHERE id = ?`,
		product.Name, product.Brand, product.Category, product.Origin,
		product.Price.String(), product.Stock, product.ImageURL, product.Description,
		product.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_, err := r.store.DB.ExecContext(ctx,
			`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			product.ID.String(), product.Name, product.Brand, product.Category, product.Origin,
			product.Price.String(), product.Stock, product.ImageURL, product.Description,
		)
		if err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
	}
	r.store.Notify(store.EntityProducts)
	return nil
}

func (r *stoolapProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.store.DB.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	r.store.Notify(store.EntityProducts)
	return nil
}

func (r *stoolapProductRepo) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	res, err := r.store.DB.ExecContext(ctx,
		`UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?`,
		quantity, id.String(), quantity,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w for product %s", ErrInsufficientStock, id)
	}
	r.store.Notify(store.EntityProducts)
	return nil
}

func (r *stoolapProductRepo) RestoreStock(ctx context.Context, id uuid.UUID, quantity int) error {
	_, err := r.store.DB.ExecContext(ctx,
		`UPDATE products SET stock = stock + ? WHERE id = ?`,
		quantity, id.String(),
	)
	if err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}
	r.store.Notify(store.EntityProducts)
	return nil
}

type scanFunc func(dest ...any) error

func scanProduct(scan scanFunc) (*model.Product, error) {
	var p model.Product
	var id, price string
	if err := scan(&id, &p.Name, &p.Brand, &p.Category, &p.Origin, &price, &p.Stock, &p.ImageURL, &p.Description); err != nil {
		return nil, err
	}
	var err error
	if p.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse product id: %w", err)
	}
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse product price: %w", err)
	}
	return &p, nil
}

func collectProducts(rows *sql.Rows) ([]model.Product, error) {
	defer rows.Close()
	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}
