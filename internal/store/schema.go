package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT,
		password_hash TEXT,
		name TEXT,
		role TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT,
		brand TEXT,
		category TEXT,
		origin TEXT,
		price TEXT,
		stock INTEGER,
		image_url TEXT,
		description TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		product_id TEXT,
		quantity INTEGER
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_items_user_product ON cart_items(user_id, product_id)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		total_amount TEXT,
		shipping_address TEXT,
		created_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id TEXT PRIMARY KEY,
		order_id TEXT,
		product_id TEXT,
		quantity INTEGER,
		unit_price TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS addresses (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		name TEXT,
		phone TEXT,
		address TEXT,
		is_default BOOLEAN
	)`,
	`CREATE TABLE IF NOT EXISTS favorites (
		user_id TEXT,
		product_id TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_favorites_user_product ON favorites(user_id, product_id)`,
}

// Migrate applies the schema. Every statement is idempotent, so it is safe
// to run on every boot.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

type seedProduct struct {
	name, brand, category, origin, price, imageURL, description string
	stock                                                       int
}

var seedCatalog = []seedProduct{
	{"Air Zoom Pegasus 41", "Nike", "Running", "Vietnam", "129.99", "/img/pegasus-41.jpg", "Responsive daily trainer with a full-length air unit.", 40},
	{"Ultraboost Light", "Adidas", "Running", "Germany", "179.99", "/img/ultraboost-light.jpg", "Boost midsole in its lightest form to date.", 25},
	{"Classic Leather", "Reebok", "Lifestyle", "UK", "89.99", "/img/classic-leather.jpg", "Soft leather upper, timeless silhouette.", 60},
	{"Chuck 70 High Top", "Converse", "Lifestyle", "USA", "84.99", "/img/chuck-70.jpg", "Premium canvas build of the original Chuck.", 55},
	{"Gel-Kayano 31", "Asics", "Running", "Japan", "164.99", "/img/gel-kayano-31.jpg", "Max-stability cruiser for long miles.", 18},
	{"Old Skool", "Vans", "Skate", "USA", "69.99", "/img/old-skool.jpg", "The original side-stripe skate shoe.", 70},
}

// Seed inserts the sample catalog and a bootstrap admin account on an empty
// store. Repeated calls are no-ops.
func (s *Store) Seed(ctx context.Context, bcryptCost int) error {
	var count int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, p := range seedCatalog {
		_, err := s.DB.ExecContext(ctx,
			`INSERT INTO products (id, name, brand, category, origin, price, stock, image_url, description)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), p.name, p.brand, p.category, p.origin, p.price, p.stock, p.imageURL, p.description,
		)
		if err != nil {
			return fmt.Errorf("seed product %q: %w", p.name, err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, name, role) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), "admin@shop.local", string(hash), "Administrator", "ADMIN",
	)
	if err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}

	s.Notify(EntityProducts, EntityUsers)
	return nil
}
