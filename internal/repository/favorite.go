package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/minieshop/go-shop-client/internal/model"
	"github.com/minieshop/go-shop-client/internal/store"
)

type FavoriteRepository interface {
	// Add is idempotent: favoriting twice keeps a single row.
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	IDsByUser(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error)
	WatchIDs(ctx context.Context, userID uuid.UUID) <-chan map[uuid.UUID]bool
	// WatchProducts streams the user's favorites resolved to product rows.
	WatchProducts(ctx context.Context, userID uuid.UUID) <-chan []model.Product
}

type stoolapFavoriteRepo struct {
	store    *store.Store
	products ProductRepository
}

func NewFavoriteRepository(st *store.Store, products ProductRepository) FavoriteRepository {
	return &stoolapFavoriteRepo{store: st, products: products}
}

func (r *stoolapFavoriteRepo) Add(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := r.store.DB.ExecContext(ctx,
		`INSERT INTO favorites (user_id, product_id) VALUES (?, ?)`,
		userID.String(), productID.String(),
	)
	if err != nil {
		if errors.Is(store.MapErr(err), store.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("add favorite: %w", err)
	}
	r.store.Notify(store.EntityFavorites)
	return nil
}

func (r *stoolapFavoriteRepo) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := r.store.DB.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND product_id = ?`,
		userID.String(), productID.String(),
	)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	r.store.Notify(store.EntityFavorites)
	return nil
}

func (r *stoolapFavoriteRepo) IDsByUser(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	rows, err := r.store.DB.QueryContext(ctx,
		`SELECT product_id FROM favorites WHERE user_id = ?`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	ids := make(map[uuid.UUID]bool)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse favorite product id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

func (r *stoolapFavoriteRepo) WatchIDs(ctx context.Context, userID uuid.UUID) <-chan map[uuid.UUID]bool {
	query := func(ctx context.Context) (map[uuid.UUID]bool, error) {
		return r.IDsByUser(ctx, userID)
	}
	return watchQuery(ctx, r.store, query, store.EntityFavorites)
}

func (r *stoolapFavoriteRepo) WatchProducts(ctx context.Context, userID uuid.UUID) <-chan []model.Product {
	query := func(ctx context.Context) ([]model.Product, error) {
		ids, err := r.IDsByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		all, err := r.products.All(ctx)
		if err != nil {
			return nil, err
		}
		favorites := make([]model.Product, 0, len(ids))
		for _, p := range all {
			if ids[p.ID] {
				favorites = append(favorites, p)
			}
		}
		return favorites, nil
	}
	return watchQuery(ctx, r.store, query, store.EntityFavorites, store.EntityProducts)
}
