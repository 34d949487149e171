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

var ErrAddressNotFound = errors.New("address not found")

type AddressRepository interface {
	ByUser(ctx context.Context, userID uuid.UUID) ([]model.Address, error)
	WatchByUser(ctx context.Context, userID uuid.UUID) <-chan []model.Address
	GetByID(ctx context.Context, id uuid.UUID) (*model.Address, error)
	Insert(ctx context.Context, address *model.Address) error
	Update(ctx context.Context, address *model.Address) error
	Delete(ctx context.Context, id uuid.UUID) error
	// SetDefault clears every default flag for the user, then sets the
	// target's. The two steps are sequential, not atomic; this client is
	// the only writer.
	SetDefault(ctx context.Context, userID, addressID uuid.UUID) error
}

type stoolapAddressRepo struct{ store *store.Store }

func NewAddressRepository(st *store.Store) AddressRepository {
	return &stoolapAddressRepo{store: st}
}

func (r *stoolapAddressRepo) ByUser(ctx context.Context, userID uuid.UUID) ([]model.Address, error) {
	rows, err := r.store.DB.QueryContext(ctx,
		`SELECT id, user_id, name, phone, address, is_default FROM addresses WHERE user_id = ? ORDER BY id ASC`,
		userID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var addresses []model.Address
	for rows.Next() {
		a, err := scanAddress(rows.Scan)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, *a)
	}
	return addresses, rows.Err()
}

func (r *stoolapAddressRepo) WatchByUser(ctx context.Context, userID uuid.UUID) <-chan []model.Address {
	query := func(ctx context.Context) ([]model.Address, error) {
		return r.ByUser(ctx, userID)
	}
	return watchQuery(ctx, r.store, query, store.EntityAddresses)
}

func (r *stoolapAddressRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Address, error) {
	row := r.store.DB.QueryRowContext(ctx,
		`SELECT id, user_id, name, phone, address, is_default FROM addresses WHERE id = ?`, id.String())
	a, err := scanAddress(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func (r *stoolapAddressRepo) Insert(ctx context.Context, address *model.Address) error {
	if address.ID == uuid.Nil {
		address.ID = uuid.New()
	}
	_, err := r.store.DB.ExecContext(ctx,
		`INSERT INTO addresses (id, user_id, name, phone, address, is_default) VALUES (?, ?, ?, ?, ?, ?)`,
		address.ID.String(), address.UserID.String(), address.Name, address.Phone, address.Address, address.IsDefault,
	)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	r.store.Notify(store.EntityAddresses)
	return nil
}

func (r *stoolapAddressRepo) Update(ctx context.Context, address *model.Address) error {
	_, err := r.store.DB.ExecContext(ctx,
		`UPDATE addresses SET name = ?, phone = ?, address = ?, is_default = ? WHERE id = ?`,
		address.Name, address.Phone, address.Address, address.IsDefault, address.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update address: %w", err)
	}
	r.store.Notify(store.EntityAddresses)
	return nil
}

func (r *stoolapAddressRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.store.DB.ExecContext(ctx, `DELETE FROM addresses WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	r.store.Notify(store.EntityAddresses)
	return nil
}

func (r *stoolapAddressRepo) SetDefault(ctx context.Context, userID, addressID uuid.UUID) error {
	target, err := r.GetByID(ctx, addressID)
	if err != nil {
		return err
	}
	if target == nil || target.UserID != userID {
		return ErrAddressNotFound
	}

	_, err = r.store.DB.ExecContext(ctx,
		`UPDATE addresses SET is_default = ? WHERE user_id = ?`, false, userID.String())
	if err != nil {
		return fmt.Errorf("clear default address: %w", err)
	}
	_, err = r.store.DB.ExecContext(ctx,
		`UPDATE addresses SET is_default = ? WHERE id = ?`, true, addressID.String())
	if err != nil {
		return fmt.Errorf("set default address: %w", err)
	}
	r.store.Notify(store.EntityAddresses)
	return nil
}

func scanAddress(scan scanFunc) (*model.Address, error) {
	var a model.Address
	var id, userID string
	err := scan(&id, &userID, &a.Name, &a.Phone, &a.Address, &a.IsDefault)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan address: %w", err)
	}
	if a.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse address id: %w", err)
	}
	if a.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("parse address user id: %w", err)
	}
	return &a, nil
}
