package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/minieshop/go-shop-client/internal/model"
	"github.com/minieshop/go-shop-client/internal/store"
)

var ErrEmailTaken = errors.New("email already registered")

type UserRepository interface {
	// Register hashes the password and persists a new USER-role account.
	// A duplicate email surfaces as ErrEmailTaken.
	Register(ctx context.Context, name, email, password string) (*model.User, error)
	// Login returns the user only when the email exists and the password
	// matches its stored hash; otherwise (nil, nil).
	Login(ctx context.Context, email, password string) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type stoolapUserRepo struct {
	store      *store.Store
	bcryptCost int
}

func NewUserRepository(st *store.Store, bcryptCost int) UserRepository {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &stoolapUserRepo{store: st, bcryptCost: bcryptCost}
}

func (r *stoolapUserRepo) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	existing, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         model.RoleUser,
	}
	_, err = r.store.DB.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, name, role) VALUES (?, ?, ?, ?, ?)`,
		user.ID.String(), user.Email, user.PasswordHash, user.Name, user.Role,
	)
	if err != nil {
		if errors.Is(store.MapErr(err), store.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	r.store.Notify(store.EntityUsers)
	return user, nil
}

func (r *stoolapUserRepo) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil
	}
	return user, nil
}

func (r *stoolapUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	row := r.store.DB.QueryRowContext(ctx,
		`SELECT id, email, password_hash, name, role FROM users WHERE id = ?`, id.String(),
	)
	return scanUser(row)
}

func (r *stoolapUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.store.DB.QueryRowContext(ctx,
		`SELECT id, email, password_hash, name, role FROM users WHERE email = ?`, email,
	)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	var id string
	err := row.Scan(&id, &u.Email, &u.PasswordHash, &u.Name, &u.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	return &u, nil
}
