package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Name         string
	Role         string
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

type Product struct {
	ID          uuid.UUID
	Name        string
	Brand       string
	Category    string
	Origin      string
	Price       decimal.Decimal
	Stock       int
	ImageURL    string
	Description string
}

type CartItem struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
}

// CartItemDetail pairs a cart row with the product it references, the shape
// the cart and checkout screens render from.
type CartItemDetail struct {
	Item    CartItem
	Product Product
}

func (d CartItemDetail) Subtotal() decimal.Decimal {
	return d.Product.Price.Mul(decimal.NewFromInt(int64(d.Item.Quantity)))
}

type Address struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Phone     string
	Address   string
	IsDefault bool
}

type Order struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	TotalAmount     decimal.Decimal
	ShippingAddress string
	CreatedAt       time.Time
}

// OrderItem freezes unit price and quantity at purchase time. Later product
// changes must not affect it.
type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}
