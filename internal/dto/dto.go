package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minieshop/go-shop-client/internal/model"
)

// --- Auth ---

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  string    `json:"role"`
}

func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// --- Product ---

type SaveProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Brand       string          `json:"brand"`
	Category    string          `json:"category" binding:"required"`
	Origin      string          `json:"origin"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Stock       int             `json:"stock" binding:"min=0"`
	ImageURL    string          `json:"image_url"`
	Description string          `json:"description"`
}

type ListProductsRequest struct {
	Category string `form:"category"`
	Search   string `form:"search"`
	Sort     string `form:"sort" binding:"omitempty,oneof=price_asc price_desc name_asc"`
}

type ProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Brand       string          `json:"brand"`
	Category    string          `json:"category"`
	Origin      string          `json:"origin"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"image_url"`
	Description string          `json:"description"`
	Favorite    bool            `json:"favorite"`
}

func NewProductResponse(p model.Product, favorite bool) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Brand:       p.Brand,
		Category:    p.Category,
		Origin:      p.Origin,
		Price:       p.Price,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		Description: p.Description,
		Favorite:    favorite,
	}
}

type ProductListResponse struct {
	Products   []ProductResponse `json:"products"`
	Categories []string          `json:"categories"`
}

// --- Cart ---

type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

type CartItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func NewCartItemResponse(d model.CartItemDetail) CartItemResponse {
	return CartItemResponse{
		ID:        d.Item.ID,
		ProductID: d.Product.ID,
		Name:      d.Product.Name,
		ImageURL:  d.Product.ImageURL,
		Price:     d.Product.Price,
		Quantity:  d.Item.Quantity,
		Subtotal:  d.Subtotal(),
	}
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

// --- Checkout / Order ---

type CheckoutRequest struct {
	ItemIDs   []uuid.UUID `json:"item_ids" binding:"required,min=1"`
	AddressID uuid.UUID   `json:"address_id" binding:"required"`
}

type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	ShippingAddress string              `json:"shipping_address"`
	Items           []OrderItemResponse `json:"items,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

type OrderItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
}

// --- Address ---

type SaveAddressRequest struct {
	Name      string `json:"name" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
	Address   string `json:"address" binding:"required"`
	IsDefault bool   `json:"is_default"`
}

type AddressResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	IsDefault bool      `json:"is_default"`
}

func NewAddressResponse(a model.Address) AddressResponse {
	return AddressResponse{ID: a.ID, Name: a.Name, Phone: a.Phone, Address: a.Address, IsDefault: a.IsDefault}
}

// --- Settings ---

type SettingsResponse struct {
	NotificationsEnabled bool   `json:"notifications_enabled"`
	DarkModeEnabled      bool   `json:"dark_mode_enabled"`
	Language             string `json:"language"`
}

type UpdateSettingsRequest struct {
	NotificationsEnabled *bool   `json:"notifications_enabled"`
	DarkModeEnabled      *bool   `json:"dark_mode_enabled"`
	Language             *string `json:"language"`
}
