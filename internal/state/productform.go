package state

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minieshop/go-shop-client/internal/model"
	"github.com/minieshop/go-shop-client/internal/repository"
)

type ProductFormStatus int

const (
	FormEditing ProductFormStatus = iota
	FormSaving
	FormSaved
	FormFailed
)

// ProductFormState keeps the raw field text; numeric validation happens at
// submit so partially-typed input never errors.
type ProductFormState struct {
	ID          uuid.UUID
	Name        string
	Brand       string
	Category    string
	Origin      string
	Price       string
	Stock       string
	ImageURL    string
	Description string
	Status      ProductFormStatus
	Err         string
}

// ProductFormHolder backs the admin add/edit-product screen.
type ProductFormHolder struct {
	products repository.ProductRepository
	log      *slog.Logger

	mu    sync.Mutex
	state *value[ProductFormState]
}

func NewProductFormHolder(products repository.ProductRepository, log *slog.Logger) *ProductFormHolder {
	return &ProductFormHolder{products: products, log: log, state: newValue(ProductFormState{})}
}

// Load fills the form from an existing product for editing.
func (h *ProductFormHolder) Load(ctx context.Context, productID uuid.UUID) error {
	product, err := h.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		h.mutate(func(s *ProductFormState) { s.Status = FormFailed; s.Err = "product not found" })
		return nil
	}
	h.mutate(func(s *ProductFormState) {
		*s = ProductFormState{
			ID:          product.ID,
			Name:        product.Name,
			Brand:       product.Brand,
			Category:    product.Category,
			Origin:      product.Origin,
			Price:       product.Price.String(),
			Stock:       strconv.Itoa(product.Stock),
			ImageURL:    product.ImageURL,
			Description: product.Description,
		}
	})
	return nil
}

func (h *ProductFormHolder) State() ProductFormState { return h.state.get() }
func (h *ProductFormHolder) Watch(ctx context.Context) <-chan ProductFormState {
	return h.state.watch(ctx)
}

func (h *ProductFormHolder) SetName(v string)  { h.mutate(func(s *ProductFormState) { s.Name = v }) }
func (h *ProductFormHolder) SetBrand(v string) { h.mutate(func(s *ProductFormState) { s.Brand = v }) }
func (h *ProductFormHolder) SetCategory(v string) {
	h.mutate(func(s *ProductFormState) { s.Category = v })
}
func (h *ProductFormHolder) SetOrigin(v string) { h.mutate(func(s *ProductFormState) { s.Origin = v }) }
func (h *ProductFormHolder) SetPrice(v string)  { h.mutate(func(s *ProductFormState) { s.Price = v }) }
func (h *ProductFormHolder) SetStock(v string)  { h.mutate(func(s *ProductFormState) { s.Stock = v }) }
func (h *ProductFormHolder) SetImageURL(v string) {
	h.mutate(func(s *ProductFormState) { s.ImageURL = v })
}
func (h *ProductFormHolder) SetDescription(v string) {
	h.mutate(func(s *ProductFormState) { s.Description = v })
}

// Submit validates the fields and upserts the product. Validation failures
// stay inside the form state; no write is attempted.
func (h *ProductFormHolder) Submit(ctx context.Context) {
	cur := h.state.get()

	if strings.TrimSpace(cur.Name) == "" || strings.TrimSpace(cur.Category) == "" {
		h.mutate(func(s *ProductFormState) { s.Status = FormFailed; s.Err = "name and category are required" })
		return
	}
	price, err := decimal.NewFromString(strings.TrimSpace(cur.Price))
	if err != nil || price.IsNegative() {
		h.mutate(func(s *ProductFormState) { s.Status = FormFailed; s.Err = "price must be a non-negative number" })
		return
	}
	stock, err := strconv.Atoi(strings.TrimSpace(cur.Stock))
	if err != nil || stock < 0 {
		h.mutate(func(s *ProductFormState) { s.Status = FormFailed; s.Err = "stock must be a non-negative integer" })
		return
	}

	h.mutate(func(s *ProductFormState) { s.Status = FormSaving; s.Err = "" })

	product := &model.Product{
		ID:          cur.ID,
		Name:        strings.TrimSpace(cur.Name),
		Brand:       strings.TrimSpace(cur.Brand),
		Category:    strings.TrimSpace(cur.Category),
		Origin:      strings.TrimSpace(cur.Origin),
		Price:       price,
		Stock:       stock,
		ImageURL:    strings.TrimSpace(cur.ImageURL),
		Description: cur.Description,
	}
	if err := h.products.Upsert(ctx, product); err != nil {
		h.log.Warn("save product", "error", err)
		h.mutate(func(s *ProductFormState) { s.Status = FormFailed; s.Err = "could not save product" })
		return
	}
	h.mutate(func(s *ProductFormState) { s.ID = product.ID; s.Status = FormSaved })
}

func (h *ProductFormHolder) mutate(f func(*ProductFormState)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.state.get()
	f(&s)
	h.state.set(s)
}
