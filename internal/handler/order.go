package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/minieshop/go-shop-client/internal/dto"
	"github.com/minieshop/go-shop-client/internal/middleware"
	"github.com/minieshop/go-shop-client/internal/model"
	"github.com/minieshop/go-shop-client/internal/repository"
)

type OrderHandler struct {
	orders    repository.OrderRepository
	cart      repository.CartRepository
	products  repository.ProductRepository
	addresses repository.AddressRepository
}

func NewOrderHandler(orders repository.OrderRepository, cart repository.CartRepository, products repository.ProductRepository, addresses repository.AddressRepository) *OrderHandler {
	return &OrderHandler{orders: orders, cart: cart, products: products, addresses: addresses}
}

// Checkout places an order for the selected cart items and removes only those
// items from the cart afterwards.
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	address, err := h.addresses.GetByID(ctx, req.AddressID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if address == nil || address.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
		return
	}

	details, err := h.cart.ItemsByUser(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	wanted := make(map[uuid.UUID]bool, len(req.ItemIDs))
	for _, id := range req.ItemIDs {
		wanted[id] = true
	}
	selected := make([]model.CartItemDetail, 0, len(req.ItemIDs))
	for _, d := range details {
		if wanted[d.Item.ID] {
			selected = append(selected, d)
		}
	}
	if len(selected) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no items to order"})
		return
	}

	// Stock is reserved before the order row is written: an order is an
	// immutable financial record and must never exist for goods that were
	// not actually taken from stock.
	decremented := make([]model.CartItemDetail, 0, len(selected))
	for _, d := range selected {
		if err := h.products.DecrementStock(ctx, d.Product.ID, d.Item.Quantity); err != nil {
			h.restock(ctx, decremented)
			if errors.Is(err, repository.ErrInsufficientStock) {
				c.JSON(http.StatusConflict, gin.H{"error": "insufficient stock for " + d.Product.Name})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		decremented = append(decremented, d)
	}

	shipping := fmt.Sprintf("%s, %s, %s", address.Name, address.Phone, address.Address)
	order, err := h.orders.CreateFromCart(ctx, userID, selected, shipping)
	if err != nil {
		h.restock(ctx, decremented)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	for _, d := range selected {
		if err := h.cart.Remove(ctx, d.Item.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
	}

	c.JSON(http.StatusCreated, orderResponse(*order, nil))
}

func (h *OrderHandler) restock(ctx context.Context, items []model.CartItemDetail) {
	for _, d := range items {
		_ = h.products.RestoreStock(ctx, d.Product.ID, d.Item.Quantity)
	}
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.orders.OrdersByUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	resp := dto.OrderListResponse{Orders: make([]dto.OrderResponse, 0, len(orders))}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, orderResponse(o, nil))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	orders, err := h.orders.OrdersByUser(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	var order *model.Order
	for i := range orders {
		if orders[i].ID == orderID {
			order = &orders[i]
			break
		}
	}
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}

	items, err := h.orders.ItemsByOrder(ctx, orderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, orderResponse(*order, items))
}

func orderResponse(o model.Order, items []model.OrderItem) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:              o.ID,
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt,
	}
	for _, it := range items {
		resp.Items = append(resp.Items, dto.OrderItemResponse{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return resp
}
