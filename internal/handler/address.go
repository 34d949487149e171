package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/minieshop/go-shop-client/internal/dto"
	"github.com/minieshop/go-shop-client/internal/middleware"
	"github.com/minieshop/go-shop-client/internal/model"
	"github.com/minieshop/go-shop-client/internal/repository"
)

type AddressHandler struct {
	addresses repository.AddressRepository
}

func NewAddressHandler(addresses repository.AddressRepository) *AddressHandler {
	return &AddressHandler{addresses: addresses}
}

func (h *AddressHandler) List(c *gin.Context) {
	addresses, err := h.addresses.ByUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	resp := make([]dto.AddressResponse, 0, len(addresses))
	for _, a := range addresses {
		resp = append(resp, dto.NewAddressResponse(a))
	}
	c.JSON(http.StatusOK, gin.H{"addresses": resp})
}

func (h *AddressHandler) Create(c *gin.Context) {
	var req dto.SaveAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	address := &model.Address{
		UserID:  userID,
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	}
	if err := h.addresses.Insert(ctx, address); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if req.IsDefault {
		if err := h.addresses.SetDefault(ctx, userID, address.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		address.IsDefault = true
	}
	c.JSON(http.StatusCreated, dto.NewAddressResponse(*address))
}

func (h *AddressHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address ID"})
		return
	}
	var req dto.SaveAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	existing, err := h.addresses.GetByID(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if existing == nil || existing.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
		return
	}

	existing.Name = req.Name
	existing.Phone = req.Phone
	existing.Address = req.Address
	if err := h.addresses.Update(ctx, existing); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if req.IsDefault && !existing.IsDefault {
		if err := h.addresses.SetDefault(ctx, userID, existing.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		existing.IsDefault = true
	}
	c.JSON(http.StatusOK, dto.NewAddressResponse(*existing))
}

func (h *AddressHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address ID"})
		return
	}

	existing, err := h.addresses.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if existing == nil || existing.UserID != middleware.GetUserID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
		return
	}

	if err := h.addresses.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AddressHandler) SetDefault(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address ID"})
		return
	}

	if err := h.addresses.SetDefault(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		if errors.Is(err, repository.ErrAddressNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "default address updated"})
}
