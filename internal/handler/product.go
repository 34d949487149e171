package handler

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/minieshop/go-shop-client/internal/dto"
	"github.com/minieshop/go-shop-client/internal/middleware"
	"github.com/minieshop/go-shop-client/internal/model"
	"github.com/minieshop/go-shop-client/internal/prefs"
	"github.com/minieshop/go-shop-client/internal/repository"
)

type ProductHandler struct {
	products  repository.ProductRepository
	favorites repository.FavoriteRepository
	sessions  *prefs.Store
}

func NewProductHandler(products repository.ProductRepository, favorites repository.FavoriteRepository, sessions *prefs.Store) *ProductHandler {
	return &ProductHandler{products: products, favorites: favorites, sessions: sessions}
}

func (h *ProductHandler) List(c *gin.Context) {
	var req dto.ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	products, err := h.products.All(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	categories := categoriesOf(products)
	products = filterProducts(products, req.Category, req.Search)
	sortProducts(products, req.Sort)

	favs := h.favoriteIDs(c)
	resp := dto.ProductListResponse{Products: make([]dto.ProductResponse, 0, len(products)), Categories: categories}
	for _, p := range products {
		resp.Products = append(resp.Products, dto.NewProductResponse(p, favs[p.ID]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	product, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if product == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}

	c.JSON(http.StatusOK, dto.NewProductResponse(*product, h.favoriteIDs(c)[product.ID]))
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.SaveProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product := productFromRequest(req, uuid.Nil)
	if err := h.products.Upsert(c.Request.Context(), product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, dto.NewProductResponse(*product, false))
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	var req dto.SaveProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}

	product := productFromRequest(req, id)
	if err := h.products.Upsert(c.Request.Context(), product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, dto.NewProductResponse(*product, false))
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) AddFavorite(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}
	if err := h.favorites.Add(c.Request.Context(), h.sessionUserID(c), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "added to favorites"})
}

func (h *ProductHandler) RemoveFavorite(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}
	if err := h.favorites.Remove(c.Request.Context(), h.sessionUserID(c), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) ListFavorites(c *gin.Context) {
	userID := h.sessionUserID(c)
	ids, err := h.favorites.IDsByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	products, err := h.products.All(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	resp := make([]dto.ProductResponse, 0, len(ids))
	for _, p := range products {
		if ids[p.ID] {
			resp = append(resp, dto.NewProductResponse(p, true))
		}
	}
	c.JSON(http.StatusOK, gin.H{"products": resp})
}

// sessionUserID prefers the middleware-resolved id, falling back to the
// persisted session for routes mounted without the middleware.
func (h *ProductHandler) sessionUserID(c *gin.Context) uuid.UUID {
	if id := middleware.GetUserID(c); id != uuid.Nil {
		return id
	}
	return h.sessions.Current().LoggedInUserID
}

func (h *ProductHandler) favoriteIDs(c *gin.Context) map[uuid.UUID]bool {
	userID := h.sessionUserID(c)
	if userID == uuid.Nil {
		return nil
	}
	ids, err := h.favorites.IDsByUser(c.Request.Context(), userID)
	if err != nil {
		return nil
	}
	return ids
}

func categoriesOf(products []model.Product) []string {
	seen := make(map[string]bool)
	var categories []string
	for _, p := range products {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	sort.Strings(categories)
	return categories
}

func filterProducts(products []model.Product, category, search string) []model.Product {
	search = strings.ToLower(strings.TrimSpace(search))
	out := products[:0]
	for _, p := range products {
		if category != "" && p.Category != category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func sortProducts(products []model.Product, order string) {
	switch order {
	case "price_asc":
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price.LessThan(products[j].Price) })
	case "price_desc":
		sort.SliceStable(products, func(i, j int) bool { return products[j].Price.LessThan(products[i].Price) })
	case "name_asc":
		sort.SliceStable(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	}
}

func productFromRequest(req dto.SaveProductRequest, id uuid.UUID) *model.Product {
	return &model.Product{
		ID:          id,
		Name:        req.Name,
		Brand:       req.Brand,
		Category:    req.Category,
		Origin:      req.Origin,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		Description: req.Description,
	}
}
