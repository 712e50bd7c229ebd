package transport

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"storefront-backend/internal/model"
	"storefront-backend/internal/service"
)

// routeSegments maps each category to the path it is served under.
var routeSegments = map[model.Category]string{
	model.Accessories: "products",
	model.Footwear:    "footwear",
	model.Fashion:     "fashion",
	model.Others:      "others",
	model.NewArrival:  "newarrival",
	model.Trending:    "trending",
	model.Discount:    "discount",
}

type catalogHandler struct {
	catalog service.CatalogService
}

func (h *catalogHandler) register(api *gin.RouterGroup) {
	for _, category := range model.Categories {
		category := category
		group := api.Group("/" + routeSegments[category])
		group.GET("", h.list(category))
		group.GET("/:id", h.get(category))
		if category.Browsable() {
			group.POST("", h.create(category))
			group.POST("/seed", h.seed(category))
		}
	}
}

func (h *catalogHandler) list(category model.Category) gin.HandlerFunc {
	return func(c *gin.Context) {
		subcategory := c.Query("subcategory")
		if subcategory == "" {
			subcategory = c.Query("category")
		}
		limit := int64(service.DefaultListLimit)
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || parsed < 0 {
				respondError(c, errors.Wrapf(model.ErrInvalidInput, "invalid limit %q", raw))
				return
			}
			limit = parsed
		}

		result, err := h.catalog.List(c.Request.Context(), category, service.ListParams{
			Subcategory: subcategory,
			Search:      c.Query("search"),
			Limit:       limit,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, gin.H{
			"count":             len(result.Products),
			"totalInCollection": result.TotalInCollection,
			"data":              result.Products,
		})
	}
}

func (h *catalogHandler) get(category model.Category) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, err := h.catalog.Get(c.Request.Context(), category, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, gin.H{"data": product})
	}
}

func (h *catalogHandler) create(category model.Category) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.Product
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, errors.Wrap(model.ErrInvalidInput, "malformed product"))
			return
		}
		product, err := h.catalog.Create(c.Request.Context(), category, req)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusCreated, gin.H{"data": product})
	}
}

func (h *catalogHandler) seed(category model.Category) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := h.catalog.Seed(c.Request.Context(), category)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, gin.H{
			"message": fmt.Sprintf("Successfully seeded %d %s products", n, category),
			"count":   n,
		})
	}
}
