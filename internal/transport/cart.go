package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"storefront-backend/internal/model"
	"storefront-backend/internal/service"
)

type cartHandler struct {
	carts service.CartService
}

type addLineRequest struct {
	ProductID string   `json:"productId"`
	Name      string   `json:"name"`
	Price     *float64 `json:"price"`
	Quantity  *int     `json:"quantity"`
	Image     string   `json:"image"`
}

type updateLineRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *cartHandler) get(c *gin.Context) {
	view, err := h.carts.Get(c.Request.Context(), currentIdentity(c).Subject)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"data": view})
}

func (h *cartHandler) add(c *gin.Context) {
	var req addLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(model.ErrInvalidInput, "please provide productId, name, and price"))
		return
	}
	view, err := h.carts.AddLine(c.Request.Context(), currentIdentity(c).Subject, service.AddLineInput{
		ProductID: req.ProductID,
		Name:      req.Name,
		Price:     req.Price,
		Quantity:  req.Quantity,
		Image:     req.Image,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Item added to cart", "data": view})
}

func (h *cartHandler) update(c *gin.Context) {
	var req updateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(model.ErrInvalidInput, "please provide a valid quantity"))
		return
	}
	view, err := h.carts.UpdateQuantity(c.Request.Context(), currentIdentity(c).Subject, c.Param("productId"), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Cart updated", "data": view})
}

func (h *cartHandler) remove(c *gin.Context) {
	view, err := h.carts.RemoveLine(c.Request.Context(), currentIdentity(c).Subject, c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Item removed from cart", "data": view})
}

func (h *cartHandler) clear(c *gin.Context) {
	view, err := h.carts.Clear(c.Request.Context(), currentIdentity(c).Subject)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Cart cleared", "data": view})
}
