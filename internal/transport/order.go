package transport

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"storefront-backend/internal/model"
	"storefront-backend/internal/service"
)

const idempotencyHeader = "Idempotency-Key"

type orderHandler struct {
	orders service.OrderService
}

type createOrderRequest struct {
	Items      []service.OrderItemInput `json:"items"`
	TotalPrice *float64                 `json:"totalPrice"`
	Email      string                   `json:"email"`
}

func (h *orderHandler) create(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(model.ErrInvalidInput, "please provide order items"))
		return
	}
	order, err := h.orders.Create(c.Request.Context(), currentIdentity(c).Subject, service.CreateOrderInput{
		Items:          req.Items,
		TotalPrice:     req.TotalPrice,
		Email:          req.Email,
		IdempotencyKey: strings.TrimSpace(c.GetHeader(idempotencyHeader)),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"data":    gin.H{"order": order},
	})
}

func (h *orderHandler) list(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context(), currentIdentity(c).Subject)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"data": gin.H{"orders": orders}})
}
