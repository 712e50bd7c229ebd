package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"storefront-backend/internal/model"
	"storefront-backend/internal/service"
)

type adminHandler struct {
	admin service.AdminService
}

type addProductRequest struct {
	model.Product
	Collection string `json:"category"`
}

type updateProductRequest struct {
	model.ProductPatch
	Collection string `json:"category"`
}

type categoryRequest struct {
	Collection string `json:"category"`
}

type orderStatusRequest struct {
	Status model.OrderStatus `json:"status"`
}

func (h *adminHandler) dashboard(c *gin.Context) {
	d, err := h.admin.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"data": d})
}

func (h *adminHandler) listProducts(c *gin.Context) {
	products, err := h.admin.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"data": products})
}

func (h *adminHandler) addProduct(c *gin.Context) {
	var req addProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(model.ErrInvalidInput, "malformed product"))
		return
	}
	category, err := model.ParseCategory(req.Collection)
	if err != nil {
		respondError(c, err)
		return
	}
	product, err := h.admin.AddProduct(c.Request.Context(), category, req.Product)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"message": "Product added successfully", "data": product})
}

func (h *adminHandler) updateProduct(c *gin.Context) {
	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(model.ErrInvalidInput, "malformed product"))
		return
	}
	category, err := model.ParseCategory(req.Collection)
	if err != nil {
		respondError(c, err)
		return
	}
	product, err := h.admin.UpdateProduct(c.Request.Context(), category, c.Param("id"), req.ProductPatch)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Product updated successfully", "data": product})
}

// deleteProduct reads the category from the query string, falling back to the request body.
func (h *adminHandler) deleteProduct(c *gin.Context) {
	collection := c.Query("category")
	if collection == "" {
		var req categoryRequest
		_ = c.ShouldBindJSON(&req)
		collection = req.Collection
	}
	category, err := model.ParseCategory(collection)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.admin.DeleteProduct(c.Request.Context(), category, c.Param("id"), currentIdentity(c).Email); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

func (h *adminHandler) listDeletedProducts(c *gin.Context) {
	deleted, err := h.admin.ListDeletedProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"data": deleted})
}

func (h *adminHandler) restoreProduct(c *gin.Context) {
	product, err := h.admin.RestoreProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Product restored successfully", "data": product})
}

func (h *adminHandler) listOrders(c *gin.Context) {
	orders, err := h.admin.ListOrders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"data": orders})
}

func (h *adminHandler) updateOrderStatus(c *gin.Context) {
	var req orderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(model.ErrInvalidInput, "please provide a status"))
		return
	}
	order, err := h.admin.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Order status updated successfully", "data": order})
}

func (h *adminHandler) listUsers(c *gin.Context) {
	users, err := h.admin.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"data": users})
}

func (h *adminHandler) deleteUser(c *gin.Context) {
	if err := h.admin.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "User deleted successfully"})
}
