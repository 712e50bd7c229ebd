package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"storefront-backend/internal/model"
	"storefront-backend/internal/service"
)

type addressHandler struct {
	addresses service.AddressService
}

func (h *addressHandler) add(c *gin.Context) {
	var req model.Address
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(model.ErrInvalidInput, "malformed address"))
		return
	}
	address, err := h.addresses.Add(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"data": address})
}

func (h *addressHandler) list(c *gin.Context) {
	addresses, err := h.addresses.ListByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"data": addresses})
}
