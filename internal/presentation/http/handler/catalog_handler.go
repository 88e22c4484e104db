package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/disfruleg/disfruleg-pos/internal/application/service"
	"github.com/disfruleg/disfruleg-pos/internal/presentation/http/dto/response"
)

// CatalogHandler serves the client and product lists.
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListClients returns all clients ordered by name.
func (h *CatalogHandler) ListClients(c *gin.Context) {
	clients, err := h.catalogService.ListClients(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Clients retrieved successfully", clients)
}

// ListProducts returns the products at base price.
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.catalogService.ListProducts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Products retrieved successfully", products)
}
