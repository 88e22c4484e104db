package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/disfruleg/disfruleg-pos/internal/application/service"
	"github.com/disfruleg/disfruleg-pos/internal/domain/enum"
	"github.com/disfruleg/disfruleg-pos/internal/presentation/http/dto/request"
	"github.com/disfruleg/disfruleg-pos/internal/presentation/http/dto/response"
	"github.com/disfruleg/disfruleg-pos/internal/presentation/http/middleware"
	"github.com/disfruleg/disfruleg-pos/pkg/apperror"
	"github.com/disfruleg/disfruleg-pos/pkg/money"
)

// ReceiptHandler drives the receipt session of the calling operator.
type ReceiptHandler struct {
	sessions *service.SessionRegistry
}

// NewReceiptHandler creates a new receipt handler
func NewReceiptHandler(sessions *service.SessionRegistry) *ReceiptHandler {
	return &ReceiptHandler{sessions: sessions}
}

// View returns the current cart.
// @Summary Current cart
// @Tags receipt
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /receipt [get]
func (h *ReceiptHandler) View(c *gin.Context) {
	s := sessionFor(c, h.sessions)
	if s == nil {
		return
	}
	response.OK(c, "Cart retrieved", s.View())
}

// Catalog returns the products priced for the selected client.
// @Summary Priced catalog
// @Tags receipt
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /receipt/catalog [get]
func (h *ReceiptHandler) Catalog(c *gin.Context) {
	s := sessionFor(c, h.sessions)
	if s == nil {
		return
	}
	catalog, err := s.Catalog()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Catalog retrieved", catalog)
}

// SelectClient starts a new cart for a client.
// @Summary Select client
// @Tags receipt
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body request.SelectClientRequest true "Client"
// @Success 200 {object} response.APIResponse
// @Router /receipt/client [post]
func (h *ReceiptHandler) SelectClient(c *gin.Context) {
	var req request.SelectClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid request body")
		return
	}
	s := sessionFor(c, h.sessions)
	if s == nil {
		return
	}

	if err := s.SelectClient(c.Request.Context(), uuid.MustParse(req.ClientID)); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Client selected", s.View())
}

// Refresh reloads the catalog and the client discount.
// @Summary Refresh catalog
// @Tags receipt
// @Security BearerAuth
// @Success 200 {object} response.APIResponse
// @Failure 503 {object} response.APIResponse
// @Router /receipt/refresh [post]
func (h *ReceiptHandler) Refresh(c *gin.Context) {
	s := sessionFor(c, h.sessions)
	if s == nil {
		return
	}
	if err := s.Refresh(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Catalog refreshed", s.View())
}

// AddLine adds a product to the cart. Non-admin operators adding a special
// product send admin credentials in the "admin" field.
// @Summary Add line
// @Tags receipt
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body request.AddLineRequest true "Line"
// @Success 200 {object} response.APIResponse
// @Failure 403 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /receipt/lines [post]
func (h *ReceiptHandler) AddLine(c *gin.Context) {
	var req request.AddLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid request body")
		return
	}
	qty, err := money.Parse(req.Quantity)
	if err != nil {
		response.Error(c, apperror.Wrap(apperror.ErrQtyNotPositive, err))
		return
	}
	s := sessionFor(c, h.sessions)
	if s == nil {
		return
	}

	prompt := bodyPrompt{creds: req.Admin}
	if err := s.Add(c.Request.Context(), uuid.MustParse(req.ProductID), qty, prompt); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Line added", s.View())
}

// UpdateLine changes the quantity of a cart line.
// @Summary Update line
// @Tags receipt
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param product_id path string true "Product ID"
// @Param request body request.UpdateLineRequest true "Quantity"
// @Success 200 {object} response.APIResponse
// @Router /receipt/lines/{product_id} [put]
func (h *ReceiptHandler) UpdateLine(c *gin.Context) {
	productID, ok := uuidParam(c, "product_id")
	if !ok {
		return
	}
	var req request.UpdateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid request body")
		return
	}
	qty, err := money.Parse(req.Quantity)
	if err != nil {
		response.Error(c, apperror.Wrap(apperror.ErrQtyNotPositive, err))
		return
	}
	s := sessionFor(c, h.sessions)
	if s == nil {
		return
	}

	if err := s.UpdateQty(productID, qty); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Line updated", s.View())
}

// RemoveLine deletes a cart line.
// @Summary Remove line
// @Tags receipt
// @Security BearerAuth
// @Param product_id path string true "Product ID"
// @Success 200 {object} response.APIResponse
// @Router /receipt/lines/{product_id} [delete]
func (h *ReceiptHandler) RemoveLine(c *gin.Context) {
	productID, ok := uuidParam(c, "product_id")
	if !ok {
		return
	}
	s := sessionFor(c, h.sessions)
	if s == nil {
		return
	}
	if err := s.Remove(productID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Line removed", s.View())
}

// ClearLines empties the cart and keeps the client.
// @Summary Clear cart
// @Tags receipt
// @Security BearerAuth
// @Success 200 {object} response.APIResponse
// @Router /receipt/lines [delete]
func (h *ReceiptHandler) ClearLines(c *gin.Context) {
	s := sessionFor(c, h.sessions)
	if s == nil {
		return
	}
	if err := s.Clear(); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cart cleared", s.View())
}

// Cancel discards the cart and the selected client.
// @Summary Cancel receipt
// @Tags receipt
// @Security BearerAuth
// @Success 200 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /receipt/cancel [post]
func (h *ReceiptHandler) Cancel(c *gin.Context) {
	s := sessionFor(c, h.sessions)
	if s == nil {
		return
	}
	if err := s.Cancel(); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Receipt cancelled", s.View())
}

// Generate persists the cart as an invoice and writes the PDF.
// @Summary Generate receipt
// @Tags receipt
// @Security BearerAuth
// @Produce json
// @Param Idempotency-Key header string false "Retry key"
// @Success 201 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Failure 503 {object} response.APIResponse
// @Router /receipt/generate [post]
func (h *ReceiptHandler) Generate(c *gin.Context) {
	s := sessionFor(c, h.sessions)
	if s == nil {
		return
	}

	res := s.Generate(c.Request.Context(), middleware.GetIdempotencyKey(c))
	switch res.Status {
	case enum.GenerateSuccess:
		code := http.StatusCreated
		if res.Replayed {
			code = http.StatusOK
			c.Header(middleware.ReplayedHeader, "true")
		}
		response.Success(c, code, res.Message, res)
	case enum.GeneratePartial:
		// The invoice exists; only the PDF is missing.
		response.Success(c, http.StatusCreated, res.Message, res)
	default:
		response.Failure(c, res.Err, res.Message, res)
	}
}
