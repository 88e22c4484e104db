package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/disfruleg/disfruleg-pos/internal/application/service"
	"github.com/disfruleg/disfruleg-pos/internal/presentation/http/dto/request"
	"github.com/disfruleg/disfruleg-pos/internal/presentation/http/dto/response"
	"github.com/disfruleg/disfruleg-pos/pkg/pagination"
)

// InvoiceHandler serves persisted invoices.
type InvoiceHandler struct {
	writer   *service.InvoiceWriter
	receipts *service.ReceiptService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(writer *service.InvoiceWriter, receipts *service.ReceiptService) *InvoiceHandler {
	return &InvoiceHandler{writer: writer, receipts: receipts}
}

// List returns invoices newest first.
// @Summary List invoices
// @Tags invoices
// @Security BearerAuth
// @Param page query int false "Page"
// @Param per_page query int false "Items per page"
// @Param client_id query string false "Client filter"
// @Success 200 {object} response.APIResponse
// @Router /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	var req request.ListInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err, "Invalid query parameters")
		return
	}

	params := &pagination.PaginationParams{Page: req.Page, PerPage: req.PerPage}
	params.Validate()
	var clientID *uuid.UUID
	if req.ClientID != "" {
		id := uuid.MustParse(req.ClientID)
		clientID = &id
	}

	invoices, total, err := h.writer.List(c.Request.Context(), params, clientID)
	if err != nil {
		response.Error(c, err)
		return
	}
	result := pagination.NewPaginatedResult(invoices, pagination.NewPagination(params.Page, params.PerPage, total))
	response.SuccessWithPagination(c, "Invoices retrieved successfully", result)
}

// Get returns one invoice with its lines and total.
// @Summary Get invoice
// @Tags invoices
// @Security BearerAuth
// @Param id path int true "Invoice ID"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}
	inv, err := h.writer.Load(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Invoice retrieved successfully", gin.H{
		"invoice": inv,
		"receipt": h.receipts.FromInvoice(inv),
	})
}

// Rerender regenerates the PDF of an invoice.
// @Summary Regenerate receipt PDF
// @Tags invoices
// @Security BearerAuth
// @Param id path int true "Invoice ID"
// @Success 200 {object} response.APIResponse
// @Failure 500 {object} response.APIResponse
// @Router /invoices/{id}/receipt [post]
func (h *InvoiceHandler) Rerender(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}
	path, err := h.receipts.Rerender(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Receipt regenerated", gin.H{
		"invoice_id": id,
		"pdf_path":   path,
	})
}
