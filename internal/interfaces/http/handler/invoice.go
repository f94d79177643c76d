package handler

import (
	"context"
	"errors"
	"io"
	"time"

	appbilling "github.com/cablenet/billing/internal/application/billing"
	"github.com/cablenet/billing/internal/infrastructure/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InvoiceGenerator runs the monthly generation for one tenant
type InvoiceGenerator interface {
	GenerateMonthly(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*appbilling.GenerationResult, error)
}

// GenerationRunReader lists past generation runs
type GenerationRunReader interface {
	Recent(ctx context.Context, tenantID uuid.UUID, limit int) ([]scheduler.GenerationRun, error)
}

// InvoiceListQuery holds the invoice list query parameters
type InvoiceListQuery struct {
	ClientID string `form:"client_id" binding:"omitempty,uuid"`
	Status   string `form:"status" binding:"omitempty,oneof=pending paid"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GenerationRunsQuery bounds the run history listing
type GenerationRunsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

const defaultGenerationRunsLimit = 20

// InvoiceHandler handles invoice endpoints and manual generation
type InvoiceHandler struct {
	BaseHandler
	invoiceService *appbilling.InvoiceService
	generator      InvoiceGenerator
	runs           GenerationRunReader
}

// NewInvoiceHandler creates a new InvoiceHandler. runs may be nil when run
// history is not kept.
func NewInvoiceHandler(invoiceService *appbilling.InvoiceService, generator InvoiceGenerator, runs GenerationRunReader) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		generator:      generator,
		runs:           runs,
	}
}

// List godoc
// @ID           listInvoices
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Param        client_id query string false "Client ID" format(uuid)
// @Param        status query string false "Status" Enums(pending, paid)
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]appbilling.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var query InvoiceListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.invoiceService.List(c.Request.Context(), tenantID, appbilling.InvoiceListFilter{
		ClientID: optionalUUID(query.ClientID),
		Status:   query.Status,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetByID godoc
// @ID           getInvoice
// @Summary      Get an invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[appbilling.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.invoiceService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Create godoc
// @ID           createInvoice
// @Summary      Create an invoice
// @Description  Issue an invoice by hand. The issue date defaults to today; a second invoice for the same client and month is rejected.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body appbilling.CreateInvoiceRequest true "Invoice"
// @Success      201 {object} APIResponse[appbilling.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req appbilling.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.CreatedBy = optionalUserID(c)

	invoice, err := h.invoiceService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, invoice)
}

// Update godoc
// @ID           updateInvoice
// @Summary      Update an invoice
// @Description  Change the amount or due date of a pending invoice, or its status
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body appbilling.UpdateInvoiceRequest true "Changes"
// @Success      200 {object} APIResponse[appbilling.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req appbilling.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	invoice, err := h.invoiceService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// MarkPaid godoc
// @ID           payInvoice
// @Summary      Mark an invoice paid
// @Description  Move an invoice to paid without recording a payment. Paying a paid invoice is a no-op.
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[appbilling.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id}/pay [put]
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.invoiceService.MarkPaid(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Delete godoc
// @ID           deleteInvoice
// @Summary      Delete an invoice
// @Description  Delete an invoice together with its payments
// @Tags         invoices
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Generate godoc
// @ID           generateInvoices
// @Summary      Generate monthly invoices
// @Description  Issue this month's invoice for every client with a plan that has none yet. Safe to repeat. Requires the admin role.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body appbilling.GenerateInvoicesRequest false "Reference date, defaults to today"
// @Success      200 {object} APIResponse[appbilling.GenerationResult]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/generate [post]
func (h *InvoiceHandler) Generate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req appbilling.GenerateInvoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.BindError(c, err)
		return
	}

	// Without a date the generator picks the month in the scheduler's timezone.
	var asOf time.Time
	parsed, err := appbilling.ParseDate(req.AsOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if parsed != nil {
		asOf = *parsed
	}

	result, err := h.generator.GenerateMonthly(c.Request.Context(), tenantID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GenerationRuns godoc
// @ID           listGenerationRuns
// @Summary      Generation history
// @Description  Most recent monthly generation runs of the tenant, newest first
// @Tags         invoices
// @Produce      json
// @Param        limit query int false "Maximum runs" default(20)
// @Success      200 {object} APIResponse[[]scheduler.GenerationRun]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/generation-runs [get]
func (h *InvoiceHandler) GenerationRuns(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var query GenerationRunsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}
	if query.Limit == 0 {
		query.Limit = defaultGenerationRunsLimit
	}

	if h.runs == nil {
		h.Success(c, []scheduler.GenerationRun{})
		return
	}
	runs, err := h.runs.Recent(c.Request.Context(), tenantID, query.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, runs)
}
