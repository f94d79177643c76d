package handler

import (
	appcatalog "github.com/cablenet/billing/internal/application/catalog"
	"github.com/gin-gonic/gin"
)

// ServiceOfferingHandler handles the service catalog
type ServiceOfferingHandler struct {
	BaseHandler
	service *appcatalog.ServiceOfferingService
}

// NewServiceOfferingHandler creates a new ServiceOfferingHandler
func NewServiceOfferingHandler(service *appcatalog.ServiceOfferingService) *ServiceOfferingHandler {
	return &ServiceOfferingHandler{service: service}
}

// Create godoc
// @ID           createService
// @Summary      Create a catalog service
// @Tags         services
// @Accept       json
// @Produce      json
// @Param        request body appcatalog.ServiceRequest true "Service"
// @Success      201 {object} APIResponse[appcatalog.ServiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /services [post]
func (h *ServiceOfferingHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req appcatalog.ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.CreatedBy = optionalUserID(c)

	svc, err := h.service.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, svc)
}

// List godoc
// @ID           listServices
// @Summary      List catalog services
// @Tags         services
// @Produce      json
// @Param        search query string false "Name fragment"
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]appcatalog.ServiceResponse]
// @Security     BearerAuth
// @Router       /services [get]
func (h *ServiceOfferingHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter appcatalog.ServiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.service.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetByID godoc
// @ID           getService
// @Summary      Get a catalog service
// @Tags         services
// @Produce      json
// @Param        id path string true "Service ID" format(uuid)
// @Success      200 {object} APIResponse[appcatalog.ServiceResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /services/{id} [get]
func (h *ServiceOfferingHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid service ID")
		return
	}

	svc, err := h.service.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, svc)
}

// Update godoc
// @ID           updateService
// @Summary      Update a catalog service
// @Tags         services
// @Accept       json
// @Produce      json
// @Param        id path string true "Service ID" format(uuid)
// @Param        request body appcatalog.ServiceRequest true "Service"
// @Success      200 {object} APIResponse[appcatalog.ServiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /services/{id} [put]
func (h *ServiceOfferingHandler) Update(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid service ID")
		return
	}

	var req appcatalog.ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	svc, err := h.service.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, svc)
}

// Delete godoc
// @ID           deleteService
// @Summary      Delete a catalog service
// @Tags         services
// @Param        id path string true "Service ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /services/{id} [delete]
func (h *ServiceOfferingHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid service ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
