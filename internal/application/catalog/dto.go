package catalog

import (
	"time"

	"github.com/cablenet/billing/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServiceRequest carries the fields of a catalog entry
type ServiceRequest struct {
	Name        string          `json:"name" binding:"required,max=100"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CreatedBy   *uuid.UUID      `json:"-"`
}

// ServiceListFilter represents filter options for the catalog list
type ServiceListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ServiceResponse represents a catalog entry in API responses
type ServiceResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ToServiceResponse converts a domain ServiceOffering to ServiceResponse
func ToServiceResponse(s *catalog.ServiceOffering) ServiceResponse {
	return ServiceResponse{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Price:       s.Price,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
