package persistence

import (
	"strings"

	"github.com/cablenet/billing/internal/domain/shared"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortRule lists the columns a list endpoint may be ordered by. Anything
// else in the request falls back to the default ordering.
type sortRule struct {
	columns    []string
	column     string
	descending bool
}

var (
	clientSort = sortRule{
		columns: []string{"id", "created_at", "updated_at", "full_name", "document", "plan_type", "client_type"},
		column:  "full_name",
	}
	invoiceSort = sortRule{
		columns:    []string{"id", "created_at", "updated_at", "issue_date", "due_date", "amount", "status"},
		column:     "issue_date",
		descending: true,
	}
	paymentSort = sortRule{
		columns:    []string{"id", "created_at", "updated_at", "payment_date", "amount_paid", "payment_method"},
		column:     "payment_date",
		descending: true,
	}
	serviceSort = sortRule{
		columns: []string{"id", "created_at", "updated_at", "name", "price"},
		column:  "name",
	}
	userSort = sortRule{
		columns: []string{"id", "created_at", "updated_at", "username", "full_name", "last_login_at"},
		column:  "username",
	}
)

// order resolves the requested column and direction. The column must match
// the whitelist exactly; direction is anything but "asc" means descending
// once given.
func (s sortRule) order(orderBy, orderDir string) clause.OrderByColumn {
	col := clause.OrderByColumn{Column: clause.Column{Name: s.column}, Desc: s.descending}
	if requested := strings.TrimSpace(orderBy); lo.Contains(s.columns, requested) {
		col.Column.Name = requested
	}
	if dir := strings.TrimSpace(orderDir); dir != "" {
		col.Desc = !strings.EqualFold(dir, "asc")
	}
	return col
}

// paginate applies the filter's ordering and page window
func paginate(query *gorm.DB, filter shared.Filter, rule sortRule) *gorm.DB {
	return query.
		Order(rule.order(filter.OrderBy, filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.Limit())
}
