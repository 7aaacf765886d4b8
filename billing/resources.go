package billing

import (
	"context"
	"fmt"

	"pregador/apperr"
	"pregador/metrics"
	"pregador/models"

	"github.com/jinzhu/gorm"
)

// Resource is a per-company count bounded by the plan (not monthly).
type Resource string

const (
	ResourceUsers    Resource = "users"
	ResourceChurches Resource = "churches"
)

func (r Resource) limit(company models.Company) int64 {
	if r == ResourceUsers {
		return company.MaxUsers
	}
	return company.MaxChurches
}

func (r Resource) count(db *gorm.DB, companyID int64) (int64, error) {
	var n int64
	var err error
	switch r {
	case ResourceUsers:
		err = db.Model(&models.User{}).Where("company_id = ?", companyID).Count(&n).Error
	case ResourceChurches:
		err = db.Model(&models.Church{}).Where("company_id = ?", companyID).Count(&n).Error
	default:
		return 0, fmt.Errorf("unknown resource %q", r)
	}
	return n, err
}

// CreateWithinLimit locks the company, counts the resource and runs create only
// while the count is below the plan limit.
func CreateWithinLimit(ctx context.Context, db *gorm.DB, companyID int64, r Resource, create func(tx *gorm.DB) error) error {
	return withTx(ctx, db, func(tx *gorm.DB) error {
		company, err := lockCompany(tx, companyID)
		if err != nil {
			return err
		}
		used, err := r.count(tx, companyID)
		if err != nil {
			return apperr.Server(fmt.Errorf("count %s: %w", r, err))
		}
		limit := r.limit(company)
		if limit != models.UNLIMITED && used >= limit {
			metrics.QuotaRejectionsTotal.WithLabelValues(string(r), ScopeCompany).Inc()
			return &apperr.LimitExceededError{Resource: string(r), Scope: ScopeCompany, Used: used, Limit: limit}
		}
		return create(tx)
	})
}
