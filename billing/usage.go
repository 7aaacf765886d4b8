// Package billing holds the plan rules: monthly sermon quotas, plan catalog
// and the plan change approval workflow.
package billing

import (
	"context"
	"fmt"
	"time"

	"pregador/apperr"
	dbpkg "pregador/db"
	"pregador/metrics"
	"pregador/models"

	"github.com/jinzhu/gorm"
)

// Path identifies how a sermon is being created. Each path counts company usage its own way.
type Path string

const (
	// PathManual counts company usage by sermons.company_id.
	PathManual Path = "manual"
	// PathAI counts company usage through the sermons of the company's users.
	PathAI Path = "ai"
)

const (
	ScopeUser    = "user"
	ScopeCompany = "company"
)

// Decision is the outcome of a quota evaluation.
type Decision struct {
	Scope   string
	Used    int64
	Limit   int64
	Allowed bool
}

// Unlimited reports whether the applied limit has no ceiling.
func (d Decision) Unlimited() bool { return d.Limit == models.UNLIMITED }

// Err converts a rejected decision into a LimitExceededError.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &apperr.LimitExceededError{Resource: "sermons", Scope: d.Scope, Used: d.Used, Limit: d.Limit}
}

// UsageReport is the read-only view of the current month consumption.
type UsageReport struct {
	Month     string `json:"month"`
	Scope     string `json:"scope"`
	Used      int64  `json:"used"`
	Limit     int64  `json:"limit"`
	Remaining int64  `json:"remaining"`
}

type Evaluator struct {
	db  *gorm.DB
	now func() time.Time
}

func NewEvaluator(db *gorm.DB) *Evaluator {
	return &Evaluator{db: db, now: time.Now}
}

// WithClock replaces the time source.
func (e *Evaluator) WithClock(now func() time.Time) *Evaluator {
	e.now = now
	return e
}

// StartOfMonth returns the first instant of t's calendar month in t's location.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// Check decides whether userID may create one more sermon now. It never writes.
func (e *Evaluator) Check(ctx context.Context, userID int64, path Path) (Decision, error) {
	user, company, err := loadAccount(e.db, userID, false)
	if err != nil {
		return Decision{}, err
	}
	d, err := Evaluate(e.db, user, company, e.now(), path)
	if err != nil {
		return d, err
	}
	if !d.Allowed {
		metrics.QuotaRejectionsTotal.WithLabelValues("sermons", d.Scope).Inc()
	}
	return d, d.Err()
}

// Evaluate applies the quota rules for one user and its company.
// A user-level sermon_limit fully replaces the company limit.
func Evaluate(db *gorm.DB, user models.User, company models.Company, now time.Time, path Path) (Decision, error) {
	if path == PathAI && !company.AllowAI {
		return Decision{Scope: ScopeCompany, Limit: company.MaxSermons},
			apperr.AIDisabled("Seu plano não inclui geração com IA. Faça upgrade para usar este recurso.")
	}

	since := StartOfMonth(now)

	if user.SermonLimit != nil {
		used, err := CountUserSermons(db, user.ID, since)
		if err != nil {
			return Decision{}, err
		}
		limit := *user.SermonLimit
		return Decision{
			Scope:   ScopeUser,
			Used:    used,
			Limit:   limit,
			Allowed: limit == models.UNLIMITED || used < limit,
		}, nil
	}

	var (
		used int64
		err  error
	)
	if path == PathAI {
		used, err = CountCompanySermonsByUsers(db, user.CompanyID, since)
	} else {
		used, err = CountCompanySermons(db, user.CompanyID, since)
	}
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Scope:   ScopeCompany,
		Used:    used,
		Limit:   company.MaxSermons,
		Allowed: company.MaxSermons == models.UNLIMITED || used < company.MaxSermons,
	}, nil
}

// CreateSermon inserts the sermon only if the author is still under quota.
// Count and insert run in one transaction with the company row locked, so
// concurrent requests of the same company cannot both pass the check.
func (e *Evaluator) CreateSermon(ctx context.Context, sermon *models.Sermon, path Path) (Decision, error) {
	var decision Decision
	err := withTx(ctx, e.db, func(tx *gorm.DB) error {
		user, company, err := loadAccount(tx, sermon.UserID, true)
		if err != nil {
			return err
		}

		d, err := Evaluate(tx, user, company, e.now(), path)
		decision = d
		if err != nil {
			return err
		}
		if !d.Allowed {
			metrics.QuotaRejectionsTotal.WithLabelValues("sermons", d.Scope).Inc()
			return d.Err()
		}

		sermon.CompanyID = user.CompanyID
		if sermon.CreatedAt.IsZero() {
			sermon.CreatedAt = e.now()
		}
		if sermon.Source == "" {
			sermon.Source = string(path)
		}
		if err := tx.Create(sermon).Error; err != nil {
			return apperr.Server(fmt.Errorf("insert sermon: %w", err))
		}
		decision.Used++
		return nil
	})
	if err != nil {
		return decision, err
	}
	metrics.SermonsCreatedTotal.WithLabelValues(sermon.Source).Inc()
	return decision, nil
}

// Usage reports the current month consumption of userID.
func (e *Evaluator) Usage(ctx context.Context, userID int64) (UsageReport, error) {
	user, company, err := loadAccount(e.db, userID, false)
	if err != nil {
		return UsageReport{}, err
	}
	now := e.now()
	d, err := Evaluate(e.db, user, company, now, PathManual)
	if err != nil {
		return UsageReport{}, err
	}

	remaining := int64(models.UNLIMITED)
	if !d.Unlimited() {
		remaining = d.Limit - d.Used
		if remaining < 0 {
			remaining = 0
		}
	}
	return UsageReport{
		Month:     now.Format("2006-01"),
		Scope:     d.Scope,
		Used:      d.Used,
		Limit:     d.Limit,
		Remaining: remaining,
	}, nil
}

func CountUserSermons(db *gorm.DB, userID int64, since time.Time) (int64, error) {
	var n int64
	err := db.Model(&models.Sermon{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&n).Error
	if err != nil {
		return 0, apperr.Server(fmt.Errorf("count user sermons: %w", err))
	}
	return n, nil
}

func CountCompanySermons(db *gorm.DB, companyID int64, since time.Time) (int64, error) {
	var n int64
	err := db.Model(&models.Sermon{}).
		Where("company_id = ? AND created_at >= ?", companyID, since).
		Count(&n).Error
	if err != nil {
		return 0, apperr.Server(fmt.Errorf("count company sermons: %w", err))
	}
	return n, nil
}

func CountCompanySermonsByUsers(db *gorm.DB, companyID int64, since time.Time) (int64, error) {
	var n int64
	err := db.Table("sermons").
		Joins("JOIN users ON users.id = sermons.user_id").
		Where("users.company_id = ? AND sermons.created_at >= ?", companyID, since).
		Count(&n).Error
	if err != nil {
		return 0, apperr.Server(fmt.Errorf("count company sermons by users: %w", err))
	}
	return n, nil
}

// loadAccount loads a user and its company; lock takes the company row lock.
func loadAccount(db *gorm.DB, userID int64, lock bool) (models.User, models.Company, error) {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return user, models.Company{}, apperr.NotFound("conta não encontrada")
		}
		return user, models.Company{}, apperr.Server(fmt.Errorf("load user: %w", err))
	}

	company, err := loadCompany(db, user.CompanyID, lock)
	if err != nil {
		if apperr.IsNotFound(err) {
			return user, company, apperr.NotFound("conta não encontrada")
		}
		return user, company, err
	}
	return user, company, nil
}

func loadCompany(db *gorm.DB, id int64, lock bool) (models.Company, error) {
	q := db
	if lock {
		q = dbpkg.ForUpdate(db)
	}
	var company models.Company
	if err := q.First(&company, id).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return company, apperr.NotFound("empresa não encontrada")
		}
		return company, apperr.Server(fmt.Errorf("load company: %w", err))
	}
	return company, nil
}

func lockCompany(tx *gorm.DB, id int64) (models.Company, error) {
	return loadCompany(tx, id, true)
}

func withTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) (err error) {
	tx := db.BeginTx(ctx, nil)
	if tx.Error != nil {
		return apperr.Server(fmt.Errorf("begin tx: %w", tx.Error))
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return apperr.Server(fmt.Errorf("commit: %w", err))
	}
	return nil
}
