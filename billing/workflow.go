package billing

import (
	"context"
	"fmt"

	"pregador/apperr"
	"pregador/mailer"
	"pregador/metrics"
	"pregador/models"

	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

// Notifier delivers emails outside the request. Enqueue must not block and
// returns false when the message was dropped.
type Notifier interface {
	Enqueue(email mailer.Email) bool
}

// Workflow manages plan change requests: an owner asks for a plan and a
// super-admin approves or rejects it. Limits only change on approval.
type Workflow struct {
	db       *gorm.DB
	notifier Notifier
	from     string
}

func NewWorkflow(db *gorm.DB, notifier Notifier, from string) *Workflow {
	return &Workflow{db: db, notifier: notifier, from: from}
}

// Request records planID as the company's pending plan. A new request
// replaces any previous pending one.
func (w *Workflow) Request(ctx context.Context, actor models.User, planID int64) (models.Company, error) {
	if !actor.IsOwner() {
		return models.Company{}, apperr.Forbidden("apenas o proprietário da conta pode solicitar troca de plano")
	}

	var plan models.Plan
	if err := w.db.First(&plan, planID).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return models.Company{}, apperr.NotFound("plano não encontrado")
		}
		return models.Company{}, apperr.Server(fmt.Errorf("load plan: %w", err))
	}
	if !plan.Active {
		return models.Company{}, apperr.Validation("plano indisponível para contratação")
	}

	res := w.db.Model(&models.Company{}).
		Where("id = ?", actor.CompanyID).
		Update("requested_plan_id", plan.ID)
	if res.Error != nil {
		return models.Company{}, apperr.Server(fmt.Errorf("request plan: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return models.Company{}, apperr.NotFound("empresa não encontrada")
	}

	company, err := loadCompany(w.db, actor.CompanyID, false)
	if err != nil {
		return company, err
	}
	metrics.PlanChangesTotal.WithLabelValues("request").Inc()
	zap.L().Info("troca de plano solicitada",
		zap.Int64("company_id", company.ID),
		zap.String("current_plan", company.Plan),
		zap.String("requested_plan", plan.Name),
	)
	return company, nil
}

// Approve copies the requested plan onto the company and clears the request.
func (w *Workflow) Approve(ctx context.Context, actor models.User, companyID int64) (models.Company, error) {
	if !actor.SuperAdmin {
		return models.Company{}, apperr.Forbidden("acesso restrito ao administrador da plataforma")
	}

	var (
		company models.Company
		plan    models.Plan
	)
	err := withTx(ctx, w.db, func(tx *gorm.DB) error {
		var err error
		company, err = lockCompany(tx, companyID)
		if err != nil {
			return err
		}
		if !company.HasPendingRequest() {
			return apperr.NotFound("nenhuma solicitação pendente")
		}
		if err := tx.First(&plan, *company.RequestedPlanID).Error; err != nil {
			if gorm.IsRecordNotFoundError(err) {
				return apperr.NotFound("plano não encontrado")
			}
			return apperr.Server(fmt.Errorf("load plan: %w", err))
		}

		company.ApplyPlan(plan)
		company.RequestedPlanID = nil
		err = tx.Model(&models.Company{}).Where("id = ?", company.ID).Updates(map[string]interface{}{
			"plan":              company.Plan,
			"plan_id":           company.PlanID,
			"max_sermons":       company.MaxSermons,
			"max_users":         company.MaxUsers,
			"max_churches":      company.MaxChurches,
			"allow_ai":          company.AllowAI,
			"allow_bible_study": company.AllowBibleStudy,
			"requested_plan_id": nil,
		}).Error
		if err != nil {
			return apperr.Server(fmt.Errorf("apply plan: %w", err))
		}
		return nil
	})
	if err != nil {
		return company, err
	}

	metrics.PlanChangesTotal.WithLabelValues("approve").Inc()
	zap.L().Info("troca de plano aprovada",
		zap.Int64("company_id", company.ID),
		zap.String("plan", plan.Name),
		zap.Int64("approved_by", actor.ID),
	)

	w.notifyOwner(company, "Sua troca de plano foi aprovada",
		fmt.Sprintf("Olá! A troca da conta %s para o plano %s foi aprovada. Os novos limites já estão valendo.", company.Name, plan.Name))
	return company, nil
}

// Reject clears the pending request without touching the current limits.
func (w *Workflow) Reject(ctx context.Context, actor models.User, companyID int64) (models.Company, error) {
	if !actor.SuperAdmin {
		return models.Company{}, apperr.Forbidden("acesso restrito ao administrador da plataforma")
	}

	var (
		company models.Company
		pending bool
	)
	err := withTx(ctx, w.db, func(tx *gorm.DB) error {
		var err error
		company, err = lockCompany(tx, companyID)
		if err != nil {
			return err
		}
		pending = company.HasPendingRequest()
		company.RequestedPlanID = nil
		err = tx.Model(&models.Company{}).Where("id = ?", company.ID).
			Updates(map[string]interface{}{"requested_plan_id": nil}).Error
		if err != nil {
			return apperr.Server(fmt.Errorf("reject plan: %w", err))
		}
		return nil
	})
	if err != nil {
		return company, err
	}

	metrics.PlanChangesTotal.WithLabelValues("reject").Inc()
	zap.L().Info("troca de plano rejeitada",
		zap.Int64("company_id", company.ID),
		zap.Bool("had_pending", pending),
		zap.Int64("rejected_by", actor.ID),
	)

	if pending {
		w.notifyOwner(company, "Sua solicitação de troca de plano foi recusada",
			fmt.Sprintf("Olá! A solicitação de troca de plano da conta %s foi recusada. Você continua no plano %s.", company.Name, company.Plan))
	}
	return company, nil
}

// Pending lists companies waiting for approval, oldest first.
func (w *Workflow) Pending(ctx context.Context, actor models.User) ([]models.Company, error) {
	if !actor.SuperAdmin {
		return nil, apperr.Forbidden("acesso restrito ao administrador da plataforma")
	}
	var companies []models.Company
	err := w.db.Preload("RequestedPlan").
		Where("requested_plan_id IS NOT NULL").
		Order("updated_at asc, id asc").
		Find(&companies).Error
	if err != nil {
		return nil, apperr.Server(fmt.Errorf("list pending: %w", err))
	}
	return companies, nil
}

// notifyOwner is best effort: failures are logged and never reach the caller.
func (w *Workflow) notifyOwner(company models.Company, subject, text string) {
	if w.notifier == nil {
		return
	}
	var owner models.User
	err := w.db.Where("company_id = ? AND role = ?", company.ID, models.USER_ROLE_OWNER).
		Order("id asc").
		First(&owner).Error
	if err != nil {
		zap.L().Warn("notificação não enviada: proprietário não encontrado",
			zap.Int64("company_id", company.ID), zap.Error(err))
		return
	}

	email := mailer.NewEmail(w.from, []string{owner.Email},
		mailer.WithSubject(subject),
		mailer.WithText(text),
	)
	if !w.notifier.Enqueue(email) {
		zap.L().Warn("notificação descartada", zap.Int64("company_id", company.ID), zap.String("to", owner.Email))
	}
}
