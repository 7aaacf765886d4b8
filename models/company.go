package models

import "time"

/************************************************
/**** MARK: AI PROVIDERS ****/
/************************************************/
const AI_PROVIDER_GROQ = "groq"
const AI_PROVIDER_OPENAI = "openai"

// Company é o tenant: agrupa usuários, igrejas e sermões sob um plano.
// Os limites são uma cópia do plano vigente e só mudam quando uma troca é aprovada.
type Company struct {
	ID     int64  `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Name   string `gorm:"not null" json:"name" form:"name"`
	Plan   string `gorm:"not null" json:"plan"`
	PlanID *int64 `json:"plan_id"`

	MaxSermons      int64 `gorm:"not null" json:"max_sermons"`
	MaxUsers        int64 `gorm:"not null" json:"max_users"`
	MaxChurches     int64 `gorm:"not null" json:"max_churches"`
	AllowAI         bool  `gorm:"not null" json:"allow_ai"`
	AllowBibleStudy bool  `gorm:"not null" json:"allow_bible_study"`
	Active          bool  `gorm:"not null" json:"active"`

	// RequestedPlanID só é preenchido enquanto existe uma solicitação de troca pendente.
	RequestedPlanID *int64 `gorm:"index" json:"requested_plan_id"`
	RequestedPlan   *Plan  `gorm:"foreignkey:RequestedPlanID;association_autoupdate:false;association_autocreate:false" json:"requested_plan,omitempty"`

	AIProvider string `json:"ai_provider"`
	AIApiKey   string `json:"-"`

	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func (company Company) HasPendingRequest() bool {
	return company.RequestedPlanID != nil
}

func (company Company) HasAIKey() bool {
	return company.AIApiKey != ""
}

// ApplyPlan copia as cotas e recursos do plano para a empresa.
func (company *Company) ApplyPlan(plan Plan) {
	planID := plan.ID
	company.Plan = plan.Name
	company.PlanID = &planID
	company.MaxSermons = plan.MaxSermons
	company.MaxUsers = plan.MaxUsers
	company.MaxChurches = plan.MaxChurches
	company.AllowAI = plan.AllowAI
	company.AllowBibleStudy = plan.AllowBibleStudy
}
