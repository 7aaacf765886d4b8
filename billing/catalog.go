package billing

import (
	_ "embed"
	"fmt"

	"pregador/models"

	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed plans.yaml
var defaultCatalog []byte

type catalogFile struct {
	Plans []models.Plan `yaml:"plans"`
}

// ParseCatalog lê um catálogo de planos em YAML.
func ParseCatalog(data []byte) ([]models.Plan, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse plan catalog: %w", err)
	}
	for i, p := range f.Plans {
		if missing := p.MissingFields(); missing != "" {
			return nil, fmt.Errorf("plan catalog entry %d: invalid %s", i, missing)
		}
	}
	return f.Plans, nil
}

func DefaultCatalog() ([]models.Plan, error) {
	return ParseCatalog(defaultCatalog)
}

// SeedPlans insere os planos do catálogo que ainda não existem (por nome).
// Planos já cadastrados são mantidos como estão: edição é feita pelo admin.
func SeedPlans(db *gorm.DB, plans []models.Plan) error {
	for _, p := range plans {
		var count int64
		if err := db.Model(&models.Plan{}).Where("name = ?", p.Name).Count(&count).Error; err != nil {
			return fmt.Errorf("seed plan %s: %w", p.Name, err)
		}
		if count > 0 {
			continue
		}
		plan := p
		if err := db.Create(&plan).Error; err != nil {
			return fmt.Errorf("seed plan %s: %w", p.Name, err)
		}
		zap.L().Info("plano criado a partir do catálogo", zap.String("plan", plan.Name))
	}
	return nil
}

// GrantSuperAdmins marca como super-admin os usuários cujos emails estão na lista.
func GrantSuperAdmins(db *gorm.DB, emails []string) error {
	if len(emails) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(emails))
	for _, e := range emails {
		normalized = append(normalized, models.NormalizeEmail(e))
	}
	res := db.Model(&models.User{}).
		Where("email IN (?) AND super_admin = ?", normalized, false).
		Update("super_admin", true)
	if res.Error != nil {
		return fmt.Errorf("grant super admins: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		zap.L().Info("super-admins concedidos", zap.Int64("users", res.RowsAffected))
	}
	return nil
}
