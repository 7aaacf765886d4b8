package billing

import (
	"path/filepath"
	"testing"
	"time"

	dbpkg "pregador/db"
	"pregador/mailer"
	"pregador/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open("sqlite3", dbpkg.SQLiteDSN(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, dbpkg.Migrate(db))
	return db
}

func seedPlan(t *testing.T, db *gorm.DB, name string, maxSermons int64, allowAI bool) models.Plan {
	t.Helper()
	plan := models.Plan{
		Name:        name,
		Currency:    "BRL",
		MaxSermons:  maxSermons,
		MaxUsers:    3,
		MaxChurches: 1,
		AllowAI:     allowAI,
		Active:      true,
	}
	require.NoError(t, db.Create(&plan).Error)
	return plan
}

func seedCompany(t *testing.T, db *gorm.DB, name string, plan models.Plan) models.Company {
	t.Helper()
	company := models.Company{Name: name, Active: true}
	company.ApplyPlan(plan)
	require.NoError(t, db.Create(&company).Error)
	return company
}

func seedUser(t *testing.T, db *gorm.DB, company models.Company, email, role string) models.User {
	t.Helper()
	user := models.User{
		Name:      email,
		Email:     email,
		Password:  "x",
		Role:      role,
		CompanyID: company.ID,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedSermon(t *testing.T, db *gorm.DB, user models.User, companyID int64, at time.Time) {
	t.Helper()
	s := models.Sermon{
		UserID:    user.ID,
		CompanyID: companyID,
		Title:     "t",
		Content:   "c",
		Source:    models.SERMON_SOURCE_MANUAL,
		CreatedAt: at,
	}
	require.NoError(t, db.Create(&s).Error)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type recordingNotifier struct {
	emails []mailer.Email
	full   bool
}

func (r *recordingNotifier) Enqueue(e mailer.Email) bool {
	if r.full {
		return false
	}
	r.emails = append(r.emails, e)
	return true
}
