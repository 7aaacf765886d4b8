package billing

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"pregador/apperr"
	"pregador/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var march10 = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func int64p(v int64) *int64 { return &v }

func TestStartOfMonth(t *testing.T) {
	got := StartOfMonth(time.Date(2026, time.March, 31, 23, 59, 59, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestCheck_CompanyLimitReached(t *testing.T) {
	db := newTestDB(t)
	plan := seedPlan(t, db, "Gratuito", 3, true)
	company := seedCompany(t, db, "Igreja A", plan)
	user := seedUser(t, db, company, "a@x.com", models.USER_ROLE_OWNER)
	for i := 0; i < 3; i++ {
		seedSermon(t, db, user, company.ID, march10.Add(-time.Duration(i)*time.Hour))
	}

	ev := NewEvaluator(db).WithClock(fixedClock(march10))
	d, err := ev.Check(context.Background(), user.ID, PathManual)
	require.Error(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ScopeCompany, d.Scope)

	var le *apperr.LimitExceededError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, int64(3), le.Used)
	assert.Equal(t, int64(3), le.Limit)
	assert.Equal(t, http.StatusForbidden, apperr.HTTPStatus(err))
	assert.Contains(t, apperr.PublicMessage(err), "3/3")
}

func TestCreateSermon_RejectedLeavesNoRow(t *testing.T) {
	db := newTestDB(t)
	plan := seedPlan(t, db, "Gratuito", 3, true)
	company := seedCompany(t, db, "Igreja A", plan)
	user := seedUser(t, db, company, "a@x.com", models.USER_ROLE_OWNER)

	ev := NewEvaluator(db).WithClock(fixedClock(march10))
	for i := 0; i < 3; i++ {
		s := models.Sermon{UserID: user.ID, Title: "t", Content: "c"}
		d, err := ev.CreateSermon(context.Background(), &s, PathManual)
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), d.Used)
		assert.Equal(t, company.ID, s.CompanyID)
		assert.Equal(t, models.SERMON_SOURCE_MANUAL, s.Source)
	}

	s := models.Sermon{UserID: user.ID, Title: "t", Content: "c"}
	_, err := ev.CreateSermon(context.Background(), &s, PathManual)
	require.True(t, apperr.IsLimitExceeded(err))
	assert.Zero(t, s.ID)

	n, err := CountCompanySermons(db, company.ID, StartOfMonth(march10))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestCheck_MonthBoundary(t *testing.T) {
	db := newTestDB(t)
	plan := seedPlan(t, db, "Gratuito", 1, true)
	company := seedCompany(t, db, "Igreja A", plan)
	user := seedUser(t, db, company, "a@x.com", models.USER_ROLE_OWNER)

	seedSermon(t, db, user, company.ID, time.Date(2026, time.February, 28, 23, 59, 59, 0, time.UTC))

	ev := NewEvaluator(db).WithClock(fixedClock(march10))
	d, err := ev.Check(context.Background(), user.ID, PathManual)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(0), d.Used)

	seedSermon(t, db, user, company.ID, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	d, err = ev.Check(context.Background(), user.ID, PathManual)
	require.Error(t, err)
	assert.Equal(t, int64(1), d.Used)
}

func TestCheck_Unlimited(t *testing.T) {
	db := newTestDB(t)
	plan := seedPlan(t, db, "Ilimitado", models.UNLIMITED, true)
	company := seedCompany(t, db, "Igreja A", plan)
	user := seedUser(t, db, company, "a@x.com", models.USER_ROLE_OWNER)
	for i := 0; i < 10; i++ {
		seedSermon(t, db, user, company.ID, march10)
	}

	ev := NewEvaluator(db).WithClock(fixedClock(march10))
	d, err := ev.Check(context.Background(), user.ID, PathManual)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.True(t, d.Unlimited())
	assert.Equal(t, int64(10), d.Used)
}

func TestCheck_UserOverrideReplacesCompanyLimit(t *testing.T) {
	db := newTestDB(t)
	plan := seedPlan(t, db, "Gratuito", 1, true)
	company := seedCompany(t, db, "Igreja A", plan)
	owner := seedUser(t, db, company, "owner@x.com", models.USER_ROLE_OWNER)
	member := seedUser(t, db, company, "member@x.com", models.USER_ROLE_MEMBER)
	seedSermon(t, db, owner, company.ID, march10)

	ev := NewEvaluator(db).WithClock(fixedClock(march10))

	// company is full
	_, err := ev.Check(context.Background(), member.ID, PathManual)
	require.True(t, apperr.IsLimitExceeded(err))

	// override above the company usage lets the member through
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", member.ID).Update("sermon_limit", 5).Error)
	d, err := ev.Check(context.Background(), member.ID, PathManual)
	require.NoError(t, err)
	assert.Equal(t, ScopeUser, d.Scope)
	assert.Equal(t, int64(0), d.Used)
	assert.Equal(t, int64(5), d.Limit)

	// zero blocks even when the company has room
	require.NoError(t, db.Model(&models.Company{}).Where("id = ?", company.ID).Update("max_sermons", 10).Error)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", member.ID).Update("sermon_limit", 0).Error)
	_, err = ev.Check(context.Background(), member.ID, PathManual)
	var le *apperr.LimitExceededError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ScopeUser, le.Scope)
	assert.Contains(t, le.Message(), "individual")

	// -1 is unlimited for the user
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", member.ID).Update("sermon_limit", -1).Error)
	d, err = ev.Check(context.Background(), member.ID, PathManual)
	require.NoError(t, err)
	assert.True(t, d.Unlimited())
}

func TestCheck_AIPathRequiresAllowAI(t *testing.T) {
	db := newTestDB(t)
	plan := seedPlan(t, db, "Sem IA", 10, false)
	company := seedCompany(t, db, "Igreja A", plan)
	user := seedUser(t, db, company, "a@x.com", models.USER_ROLE_OWNER)

	ev := NewEvaluator(db).WithClock(fixedClock(march10))
	_, err := ev.Check(context.Background(), user.ID, PathAI)
	require.Error(t, err)
	assert.Equal(t, apperr.KindAIUnavailable, apperr.KindOf(err))
	assert.Equal(t, http.StatusForbidden, apperr.HTTPStatus(err))

	_, err = ev.Check(context.Background(), user.ID, PathManual)
	assert.NoError(t, err)
}

func TestCheck_PathsCountDifferently(t *testing.T) {
	db := newTestDB(t)
	plan := seedPlan(t, db, "Básico", 1, true)
	company := seedCompany(t, db, "Igreja A", plan)
	other := seedCompany(t, db, "Igreja B", plan)
	user := seedUser(t, db, company, "a@x.com", models.USER_ROLE_OWNER)

	// sermon written by a user of company A but stamped with company B
	seedSermon(t, db, user, other.ID, march10)

	ev := NewEvaluator(db).WithClock(fixedClock(march10))

	d, err := ev.Check(context.Background(), user.ID, PathManual)
	require.NoError(t, err)
	assert.Equal(t, int64(0), d.Used)

	d, err = ev.Check(context.Background(), user.ID, PathAI)
	require.True(t, apperr.IsLimitExceeded(err))
	assert.Equal(t, int64(1), d.Used)
}

func TestCheck_UnknownUser(t *testing.T) {
	db := newTestDB(t)
	_, err := NewEvaluator(db).Check(context.Background(), 42, PathManual)
	assert.True(t, apperr.IsNotFound(err))
}

func TestUsage(t *testing.T) {
	db := newTestDB(t)
	plan := seedPlan(t, db, "Gratuito", 3, true)
	company := seedCompany(t, db, "Igreja A", plan)
	user := seedUser(t, db, company, "a@x.com", models.USER_ROLE_OWNER)
	seedSermon(t, db, user, company.ID, march10)

	report, err := NewEvaluator(db).WithClock(fixedClock(march10)).Usage(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, UsageReport{Month: "2026-03", Scope: ScopeCompany, Used: 1, Limit: 3, Remaining: 2}, report)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("sermon_limit", -1).Error)
	report, err = NewEvaluator(db).WithClock(fixedClock(march10)).Usage(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(models.UNLIMITED), report.Remaining)
	assert.Equal(t, ScopeUser, report.Scope)
}

func TestCheck_DatastoreFailureIsServerError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open("postgres", sqlDB)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnError(assert.AnError)

	_, err = NewEvaluator(db).Check(context.Background(), 1, PathManual)
	require.Error(t, err)
	assert.Equal(t, apperr.KindServer, apperr.KindOf(err))
	assert.Equal(t, http.StatusInternalServerError, apperr.HTTPStatus(err))
	assert.Equal(t, "erro interno do servidor", apperr.PublicMessage(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithinLimit(t *testing.T) {
	db := newTestDB(t)
	plan := seedPlan(t, db, "Gratuito", 3, true) // MaxChurches 1
	company := seedCompany(t, db, "Igreja A", plan)

	create := func(tx *gorm.DB) error {
		return tx.Create(&models.Church{CompanyID: company.ID, Name: "Sede"}).Error
	}
	require.NoError(t, CreateWithinLimit(context.Background(), db, company.ID, ResourceChurches, create))

	err := CreateWithinLimit(context.Background(), db, company.ID, ResourceChurches, create)
	var le *apperr.LimitExceededError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "churches", le.Resource)
	assert.Equal(t, int64(1), le.Used)

	var n int64
	require.NoError(t, db.Model(&models.Church{}).Where("company_id = ?", company.ID).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestCreateSermon_UserOverrideRejectsNextSermon(t *testing.T) {
	db := newTestDB(t)
	plan := seedPlan(t, db, "Pro", 50, true)
	company := seedCompany(t, db, "Igreja A", plan)
	member := seedUser(t, db, company, "member@x.com", models.USER_ROLE_MEMBER)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", member.ID).Update("sermon_limit", 2).Error)

	ev := NewEvaluator(db).WithClock(fixedClock(march10))
	for i := 0; i < 2; i++ {
		s := models.Sermon{UserID: member.ID, Title: "t", Content: "c"}
		_, err := ev.CreateSermon(context.Background(), &s, PathManual)
		require.NoError(t, err)
	}

	s := models.Sermon{UserID: member.ID, Title: "t", Content: "c"}
	_, err := ev.CreateSermon(context.Background(), &s, PathManual)
	var le *apperr.LimitExceededError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ScopeUser, le.Scope)
	assert.Contains(t, le.Message(), "2/2")

	// the company still has room
	used, err := CountCompanySermons(db, company.ID, StartOfMonth(march10))
	require.NoError(t, err)
	assert.Equal(t, int64(2), used)
}

func TestCreateSermon_ConcurrentRequestsRespectLimit(t *testing.T) {
	db := newTestDB(t)
	db.DB().SetMaxOpenConns(20)
	plan := seedPlan(t, db, "Gratuito", 3, true)
	company := seedCompany(t, db, "Igreja A", plan)
	user := seedUser(t, db, company, "a@x.com", models.USER_ROLE_OWNER)

	ev := NewEvaluator(db).WithClock(fixedClock(march10))

	const workers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		limited int
		other   []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := models.Sermon{UserID: user.ID, Title: "t", Content: "c"}
			_, err := ev.CreateSermon(context.Background(), &s, PathManual)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case apperr.IsLimitExceeded(err):
				limited++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, 3, created)
	assert.Equal(t, workers-3, limited)

	var rows int64
	require.NoError(t, db.Model(&models.Sermon{}).Where("company_id = ?", company.ID).Count(&rows).Error)
	assert.Equal(t, int64(3), rows)
}

func TestCreateWithinLimit_ConcurrentRequestsRespectLimit(t *testing.T) {
	db := newTestDB(t)
	plan := seedPlan(t, db, "Gratuito", 3, true)
	company := seedCompany(t, db, "Igreja A", plan)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		other   []error
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := CreateWithinLimit(context.Background(), db, company.ID, ResourceChurches, func(tx *gorm.DB) error {
				return tx.Create(&models.Church{CompanyID: company.ID, Name: "Igreja " + string(rune('A'+i))}).Error
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else if !apperr.IsLimitExceeded(err) {
				other = append(other, err)
			}
		}(i)
	}
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, 1, created)
}
