//go:build integration

// Package integration runs the planning core against a real PostgreSQL instance
package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/greenbite/mealplanner/internal/application/inventory"
	appMealplan "github.com/greenbite/mealplanner/internal/application/mealplan"
	"github.com/greenbite/mealplanner/internal/domain/mealplan"
	gormRepo "github.com/greenbite/mealplanner/internal/infrastructure/persistence/gorm"
	"github.com/greenbite/mealplanner/internal/infrastructure/persistence/migrations"
	"github.com/greenbite/mealplanner/internal/infrastructure/persistence/postgres"
	"github.com/greenbite/mealplanner/internal/ports/outbound"
	"github.com/greenbite/mealplanner/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MealPlanPostgresTestSuite exercises migrations, building and confirmation on PostgreSQL
type MealPlanPostgresTestSuite struct {
	suite.Suite
	db           *gorm.DB
	dbName       string
	repo         outbound.MealPlanRepository
	pantry       *inventory.Service
	builder      *appMealplan.Builder
	confirmation *appMealplan.ConfirmationService
	factory      *testutils.CandidateFactory
	ctx          context.Context
}

func (suite *MealPlanPostgresTestSuite) SetupSuite() {
	suite.ctx = context.Background()
	cfg := testutils.SetupPostgres(suite.T())
	suite.dbName = cfg.Database.Database

	db, err := postgres.Open(cfg, zap.NewNop())
	require.NoError(suite.T(), err, "Failed to open postgres")
	suite.db = db

	suite.repo = gormRepo.NewMealPlanRepository(db)
	suite.pantry = inventory.NewService(gormRepo.NewPantryRepository(db), zap.NewNop())
	suite.builder = appMealplan.NewBuilder(suite.repo, nil, zap.NewNop())
	suite.confirmation = appMealplan.NewConfirmationService(suite.repo, suite.pantry, zap.NewNop())
	suite.factory = testutils.NewCandidateFactory(time.Now().UnixNano())
}

func (suite *MealPlanPostgresTestSuite) SetupTest() {
	err := suite.db.Exec("TRUNCATE meal_plan_meals, meal_plan_days, meal_plans, meals, pantry_items CASCADE").Error
	require.NoError(suite.T(), err, "Failed to clean database")
}

func (suite *MealPlanPostgresTestSuite) TestMigrationsAreCurrent() {
	sqlDB, err := suite.db.DB()
	require.NoError(suite.T(), err)

	migrator, err := migrations.New(sqlDB, suite.dbName, zap.NewNop())
	require.NoError(suite.T(), err)

	version, dirty, err := migrator.Version()
	require.NoError(suite.T(), err)
	assert.False(suite.T(), dirty)
	assert.EqualValues(suite.T(), 2, version)
	assert.NoError(suite.T(), migrator.Up(), "re-running migrations is a no-op")
}

func (suite *MealPlanPostgresTestSuite) TestBuildAndConfirm() {
	userID := uuid.New()
	_, err := suite.pantry.Restock(suite.ctx, userID, "eggs", 1, "pcs")
	require.NoError(suite.T(), err)

	cands := suite.factory.Candidates(3, mealplan.OriginCatalog)
	cands[0].Ingredients = append(cands[0].Ingredients, "2 eggs")

	res, err := suite.builder.Build(suite.ctx, appMealplan.BuildRequest{
		UserID:      userID,
		StartDate:   time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
		Days:        2,
		MealsPerDay: 2,
	}, cands)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3, res.Created)
	require.NotNil(suite.T(), res.HaltedAt)

	plan, err := suite.repo.FindPlan(suite.ctx, res.Plan.ID())
	require.NoError(suite.T(), err)
	require.Len(suite.T(), plan.DayList(), 2)

	out, err := suite.confirmation.ConfirmDay(suite.ctx, userID, plan.DayList()[0].ID())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, out.MealsCommitted)
	assert.False(suite.T(), out.PlanConfirmed)

	items, err := suite.pantry.List(suite.ctx, userID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), items, 1)
	assert.Zero(suite.T(), items[0].Quantity)
}

func (suite *MealPlanPostgresTestSuite) TestConcurrentConfirmCommitsOnce() {
	userID := uuid.New()
	res, err := suite.builder.Build(suite.ctx, appMealplan.BuildRequest{
		UserID:      userID,
		StartDate:   time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		Days:        1,
		MealsPerDay: 3,
	}, suite.factory.Candidates(3, mealplan.OriginCatalog))
	require.NoError(suite.T(), err)
	dayID := res.Plan.DayList()[0].ID()

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := suite.confirmation.ConfirmDay(suite.ctx, userID, dayID); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(suite.T(), 1, successes)
	assert.EqualValues(suite.T(), 3, testutils.CountRows(suite.T(), suite.db, "meals"))

	plan, err := suite.repo.FindPlan(suite.ctx, res.Plan.ID())
	require.NoError(suite.T(), err)
	assert.True(suite.T(), plan.IsConfirmed())
}

func TestMealPlanPostgresTestSuite(t *testing.T) {
	suite.Run(t, new(MealPlanPostgresTestSuite))
}
