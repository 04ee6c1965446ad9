package gorm_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/greenbite/mealplanner/internal/domain/mealplan"
	"github.com/greenbite/mealplanner/internal/domain/recipe"
	gormRepo "github.com/greenbite/mealplanner/internal/infrastructure/persistence/gorm"
	"github.com/greenbite/mealplanner/internal/ports/outbound"
	"github.com/greenbite/mealplanner/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// MealPlanRepositoryTestSuite covers the plan aggregate mapping on SQLite
type MealPlanRepositoryTestSuite struct {
	suite.Suite
	db      *gorm.DB
	repo    outbound.MealPlanRepository
	factory *testutils.CandidateFactory
	userID  uuid.UUID
	ctx     context.Context
}

func (suite *MealPlanRepositoryTestSuite) SetupTest() {
	suite.db = testutils.NewTestDB(suite.T())
	suite.repo = gormRepo.NewMealPlanRepository(suite.db)
	suite.factory = testutils.NewCandidateFactory(3)
	suite.userID = uuid.New()
	suite.ctx = context.Background()
}

// store persists a plan with every slot of every day filled
func (suite *MealPlanRepositoryTestSuite) store(days, mealsPerDay int) *mealplan.MealPlan {
	plan, err := mealplan.NewMealPlan(suite.userID, time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC), days, mealsPerDay)
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), suite.repo.CreatePlan(suite.ctx, plan))

	times, err := mealplan.MealTimesFor(mealsPerDay)
	require.NoError(suite.T(), err)

	for i := 0; i < days; i++ {
		day, err := plan.AddDay(i)
		require.NoError(suite.T(), err)
		require.NoError(suite.T(), suite.repo.CreateDay(suite.ctx, day))
		for _, mt := range times {
			meal, err := day.AddMeal(mt, suite.factory.Candidate(mealplan.OriginCatalog).Draft())
			require.NoError(suite.T(), err)
			require.NoError(suite.T(), suite.repo.CreateMeal(suite.ctx, meal))
		}
	}
	return plan
}

func (suite *MealPlanRepositoryTestSuite) TestFindPlan_RoundTrip() {
	plan := suite.store(3, 2)

	got, err := suite.repo.FindPlan(suite.ctx, plan.ID())

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.userID, got.UserID())
	assert.True(suite.T(), plan.StartDate().Equal(got.StartDate()))
	assert.Equal(suite.T(), 3, got.Days())
	assert.Equal(suite.T(), 2, got.MealsPerDay())
	require.Len(suite.T(), got.DayList(), 3)
	assert.Equal(suite.T(), "2026-03-01", got.DayList()[2].Date().Format(mealplan.DateLayout))
	for i, day := range got.DayList() {
		want := plan.DayList()[i]
		assert.Equal(suite.T(), want.ID(), day.ID())
		require.Len(suite.T(), day.Meals(), 2)
		for j, meal := range day.Meals() {
			assert.Equal(suite.T(), want.Meals()[j].ID(), meal.ID())
			assert.Equal(suite.T(), want.Meals()[j].MealTime(), meal.MealTime())
			assert.Equal(suite.T(), want.Meals()[j].Draft(), meal.Draft())
		}
	}
}

func (suite *MealPlanRepositoryTestSuite) TestFind_NotFound() {
	_, err := suite.repo.FindPlan(suite.ctx, uuid.New())
	assert.ErrorIs(suite.T(), err, mealplan.ErrPlanNotFound)

	_, err = suite.repo.FindPlanByDay(suite.ctx, uuid.New())
	assert.ErrorIs(suite.T(), err, mealplan.ErrDayNotFound)

	_, err = suite.repo.FindPlanByMeal(suite.ctx, uuid.New())
	assert.ErrorIs(suite.T(), err, mealplan.ErrMealNotFound)
}

func (suite *MealPlanRepositoryTestSuite) TestFindByChild() {
	plan := suite.store(2, 1)
	day := plan.DayList()[1]

	byDay, err := suite.repo.FindPlanByDay(suite.ctx, day.ID())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), plan.ID(), byDay.ID())

	byMeal, err := suite.repo.FindPlanByMeal(suite.ctx, day.Meals()[0].ID())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), plan.ID(), byMeal.ID())
}

func (suite *MealPlanRepositoryTestSuite) TestListPlans_Paged() {
	for i := 0; i < 3; i++ {
		suite.store(1, 1)
	}
	other, err := mealplan.NewMealPlan(uuid.New(), time.Now(), 1, 1)
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), suite.repo.CreatePlan(suite.ctx, other))

	page, total, err := suite.repo.ListPlans(suite.ctx, suite.userID, 1, 10)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3, total)
	assert.Len(suite.T(), page, 2)
	for _, p := range page {
		assert.Equal(suite.T(), suite.userID, p.UserID())
		assert.Len(suite.T(), p.DayList(), 1)
	}
}

func (suite *MealPlanRepositoryTestSuite) TestMarkDayConfirmed_Once() {
	plan := suite.store(1, 1)
	dayID := plan.DayList()[0].ID()

	require.NoError(suite.T(), suite.repo.MarkDayConfirmed(suite.ctx, dayID))
	assert.ErrorIs(suite.T(), suite.repo.MarkDayConfirmed(suite.ctx, dayID), mealplan.ErrDayAlreadyConfirmed)
}

func (suite *MealPlanRepositoryTestSuite) TestCommitMeal_Once() {
	plan := suite.store(1, 1)
	day := plan.DayList()[0]
	meal := day.Meals()[0]

	committed := mealplan.NewCommittedMeal(suite.userID, day.Date(), meal)
	require.NoError(suite.T(), suite.repo.CommitMeal(suite.ctx, meal.ID(), committed))

	again := mealplan.NewCommittedMeal(suite.userID, day.Date(), meal)
	err := suite.repo.Transaction(suite.ctx, func(store outbound.MealPlanStore) error {
		return store.CommitMeal(suite.ctx, meal.ID(), again)
	})
	assert.ErrorIs(suite.T(), err, mealplan.ErrMealCommitted)
	assert.EqualValues(suite.T(), 1, testutils.CountRows(suite.T(), suite.db, "meals"), "the failed commit rolled back")

	got, err := suite.repo.FindPlan(suite.ctx, plan.ID())
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), got.DayList()[0].Meals()[0].CommittedMealID())
	assert.Equal(suite.T(), committed.ID, *got.DayList()[0].Meals()[0].CommittedMealID())
}

func (suite *MealPlanRepositoryTestSuite) TestMarkMealSkipped() {
	plan := suite.store(1, 2)
	meal := plan.DayList()[0].Meals()[1]

	require.NoError(suite.T(), suite.repo.MarkMealSkipped(suite.ctx, meal.ID()))
	assert.ErrorIs(suite.T(), suite.repo.MarkMealSkipped(suite.ctx, uuid.New()), mealplan.ErrMealNotFound)

	got, err := suite.repo.FindPlan(suite.ctx, plan.ID())
	require.NoError(suite.T(), err)
	assert.True(suite.T(), got.DayList()[0].Meals()[1].IsSkipped())
	assert.False(suite.T(), got.DayList()[0].Meals()[0].IsSkipped())
}

func (suite *MealPlanRepositoryTestSuite) TestMarkMealSkipped_LeavesCommittedSlot() {
	plan := suite.store(1, 1)
	day := plan.DayList()[0]
	meal := day.Meals()[0]
	require.NoError(suite.T(), suite.repo.CommitMeal(suite.ctx, meal.ID(), mealplan.NewCommittedMeal(suite.userID, day.Date(), meal)))

	require.NoError(suite.T(), suite.repo.MarkMealSkipped(suite.ctx, meal.ID()))

	got, err := suite.repo.FindPlan(suite.ctx, plan.ID())
	require.NoError(suite.T(), err)
	assert.False(suite.T(), got.DayList()[0].Meals()[0].IsSkipped())
	assert.True(suite.T(), got.DayList()[0].Meals()[0].IsCommitted())
}

func (suite *MealPlanRepositoryTestSuite) TestDeletePlan_Cascades() {
	keep := suite.store(1, 2)
	drop := suite.store(2, 2)

	require.NoError(suite.T(), suite.repo.DeletePlan(suite.ctx, drop.ID()))

	assert.EqualValues(suite.T(), 1, testutils.CountRows(suite.T(), suite.db, "meal_plans"))
	assert.EqualValues(suite.T(), 1, testutils.CountRows(suite.T(), suite.db, "meal_plan_days"))
	assert.EqualValues(suite.T(), 2, testutils.CountRows(suite.T(), suite.db, "meal_plan_meals"))
	_, err := suite.repo.FindPlan(suite.ctx, keep.ID())
	assert.NoError(suite.T(), err)

	assert.ErrorIs(suite.T(), suite.repo.DeletePlan(suite.ctx, drop.ID()), mealplan.ErrPlanNotFound)
}

func TestMealPlanRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(MealPlanRepositoryTestSuite))
}

func TestRecipeRepository(t *testing.T) {
	ctx := context.Background()
	repo := gormRepo.NewRecipeRepository(testutils.NewTestDB(t))
	factory := testutils.NewCandidateFactory(5)

	recipes := []*recipe.Recipe{factory.Recipe(), factory.Recipe(), factory.Recipe()}
	require.NoError(t, repo.BulkCreate(ctx, recipes))
	require.NoError(t, repo.BulkCreate(ctx, nil))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	got, err := repo.FindByID(ctx, recipes[1].ID)
	require.NoError(t, err)
	assert.Equal(t, recipes[1].Title, got.Title)
	assert.Equal(t, recipes[1].Ingredients, got.Ingredients)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, recipe.ErrRecipeNotFound)

	page, err := repo.List(ctx, 0, 2)
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestPantryRepository(t *testing.T) {
	ctx := context.Background()
	repo := gormRepo.NewPantryRepository(testutils.NewTestDB(t))
	factory := testutils.NewCandidateFactory(9)
	userID := uuid.New()

	eggs := factory.PantryItem(userID, "eggs", 6)
	require.NoError(t, repo.Upsert(ctx, eggs))
	require.NoError(t, repo.Upsert(ctx, factory.PantryItem(userID, "apples", 2)))

	replaced := factory.PantryItem(userID, "eggs", 12)
	require.NoError(t, repo.Upsert(ctx, replaced))
	assert.Equal(t, eggs.ID, replaced.ID, "upsert keeps the stored id")

	items, err := repo.FindByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "apples", items[0].Name)
	assert.Equal(t, 12.0, items[1].Quantity)

	others, err := repo.FindByUser(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestPantryRepository_TakeUnits(t *testing.T) {
	ctx := context.Background()
	repo := gormRepo.NewPantryRepository(testutils.NewTestDB(t))
	factory := testutils.NewCandidateFactory(10)
	userID := uuid.New()

	eggs := factory.PantryItem(userID, "eggs", 2)
	butter := factory.PantryItem(userID, "butter", 0)
	require.NoError(t, repo.Upsert(ctx, eggs))
	require.NoError(t, repo.Upsert(ctx, butter))

	short, err := repo.TakeUnits(ctx, []uuid.UUID{eggs.ID, butter.ID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{butter.ID}, short)

	short, err = repo.TakeUnits(ctx, []uuid.UUID{eggs.ID})
	require.NoError(t, err)
	assert.Empty(t, short)

	short, err = repo.TakeUnits(ctx, []uuid.UUID{eggs.ID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{eggs.ID}, short, "stock never goes below zero")

	items, err := repo.FindByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 0.0, items[0].Quantity)
	assert.Equal(t, 0.0, items[1].Quantity)
}
