package mealplan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/greenbite/mealplanner/internal/domain/inventory"
	"github.com/greenbite/mealplanner/internal/domain/mealplan"
	"github.com/greenbite/mealplanner/internal/domain/task"
	gormRepo "github.com/greenbite/mealplanner/internal/infrastructure/persistence/gorm"
	"github.com/greenbite/mealplanner/internal/infrastructure/persistence/memory"
	"github.com/greenbite/mealplanner/internal/ports/inbound"
	"github.com/greenbite/mealplanner/internal/ports/outbound"
	apperrors "github.com/greenbite/mealplanner/pkg/errors"
	"github.com/greenbite/mealplanner/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeEnqueuer struct {
	mu   sync.Mutex
	jobs []task.GenerateJob
	err  error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, job task.GenerateJob) (*task.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.jobs = append(f.jobs, job)
	return &task.Handle{TaskID: job.TaskID, State: task.StateQueued}, nil
}

// PlanningServiceTestSuite exercises generation and plan lookups end to end on SQLite
type PlanningServiceTestSuite struct {
	suite.Suite
	db        *gorm.DB
	repo      outbound.MealPlanRepository
	inventory *testutils.MockInventoryService
	catalog   *testutils.StaticProvider
	fallback  *testutils.StaticProvider
	enqueuer  *fakeEnqueuer
	tasks     outbound.TaskStore
	service   *PlanningService
	factory   *testutils.CandidateFactory
	userID    uuid.UUID
	ctx       context.Context
}

func (suite *PlanningServiceTestSuite) SetupTest() {
	suite.db = testutils.NewTestDB(suite.T())
	suite.repo = gormRepo.NewMealPlanRepository(suite.db)
	suite.factory = testutils.NewCandidateFactory(7)
	suite.userID = uuid.New()
	suite.ctx = context.Background()

	suite.inventory = new(testutils.MockInventoryService)
	suite.inventory.On("ForContext", mock.Anything, mock.Anything).
		Return(inventory.Snapshot{UserID: suite.userID}, nil).Maybe()

	suite.catalog = &testutils.StaticProvider{ProviderName: "catalog", Items: suite.factory.Candidates(4, mealplan.OriginCatalog)}
	suite.fallback = &testutils.StaticProvider{ProviderName: "generative", Items: suite.factory.Candidates(10, mealplan.OriginGenerative)}
	suite.enqueuer = &fakeEnqueuer{}
	suite.tasks = memory.NewTaskStore()

	builder := NewBuilder(suite.repo, nil, zap.NewNop())
	suite.service = NewPlanningService(
		suite.repo,
		suite.inventory,
		Providers{Primary: []outbound.RecipeProvider{suite.catalog}, Fallback: suite.fallback},
		builder,
		suite.enqueuer,
		suite.tasks,
		nil,
		zap.NewNop(),
	)
	suite.service.now = func() time.Time { return time.Date(2026, 5, 10, 18, 30, 0, 0, time.UTC) }
}

func (suite *PlanningServiceTestSuite) generate(days, mealsPerDay int, useFallback bool) *inbound.GenerateResult {
	res, err := suite.service.Generate(suite.ctx, inbound.GenerateCommand{
		UserID:      suite.userID,
		Days:        days,
		MealsPerDay: mealsPerDay,
		UseFallback: useFallback,
	})
	require.NoError(suite.T(), err)
	return res
}

func (suite *PlanningServiceTestSuite) TestGenerate_CatalogOnly() {
	res := suite.generate(2, 3, false)

	assert.False(suite.T(), res.Queued)
	assert.Equal(suite.T(), 6, res.MealsRequested)
	assert.Equal(suite.T(), 4, res.MealsCreated)
	require.NotNil(suite.T(), res.HaltedAt)
	assert.Equal(suite.T(), mealplan.Slot{DayNumber: 2, MealTime: mealplan.MealTimeLunch}, *res.HaltedAt)
	assert.Equal(suite.T(), time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), res.StartDate, "start defaults to today")
	assert.Zero(suite.T(), suite.fallback.Pulled, "fallback requires opt-in")
}

func (suite *PlanningServiceTestSuite) TestGenerate_FallbackFillsRemainder() {
	res := suite.generate(2, 3, true)

	assert.Equal(suite.T(), 6, res.MealsCreated)
	assert.Nil(suite.T(), res.HaltedAt)
	assert.Equal(suite.T(), 2, suite.fallback.Pulled)

	plan, err := suite.service.GetPlan(suite.ctx, suite.userID, res.PlanID)
	require.NoError(suite.T(), err)
	last := plan.DayList[1].Meals[2]
	assert.Equal(suite.T(), suite.fallback.Items[1].SourceID, last.Draft.SourceID)
}

func (suite *PlanningServiceTestSuite) TestGenerate_ExplicitStartDate() {
	res, err := suite.service.Generate(suite.ctx, inbound.GenerateCommand{
		UserID:      suite.userID,
		StartDate:   "2026-12-30",
		Days:        3,
		MealsPerDay: 1,
	})
	require.NoError(suite.T(), err)

	plan, err := suite.service.GetPlan(suite.ctx, suite.userID, res.PlanID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), plan.DayList, 3)
	assert.Equal(suite.T(), "2026-12-30", plan.DayList[0].Date)
	assert.Equal(suite.T(), "2027-01-01", plan.DayList[2].Date)
}

func (suite *PlanningServiceTestSuite) TestGenerate_Validation() {
	cases := []struct {
		name string
		cmd  inbound.GenerateCommand
	}{
		{"zero days", inbound.GenerateCommand{Days: 0, MealsPerDay: 2}},
		{"too many meals", inbound.GenerateCommand{Days: 1, MealsPerDay: 5}},
		{"zero meals", inbound.GenerateCommand{Days: 1, MealsPerDay: 0}},
		{"bad date", inbound.GenerateCommand{Days: 1, MealsPerDay: 2, StartDate: "10/05/2026"}},
	}

	for _, tc := range cases {
		suite.Run(tc.name, func() {
			tc.cmd.UserID = suite.userID
			_, err := suite.service.Generate(suite.ctx, tc.cmd)
			assert.True(suite.T(), apperrors.Is(err, apperrors.CodeValidation), "got %v", err)
		})
	}
	assert.Zero(suite.T(), testutils.CountRows(suite.T(), suite.db, "meal_plans"))
}

func (suite *PlanningServiceTestSuite) TestGenerate_InventoryUnavailable() {
	inv := new(testutils.MockInventoryService)
	inv.On("ForContext", mock.Anything, suite.userID).Return(inventory.Snapshot{}, errors.New("pantry offline"))
	suite.service.inventory = inv

	res := suite.generate(1, 2, false)

	assert.Equal(suite.T(), 2, res.MealsCreated)
	inv.AssertExpectations(suite.T())
}

func (suite *PlanningServiceTestSuite) TestGenerate_AsyncQueuesJob() {
	res, err := suite.service.Generate(suite.ctx, inbound.GenerateCommand{
		UserID:      suite.userID,
		Days:        3,
		MealsPerDay: 2,
		UseFallback: true,
		Async:       true,
	})

	require.NoError(suite.T(), err)
	assert.True(suite.T(), res.Queued)
	require.Len(suite.T(), suite.enqueuer.jobs, 1)
	job := suite.enqueuer.jobs[0]
	assert.Equal(suite.T(), res.Task.TaskID, job.TaskID)
	assert.Equal(suite.T(), "2026-05-10", job.StartDate)
	assert.True(suite.T(), job.UseFallback)
	assert.Zero(suite.T(), testutils.CountRows(suite.T(), suite.db, "meal_plans"), "nothing is built inline")
}

func (suite *PlanningServiceTestSuite) TestGenerate_AsyncEnqueueFailure() {
	suite.enqueuer.err = apperrors.NewInternalError("failed to queue meal plan generation")

	_, err := suite.service.Generate(suite.ctx, inbound.GenerateCommand{UserID: suite.userID, Days: 1, MealsPerDay: 1, Async: true})

	assert.True(suite.T(), apperrors.Is(err, apperrors.CodeInternal))
}

func (suite *PlanningServiceTestSuite) TestRunJob() {
	planID, err := suite.service.RunJob(suite.ctx, task.GenerateJob{
		TaskID:      uuid.New(),
		UserID:      suite.userID,
		StartDate:   "2026-06-01",
		Days:        1,
		MealsPerDay: 3,
	})
	require.NoError(suite.T(), err)

	plan, err := suite.service.GetPlan(suite.ctx, suite.userID, planID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "2026-06-01", plan.StartDate)
	assert.Len(suite.T(), plan.DayList[0].Meals, 3)

	_, err = suite.service.RunJob(suite.ctx, task.GenerateJob{UserID: suite.userID, Days: 1, MealsPerDay: 9})
	assert.True(suite.T(), apperrors.Is(err, apperrors.CodeValidation))
}

func (suite *PlanningServiceTestSuite) TestGetPlan_Ownership() {
	res := suite.generate(1, 1, false)

	_, err := suite.service.GetPlan(suite.ctx, uuid.New(), res.PlanID)
	assert.True(suite.T(), apperrors.Is(err, apperrors.CodeOwnershipMismatch))

	_, err = suite.service.GetPlan(suite.ctx, suite.userID, uuid.New())
	assert.True(suite.T(), apperrors.Is(err, apperrors.CodeNotFound))
}

func (suite *PlanningServiceTestSuite) TestListPlans() {
	suite.generate(1, 1, false)
	suite.generate(1, 1, false)

	list, err := suite.service.ListPlans(suite.ctx, suite.userID, 0, 0)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, list.Total)
	assert.Len(suite.T(), list.Plans, 2)

	other, err := suite.service.ListPlans(suite.ctx, uuid.New(), 0, 10)
	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), other.Total)
	assert.Empty(suite.T(), other.Plans)
}

func (suite *PlanningServiceTestSuite) TestDeletePlan_Unconfirmed() {
	res := suite.generate(2, 2, false)

	require.NoError(suite.T(), suite.service.DeletePlan(suite.ctx, suite.userID, res.PlanID))

	assert.Zero(suite.T(), testutils.CountRows(suite.T(), suite.db, "meal_plans"))
	assert.Zero(suite.T(), testutils.CountRows(suite.T(), suite.db, "meal_plan_days"))
	assert.Zero(suite.T(), testutils.CountRows(suite.T(), suite.db, "meal_plan_meals"))
}

func (suite *PlanningServiceTestSuite) TestDeletePlan_Confirmed() {
	res := suite.generate(1, 2, false)
	suite.inventory.On("Consume", mock.Anything, suite.userID, mock.Anything).Return(nil)

	plan, err := suite.service.GetPlan(suite.ctx, suite.userID, res.PlanID)
	require.NoError(suite.T(), err)
	confirmation := NewConfirmationService(suite.repo, suite.inventory, zap.NewNop())
	out, err := confirmation.ConfirmDay(suite.ctx, suite.userID, plan.DayList[0].ID)
	require.NoError(suite.T(), err)
	require.True(suite.T(), out.PlanConfirmed)

	err = suite.service.DeletePlan(suite.ctx, suite.userID, res.PlanID)

	require.Error(suite.T(), err)
	assert.True(suite.T(), apperrors.Is(err, apperrors.CodeValidation))
	assert.Contains(suite.T(), err.Error(), "Cannot delete confirmed plan")
	assert.EqualValues(suite.T(), 1, testutils.CountRows(suite.T(), suite.db, "meal_plans"))
}

func (suite *PlanningServiceTestSuite) TestDeletePlan_Ownership() {
	res := suite.generate(1, 1, false)

	err := suite.service.DeletePlan(suite.ctx, uuid.New(), res.PlanID)
	assert.True(suite.T(), apperrors.Is(err, apperrors.CodeOwnershipMismatch))

	err = suite.service.DeletePlan(suite.ctx, suite.userID, uuid.New())
	assert.True(suite.T(), apperrors.Is(err, apperrors.CodeNotFound))

	assert.EqualValues(suite.T(), 1, testutils.CountRows(suite.T(), suite.db, "meal_plans"))
}

func (suite *PlanningServiceTestSuite) TestGetTask() {
	job := task.GenerateJob{TaskID: uuid.New(), UserID: suite.userID}
	require.NoError(suite.T(), suite.tasks.Create(suite.ctx, task.NewStatus(job)))

	status, err := suite.service.GetTask(suite.ctx, suite.userID, job.TaskID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), task.StateQueued, status.State)

	_, err = suite.service.GetTask(suite.ctx, uuid.New(), job.TaskID)
	assert.True(suite.T(), apperrors.Is(err, apperrors.CodeOwnershipMismatch))

	_, err = suite.service.GetTask(suite.ctx, suite.userID, uuid.New())
	assert.True(suite.T(), apperrors.Is(err, apperrors.CodeNotFound))
}

func TestPlanningServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PlanningServiceTestSuite))
}
