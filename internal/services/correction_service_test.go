package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/teachkit/correction-service/internal/cache"
	"github.com/teachkit/correction-service/internal/config"
	"github.com/teachkit/correction-service/internal/grading"
	"github.com/teachkit/correction-service/internal/models"
	"github.com/teachkit/correction-service/internal/repositories"
	"github.com/teachkit/correction-service/internal/validator"
)

// ===== MOCKS =====

type MockCorrectionRepository struct {
	mock.Mock
}

func (m *MockCorrectionRepository) Create(ctx context.Context, correction *models.Correction) error {
	args := m.Called(ctx, correction)
	return args.Error(0)
}

func (m *MockCorrectionRepository) CreateBatch(ctx context.Context, corrections []*models.Correction) error {
	args := m.Called(ctx, corrections)
	return args.Error(0)
}

func (m *MockCorrectionRepository) GetByID(ctx context.Context, id uint) (*models.Correction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Correction), args.Error(1)
}

func (m *MockCorrectionRepository) GetByIDWithActivity(ctx context.Context, id uint) (*models.Correction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Correction), args.Error(1)
}

func (m *MockCorrectionRepository) GetByStudentAndActivity(ctx context.Context, studentID string, activityID uint) (*models.Correction, error) {
	args := m.Called(ctx, studentID, activityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Correction), args.Error(1)
}

func (m *MockCorrectionRepository) Update(ctx context.Context, correction *models.Correction) error {
	args := m.Called(ctx, correction)
	return args.Error(0)
}

func (m *MockCorrectionRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCorrectionRepository) ListByActivity(ctx context.Context, activityID uint, filters repositories.CorrectionFilters) ([]*models.Correction, int64, error) {
	args := m.Called(ctx, activityID, filters)
	return args.Get(0).([]*models.Correction), args.Get(1).(int64), args.Error(2)
}

func (m *MockCorrectionRepository) ListByStudent(ctx context.Context, studentID string, filters repositories.CorrectionFilters) ([]*models.Correction, int64, error) {
	args := m.Called(ctx, studentID, filters)
	return args.Get(0).([]*models.Correction), args.Get(1).(int64), args.Error(2)
}

func (m *MockCorrectionRepository) GetGradeStats(ctx context.Context, activityID uint) (*repositories.ActivityGradeStats, error) {
	args := m.Called(ctx, activityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.ActivityGradeStats), args.Error(1)
}

func (m *MockCorrectionRepository) ExistsForActivity(ctx context.Context, activityID uint) (bool, error) {
	args := m.Called(ctx, activityID)
	return args.Bool(0), args.Error(1)
}

type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	args := m.Called(ctx, activity)
	return args.Error(0)
}

func (m *MockActivityRepository) GetByID(ctx context.Context, id uint) (*models.Activity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Activity), args.Error(1)
}

func (m *MockActivityRepository) Update(ctx context.Context, activity *models.Activity) error {
	args := m.Called(ctx, activity)
	return args.Error(0)
}

func (m *MockActivityRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockActivityRepository) List(ctx context.Context, filters repositories.ActivityFilters) ([]*models.Activity, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Activity), args.Get(1).(int64), args.Error(2)
}

// stubAuditLogRepository is safe to call from the fire-and-forget goroutine.
type stubAuditLogRepository struct {
	mu      sync.Mutex
	entries []*models.AuditLog
	err     error
}

func (s *stubAuditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubAuditLogRepository) ListByEntity(ctx context.Context, entityType string, entityID uint, filters repositories.AuditLogFilters) ([]*models.AuditLog, int64, error) {
	return nil, 0, nil
}

type mockRepository struct {
	correction *MockCorrectionRepository
	activity   *MockActivityRepository
	auditLog   *stubAuditLogRepository
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		correction: new(MockCorrectionRepository),
		activity:   new(MockActivityRepository),
		auditLog:   new(stubAuditLogRepository),
	}
}

func (m *mockRepository) Correction() repositories.CorrectionRepository { return m.correction }
func (m *mockRepository) Activity() repositories.ActivityRepository     { return m.activity }
func (m *mockRepository) AuditLog() repositories.AuditLogRepository     { return m.auditLog }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

// ===== FIXTURES =====

func newTestService(repo *mockRepository) CorrectionService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCorrectionService(repo, cache.NewNoopCache(), nil, logger, validator.New(), config.GradingConfig{
		TwoPartFloorThreshold:  5,
		TwoPartFloorValue:      5,
		VariableFloorThreshold: 6,
		VariableFloorValue:     6,
	})
}

func twoPartActivity(t *testing.T, id uint) *models.Activity {
	t.Helper()
	activity := &models.Activity{
		ID:          id,
		Title:       "TP Chimie",
		ScoringKind: models.ScoringTwoPart,
		CreatedBy:   "teacher-1",
	}
	require.NoError(t, activity.SetParts([]models.ScorePart{
		{Name: models.PartExperimental, MaxPoints: 12},
		{Name: models.PartTheoretical, MaxPoints: 8},
	}))
	return activity
}

func variableActivity(t *testing.T, id uint) *models.Activity {
	t.Helper()
	activity := &models.Activity{
		ID:          id,
		Title:       "Projet libre",
		ScoringKind: models.ScoringVariable,
		CreatedBy:   "teacher-1",
	}
	require.NoError(t, activity.SetParts([]models.ScorePart{
		{Name: "Partie 1", MaxPoints: 10},
		{Name: "Partie 2", MaxPoints: 6},
		{Name: "Partie 3", MaxPoints: 4},
	}))
	return activity
}

func activeCorrection(t *testing.T, id, activityID uint, points []float64) *models.Correction {
	t.Helper()
	c := &models.Correction{
		ID:         id,
		ActivityID: activityID,
		StudentID:  "student-1",
		Status:     models.CorrectionActive,
		Penalty:    floatPtr(0),
	}
	require.NoError(t, c.SetPoints(points))
	return c
}

func safeNum(v float64) *grading.SafeNumber {
	n := grading.SafeNumber(v)
	return &n
}

// ===== TESTS =====

func TestCorrectionService_UpdateGrade(t *testing.T) {
	ctx := context.Background()

	t.Run("recomputes both grades below the floor threshold", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestService(repo)

		correction := activeCorrection(t, 1, 10, []float64{0, 0})
		repo.correction.On("GetByID", ctx, uint(1)).Return(correction, nil)
		repo.activity.On("GetByID", ctx, uint(10)).Return(twoPartActivity(t, 10), nil)
		repo.correction.On("Update", ctx, mock.AnythingOfType("*models.Correction")).Return(nil)

		resp, err := service.UpdateGrade(ctx, 1, &UpdateGradeRequest{
			Points:  []grading.SafeNumber{2, 1},
			Penalty: safeNum(3),
		}, "teacher-1")

		require.NoError(t, err)
		assert.Equal(t, []float64{2, 1}, resp.EarnedPoints)
		require.NotNil(t, resp.Grade)
		require.NotNil(t, resp.FinalGrade)
		assert.Equal(t, 3.0, *resp.Grade)
		assert.Equal(t, 3.0, *resp.FinalGrade, "raw total below the threshold is never penalized")
		repo.correction.AssertExpectations(t)
	})

	t.Run("penalty stops at the floor value", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestService(repo)

		correction := activeCorrection(t, 1, 10, []float64{0, 0})
		repo.correction.On("GetByID", ctx, uint(1)).Return(correction, nil)
		repo.activity.On("GetByID", ctx, uint(10)).Return(twoPartActivity(t, 10), nil)
		repo.correction.On("Update", ctx, mock.Anything).Return(nil)

		resp, err := service.UpdateGrade(ctx, 1, &UpdateGradeRequest{
			Points:  []grading.SafeNumber{10, 8},
			Penalty: safeNum(15),
		}, "teacher-1")

		require.NoError(t, err)
		assert.Equal(t, 18.0, *resp.Grade)
		assert.Equal(t, 5.0, *resp.FinalGrade)
	})

	t.Run("empty request is rejected without any write", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestService(repo)

		_, err := service.UpdateGrade(ctx, 1, &UpdateGradeRequest{}, "teacher-1")

		assert.ErrorIs(t, err, ErrInvalidInput)
		repo.correction.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("unknown correction", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestService(repo)

		repo.correction.On("GetByID", ctx, uint(99)).Return(nil, gorm.ErrRecordNotFound)

		_, err := service.UpdateGrade(ctx, 99, &UpdateGradeRequest{Penalty: safeNum(2)}, "teacher-1")
		assert.ErrorIs(t, err, ErrCorrectionNotFound)
	})

	t.Run("wrong point count is a validation error", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestService(repo)

		correction := activeCorrection(t, 1, 10, []float64{0, 0})
		repo.correction.On("GetByID", ctx, uint(1)).Return(correction, nil)
		repo.activity.On("GetByID", ctx, uint(10)).Return(twoPartActivity(t, 10), nil)

		_, err := service.UpdateGrade(ctx, 1, &UpdateGradeRequest{
			Points: []grading.SafeNumber{1, 2, 3},
		}, "teacher-1")

		assert.True(t, IsValidation(err))
		repo.correction.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestCorrectionService_UpdatePenalty(t *testing.T) {
	ctx := context.Background()

	t.Run("recomputes from stored points", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestService(repo)

		correction := activeCorrection(t, 1, 10, []float64{8, 4})
		repo.correction.On("GetByID", ctx, uint(1)).Return(correction, nil)
		repo.activity.On("GetByID", ctx, uint(10)).Return(twoPartActivity(t, 10), nil)
		repo.correction.On("Update", ctx, mock.Anything).Return(nil)

		resp, err := service.UpdatePenalty(ctx, 1, &UpdatePenaltyRequest{Penalty: safeNum(4)}, "teacher-1")

		require.NoError(t, err)
		assert.Equal(t, 12.0, *resp.Grade)
		assert.Equal(t, 8.0, *resp.FinalGrade)
	})

	t.Run("audit failure never fails the operation", func(t *testing.T) {
		repo := newMockRepository()
		repo.auditLog.err = errors.New("audit store down")
		service := newTestService(repo)

		correction := activeCorrection(t, 1, 10, []float64{8, 4})
		repo.correction.On("GetByID", ctx, uint(1)).Return(correction, nil)
		repo.activity.On("GetByID", ctx, uint(10)).Return(twoPartActivity(t, 10), nil)
		repo.correction.On("Update", ctx, mock.Anything).Return(nil)

		_, err := service.UpdatePenalty(ctx, 1, &UpdatePenaltyRequest{Penalty: safeNum(4)}, "teacher-1")
		assert.NoError(t, err)
	})
}

func TestCorrectionService_UpdateBonus(t *testing.T) {
	ctx := context.Background()

	t.Run("bonus feeds the raw total before the floor rule", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestService(repo)

		correction := activeCorrection(t, 1, 20, []float64{4, 2, 1})
		correction.Bonus = floatPtr(0)
		repo.correction.On("GetByID", ctx, uint(1)).Return(correction, nil)
		repo.activity.On("GetByID", ctx, uint(20)).Return(variableActivity(t, 20), nil)
		repo.correction.On("Update", ctx, mock.Anything).Return(nil)

		resp, err := service.UpdateBonus(ctx, 1, &UpdateBonusRequest{Bonus: safeNum(2)}, "teacher-1")

		require.NoError(t, err)
		assert.Equal(t, 9.0, *resp.Grade)
		assert.Equal(t, 9.0, *resp.FinalGrade)
	})

	t.Run("rejected for the two-part family", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestService(repo)

		correction := activeCorrection(t, 1, 10, []float64{8, 4})
		repo.correction.On("GetByID", ctx, uint(1)).Return(correction, nil)
		repo.activity.On("GetByID", ctx, uint(10)).Return(twoPartActivity(t, 10), nil)

		_, err := service.UpdateBonus(ctx, 1, &UpdateBonusRequest{Bonus: safeNum(2)}, "teacher-1")

		assert.ErrorIs(t, err, ErrBonusNotSupported)
		repo.correction.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestCorrectionService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("deactivation nulls every derived field", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestService(repo)

		correction := activeCorrection(t, 1, 10, []float64{8, 4})
		correction.Grade = floatPtr(12)
		correction.FinalGrade = floatPtr(12)
		now := time.Now()
		correction.SubmissionDate = &now

		repo.correction.On("GetByID", ctx, uint(1)).Return(correction, nil)
		repo.activity.On("GetByID", ctx, uint(10)).Return(twoPartActivity(t, 10), nil)
		repo.correction.On("Update", ctx, mock.Anything).Return(nil)

		resp, err := service.UpdateStatus(ctx, 1, &UpdateStatusRequest{Status: models.CorrectionDeactivated}, "teacher-1")

		require.NoError(t, err)
		assert.Equal(t, models.CorrectionDeactivated, resp.Status)
		assert.Nil(t, resp.EarnedPoints)
		assert.Nil(t, resp.Penalty)
		assert.Nil(t, resp.Grade)
		assert.Nil(t, resp.FinalGrade)
		assert.Nil(t, resp.SubmissionDate)
	})

	t.Run("exempt status is recognized but rejected", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestService(repo)

		correction := activeCorrection(t, 1, 10, []float64{8, 4})
		repo.correction.On("GetByID", ctx, uint(1)).Return(correction, nil)
		repo.activity.On("GetByID", ctx, uint(10)).Return(twoPartActivity(t, 10), nil)

		_, err := service.UpdateStatus(ctx, 1, &UpdateStatusRequest{Status: models.CorrectionExempt}, "teacher-1")

		assert.ErrorIs(t, err, ErrStatusNotSupported)
		repo.correction.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("garbage status string", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestService(repo)

		correction := activeCorrection(t, 1, 10, []float64{8, 4})
		repo.correction.On("GetByID", ctx, uint(1)).Return(correction, nil)
		repo.activity.On("GetByID", ctx, uint(10)).Return(twoPartActivity(t, 10), nil)

		_, err := service.UpdateStatus(ctx, 1, &UpdateStatusRequest{Status: "WHATEVER"}, "teacher-1")
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})
}

func TestCorrectionService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("new correction starts active with zero points", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestService(repo)

		activity := variableActivity(t, 20)
		repo.activity.On("GetByID", ctx, uint(20)).Return(activity, nil)
		repo.correction.On("GetByStudentAndActivity", ctx, "student-1", uint(20)).Return(nil, gorm.ErrRecordNotFound)
		repo.correction.On("Create", ctx, mock.AnythingOfType("*models.Correction")).Return(nil)

		resp, err := service.Create(ctx, &CreateCorrectionRequest{
			ActivityID: 20,
			StudentID:  "student-1",
		}, "teacher-1")

		require.NoError(t, err)
		assert.Equal(t, models.CorrectionActive, resp.Status)
		assert.Equal(t, []float64{0, 0, 0}, resp.EarnedPoints)
		require.NotNil(t, resp.Bonus, "variable family starts with an explicit zero bonus")
		assert.Equal(t, 0.0, *resp.Bonus)
		assert.Len(t, resp.Breakdown, 3)
	})

	t.Run("duplicate student and activity pair", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestService(repo)

		activity := twoPartActivity(t, 10)
		repo.activity.On("GetByID", ctx, uint(10)).Return(activity, nil)
		existing := activeCorrection(t, 5, 10, []float64{0, 0})
		repo.correction.On("GetByStudentAndActivity", ctx, "student-1", uint(10)).Return(existing, nil)

		_, err := service.Create(ctx, &CreateCorrectionRequest{
			ActivityID: 10,
			StudentID:  "student-1",
		}, "teacher-1")

		assert.ErrorIs(t, err, ErrCorrectionExists)
	})
}

func TestCorrectionService_UpdateDates(t *testing.T) {
	ctx := context.Background()

	t.Run("dates change without touching penalty or grades", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestService(repo)

		correction := activeCorrection(t, 1, 10, []float64{8, 4})
		correction.Penalty = floatPtr(3)
		correction.Grade = floatPtr(12)
		correction.FinalGrade = floatPtr(9)
		repo.correction.On("GetByID", ctx, uint(1)).Return(correction, nil)
		repo.activity.On("GetByID", ctx, uint(10)).Return(twoPartActivity(t, 10), nil)
		repo.correction.On("Update", ctx, mock.Anything).Return(nil)

		deadline := time.Date(2026, 4, 1, 23, 59, 0, 0, time.UTC)
		submitted := deadline.Add(48 * time.Hour)
		resp, err := service.UpdateDates(ctx, 1, &UpdateDatesRequest{
			Deadline:       &deadline,
			SubmissionDate: &submitted,
		}, "teacher-1")

		require.NoError(t, err)
		assert.Equal(t, deadline, *resp.Deadline)
		assert.Equal(t, submitted, *resp.SubmissionDate)
		assert.Equal(t, 3.0, *resp.Penalty, "a two-day-late submission must not rewrite the stored penalty")
		assert.Equal(t, 12.0, *resp.Grade)
		assert.Equal(t, 9.0, *resp.FinalGrade)
	})

	t.Run("deactivated correction keeps its nulled grades", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestService(repo)

		correction := &models.Correction{
			ID:         1,
			ActivityID: 10,
			StudentID:  "student-1",
			Status:     models.CorrectionDeactivated,
		}
		repo.correction.On("GetByID", ctx, uint(1)).Return(correction, nil)
		repo.activity.On("GetByID", ctx, uint(10)).Return(twoPartActivity(t, 10), nil)
		repo.correction.On("Update", ctx, mock.Anything).Return(nil)

		deadline := time.Date(2026, 4, 1, 23, 59, 0, 0, time.UTC)
		resp, err := service.UpdateDates(ctx, 1, &UpdateDatesRequest{Deadline: &deadline}, "teacher-1")

		require.NoError(t, err)
		assert.Equal(t, models.CorrectionDeactivated, resp.Status)
		assert.Equal(t, deadline, *resp.Deadline)
		assert.Nil(t, resp.Grade)
		assert.Nil(t, resp.FinalGrade)
		assert.Nil(t, resp.Penalty)
		assert.Nil(t, resp.EarnedPoints)
	})

	t.Run("empty request is rejected without any write", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestService(repo)

		_, err := service.UpdateDates(ctx, 1, &UpdateDatesRequest{}, "teacher-1")

		assert.ErrorIs(t, err, ErrInvalidInput)
		repo.correction.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestCorrectionService_SuggestLatePenalty(t *testing.T) {
	ctx := context.Background()

	t.Run("grace day then two points per day capped", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestService(repo)

		deadline := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
		submitted := deadline.Add(4 * 24 * time.Hour)
		correction := activeCorrection(t, 1, 10, []float64{0, 0})
		correction.Deadline = &deadline
		correction.SubmissionDate = &submitted
		repo.correction.On("GetByID", ctx, uint(1)).Return(correction, nil)

		resp, err := service.SuggestLatePenalty(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, 4, resp.DaysLate)
		assert.Equal(t, 6.0, resp.SuggestedPenalty)
	})

	t.Run("missing dates mean no suggestion", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestService(repo)

		correction := activeCorrection(t, 1, 10, []float64{0, 0})
		repo.correction.On("GetByID", ctx, uint(1)).Return(correction, nil)

		resp, err := service.SuggestLatePenalty(ctx, 1)

		require.NoError(t, err)
		assert.Zero(t, resp.DaysLate)
		assert.Zero(t, resp.SuggestedPenalty)
	})
}
