package submissions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"formrelay/internal/domain"
)

type mockSubRepo struct {
	mock.Mock
}

func (m *mockSubRepo) GetByID(ctx context.Context, id int64) (*domain.Submission, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*domain.Submission), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSubRepo) List(ctx context.Context, apiKeyID int64, page, perPage int) ([]domain.Submission, int64, error) {
	args := m.Called(ctx, apiKeyID, page, perPage)
	if s := args.Get(0); s != nil {
		return s.([]domain.Submission), args.Get(1).(int64), args.Error(2)
	}
	return nil, args.Get(1).(int64), args.Error(2)
}

func (m *mockSubRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSubRepo) GetFileByID(ctx context.Context, id int64) (*domain.FileUpload, error) {
	args := m.Called(ctx, id)
	if f := args.Get(0); f != nil {
		return f.(*domain.FileUpload), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSubRepo) ListFilesBySubmission(ctx context.Context, submissionID int64) ([]domain.FileUpload, error) {
	args := m.Called(ctx, submissionID)
	if f := args.Get(0); f != nil {
		return f.([]domain.FileUpload), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSubRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSubRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSubRepo) CountFiles(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockKeyCounter struct {
	mock.Mock
}

func (m *mockKeyCounter) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockKeyCounter) CountActive(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockRemover struct {
	mock.Mock
}

func (m *mockRemover) Remove(path string) {
	m.Called(path)
}

func TestList_ClampsPagination(t *testing.T) {
	repo := new(mockSubRepo)
	svc := NewService(repo, new(mockKeyCounter), new(mockRemover))

	repo.On("List", mock.Anything, int64(0), 1, defaultPerPage).Return([]domain.Submission{}, int64(0), nil).Once()
	_, err := svc.List(context.Background(), 0, -3, 0)
	require.NoError(t, err)

	repo.On("List", mock.Anything, int64(0), 2, maxPerPage).Return([]domain.Submission{}, int64(0), nil).Once()
	_, err = svc.List(context.Background(), 0, 2, 10_000)
	require.NoError(t, err)

	repo.AssertExpectations(t)
}

func TestList_PageCount(t *testing.T) {
	repo := new(mockSubRepo)
	svc := NewService(repo, new(mockKeyCounter), new(mockRemover))

	repo.On("List", mock.Anything, int64(0), 1, 20).Return(make([]domain.Submission, 20), int64(41), nil)

	res, err := svc.List(context.Background(), 0, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(41), res.Total)
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 20, res.PerPage)
}

func TestGet_NotFound(t *testing.T) {
	repo := new(mockSubRepo)
	svc := NewService(repo, new(mockKeyCounter), new(mockRemover))

	repo.On("GetByID", mock.Anything, int64(404)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.Get(context.Background(), 404)
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestDelete_RemovesBytesThenRows(t *testing.T) {
	repo := new(mockSubRepo)
	remover := new(mockRemover)
	svc := NewService(repo, new(mockKeyCounter), remover)

	sub := &domain.Submission{
		ID: 8,
		Files: []domain.FileUpload{
			{FilePath: "/data/one.pdf"},
			{FilePath: "/data/two.txt"},
		},
	}
	repo.On("GetByID", mock.Anything, int64(8)).Return(sub, nil)
	remover.On("Remove", "/data/one.pdf").Return()
	remover.On("Remove", "/data/two.txt").Return()
	repo.On("Delete", mock.Anything, int64(8)).Return(nil)

	err := svc.Delete(context.Background(), 8)
	require.NoError(t, err)

	remover.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestGetFile_NotFound(t *testing.T) {
	repo := new(mockSubRepo)
	svc := NewService(repo, new(mockKeyCounter), new(mockRemover))

	repo.On("GetFileByID", mock.Anything, int64(12)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.GetFile(context.Background(), 12)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestStats(t *testing.T) {
	repo := new(mockSubRepo)
	keys := new(mockKeyCounter)
	svc := NewService(repo, keys, new(mockRemover))

	keys.On("Count", mock.Anything).Return(int64(5), nil)
	keys.On("CountActive", mock.Anything).Return(int64(3), nil)
	repo.On("Count", mock.Anything).Return(int64(120), nil)
	repo.On("CountSince", mock.Anything, mock.AnythingOfType("time.Time")).Return(int64(11), nil)
	repo.On("CountFiles", mock.Anything).Return(int64(40), nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(5), stats.TotalApiKeys)
	assert.Equal(t, int64(3), stats.ActiveApiKeys)
	assert.Equal(t, int64(120), stats.TotalSubmissions)
	assert.Equal(t, int64(11), stats.RecentSubmissions)
	assert.Equal(t, int64(40), stats.TotalFiles)

	// The recent window is the trailing seven days.
	since := repo.Calls[1].Arguments.Get(1).(time.Time)
	assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, -7), since, time.Minute)
}
