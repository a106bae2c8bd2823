package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/store-service/internal/app/store/media"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockReferenceSource мок для ProductRepository.ReferencedFiles
type MockReferenceSource struct {
	mock.Mock
}

func (m *MockReferenceSource) ReferencedFiles(ctx context.Context) (map[string]struct{}, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

// MockMediaStore мок для media.Storage
type MockMediaStore struct {
	mock.Mock
}

func (m *MockMediaStore) List() ([]media.FileInfo, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]media.FileInfo), args.Error(1)
}

func (m *MockMediaStore) Remove(names ...string) {
	m.Called(names)
}

var sweepNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

// Имена в формате хранилища: ULID в нижнем регистре плюс расширение
const (
	orphanImage = "01hxa3b4c5d6e7f8g9h0jkmnpq.png"
	orphanVideo = "01hxa3b4c5d6e7f8g9h0jkmnpr.mp4"
	freshImage  = "01hxa3b4c5d6e7f8g9h0jkmnps.png"
)

func newTestSweeper(refs *MockReferenceSource, files *MockMediaStore) *MediaSweeper {
	sweeper := NewMediaSweeper(refs, files, time.Hour)
	sweeper.now = func() time.Time { return sweepNow }
	return sweeper
}

// ===================== Sweep Tests =====================

func TestMediaSweeper_Sweep_RemovesOldOrphans(t *testing.T) {
	// Arrange
	ctx := context.Background()
	refs := new(MockReferenceSource)
	files := new(MockMediaStore)
	sweeper := newTestSweeper(refs, files)

	refs.On("ReferencedFiles", ctx).Return(map[string]struct{}{"used.png": {}, "main.png": {}}, nil)
	files.On("List").Return([]media.FileInfo{
		{Name: "used.png", ModTime: sweepNow.Add(-48 * time.Hour)},
		{Name: "main.png", ModTime: sweepNow.Add(-48 * time.Hour)},
		{Name: orphanImage, ModTime: sweepNow.Add(-2 * time.Hour)},
		{Name: orphanVideo, ModTime: sweepNow.Add(-3 * time.Hour)},
		{Name: freshImage, ModTime: sweepNow.Add(-10 * time.Minute)},
	}, nil)
	files.On("Remove", []string{orphanImage, orphanVideo}).Return()

	// Act
	removed, err := sweeper.Sweep(ctx)

	// Assert - свежий файл может принадлежать незавершённому запросу
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	files.AssertExpectations(t)
}

func TestMediaSweeper_Sweep_NothingToRemove(t *testing.T) {
	ctx := context.Background()
	refs := new(MockReferenceSource)
	files := new(MockMediaStore)
	sweeper := newTestSweeper(refs, files)

	refs.On("ReferencedFiles", ctx).Return(map[string]struct{}{"a.png": {}}, nil)
	files.On("List").Return([]media.FileInfo{{Name: "a.png", ModTime: sweepNow.Add(-time.Hour * 24)}}, nil)

	removed, err := sweeper.Sweep(ctx)

	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	files.AssertNotCalled(t, "Remove", mock.Anything)
}

func TestMediaSweeper_Sweep_KeepsForeignFiles(t *testing.T) {
	ctx := context.Background()
	refs := new(MockReferenceSource)
	files := new(MockMediaStore)
	sweeper := newTestSweeper(refs, files)

	refs.On("ReferencedFiles", ctx).Return(map[string]struct{}{}, nil)
	files.On("List").Return([]media.FileInfo{
		{Name: "favicon.ico", ModTime: sweepNow.Add(-48 * time.Hour)},
		{Name: "logo.png", ModTime: sweepNow.Add(-48 * time.Hour)},
		{Name: orphanImage, ModTime: sweepNow.Add(-48 * time.Hour)},
	}, nil)
	files.On("Remove", []string{orphanImage}).Return()

	removed, err := sweeper.Sweep(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	files.AssertExpectations(t)
}

func TestMediaSweeper_Sweep_ReferenceError(t *testing.T) {
	ctx := context.Background()
	refs := new(MockReferenceSource)
	files := new(MockMediaStore)
	sweeper := newTestSweeper(refs, files)

	refs.On("ReferencedFiles", ctx).Return(nil, errors.New("database unavailable"))

	_, err := sweeper.Sweep(ctx)

	// Assert - без списка ссылок ничего не удаляется
	assert.Error(t, err)
	files.AssertNotCalled(t, "List")
	files.AssertNotCalled(t, "Remove", mock.Anything)
}

// ===================== Start Tests =====================

func TestMediaSweeper_Start(t *testing.T) {
	sweeper := newTestSweeper(new(MockReferenceSource), new(MockMediaStore))

	err := sweeper.Start(context.Background(), "@every 6h")
	require.NoError(t, err)
	defer sweeper.Stop()

	assert.Len(t, sweeper.GetEntries(), 1)
}

func TestMediaSweeper_Start_InvalidSchedule(t *testing.T) {
	sweeper := newTestSweeper(new(MockReferenceSource), new(MockMediaStore))

	err := sweeper.Start(context.Background(), "not a schedule")

	assert.Error(t, err)
	assert.Empty(t, sweeper.GetEntries())
}
