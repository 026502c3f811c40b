package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/openassess/testing-service/internal/cache"
	"github.com/openassess/testing-service/internal/events"
	"github.com/openassess/testing-service/internal/models"
	"github.com/openassess/testing-service/internal/validator"
)

// memoryCache is a map-backed CacheService for tests
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	return nil
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *memoryCache) DeletePattern(ctx context.Context, pattern string) error {
	return nil
}

func newTestTestService(repo *MockRepository) (TestService, *memoryCache) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	memCache := newMemoryCache()
	publisher := events.NewMockEventPublisher(logger)
	return NewTestService(repo, logger, validator.New(), memCache, publisher), memCache
}

func TestTestService_Create(t *testing.T) {
	repo := newMockRepository()
	service, _ := newTestTestService(repo)

	repo.testRepo.On("Create", mock.Anything, mock.MatchedBy(func(test *models.Test) bool {
		return test.Name == "Algebra Quiz" && test.Link != "" && test.IsActive && test.ShowResult
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Test).ID = 3
	}).Return(nil)
	repo.testRepo.On("AddQuestions", mock.Anything, uint(3), []uint{10, 20}).Return(nil)

	test, err := service.Create(context.Background(), &CreateTestRequest{
		Name:                "Algebra Quiz",
		QuestionRevisionIDs: []uint{10, 20},
	}, "creator-1")
	require.NoError(t, err)

	assert.Equal(t, uint(3), test.ID)
	assert.Equal(t, 1, test.NoOfAttempts)
	assert.NotEmpty(t, test.Link)

	repo.assertExpectations(t)
}

func TestTestService_Create_RandomCountExceedsQuestions(t *testing.T) {
	repo := newMockRepository()
	service, _ := newTestTestService(repo)

	_, err := service.Create(context.Background(), &CreateTestRequest{
		Name:                "Sampled Quiz",
		RandomQuestions:     true,
		NoOfRandomQuestions: intPtr(5),
		QuestionRevisionIDs: []uint{10, 20},
	}, "creator-1")

	assert.Error(t, err)
}

func TestTestService_GetByLink_CachesResult(t *testing.T) {
	repo := newMockRepository()
	service, memCache := newTestTestService(repo)

	test := activeTest(1)
	test.Link = "link-token"
	repo.testRepo.On("GetByLink", mock.Anything, "link-token").Return(test, nil).Once()

	// First call misses and populates the cache.
	got, err := service.GetByLink(context.Background(), "link-token")
	require.NoError(t, err)
	assert.Equal(t, uint(1), got.ID)
	assert.Contains(t, memCache.entries, "test:link:link-token")

	// Second call is served from cache; the mock would panic on a second
	// repository hit.
	got, err = service.GetByLink(context.Background(), "link-token")
	require.NoError(t, err)
	assert.Equal(t, uint(1), got.ID)

	repo.assertExpectations(t)
}

func TestTestService_GetByLink_NotFound(t *testing.T) {
	repo := newMockRepository()
	service, _ := newTestTestService(repo)

	repo.testRepo.On("GetByLink", mock.Anything, "missing").Return(nil, gorm.ErrRecordNotFound)

	_, err := service.GetByLink(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTestLinkNotFound)
}

func TestTestService_Update_InvalidatesLink(t *testing.T) {
	repo := newMockRepository()
	service, memCache := newTestTestService(repo)

	test := activeTest(1)
	test.Link = "link-token"
	memCache.Set(context.Background(), "test:link:link-token", test, time.Minute)

	repo.testRepo.On("GetByID", mock.Anything, uint(1)).Return(test, nil)
	repo.testRepo.On("CountQuestions", mock.Anything, uint(1)).Return(4, nil)
	repo.testRepo.On("Update", mock.Anything, mock.AnythingOfType("*models.Test")).Return(nil)

	name := "Renamed"
	_, err := service.Update(context.Background(), 1, &UpdateTestRequest{Name: &name})
	require.NoError(t, err)

	assert.NotContains(t, memCache.entries, "test:link:link-token")
}

func TestTestService_Delete_SoftDeletes(t *testing.T) {
	repo := newMockRepository()
	service, _ := newTestTestService(repo)

	test := activeTest(1)
	repo.testRepo.On("GetByID", mock.Anything, uint(1)).Return(test, nil)
	repo.testRepo.On("SoftDelete", mock.Anything, uint(1)).Return(nil)

	require.NoError(t, service.Delete(context.Background(), 1))
	repo.assertExpectations(t)
}

func TestTestService_AddQuestions_UnknownRevision(t *testing.T) {
	repo := newMockRepository()
	service, _ := newTestTestService(repo)

	repo.testRepo.On("GetByID", mock.Anything, uint(1)).Return(activeTest(1), nil)
	repo.revisionRepo.On("GetByIDs", mock.Anything, []uint{10, 99}).
		Return([]*models.QuestionRevision{{ID: 10}}, nil)

	err := service.AddQuestions(context.Background(), 1, []uint{10, 99})
	assert.ErrorIs(t, err, ErrRevisionNotFound)
}
