// File: internal/guide/service_test.go
package guide

import (
	"context"
	"errors"
	"testing"

	"guidecheck_backend/internal/common"
	"guidecheck_backend/internal/config"
	"guidecheck_backend/internal/content"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockGuideRepository is a mock type for guide.Repository
type MockGuideRepository struct {
	mock.Mock
}

func (m *MockGuideRepository) ReplaceCatalog(ctx context.Context, guides []Guide) error {
	args := m.Called(ctx, guides)
	return args.Error(0)
}

func (m *MockGuideRepository) FindAllGuides(ctx context.Context, preloadChapters bool) ([]Guide, error) {
	args := m.Called(ctx, preloadChapters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Guide), args.Error(1)
}

func (m *MockGuideRepository) FindGuideByID(ctx context.Context, id uuid.UUID, preloadChapters bool) (*Guide, error) {
	args := m.Called(ctx, id, preloadChapters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Guide), args.Error(1)
}

func (m *MockGuideRepository) FindGuideBySlug(ctx context.Context, slug string, preloadChapters bool) (*Guide, error) {
	args := m.Called(ctx, slug, preloadChapters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Guide), args.Error(1)
}

func (m *MockGuideRepository) FindChapterByID(ctx context.Context, id uuid.UUID) (*Chapter, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Chapter), args.Error(1)
}

func (m *MockGuideRepository) FindChaptersByIDs(ctx context.Context, ids []uuid.UUID) ([]Chapter, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Chapter), args.Error(1)
}

func (m *MockGuideRepository) SearchChapters(ctx context.Context, query string, page, pageSize int) ([]Chapter, *common.Pagination, error) {
	args := m.Called(ctx, query, page, pageSize)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]Chapter), args.Get(1).(*common.Pagination), args.Error(2)
}

func (m *MockGuideRepository) CountChapters(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func newTestService(repo Repository) Service {
	return NewService(repo, nil, zap.NewNop(), &config.Config{})
}

func TestBuildCatalogMapsWorkspace(t *testing.T) {
	ws := &content.Workspace{
		Root: "/docs",
		Guides: []content.GuideDir{
			{
				Path:    "go-basics",
				DirName: "go-basics",
				Index:   &content.Document{Path: "go-basics/README.md", Title: "Go Basics"},
				Chapters: []*content.Document{
					{
						Path:      "go-basics/01-setup.md",
						Title:     "Setting Up",
						Number:    1,
						WordCount: 120,
						Links:     []content.Link{{Target: "02-tools.md"}},
						Fences:    []content.Fence{{Language: "go"}, {Language: "bash"}},
					},
					{Path: "go-basics/appendix.md", Number: 0},
				},
			},
		},
	}

	svc := newTestService(new(MockGuideRepository))
	guides := svc.BuildCatalog(ws)

	require.Len(t, guides, 1)
	g := guides[0]
	assert.Equal(t, "go-basics", g.Slug)
	assert.Equal(t, "Go Basics", g.Title)
	assert.Equal(t, "go-basics", g.Path)

	require.Len(t, g.Chapters, 2)
	assert.Equal(t, "01-setup", g.Chapters[0].Slug)
	assert.Equal(t, "Setting Up", g.Chapters[0].Title)
	assert.Equal(t, 1, g.Chapters[0].Number)
	assert.Equal(t, 120, g.Chapters[0].WordCount)
	assert.Equal(t, 1, g.Chapters[0].LinkCount)
	assert.Equal(t, 2, g.Chapters[0].CodeFenceCount)

	// Untitled chapters fall back to the filename base.
	assert.Equal(t, "appendix", g.Chapters[1].Title)
	assert.Equal(t, "appendix", g.Chapters[1].Slug)
}

func TestBuildCatalogRootGuideAndFallbackTitle(t *testing.T) {
	ws := &content.Workspace{
		Guides: []content.GuideDir{
			{Path: ".", DirName: "handbook", Index: &content.Document{Path: "README.md"}},
		},
	}

	svc := newTestService(new(MockGuideRepository))
	guides := svc.BuildCatalog(ws)

	require.Len(t, guides, 1)
	assert.Equal(t, "handbook", guides[0].Slug)
	assert.Equal(t, "handbook", guides[0].Title)
	assert.Equal(t, ".", guides[0].Path)
}

func TestBuildCatalogDeduplicatesSlugs(t *testing.T) {
	ws := &content.Workspace{
		Guides: []content.GuideDir{
			{Path: "a/intro", DirName: "intro", Index: &content.Document{Title: "Intro A"}},
			{Path: "a-intro", DirName: "a-intro", Index: &content.Document{Title: "Intro B"}},
		},
	}

	svc := newTestService(new(MockGuideRepository))
	guides := svc.BuildCatalog(ws)

	require.Len(t, guides, 2)
	assert.Equal(t, "a-intro", guides[0].Slug)
	assert.Equal(t, "a-intro-1", guides[1].Slug)
}

func TestSearchChaptersRequiresQuery(t *testing.T) {
	svc := newTestService(new(MockGuideRepository))
	_, _, err := svc.SearchChapters(context.Background(), "   ", 1, 20)
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "BAD_REQUEST", apiErr.Code)
}

func TestSearchChaptersUsesDatabaseWithoutElasticsearch(t *testing.T) {
	mockRepo := new(MockGuideRepository)
	expected := []Chapter{{Title: "Setup"}}
	pagination := common.NewPagination(1, 1, 20)
	mockRepo.On("SearchChapters", mock.Anything, "setup", 1, 20).Return(expected, pagination, nil)

	svc := newTestService(mockRepo)
	chapters, p, err := svc.SearchChapters(context.Background(), "setup", 1, 20)

	require.NoError(t, err)
	assert.Equal(t, expected, chapters)
	assert.Equal(t, pagination, p)
	mockRepo.AssertExpectations(t)
}

func TestGetAllGuidesWrapsRepositoryErrors(t *testing.T) {
	mockRepo := new(MockGuideRepository)
	mockRepo.On("FindAllGuides", mock.Anything, false).Return(nil, errors.New("db down"))

	svc := newTestService(mockRepo)
	_, err := svc.GetAllGuides(context.Background(), false)

	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", apiErr.Code)
}

func TestReplaceCatalogDelegatesToRepository(t *testing.T) {
	mockRepo := new(MockGuideRepository)
	guides := []Guide{{Slug: "g", Title: "G", Path: "g"}}
	mockRepo.On("ReplaceCatalog", mock.Anything, guides).Return(nil)

	svc := newTestService(mockRepo)
	require.NoError(t, svc.ReplaceCatalog(context.Background(), guides))
	mockRepo.AssertExpectations(t)
}

func TestSyncSearchIndexIsNoOpWithoutClient(t *testing.T) {
	svc := newTestService(new(MockGuideRepository))
	assert.NoError(t, svc.SyncSearchIndex(context.Background(), []Guide{{Slug: "g"}}))
}
