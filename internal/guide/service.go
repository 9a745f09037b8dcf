// File: internal/guide/service.go
package guide

import (
	"context"
	"fmt"
	"strings"

	"guidecheck_backend/internal/common"
	"guidecheck_backend/internal/config"
	"guidecheck_backend/internal/content"
	platformES "guidecheck_backend/internal/platform/elasticsearch"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// Service defines the interface for catalog business logic.
type Service interface {
	GetAllGuides(ctx context.Context, preloadChapters bool) ([]Guide, error)
	GetGuideByID(ctx context.Context, id uuid.UUID, preloadChapters bool) (*Guide, error)
	GetGuideBySlug(ctx context.Context, slug string, preloadChapters bool) (*Guide, error)
	GetChapterByID(ctx context.Context, id uuid.UUID) (*Chapter, error)
	SearchChapters(ctx context.Context, query string, page, pageSize int) ([]Chapter, *common.Pagination, error)

	// BuildCatalog maps a parsed workspace into catalog models.
	BuildCatalog(ws *content.Workspace) []Guide
	// ReplaceCatalog swaps the stored catalog for the given guides.
	ReplaceCatalog(ctx context.Context, guides []Guide) error
	// SyncSearchIndex pushes the catalog's chapters into Elasticsearch.
	// A no-op without a configured client.
	SyncSearchIndex(ctx context.Context, guides []Guide) error
}

type service struct {
	repo   Repository
	es     *platformES.ESClientWrapper
	logger *zap.Logger
	config *config.Config
}

// NewService creates a new guide catalog service.
func NewService(repo Repository, es *platformES.ESClientWrapper, logger *zap.Logger, cfg *config.Config) Service {
	return &service{
		repo:   repo,
		es:     es,
		logger: logger,
		config: cfg,
	}
}

func (s *service) GetAllGuides(ctx context.Context, preloadChapters bool) ([]Guide, error) {
	guides, err := s.repo.FindAllGuides(ctx, preloadChapters)
	if err != nil {
		s.logger.Error("Failed to get all guides", zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not retrieve guides.")
	}
	return guides, nil
}

func (s *service) GetGuideByID(ctx context.Context, id uuid.UUID, preloadChapters bool) (*Guide, error) {
	return s.repo.FindGuideByID(ctx, id, preloadChapters)
}

func (s *service) GetGuideBySlug(ctx context.Context, slugToFind string, preloadChapters bool) (*Guide, error) {
	return s.repo.FindGuideBySlug(ctx, slugToFind, preloadChapters)
}

func (s *service) GetChapterByID(ctx context.Context, id uuid.UUID) (*Chapter, error) {
	return s.repo.FindChapterByID(ctx, id)
}

func (s *service) SearchChapters(ctx context.Context, query string, page, pageSize int) ([]Chapter, *common.Pagination, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil, common.ErrBadRequest.WithDetails("Search query 'q' is required.")
	}

	if s.es != nil {
		chapters, pagination, err := s.searchViaElasticsearch(ctx, query, page, pageSize)
		if err == nil {
			return chapters, pagination, nil
		}
		// The catalog in the database is authoritative; an unhealthy index
		// degrades search, it must not break it.
		s.logger.Warn("Elasticsearch chapter search failed, falling back to database",
			zap.String("query", query), zap.Error(err))
	}

	chapters, pagination, err := s.repo.SearchChapters(ctx, query, page, pageSize)
	if err != nil {
		s.logger.Error("Database chapter search failed", zap.String("query", query), zap.Error(err))
		return nil, nil, common.ErrInternalServer.WithDetails("Chapter search failed.")
	}
	return chapters, pagination, nil
}

func (s *service) searchViaElasticsearch(ctx context.Context, query string, page, pageSize int) ([]Chapter, *common.Pagination, error) {
	ids, total, err := searchChapterIDs(ctx, s.es, query, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, nil, err
	}
	chapters, err := s.repo.FindChaptersByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return chapters, common.NewPagination(total, page, pageSize), nil
}

// BuildCatalog maps a parsed workspace into Guide/Chapter models. Slugs are
// derived from directory and file names so they stay stable across scans;
// titles fall back to names when a document has no H1.
func (s *service) BuildCatalog(ws *content.Workspace) []Guide {
	usedSlugs := map[string]int{}
	guides := make([]Guide, 0, len(ws.Guides))

	for _, gd := range ws.Guides {
		title := gd.DirName
		if gd.Index != nil && gd.Index.Title != "" {
			title = gd.Index.Title
		}

		slugSource := gd.Path
		if slugSource == "." {
			slugSource = gd.DirName
		}
		g := Guide{
			Slug:  uniqueSlug(usedSlugs, slug.Make(slugSource)),
			Title: strings.TrimSpace(title),
			Path:  gd.Path,
		}

		g.Chapters = make([]Chapter, 0, len(gd.Chapters))
		for _, ch := range gd.Chapters {
			chTitle := ch.Title
			base := strings.TrimSuffix(baseNameOf(ch.Path), ".md")
			if chTitle == "" {
				chTitle = base
			}
			g.Chapters = append(g.Chapters, Chapter{
				Slug:           slug.Make(base),
				Title:          strings.TrimSpace(chTitle),
				Number:         ch.Number,
				Path:           ch.Path,
				WordCount:      ch.WordCount,
				LinkCount:      len(ch.Links),
				CodeFenceCount: len(ch.Fences),
			})
		}
		guides = append(guides, g)
	}
	return guides
}

func (s *service) ReplaceCatalog(ctx context.Context, guides []Guide) error {
	if err := s.repo.ReplaceCatalog(ctx, guides); err != nil {
		s.logger.Error("Failed to replace catalog", zap.Error(err), zap.Int("guides", len(guides)))
		return err
	}
	s.logger.Info("Catalog replaced", zap.Int("guides", len(guides)))
	return nil
}

func (s *service) SyncSearchIndex(ctx context.Context, guides []Guide) error {
	if s.es == nil {
		return nil
	}
	failed, err := BulkIndexChapters(ctx, s.es, guides, s.logger)
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d chapters failed to index", failed)
	}
	return nil
}

func uniqueSlug(seen map[string]int, base string) string {
	if base == "" {
		base = "guide"
	}
	count := seen[base]
	seen[base] = count + 1
	if count == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, count)
}

func baseNameOf(relPath string) string {
	if i := strings.LastIndexByte(relPath, '/'); i >= 0 {
		return relPath[i+1:]
	}
	return relPath
}
