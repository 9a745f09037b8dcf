// File: internal/guide/repository.go
package guide

import (
	"context"
	"errors"
	"strings"

	"guidecheck_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for guide and chapter catalog operations.
type Repository interface {
	// ReplaceCatalog swaps the whole catalog for the guides produced by the
	// latest scan, in a single transaction.
	ReplaceCatalog(ctx context.Context, guides []Guide) error

	FindAllGuides(ctx context.Context, preloadChapters bool) ([]Guide, error)
	FindGuideByID(ctx context.Context, id uuid.UUID, preloadChapters bool) (*Guide, error)
	FindGuideBySlug(ctx context.Context, slug string, preloadChapters bool) (*Guide, error)
	FindChapterByID(ctx context.Context, id uuid.UUID) (*Chapter, error)
	FindChaptersByIDs(ctx context.Context, ids []uuid.UUID) ([]Chapter, error)
	SearchChapters(ctx context.Context, query string, page, pageSize int) ([]Chapter, *common.Pagination, error)
	CountChapters(ctx context.Context) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM guide repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) ReplaceCatalog(ctx context.Context, guides []Guide) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Chapters go first: the sqlite used in tests does not enforce the
		// cascading FK the postgres schema has.
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Chapter{}).Error; err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Guide{}).Error; err != nil {
			return err
		}
		for i := range guides {
			if err := tx.Create(&guides[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *gormRepository) FindAllGuides(ctx context.Context, preloadChapters bool) ([]Guide, error) {
	var guides []Guide
	query := r.db.WithContext(ctx).Model(&Guide{})

	subQuery := r.db.Model(&Chapter{}).
		Select("count(*)").
		Where("chapters.guide_id = guides.id")
	query = query.Select("guides.*, (?) as chapter_count", subQuery)

	if preloadChapters {
		query = query.Preload("Chapters", func(db *gorm.DB) *gorm.DB {
			return db.Order("chapters.number ASC, chapters.path ASC")
		})
	}

	err := query.Order("guides.path ASC").Find(&guides).Error
	if err != nil {
		return nil, err
	}
	return guides, nil
}

func (r *gormRepository) FindGuideByID(ctx context.Context, id uuid.UUID, preloadChapters bool) (*Guide, error) {
	return r.findGuide(ctx, "id = ?", id, preloadChapters)
}

func (r *gormRepository) FindGuideBySlug(ctx context.Context, slug string, preloadChapters bool) (*Guide, error) {
	normalizedSlug := strings.ToLower(strings.TrimSpace(slug))
	return r.findGuide(ctx, "slug = ?", normalizedSlug, preloadChapters)
}

func (r *gormRepository) findGuide(ctx context.Context, cond string, value interface{}, preloadChapters bool) (*Guide, error) {
	var g Guide
	query := r.db.WithContext(ctx)
	if preloadChapters {
		query = query.Preload("Chapters", func(db *gorm.DB) *gorm.DB {
			return db.Order("chapters.number ASC, chapters.path ASC")
		})
	}
	err := query.First(&g, cond, value).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Guide not found.")
		}
		return nil, err
	}
	return &g, nil
}

func (r *gormRepository) FindChapterByID(ctx context.Context, id uuid.UUID) (*Chapter, error) {
	var ch Chapter
	err := r.db.WithContext(ctx).Preload("Guide").First(&ch, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Chapter not found.")
		}
		return nil, err
	}
	return &ch, nil
}

func (r *gormRepository) FindChaptersByIDs(ctx context.Context, ids []uuid.UUID) ([]Chapter, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var chapters []Chapter
	err := r.db.WithContext(ctx).Preload("Guide").Where("id IN ?", ids).Find(&chapters).Error
	if err != nil {
		return nil, err
	}

	// Preserve the caller's (search relevance) order.
	byID := make(map[uuid.UUID]Chapter, len(chapters))
	for _, ch := range chapters {
		byID[ch.ID] = ch
	}
	ordered := make([]Chapter, 0, len(chapters))
	for _, id := range ids {
		if ch, ok := byID[id]; ok {
			ordered = append(ordered, ch)
		}
	}
	return ordered, nil
}

func (r *gormRepository) SearchChapters(ctx context.Context, query string, page, pageSize int) ([]Chapter, *common.Pagination, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	base := r.db.WithContext(ctx).Model(&Chapter{}).
		Where("lower(title) LIKE ? OR lower(path) LIKE ? OR lower(slug) LIKE ?", pattern, pattern, pattern)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	var chapters []Chapter
	err := base.Preload("Guide").
		Order("chapters.path ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&chapters).Error
	if err != nil {
		return nil, nil, err
	}

	return chapters, common.NewPagination(total, page, pageSize), nil
}

func (r *gormRepository) CountChapters(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&Chapter{}).Count(&total).Error
	return total, err
}
