// File: internal/guide/model.go
package guide

import (
	"time"

	"guidecheck_backend/internal/common"

	"github.com/google/uuid"
)

// Guide represents one guide collection (a directory with a README index).
type Guide struct {
	common.BaseModel
	Slug         string    `gorm:"type:varchar(150);not null;uniqueIndex:idx_guides_slug,unique"`
	Title        string    `gorm:"type:varchar(255);not null"`
	Path         string    `gorm:"type:varchar(512);not null;uniqueIndex:idx_guides_path,unique"`
	Chapters     []Chapter `gorm:"foreignKey:GuideID;constraint:OnDelete:CASCADE;"`
	ChapterCount int       `gorm:"column:chapter_count;->"` // read-only, no writes
}

// TableName specifies the table name for the Guide model.
func (Guide) TableName() string {
	return "guides"
}

// Chapter represents one Markdown chapter file within a guide.
type Chapter struct {
	common.BaseModel
	GuideID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_chapters_guide_id_path,unique,composite:unique_path_in_guide"`
	Guide          *Guide    `gorm:"foreignKey:GuideID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Slug           string    `gorm:"type:varchar(150);not null"`
	Title          string    `gorm:"type:varchar(255);not null"`
	Number         int       `gorm:"not null;default:0"`
	Path           string    `gorm:"type:varchar(512);not null;uniqueIndex:idx_chapters_guide_id_path,unique,composite:unique_path_in_guide"`
	WordCount      int       `gorm:"not null;default:0"`
	LinkCount      int       `gorm:"not null;default:0"`
	CodeFenceCount int       `gorm:"not null;default:0"`
}

// TableName specifies the table name for the Chapter model.
func (Chapter) TableName() string {
	return "chapters"
}

// --- DTOs ---

// GuideResponse defines the structure for guide data sent in API responses.
type GuideResponse struct {
	ID           uuid.UUID         `json:"id"`
	Slug         string            `json:"slug"`
	Title        string            `json:"title"`
	Path         string            `json:"path"`
	ChapterCount int               `json:"chapter_count"`
	Chapters     []ChapterResponse `json:"chapters,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// ChapterResponse defines the structure for chapter data.
type ChapterResponse struct {
	ID             uuid.UUID `json:"id"`
	GuideID        uuid.UUID `json:"guide_id"`
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Number         int       `json:"number"`
	Path           string    `json:"path"`
	WordCount      int       `json:"word_count"`
	LinkCount      int       `json:"link_count"`
	CodeFenceCount int       `json:"code_fence_count"`
	GuideSlug      string    `json:"guide_slug,omitempty"`
	GuideTitle     string    `json:"guide_title,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ToGuideResponse converts a Guide model to a GuideResponse DTO.
func ToGuideResponse(g *Guide) GuideResponse {
	chapterDTOs := make([]ChapterResponse, len(g.Chapters))
	for i, ch := range g.Chapters {
		chapterDTOs[i] = ToChapterResponse(&ch)
	}
	chapterCount := g.ChapterCount
	if chapterCount == 0 && len(g.Chapters) > 0 {
		chapterCount = len(g.Chapters)
	}
	return GuideResponse{
		ID:           g.ID,
		Slug:         g.Slug,
		Title:        g.Title,
		Path:         g.Path,
		ChapterCount: chapterCount,
		Chapters:     chapterDTOs,
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}
}

// ToChapterResponse converts a Chapter model to a ChapterResponse DTO.
func ToChapterResponse(ch *Chapter) ChapterResponse {
	resp := ChapterResponse{
		ID:             ch.ID,
		GuideID:        ch.GuideID,
		Slug:           ch.Slug,
		Title:          ch.Title,
		Number:         ch.Number,
		Path:           ch.Path,
		WordCount:      ch.WordCount,
		LinkCount:      ch.LinkCount,
		CodeFenceCount: ch.CodeFenceCount,
		CreatedAt:      ch.CreatedAt,
		UpdatedAt:      ch.UpdatedAt,
	}
	if ch.Guide != nil {
		resp.GuideSlug = ch.Guide.Slug
		resp.GuideTitle = ch.Guide.Title
	}
	return resp
}
