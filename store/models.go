package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"

	"github.com/sebkrier/alexandria-sub000/types"
)

// User exists only as the scoping root for every other row. Auth and
// session mechanics live outside this service.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
}

// Article is the persistent record of one ingested item. ExtractedText is
// the only authoritative copy of content; search_vector is maintained by a
// database trigger and deliberately absent from this model so application
// code can never write it.
type Article struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	SourceType       types.SourceType `gorm:"size:16;not null" json:"source_type"`
	OriginalURL      string           `gorm:"size:2000" json:"original_url"`
	FilePath         string           `gorm:"size:1024" json:"file_path,omitempty"`
	Title            string           `gorm:"size:500;not null" json:"title"`
	Authors          datatypes.JSON   `gorm:"type:jsonb" json:"authors"`
	PublicationDate  *time.Time       `json:"publication_date"`
	ExtractedText    string           `gorm:"type:text" json:"-"`
	WordCount        int              `gorm:"default:0" json:"word_count"`
	Summary          *string          `gorm:"type:text" json:"summary"`
	SummaryModel     string           `gorm:"size:128" json:"summary_model,omitempty"`
	ColorID          *uint            `json:"color_id,omitempty"`
	ArticleMetadata  datatypes.JSON   `gorm:"type:jsonb" json:"article_metadata"`
	ProcessingStatus types.ProcessingStatus `gorm:"size:16;not null;default:pending;index" json:"processing_status"`
	ProcessingError  *string                `gorm:"type:text" json:"processing_error,omitempty"`
	Embedding        *pgvector.Vector       `gorm:"type:vector(768)" json:"-"`
	IsRead           bool                   `gorm:"default:false" json:"is_read"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`

	Categories []ArticleCategory `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE" json:"-"`
	Tags       []ArticleTag      `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE" json:"-"`
	Notes      []Note            `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE" json:"-"`
}

// ReadingTimeMinutes is derived on read at 200 wpm, minimum 1.
func (a *Article) ReadingTimeMinutes() int {
	return types.ReadingTimeMinutes(a.WordCount)
}

// AuthorList decodes the jsonb authors column into an ordered slice.
func (a *Article) AuthorList() []string {
	if len(a.Authors) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(a.Authors, &out); err != nil {
		return nil
	}
	return out
}

// SetAuthors encodes the ordered author list into the jsonb column.
func (a *Article) SetAuthors(authors []string) {
	if authors == nil {
		authors = []string{}
	}
	b, _ := json.Marshal(authors)
	a.Authors = b
}

// Category is a node in a self-referential tree at most two levels deep:
// roots (parent_id null) and subcategories. Articles attach to
// subcategories, or to a root only when no subcategory applies.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index:idx_categories_user_name,unique" json:"user_id"`
	Name        string    `gorm:"size:255;not null;index:idx_categories_user_name,unique" json:"name"`
	ParentID    *uint     `gorm:"index:idx_categories_user_name,unique" json:"parent_id"`
	Description string    `gorm:"size:1000" json:"description,omitempty"`
	Position    int       `gorm:"default:0" json:"position"`
	CreatedAt   time.Time `json:"created_at"`

	Children []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}

// Tag is flat and per-user unique by name.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_tags_user_name,unique" json:"user_id"`
	Name      string    `gorm:"size:255;not null;index:idx_tags_user_name,unique" json:"name"`
	Color     string    `gorm:"size:16" json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ArticleCategory links an article to a category. Exactly one association
// per article should carry IsPrimary after re-categorization.
type ArticleCategory struct {
	ArticleID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	CategoryID    uint      `gorm:"primaryKey"`
	IsPrimary     bool      `gorm:"default:false"`
	SuggestedByAI bool      `gorm:"default:false"`
}

// ArticleTag links an article to a tag with AI provenance.
type ArticleTag struct {
	ArticleID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	TagID         uint      `gorm:"primaryKey"`
	SuggestedByAI bool      `gorm:"default:false"`
}

// Note is free-form user text attached to an article.
type Note struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ArticleID uuid.UUID `gorm:"type:uuid;not null;index" json:"article_id"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// AIProvider is one per-user LLM backend configuration. The API key is
// stored encrypted and decrypted only at call time, never logged.
type AIProvider struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ProviderType    string    `gorm:"size:32;not null" json:"provider_type"` // anthropic|openai|google
	Name            string    `gorm:"size:255" json:"name"`
	ModelID         string    `gorm:"size:128" json:"model_id"`
	EncryptedAPIKey string    `gorm:"type:text" json:"-"`
	IsDefault       bool      `gorm:"default:false" json:"is_default"`
	IsActive        bool      `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}
