package domain

import (
	"context"
	"time"
)

type Post struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Excerpt   string    `gorm:"type:text" json:"excerpt"`
	Slug      string    `gorm:"uniqueIndex;size:191;not null" json:"slug"`
	Published bool      `gorm:"not null;index" json:"published"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Post) TableName() string { return "posts" }

type PostRepository interface {
	Create(ctx context.Context, p *Post) error
	FindByID(ctx context.Context, id string) (*Post, error)
	FindBySlug(ctx context.Context, slug string, publishedOnly bool) (*Post, error)
	List(ctx context.Context, publishedOnly bool) ([]Post, error)
	// Update overwrites every mutable column, including both timestamps.
	Update(ctx context.Context, p *Post) error
	Delete(ctx context.Context, id string) (int64, error)
}
